package chainbase

// Database is the registry of every table participating in a shared session
// stack. Services register their tables with a Database at construction
// time; the pipeline package opens and closes Sessions against it once per
// transaction and once per block (spec §4.1, §4.8).
type Database struct {
	tables []tableSession
	stack  []*Session
}

// NewDatabase returns an empty table registry.
func NewDatabase() *Database {
	return &Database{}
}

// Register adds a table to the database's session fan-out. It must be
// called before any Session is opened; tables registered after a Session
// has begun would miss that session's frame and desync from the rest of the
// database on Undo.
func Register[T any, PT interface {
	*T
	Keyed
}](db *Database, t *Table[T, PT]) {
	db.tables = append(db.tables, t)
}

// Depth reports how many nested sessions are currently open.
func (db *Database) Depth() int {
	return len(db.stack)
}
