package chainbase

// tableSession is implemented by every *Table[T, PT] without exposing its
// type parameters, letting Database fan a single Session stack out across
// heterogeneous tables (spec §4.1 "Undo sessions span the whole database").
type tableSession interface {
	pushFrame()
	popFrameCommit()
	popFrameSquash()
	popFrameUndo()
}

// Session is one nested undo scope spanning every table registered with a
// Database. Sessions nest: Begin pushes a new frame on every table, and only
// the topmost session may be Committed, Squashed or Undone (spec §7).
type Session struct {
	db     *Database
	closed bool
}

// Begin opens a new nested session. Every subsequent Create/Modify/Remove
// against any table registered with db is recorded against this session
// until it is closed by Commit, Squash or Undo.
func (db *Database) Begin() *Session {
	for _, t := range db.tables {
		t.pushFrame()
	}
	s := &Session{db: db}
	db.stack = append(db.stack, s)
	return s
}

func (s *Session) requireTop() error {
	if s.closed {
		return ErrSessionMismatch
	}
	stack := s.db.stack
	if len(stack) == 0 || stack[len(stack)-1] != s {
		return ErrSessionMismatch
	}
	return nil
}

// Commit merges this session's changes into its parent session (or makes
// them permanent if this was the outermost session), keeping the underlying
// mutations in place.
func (s *Session) Commit() error {
	if err := s.requireTop(); err != nil {
		return err
	}
	for _, t := range s.db.tables {
		t.popFrameCommit()
	}
	s.db.stack = s.db.stack[:len(s.db.stack)-1]
	s.closed = true
	return nil
}

// Squash merges this session's undo bookkeeping into its parent; it is
// functionally identical to Commit at the chainbase layer, so squashing the
// outermost session makes its changes permanent just as Commit does.
func (s *Session) Squash() error {
	if err := s.requireTop(); err != nil {
		return err
	}
	for _, t := range s.db.tables {
		t.popFrameSquash()
	}
	s.db.stack = s.db.stack[:len(s.db.stack)-1]
	s.closed = true
	return nil
}

// Undo reverts every Create/Modify/Remove recorded in this session, in every
// registered table, then closes it.
func (s *Session) Undo() error {
	if err := s.requireTop(); err != nil {
		return err
	}
	for _, t := range s.db.tables {
		t.popFrameUndo()
	}
	s.db.stack = s.db.stack[:len(s.db.stack)-1]
	s.closed = true
	return nil
}

// UndoAll unwinds every open session on the database, outermost last.
func (db *Database) UndoAll() error {
	for len(db.stack) > 0 {
		top := db.stack[len(db.stack)-1]
		if err := top.Undo(); err != nil {
			return err
		}
	}
	return nil
}
