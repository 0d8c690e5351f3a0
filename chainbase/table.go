package chainbase

import "fmt"

// frame is one undo session's worth of changes recorded against a single
// table. Undoing a frame restores every record it touched to its pre-image
// and rewinds the id counter past any ids the frame created (spec §7).
type frame[T any, PT interface {
	*T
	Keyed
}] struct {
	savedNextID ID
	created     map[ID]struct{}
	modified    map[ID]PT // pre-images, captured once per id per frame
	removed     map[ID]PT // pre-images of records deleted in this frame
}

func newFrame[T any, PT interface {
	*T
	Keyed
}](nextID ID) *frame[T, PT] {
	return &frame[T, PT]{
		savedNextID: nextID,
		created:     make(map[ID]struct{}),
		modified:    make(map[ID]PT),
		removed:     make(map[ID]PT),
	}
}

// Table is a typed chainbase table: a primary map keyed by ID plus any
// number of declared secondary indices, mutated only while a Session frame
// is pushed onto it (spec §4.1 "Lifecycle rules").
type Table[T any, PT interface {
	*T
	Keyed
}] struct {
	name    string
	rows    map[ID]PT
	nextID  ID
	indices []*Index[T, PT]
	frames  []*frame[T, PT]
}

// NewTable constructs an empty table. Secondary indices must be declared up
// front; every index is maintained on every Create/Modify/Remove.
func NewTable[T any, PT interface {
	*T
	Keyed
}](name string, indices ...*Index[T, PT]) *Table[T, PT] {
	return &Table[T, PT]{
		name:    name,
		rows:    make(map[ID]PT),
		nextID:  1,
		indices: indices,
	}
}

func (t *Table[T, PT]) topFrame() *frame[T, PT] {
	if len(t.frames) == 0 {
		return nil
	}
	return t.frames[len(t.frames)-1]
}

func (t *Table[T, PT]) indexKeys(row PT) [][]byte {
	keys := make([][]byte, len(t.indices))
	for i, idx := range t.indices {
		keys[i] = idx.KeyFn(row)
	}
	return keys
}

func (t *Table[T, PT]) insertIndices(row PT) error {
	inserted := 0
	for _, idx := range t.indices {
		if err := idx.insert(idx.KeyFn(row), row.GetID()); err != nil {
			for j := 0; j < inserted; j++ {
				t.indices[j].remove(t.indices[j].KeyFn(row), row.GetID())
			}
			return err
		}
		inserted++
	}
	return nil
}

func (t *Table[T, PT]) removeIndices(row PT) {
	for _, idx := range t.indices {
		idx.remove(idx.KeyFn(row), row.GetID())
	}
}

// Create allocates a new row, assigns it the next id, applies init, inserts
// it into the primary map and every secondary index, and records it in the
// topmost undo frame. Create requires an open session (spec §3 "Lifecycle
// rules": every mutation happens inside a session).
func (t *Table[T, PT]) Create(init func(PT)) (PT, error) {
	f := t.topFrame()
	if f == nil {
		return nil, ErrNoSession
	}
	var zero T
	row := PT(&zero)
	row.SetID(t.nextID)
	init(row)
	row.SetID(t.nextID) // init must not change the assigned id

	if err := t.insertIndices(row); err != nil {
		return nil, err
	}
	t.rows[row.GetID()] = row
	f.created[row.GetID()] = struct{}{}
	t.nextID++
	return row, nil
}

// Get returns the row with the given id, or ErrNotFound.
func (t *Table[T, PT]) Get(id ID) (PT, error) {
	row, ok := t.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return row, nil
}

// GetBy looks a row up by a named unique index.
func (t *Table[T, PT]) GetBy(indexName string, key []byte) (PT, error) {
	idx := t.index(indexName)
	if idx == nil {
		return nil, fmt.Errorf("chainbase: table %s has no index %q", t.name, indexName)
	}
	id, ok := idx.find(key)
	if !ok {
		return nil, ErrNotFound
	}
	return t.Get(id)
}

// FindBy returns every row stored under keys in [lo, hi) on a named index,
// in ascending key order. A nil hi is unbounded above.
func (t *Table[T, PT]) FindBy(indexName string, lo, hi []byte) ([]PT, error) {
	idx := t.index(indexName)
	if idx == nil {
		return nil, fmt.Errorf("chainbase: table %s has no index %q", t.name, indexName)
	}
	ids := idx.rangeIDs(lo, hi)
	out := make([]PT, 0, len(ids))
	for _, id := range ids {
		row, ok := t.rows[id]
		if ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (t *Table[T, PT]) index(name string) *Index[T, PT] {
	for _, idx := range t.indices {
		if idx.Name == name {
			return idx
		}
	}
	return nil
}

// Modify mutates the row with the given id in place via fn. The pre-image is
// captured in the topmost frame the first time the id is touched in that
// frame, so Undo can restore it. fn must assign new values to changed
// slice/map/pointer fields rather than mutating shared backing storage in
// place, since the captured pre-image is a shallow copy.
func (t *Table[T, PT]) Modify(id ID, fn func(PT)) error {
	f := t.topFrame()
	if f == nil {
		return ErrNoSession
	}
	row, ok := t.rows[id]
	if !ok {
		return ErrNotFound
	}
	if _, created := f.created[id]; !created {
		if _, already := f.modified[id]; !already {
			f.modified[id] = cloneRecord[T](PT(row))
		}
	}

	oldKeys := t.indexKeys(row)
	fn(row)
	row.SetID(id) // fn must not change the id

	for i, idx := range t.indices {
		newKey := idx.KeyFn(row)
		if string(newKey) == string(oldKeys[i]) {
			continue
		}
		idx.remove(oldKeys[i], id)
		if err := idx.insert(newKey, id); err != nil {
			idx.insert(oldKeys[i], id)
			return err
		}
	}
	return nil
}

// Remove deletes the row with the given id, recording its pre-image in the
// topmost frame so Undo can resurrect it.
func (t *Table[T, PT]) Remove(id ID) error {
	f := t.topFrame()
	if f == nil {
		return ErrNoSession
	}
	row, ok := t.rows[id]
	if !ok {
		return ErrNotFound
	}
	t.removeIndices(row)
	delete(t.rows, id)

	if _, created := f.created[id]; created {
		delete(f.created, id)
		return nil
	}
	if _, already := f.removed[id]; !already {
		f.removed[id] = row
	}
	delete(f.modified, id)
	return nil
}

// All returns every row in unspecified order; callers that need a stable
// order should use FindBy against a declared index.
func (t *Table[T, PT]) All() []PT {
	out := make([]PT, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, row)
	}
	return out
}

// Range visits every row in primary-index (ascending id) order, per spec
// §4.1's default iteration contract.
func (t *Table[T, PT]) Range(fn func(PT) bool) {
	ids := make([]ID, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	// Small tables dominate chain state (witness, proposal, token-sale
	// counts are bounded); insertion-sort-by-id keeps this dependency-free.
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	for _, id := range ids {
		if !fn(t.rows[id]) {
			return
		}
	}
}

// --- tableSession: undo-frame plumbing shared across every Table[T, PT] ---

func (t *Table[T, PT]) pushFrame() {
	t.frames = append(t.frames, newFrame[T, PT](t.nextID))
}

func (t *Table[T, PT]) popFrameCommit() {
	n := len(t.frames)
	if n == 0 {
		return
	}
	if n == 1 {
		t.frames = nil
		return
	}
	// Merge into the frame beneath: anything created, modified or removed
	// in the popped frame is now attributed to the parent frame, keeping
	// only the parent's earlier pre-images where it already has one.
	top := t.frames[n-1]
	parent := t.frames[n-2]
	for id := range top.created {
		parent.created[id] = struct{}{}
	}
	for id, pre := range top.modified {
		if _, createdInParent := parent.created[id]; createdInParent {
			continue
		}
		if _, already := parent.modified[id]; !already {
			parent.modified[id] = pre
		}
	}
	for id, pre := range top.removed {
		if _, createdInParent := parent.created[id]; createdInParent {
			delete(parent.created, id)
			continue
		}
		delete(parent.modified, id)
		if _, already := parent.removed[id]; !already {
			parent.removed[id] = pre
		}
	}
	t.frames = t.frames[:n-1]
}

func (t *Table[T, PT]) popFrameSquash() {
	// Squash is identical to commit at the table level: both merge the
	// top frame's bookkeeping into its parent without touching live rows.
	t.popFrameCommit()
}

func (t *Table[T, PT]) popFrameUndo() {
	n := len(t.frames)
	if n == 0 {
		return
	}
	f := t.frames[n-1]
	for id := range f.created {
		if row, ok := t.rows[id]; ok {
			t.removeIndices(row)
			delete(t.rows, id)
		}
	}
	for id, pre := range f.modified {
		if cur, ok := t.rows[id]; ok {
			t.removeIndices(cur)
		}
		t.rows[id] = pre
		t.insertIndices(pre)
	}
	for id, pre := range f.removed {
		t.rows[id] = pre
		t.insertIndices(pre)
	}
	t.nextID = f.savedNextID
	t.frames = t.frames[:n-1]
}
