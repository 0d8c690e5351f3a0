package chainbase

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

type widget struct {
	id    ID
	Owner string
	Value int64
}

func (w *widget) GetID() ID   { return w.id }
func (w *widget) SetID(id ID) { w.id = id }

func ownerKey(w *widget) []byte { return []byte(w.Owner) }

func valueKey(w *widget) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(w.Value))
	return b[:]
}

func newWidgets() *Table[widget, *widget] {
	return NewTable[widget, *widget]("widget",
		&Index[widget, *widget]{Name: "by_owner", Unique: true, KeyFn: ownerKey},
		&Index[widget, *widget]{Name: "by_value", Unique: false, KeyFn: valueKey},
	)
}

func TestCreateRequiresSession(t *testing.T) {
	widgets := newWidgets()
	_, err := widgets.Create(func(w *widget) { w.Owner = "alice" })
	require.ErrorIs(t, err, ErrNoSession)
}

func TestCreateGetByPrimaryAndIndex(t *testing.T) {
	db := NewDatabase()
	widgets := newWidgets()
	Register(db, widgets)

	s := db.Begin()
	w, err := widgets.Create(func(w *widget) {
		w.Owner = "alice"
		w.Value = 10
	})
	require.NoError(t, err)
	require.Equal(t, ID(1), w.GetID())
	require.NoError(t, s.Commit())

	got, err := widgets.Get(1)
	require.NoError(t, err)
	require.Equal(t, "alice", got.Owner)

	byOwner, err := widgets.GetBy("by_owner", []byte("alice"))
	require.NoError(t, err)
	require.Equal(t, ID(1), byOwner.GetID())
}

func TestUniqueIndexRejectsDuplicate(t *testing.T) {
	db := NewDatabase()
	widgets := newWidgets()
	Register(db, widgets)

	s := db.Begin()
	_, err := widgets.Create(func(w *widget) { w.Owner = "alice" })
	require.NoError(t, err)
	_, err = widgets.Create(func(w *widget) { w.Owner = "alice" })
	require.ErrorIs(t, err, ErrDuplicateKey)
	require.NoError(t, s.Commit())
}

// TestUndoRoundTrip exercises spec §8's undo law: starting a session,
// mutating arbitrarily, then undoing restores the pre-session state exactly,
// including the id counter and every secondary index.
func TestUndoRoundTrip(t *testing.T) {
	db := NewDatabase()
	widgets := newWidgets()
	Register(db, widgets)

	base := db.Begin()
	_, err := widgets.Create(func(w *widget) { w.Owner = "alice"; w.Value = 1 })
	require.NoError(t, err)
	_, err = widgets.Create(func(w *widget) { w.Owner = "bob"; w.Value = 2 })
	require.NoError(t, err)
	require.NoError(t, base.Commit())

	preCount := len(widgets.All())
	preNextID := widgets.nextID

	session := db.Begin()
	_, err = widgets.Create(func(w *widget) { w.Owner = "carol"; w.Value = 3 })
	require.NoError(t, err)
	require.NoError(t, widgets.Modify(1, func(w *widget) { w.Value = 100 }))
	require.NoError(t, widgets.Remove(2))
	require.NoError(t, session.Undo())

	require.Equal(t, preCount, len(widgets.All()))
	require.Equal(t, preNextID, widgets.nextID)

	alice, err := widgets.Get(1)
	require.NoError(t, err)
	require.Equal(t, int64(1), alice.Value)

	bob, err := widgets.GetBy("by_owner", []byte("bob"))
	require.NoError(t, err)
	require.Equal(t, ID(2), bob.GetID())

	_, err = widgets.GetBy("by_owner", []byte("carol"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestNestedSessionCommitMergesIntoParent(t *testing.T) {
	db := NewDatabase()
	widgets := newWidgets()
	Register(db, widgets)

	outer := db.Begin()
	_, err := widgets.Create(func(w *widget) { w.Owner = "alice"; w.Value = 1 })
	require.NoError(t, err)

	inner := db.Begin()
	_, err = widgets.Create(func(w *widget) { w.Owner = "bob"; w.Value = 2 })
	require.NoError(t, err)
	require.NoError(t, inner.Commit())

	require.NoError(t, outer.Undo())
	require.Empty(t, widgets.All())
	require.Equal(t, ID(1), widgets.nextID)
}

func TestFindByRangeOrdersByKey(t *testing.T) {
	db := NewDatabase()
	widgets := newWidgets()
	Register(db, widgets)

	s := db.Begin()
	for i, owner := range []string{"carol", "alice", "bob"} {
		_, err := widgets.Create(func(o string, v int64) func(*widget) {
			return func(w *widget) { w.Owner = o; w.Value = v }
		}(owner, int64(i)))
		require.NoError(t, err)
	}
	require.NoError(t, s.Commit())

	rows, err := widgets.FindBy("by_owner", []byte("b"), []byte("d"))
	require.NoError(t, err)
	owners := make([]string, 0, len(rows))
	for _, r := range rows {
		owners = append(owners, r.Owner)
	}
	require.Equal(t, []string{"bob", "carol"}, owners)
}

func TestSessionMismatchOnOutOfOrderClose(t *testing.T) {
	db := NewDatabase()
	widgets := newWidgets()
	Register(db, widgets)

	outer := db.Begin()
	_ = db.Begin()
	require.ErrorIs(t, outer.Commit(), ErrSessionMismatch)
}
