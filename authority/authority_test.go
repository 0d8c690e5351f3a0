package authority

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSatisfiedSingleKey(t *testing.T) {
	a := NewAuthority(1)
	a.KeyWeights["key-alice"] = 1

	lookup := func(string, string) (Authority, Authority, Authority, bool, bool) {
		return Authority{}, Authority{}, Authority{}, false, false
	}

	require.True(t, Satisfied(a, map[string]bool{"key-alice": true}, lookup, LevelActive, "", 0, nil))
	require.False(t, Satisfied(a, map[string]bool{"key-bob": true}, lookup, LevelActive, "", 0, nil))
}

func TestSatisfiedThreshold(t *testing.T) {
	a := NewAuthority(3)
	a.KeyWeights["key-a"] = 1
	a.KeyWeights["key-b"] = 1
	a.KeyWeights["key-c"] = 1

	lookup := func(string, string) (Authority, Authority, Authority, bool, bool) {
		return Authority{}, Authority{}, Authority{}, false, false
	}

	require.False(t, Satisfied(a, map[string]bool{"key-a": true, "key-b": true}, lookup, LevelActive, "", 0, nil))
	require.True(t, Satisfied(a, map[string]bool{"key-a": true, "key-b": true, "key-c": true}, lookup, LevelActive, "", 0, nil))
}

func TestSatisfiedRecursiveAccount(t *testing.T) {
	parent := NewAuthority(1)
	parent.AccountWeights["child"] = 1

	child := NewAuthority(1)
	child.KeyWeights["key-child"] = 1

	lookup := func(acc, opTag string) (Authority, Authority, Authority, bool, bool) {
		if acc == "child" {
			return child, child, Authority{}, false, true
		}
		return Authority{}, Authority{}, Authority{}, false, false
	}

	require.True(t, Satisfied(parent, map[string]bool{"key-child": true}, lookup, LevelActive, "", 0, nil))
}

// TestSatisfiedRecursionBoundary pins the default recursion bound itself
// (spec §4.2 "recursion depth is bounded by a chain constant (default 2)",
// spec §8: "Authority recursion at depth MAX_DEPTH succeeds; at
// MAX_DEPTH+1 fails"), rather than testing relative to whatever
// MaxRecursionDepth happens to be set to.
func TestSatisfiedRecursionBoundary(t *testing.T) {
	require.Equal(t, 2, MaxRecursionDepth)

	// chain: root -(acc)-> lvl1 -(acc)-> lvl2 -(key)-> leaf
	// root is depth 0, lvl1 is depth 1, lvl2 is depth 2.
	lvl2 := NewAuthority(1)
	lvl2.KeyWeights["leaf-key"] = 1

	lvl1 := NewAuthority(1)
	lvl1.AccountWeights["lvl2"] = 1

	root := NewAuthority(1)
	root.AccountWeights["lvl1"] = 1

	lookup := func(acc, opTag string) (Authority, Authority, Authority, bool, bool) {
		switch acc {
		case "lvl1":
			return lvl1, lvl1, Authority{}, false, true
		case "lvl2":
			return lvl2, lvl2, Authority{}, false, true
		}
		return Authority{}, Authority{}, Authority{}, false, false
	}

	// Resolving root requires recursing to depth 2 (root=0, lvl1=1, lvl2=2),
	// which is exactly MaxRecursionDepth: must succeed.
	require.True(t, Satisfied(root, map[string]bool{"leaf-key": true}, lookup, LevelActive, "", 0, nil))

	// One more level of delegation pushes the satisfying key to depth 3,
	// beyond MaxRecursionDepth: must fail.
	lvl3 := NewAuthority(1)
	lvl3.KeyWeights["leaf-key"] = 1
	lvl2Deeper := NewAuthority(1)
	lvl2Deeper.AccountWeights["lvl3"] = 1

	lookupDeeper := func(acc, opTag string) (Authority, Authority, Authority, bool, bool) {
		switch acc {
		case "lvl1":
			return lvl1, lvl1, Authority{}, false, true
		case "lvl2":
			return lvl2Deeper, lvl2Deeper, Authority{}, false, true
		case "lvl3":
			return lvl3, lvl3, Authority{}, false, true
		}
		return Authority{}, Authority{}, Authority{}, false, false
	}
	require.False(t, Satisfied(root, map[string]bool{"leaf-key": true}, lookupDeeper, LevelActive, "", 0, nil))
}

func TestSatisfiedRespectsRecursionDepth(t *testing.T) {
	// Build a chain longer than MaxRecursionDepth, each level delegating
	// fully to the next, and confirm the deepest key alone cannot satisfy it.
	lookup := func(acc, opTag string) (Authority, Authority, Authority, bool, bool) {
		depth := len(acc)
		if depth > MaxRecursionDepth+2 {
			return Authority{}, Authority{}, Authority{}, false, false
		}
		next := NewAuthority(1)
		if depth == MaxRecursionDepth+2 {
			next.KeyWeights["unreachable"] = 1
			return next, next, Authority{}, false, true
		}
		next.AccountWeights[acc+"x"] = 1
		return next, next, Authority{}, false, true
	}
	root := NewAuthority(1)
	root.AccountWeights["a"] = 1
	require.False(t, Satisfied(root, map[string]bool{"unreachable": true}, lookup, LevelActive, "", 0, nil))
}

func TestIsCanonicalRejectsTooShort(t *testing.T) {
	require.False(t, IsCanonical([]byte{1, 2, 3}))
}

func TestVerifyAuthorityMissingActive(t *testing.T) {
	lookup := func(acc, opTag string) (Authority, Authority, Authority, bool, bool) {
		if acc == "alice" {
			a := NewAuthority(1)
			a.KeyWeights["key-alice"] = 1
			return a, a, Authority{}, false, true
		}
		return Authority{}, Authority{}, Authority{}, false, false
	}
	req := Requirement{Active: []string{"alice"}, Overrides: map[string]string{}}
	require.Error(t, VerifyAuthority(req, map[string]bool{"key-bob": true}, lookup))
	require.NoError(t, VerifyAuthority(req, map[string]bool{"key-alice": true}, lookup))
}

// TestVerifyAuthorityActiveOverride confirms that when a requirement names
// an operation tag that an account has registered an active_override for,
// the override authority is consulted instead of the ordinary active
// authority (spec §3 "active_override", §4.2 step 2).
func TestVerifyAuthorityActiveOverride(t *testing.T) {
	ordinaryActive := NewAuthority(1)
	ordinaryActive.KeyWeights["key-active"] = 1

	override := NewAuthority(1)
	override.KeyWeights["key-override"] = 1

	owner := NewAuthority(1)
	owner.KeyWeights["key-owner"] = 1

	const tag = "42"
	lookup := func(acc, opTag string) (Authority, Authority, Authority, bool, bool) {
		if acc != "alice" {
			return Authority{}, Authority{}, Authority{}, false, false
		}
		if opTag == tag {
			return owner, ordinaryActive, override, true, true
		}
		return owner, ordinaryActive, Authority{}, false, true
	}

	req := Requirement{Active: []string{"alice"}, Overrides: map[string]string{"alice": tag}}

	// The override key alone satisfies the override-scoped requirement...
	require.NoError(t, VerifyAuthority(req, map[string]bool{"key-override": true}, lookup))
	// ...but the ordinary active key alone does not, since the override
	// replaces it for this operation tag.
	require.Error(t, VerifyAuthority(req, map[string]bool{"key-active": true}, lookup))

	// With no override registered for the tag, the ordinary active key works.
	plainReq := Requirement{Active: []string{"alice"}, Overrides: map[string]string{}}
	require.NoError(t, VerifyAuthority(plainReq, map[string]bool{"key-active": true}, lookup))
}

// TestVerifyAuthorityRejectsIrrelevantSignature confirms that a signature
// which never contributes to satisfying any required authority is rejected
// (spec §4.2 step 4 "no irrelevant signatures").
func TestVerifyAuthorityRejectsIrrelevantSignature(t *testing.T) {
	lookup := func(acc, opTag string) (Authority, Authority, Authority, bool, bool) {
		if acc == "alice" {
			a := NewAuthority(1)
			a.KeyWeights["key-alice"] = 1
			return a, a, Authority{}, false, true
		}
		return Authority{}, Authority{}, Authority{}, false, false
	}
	req := Requirement{Active: []string{"alice"}, Overrides: map[string]string{}}
	require.Error(t, VerifyAuthority(req, map[string]bool{"key-alice": true, "key-stranger": true}, lookup))
}
