package authority

import "fmt"

// VerifyAuthority checks that signerKeys satisfies every account listed in
// req, at the level(s) req demands, resolving each account's current
// authority through lookup. Owner-level requirements are checked against
// the owner authority; active-level requirements accept the account's
// active_override (if req.Overrides names one it has registered), else its
// ordinary active authority, else its owner authority, mirroring the usual
// "owner authority can do anything active authority can" rule (spec §4.2).
// It also rejects the requirement if any key in signerKeys never
// contributed to satisfying anything it was checked against (spec §4.2
// step 4 "no irrelevant signatures").
func VerifyAuthority(req Requirement, signerKeys map[string]bool, lookup AccountAuthorities) error {
	used := make(map[string]bool, len(signerKeys))

	for _, acc := range req.Owner {
		owner, _, _, _, ok := lookup(acc, "")
		if !ok {
			return fmt.Errorf("authority: unknown account %q", acc)
		}
		if !Satisfied(owner, signerKeys, lookup, LevelOwner, "", 0, used) {
			return fmt.Errorf("authority: missing owner authority for %q", acc)
		}
	}
	for _, acc := range req.Active {
		opTag := req.Overrides[acc]
		owner, active, override, hasOverride, ok := lookup(acc, opTag)
		if !ok {
			return fmt.Errorf("authority: unknown account %q", acc)
		}
		if hasOverride {
			if Satisfied(override, signerKeys, lookup, LevelOverride, opTag, 0, used) {
				continue
			}
		} else if Satisfied(active, signerKeys, lookup, LevelActive, opTag, 0, used) {
			continue
		}
		if Satisfied(owner, signerKeys, lookup, LevelOwner, "", 0, used) {
			continue
		}
		return fmt.Errorf("authority: missing active authority for %q", acc)
	}

	for key := range signerKeys {
		if !used[key] {
			return fmt.Errorf("authority: signature by %q was not necessary to satisfy any required authority", key)
		}
	}
	return nil
}
