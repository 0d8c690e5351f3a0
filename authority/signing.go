package authority

import (
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// secp256k1 curve order, halved, used to reject non-canonical (high-S)
// recoverable signatures the way go-ethereum's Sign always produces
// canonical ones but externally supplied signatures might not
// (spec §4.2 "signatures must be canonical").
var secp256k1HalfOrder = mustHalfOrder()

func mustHalfOrder() [32]byte {
	// n = FFFFFFFF FFFFFFFF FFFFFFFF FFFFFFFE BAAEDCE6 AF48A03B BFD25E8C D0364141
	// n/2, precomputed to avoid a big.Int import for a single constant.
	return [32]byte{
		0x7F, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
		0x5D, 0x57, 0x6E, 0x73, 0x57, 0xA4, 0x50, 0x1D,
		0xDF, 0xE9, 0x2F, 0x46, 0x68, 0x1B, 0x20, 0xA0,
	}
}

// IsCanonical reports whether a 65-byte recoverable signature's S component
// is in the lower half of the curve order.
func IsCanonical(sig []byte) bool {
	if len(sig) != 65 {
		return false
	}
	s := sig[32:64]
	for i := 0; i < 32; i++ {
		if s[i] < secp256k1HalfOrder[i] {
			return true
		}
		if s[i] > secp256k1HalfOrder[i] {
			return false
		}
	}
	return true
}

// RecoverSigner recovers the compressed-hex public key that produced sig
// over digest, rejecting non-canonical signatures.
func RecoverSigner(digest, sig []byte) (string, error) {
	if !IsCanonical(sig) {
		return "", fmt.Errorf("authority: signature is not canonical (high-S)")
	}
	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return "", fmt.Errorf("authority: signature recovery failed: %w", err)
	}
	return hex.EncodeToString(crypto.CompressPubkey(pub)), nil
}

// SigningDigest returns the digest a transaction's signatures are computed
// over: Keccak256(chainID || txDigest), binding every signature to a single
// chain so the same signed transaction cannot replay across deployments
// (spec §4.2 "signing digest").
func SigningDigest(chainID uint64, txDigest []byte) []byte {
	var chainIDBytes [8]byte
	for i := 0; i < 8; i++ {
		chainIDBytes[i] = byte(chainID >> (8 * (7 - i)))
	}
	return crypto.Keccak256(chainIDBytes[:], txDigest)
}

// RecoverSigners recovers every signer of a transaction's signature list
// against its signing digest.
func RecoverSigners(digest []byte, sigs [][]byte) (map[string]bool, error) {
	signers := make(map[string]bool, len(sigs))
	for i, sig := range sigs {
		key, err := RecoverSigner(digest, sig)
		if err != nil {
			return nil, fmt.Errorf("authority: signature %d: %w", i, err)
		}
		signers[key] = true
	}
	return signers, nil
}

// VerifyTenantAffirmation recovers the signer of a transaction's second
// signature over the same digest and checks that it satisfies the named
// tenant account's active (or owner) authority, the dual-signature
// requirement a tenant-scoped deployment places on every transaction in
// addition to ordinary account authority (spec §4.2 "tenant affirmation":
// "the transaction must also carry a tenant_signature whose recovered key
// satisfies the tenant account's active authority").
func VerifyTenantAffirmation(digest, tenantSig []byte, tenant string, lookup AccountAuthorities) error {
	signer, err := RecoverSigner(digest, tenantSig)
	if err != nil {
		return fmt.Errorf("authority: tenant affirmation: %w", err)
	}
	owner, active, _, _, ok := lookup(tenant, "")
	if !ok {
		return fmt.Errorf("authority: tenant affirmation: unknown tenant account %q", tenant)
	}
	signers := map[string]bool{signer: true}
	if Satisfied(active, signers, lookup, LevelActive, "", 0, nil) {
		return nil
	}
	if Satisfied(owner, signers, lookup, LevelOwner, "", 0, nil) {
		return nil
	}
	return fmt.Errorf("authority: tenant affirmation does not satisfy tenant account %q active authority", tenant)
}
