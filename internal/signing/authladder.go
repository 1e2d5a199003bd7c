package signing

import "github.com/jaxxstorm/landlord/internal/contract"

// AuthMethod is one authentication factor presented at signing time. The
// core never verifies these itself (§9 Design Notes: "biometric/crypto
// verifications are placeholders"); it only counts and classifies them.
type AuthMethod string

const (
	AuthPassword AuthMethod = "password"
	AuthFactor   AuthMethod = "factor" // OTP/TOTP or equivalent second factor
	AuthFace     AuthMethod = "face"
	AuthDocument AuthMethod = "document"
)

// Level is a point on the authentication-level ladder (§9).
type Level string

const (
	LevelBasic    Level = "basic"
	LevelEnhanced Level = "enhanced"
	LevelMaximum  Level = "maximum"
)

// RequiredLevel returns the authentication level a role must satisfy to
// sign c. Tenant and landlord signatures on a contract type whose policy
// already demands a verified guarantee (§4 RequiresGuarantee — the
// landlord's largest financial exposure) are held to the maximum rung;
// the same roles on a lighter contract type need only enhanced. A
// guarantor's signature, being a third party's attestation rather than a
// principal's, only ever needs the basic rung.
func RequiredLevel(c *contract.Contract, role contract.Role) Level {
	if role == contract.RoleGuarantor {
		return LevelBasic
	}
	if c.ContractType.RequiresGuarantee() {
		return LevelMaximum
	}
	return LevelEnhanced
}

// Satisfies implements the ladder's rules: basic <= password; enhanced <=
// password and at least 2 distinct methods; maximum <= password, face,
// document, and at least 3 distinct methods.
func Satisfies(provided []AuthMethod, required Level) bool {
	set := make(map[AuthMethod]bool, len(provided))
	for _, m := range provided {
		set[m] = true
	}
	if !set[AuthPassword] {
		return false
	}
	switch required {
	case LevelBasic:
		return true
	case LevelEnhanced:
		return len(set) >= 2
	case LevelMaximum:
		return set[AuthFace] && set[AuthDocument] && len(set) >= 3
	default:
		return false
	}
}
