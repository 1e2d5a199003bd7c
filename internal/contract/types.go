package contract

import (
	"time"

	"github.com/google/uuid"
)

// ContractType is the product line a contract belongs to; it drives which
// guarantee policy and JSON Schema apply at the data-completion edges.
type ContractType string

const (
	TypeRentalUrban      ContractType = "rental_urban"
	TypeRentalCommercial ContractType = "rental_commercial"
	TypeRentalRoom       ContractType = "rental_room"
	TypeRentalRural      ContractType = "rental_rural"
	TypeService          ContractType = "service"
)

// JSONMap is an opaque payload map. The core never imposes a closed schema
// on these beyond the required-key checks at the edges that depend on them
// (§9 Design Notes).
type JSONMap map[string]interface{}

// Contract is the aggregate root of the negotiation/execution engine (C4).
type Contract struct {
	ID             uuid.UUID    `json:"id"`
	ContractNumber string       `json:"contract_number"`
	ContractType   ContractType `json:"contract_type"`
	CurrentState   Status       `json:"current_state"`

	LandlordID  uuid.UUID  `json:"landlord_id"`
	TenantID    *uuid.UUID `json:"tenant_id,omitempty"`
	GuarantorID *uuid.UUID `json:"guarantor_id,omitempty"`
	PropertyID  uuid.UUID  `json:"property_id"`

	LandlordData   JSONMap `json:"landlord_data,omitempty"`
	TenantData     JSONMap `json:"tenant_data,omitempty"`
	PropertyData   JSONMap `json:"property_data,omitempty"`
	EconomicTerms  JSONMap `json:"economic_terms,omitempty"`
	ContractTerms  JSONMap `json:"contract_terms,omitempty"`
	SpecialClauses JSONMap `json:"special_clauses,omitempty"`

	TenantApproved      bool       `json:"tenant_approved"`
	TenantApprovedAt    *time.Time `json:"tenant_approved_at,omitempty"`
	LandlordApproved    bool       `json:"landlord_approved"`
	LandlordApprovedAt  *time.Time `json:"landlord_approved_at,omitempty"`

	TenantSigned      bool       `json:"tenant_signed"`
	TenantSignedAt    *time.Time `json:"tenant_signed_at,omitempty"`
	TenantSignature   JSONMap    `json:"tenant_signature,omitempty"`
	GuarantorSigned   bool       `json:"guarantor_signed"`
	GuarantorSignedAt *time.Time `json:"guarantor_signed_at,omitempty"`
	GuarantorSignature JSONMap   `json:"guarantor_signature,omitempty"`
	LandlordSigned    bool       `json:"landlord_signed"`
	LandlordSignedAt  *time.Time `json:"landlord_signed_at,omitempty"`
	LandlordSignature JSONMap    `json:"landlord_signature,omitempty"`
	FullySignedAt     *time.Time `json:"fully_signed_at,omitempty"`

	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	PublishedBy *uuid.UUID `json:"published_by,omitempty"`

	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	PDFHandle *string `json:"pdf_handle,omitempty"`

	ObjectionsCount       int        `json:"objections_count"`
	HasPendingObjections  bool       `json:"has_pending_objections"`
	LastObjectionDate     *time.Time `json:"last_objection_date,omitempty"`

	InvitationAccepted bool `json:"invitation_accepted"`

	Guarantees []Guarantee `json:"guarantees,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

// Guarantee models a third-party guarantee attached to a contract. It never
// blocks the state machine by itself; contract-type policy (RequiresGuarantee)
// decides whether READY_TO_SIGN is gated on one being present and verified.
type Guarantee struct {
	ID             uuid.UUID  `json:"id"`
	ContractID     uuid.UUID  `json:"contract_id"`
	Type           string     `json:"type"` // "co_signer" | "insurance_policy"
	Amount         *string    `json:"amount,omitempty"` // fixed-point decimal string
	Currency       string     `json:"currency,omitempty"`
	CoSignerData   JSONMap    `json:"co_signer_data,omitempty"`
	PolicyNumber   string     `json:"policy_number,omitempty"`
	Issuer         string     `json:"issuer,omitempty"`
	EffectiveDate  time.Time  `json:"effective_date"`
	ExpiryDate     *time.Time `json:"expiry_date,omitempty"`
	Status         string     `json:"status"`
	Verified       bool       `json:"verified"`
	VerifiedBy     *uuid.UUID `json:"verified_by,omitempty"`
}

// RequiresGuarantee reports whether this contract type's policy demands a
// verified guarantee before entering READY_TO_SIGN. Commercial and rural
// leases carry the landlord's largest exposure and require one; rooms and
// services do not.
func (t ContractType) RequiresGuarantee() bool {
	switch t {
	case TypeRentalCommercial, TypeRentalRural:
		return true
	default:
		return false
	}
}

// HasRequiredGuarantee reports whether c satisfies its contract type's
// guarantee policy.
func (c *Contract) HasRequiredGuarantee() bool {
	if !c.ContractType.RequiresGuarantee() {
		return true
	}
	for _, g := range c.Guarantees {
		if g.Verified {
			return true
		}
	}
	return false
}

// distinctPartiesOK reports whether the landlord, tenant and guarantor that
// are set are pairwise distinct.
func (c *Contract) distinctPartiesOK() bool {
	if c.TenantID != nil && *c.TenantID == c.LandlordID {
		return false
	}
	if c.GuarantorID != nil && *c.GuarantorID == c.LandlordID {
		return false
	}
	if c.TenantID != nil && c.GuarantorID != nil && *c.TenantID == *c.GuarantorID {
		return false
	}
	return true
}

// CompletionPercentage returns the proportion (0-100) of the ten boolean
// completion facts defined in §4.4.
func (c *Contract) CompletionPercentage() int {
	checks := c.completionChecks()
	done := 0
	for _, ok := range checks {
		if ok {
			done++
		}
	}
	return done * 100 / len(checks)
}

func (c *Contract) completionChecks() [10]bool {
	return [10]bool{
		len(c.LandlordData) > 0,
		len(c.EconomicTerms) > 0,
		len(c.ContractTerms) > 0,
		c.TenantID != nil && c.InvitationAccepted,
		len(c.TenantData) > 0,
		!c.HasPendingObjections,
		c.TenantApproved,
		c.TenantSigned,
		c.LandlordSigned,
		c.Published,
	}
}

// MissingDataSummary returns, per party, the required keys not yet present.
func (c *Contract) MissingDataSummary() map[string][]string {
	summary := map[string][]string{
		"landlord": missingKeys(c.LandlordData, requiredLandlordKeys),
		"tenant":   missingKeys(c.TenantData, requiredTenantKeys),
		"economic": missingKeys(c.EconomicTerms, requiredEconomicKeys),
		"contract": missingKeys(c.ContractTerms, requiredContractTermKeys),
	}
	if c.ContractType.RequiresGuarantee() && !c.HasRequiredGuarantee() {
		summary["guarantee"] = []string{"verified_guarantee"}
	}
	return summary
}

var (
	requiredLandlordKeys     = []string{"full_name", "national_id", "contact_email"}
	requiredTenantKeys       = []string{"full_name", "national_id", "contact_email"}
	requiredEconomicKeys     = []string{"monthly_rent", "security_deposit"}
	requiredContractTermKeys = []string{"lease_duration_months"}
)

func missingKeys(data JSONMap, required []string) []string {
	var missing []string
	for _, k := range required {
		if _, ok := data[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}
