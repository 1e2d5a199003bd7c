package invitation

import (
	"time"

	"github.com/google/uuid"
)

// Method is the out-of-band channel an invitation is delivered through.
type Method string

const (
	MethodEmail    Method = "email"
	MethodSMS      Method = "sms"
	MethodWhatsApp Method = "whatsapp"
)

// Status is the invitation lifecycle state. Transitions follow
// {Pending -> Sent -> Opened -> Accepted}, except that Resend returns an
// Opened invitation to Sent with a new token; terminal states
// {Expired, Failed} are reachable from any non-terminal status.
type Status string

const (
	StatusPending  Status = "pending"
	StatusSent     Status = "sent"
	StatusDelivered Status = "delivered"
	StatusOpened   Status = "opened"
	StatusAccepted Status = "accepted"
	StatusExpired  Status = "expired"
	StatusFailed   Status = "failed"
)

func (s Status) IsTerminal() bool {
	return s == StatusExpired || s == StatusFailed || s == StatusAccepted
}

// Invitation is the C5 aggregate: a single-use, hash-verified credential
// that links a prospective tenant to a contract.
type Invitation struct {
	ID         uuid.UUID `json:"id"`
	ContractID uuid.UUID `json:"contract_id"`

	TokenHash string `json:"token_hash"`

	TenantEmail      string  `json:"tenant_email"`
	TenantPhone      *string `json:"tenant_phone,omitempty"`
	TenantName       string  `json:"tenant_name"`
	Method           Method  `json:"method"`
	PersonalMessage  *string `json:"personal_message,omitempty"`

	Status   Status `json:"status"`
	Attempts int    `json:"attempts"`

	CreatedAt    time.Time  `json:"created_at"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	OpenedAt     *time.Time `json:"opened_at,omitempty"`
	AcceptedAt   *time.Time `json:"accepted_at,omitempty"`
	ExpiresAt    time.Time  `json:"expires_at"`
	LastResentAt *time.Time `json:"last_resent_at,omitempty"`

	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedBy    uuid.UUID  `json:"created_by"`
	AcceptedBy   *uuid.UUID `json:"accepted_by,omitempty"`

	Version int `json:"version"`
}

// PublicView is what verify() returns to an unauthenticated holder of a
// valid token: just enough to render a landing page, nothing sensitive.
type PublicView struct {
	PropertyAddress      string    `json:"property_address"`
	MonthlyRent          string    `json:"monthly_rent"`
	LandlordDisplayName  string    `json:"landlord_display_name"`
	ExpiresAt            time.Time `json:"expires_at"`
}

// IsExpired reports whether now is at or past ExpiresAt. Expiry is
// inclusive of the boundary instant: at exactly expires_at+1µs verification
// must fail, so the check must be a strict "now >= expires_at" once the
// clock has passed it, which a !before test captures precisely.
func (inv *Invitation) IsExpired(now time.Time) bool {
	return !now.Before(inv.ExpiresAt)
}
