package objection

import (
	"time"

	"github.com/google/uuid"

	"github.com/jaxxstorm/landlord/internal/contract"
)

// Priority is the urgency a party assigns to an objection.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Status is the objection lifecycle state. Transitions only move forward
// (never back towards Pending).
type Status string

const (
	StatusPending            Status = "pending"
	StatusUnderReview        Status = "under_review"
	StatusAccepted           Status = "accepted"
	StatusRejected           Status = "rejected"
	StatusPartiallyAccepted  Status = "partially_accepted"
	StatusResolved           Status = "resolved"
	StatusWithdrawn          Status = "withdrawn"
)

func (s Status) IsPending() bool {
	return s == StatusPending || s == StatusUnderReview
}

const minJustificationLength = 20

// overdueAfter is how long a pending objection can sit before it is
// reported as overdue (§4.6: "older than 5 days").
const overdueAfter = 5 * 24 * time.Hour

// Objection is the C6 aggregate.
type Objection struct {
	ID         uuid.UUID `json:"id"`
	ContractID uuid.UUID `json:"contract_id"`

	ObjectedBy uuid.UUID      `json:"objected_by"`
	ObjectorRole contract.Role `json:"objector_role"`

	FieldReference string  `json:"field_reference"`
	CurrentValue   string  `json:"current_value"`
	ProposedValue  string  `json:"proposed_value"`
	Justification  string  `json:"justification"`
	Priority       Priority `json:"priority"`

	Status             Status  `json:"status"`
	Responder          *uuid.UUID `json:"responder,omitempty"`
	ResponseNote       string  `json:"response_note,omitempty"`
	CounterProposal    *string `json:"counter_proposal,omitempty"`
	RequiresManualAmendment bool `json:"requires_manual_amendment"`

	SubmittedAt time.Time  `json:"submitted_at"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`

	Version int `json:"version"`
}

// IsOverdue reports whether a still-pending objection has sat longer than
// overdueAfter. Purely observable; it never triggers a transition on its
// own (§4.6).
func (o *Objection) IsOverdue(now time.Time) bool {
	return o.Status.IsPending() && now.Sub(o.SubmittedAt) > overdueAfter
}
