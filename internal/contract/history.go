package contract

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ActionType enumerates the kinds of workflow history entries recorded
// against a contract.
type ActionType string

const (
	ActionDraftCreated        ActionType = "DRAFT_CREATED"
	ActionLandlordDataSaved   ActionType = "LANDLORD_DATA_SAVED"
	ActionInvitationSent      ActionType = "INVITATION_SENT"
	ActionInvitationAccepted  ActionType = "INVITATION_ACCEPTED"
	ActionTenantDataSaved     ActionType = "TENANT_DATA_SAVED"
	ActionObjectionSubmitted  ActionType = "OBJECTION_SUBMITTED"
	ActionObjectionResolved   ActionType = "OBJECTION_RESOLVED"
	ActionApproved            ActionType = "APPROVED"
	ActionSigned              ActionType = "SIGNED"
	ActionFullySigned         ActionType = "FULLY_SIGNED"
	ActionContractPublished   ActionType = "CONTRACT_PUBLISHED"
	ActionStateTransitioned   ActionType = "STATE_TRANSITIONED"
	ActionCancelled           ActionType = "CANCELLED"
)

// HistoryMetadata carries request-context metadata alongside a history
// entry (§3: "metadata (IP, UA, session, related_objection_id?,
// related_guarantee_id?)").
type HistoryMetadata struct {
	IP                 string     `json:"ip,omitempty"`
	UserAgent          string     `json:"user_agent,omitempty"`
	SessionID          string     `json:"session_id,omitempty"`
	RelatedObjectionID *uuid.UUID `json:"related_objection_id,omitempty"`
	RelatedGuaranteeID *uuid.UUID `json:"related_guarantee_id,omitempty"`
}

// WorkflowHistoryEntry is an append-only audit record. Entries are never
// updated or deleted; IntegrityHash lets a reader detect tampering by
// recomputing it from the other fields.
type WorkflowHistoryEntry struct {
	ID            uuid.UUID       `json:"id"`
	ContractID    uuid.UUID       `json:"contract_id"`
	ActionType    ActionType      `json:"action_type"`
	Description   string          `json:"description"`
	PerformedBy   uuid.UUID       `json:"performed_by"`
	UserRole      Role            `json:"user_role"`
	OldState      Status          `json:"old_state,omitempty"`
	NewState      Status          `json:"new_state,omitempty"`
	ChangesMade   JSONMap         `json:"changes_made,omitempty"`
	Metadata      HistoryMetadata `json:"metadata,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
	IntegrityHash string          `json:"integrity_hash"`
}

// computeIntegrityHash implements §3's canonical concatenation:
// "contract_id:action_type:performed_by:timestamp:description".
func computeIntegrityHash(contractID uuid.UUID, action ActionType, performedBy uuid.UUID, ts time.Time, description string) string {
	canonical := fmt.Sprintf("%s:%s:%s:%s:%s",
		contractID.String(), action, performedBy.String(), ts.UTC().Format(time.RFC3339Nano), description)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// NewHistoryEntry builds a fully populated, integrity-hashed history entry.
func NewHistoryEntry(contractID uuid.UUID, action ActionType, description string, performedBy uuid.UUID, role Role, old, new Status, changes JSONMap, meta HistoryMetadata, now time.Time) *WorkflowHistoryEntry {
	entry := &WorkflowHistoryEntry{
		ID:          uuid.New(),
		ContractID:  contractID,
		ActionType:  action,
		Description: description,
		PerformedBy: performedBy,
		UserRole:    role,
		OldState:    old,
		NewState:    new,
		ChangesMade: changes,
		Metadata:    meta,
		Timestamp:   now,
	}
	entry.IntegrityHash = computeIntegrityHash(contractID, action, performedBy, now, description)
	return entry
}

// VerifyIntegrity recomputes the hash and reports whether it still matches
// the stored value, detecting tampering of the immutable fields.
func (e *WorkflowHistoryEntry) VerifyIntegrity() bool {
	return e.IntegrityHash == computeIntegrityHash(e.ContractID, e.ActionType, e.PerformedBy, e.Timestamp, e.Description)
}
