package contract

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNewHistoryEntry_IntegrityHashVerifies(t *testing.T) {
	entry := NewHistoryEntry(uuid.New(), ActionDraftCreated, "created", uuid.New(), RoleLandlord, "", StatusDraft, nil, HistoryMetadata{}, time.Now())
	require.True(t, entry.VerifyIntegrity())
}

func TestWorkflowHistoryEntry_TamperDetected(t *testing.T) {
	entry := NewHistoryEntry(uuid.New(), ActionDraftCreated, "created", uuid.New(), RoleLandlord, "", StatusDraft, nil, HistoryMetadata{}, time.Now())
	entry.Description = "tampered"
	require.False(t, entry.VerifyIntegrity())
}
