package contract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckTransition_HappyPathEdges(t *testing.T) {
	cases := []struct {
		from, to Status
		role     Role
	}{
		{StatusDraft, StatusLandlordCompleting, RoleLandlord},
		{StatusLandlordCompleting, StatusTenantInvited, RoleLandlord},
		{StatusTenantInvited, StatusTenantReviewing, RoleTenant},
		{StatusBothReviewing, StatusReadyToSign, RoleSystem},
		{StatusReadyToSign, StatusFullySigned, RoleSystem},
		{StatusFullySigned, StatusPublished, RoleLandlord},
		{StatusPublished, StatusActive, RoleSystem},
	}
	for _, tc := range cases {
		require.NoError(t, CheckTransition(tc.from, tc.to, tc.role), "%s -> %s as %s", tc.from, tc.to, tc.role)
	}
}

func TestCheckTransition_RejectsDisallowedEdge(t *testing.T) {
	err := CheckTransition(StatusDraft, StatusPublished, RoleLandlord)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCheckTransition_RejectsWrongRole(t *testing.T) {
	err := CheckTransition(StatusFullySigned, StatusPublished, RoleTenant)
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestCheckTransition_TerminalStatesHaveNoOutgoingEdges(t *testing.T) {
	for _, s := range []Status{StatusTerminated, StatusCancelled} {
		require.True(t, s.IsTerminal())
		require.False(t, AllowedTransition(s, StatusActive))
	}
}

func TestStatus_IsValid(t *testing.T) {
	require.True(t, StatusDraft.IsValid())
	require.False(t, Status("bogus").IsValid())
}

func TestResponsibleParty(t *testing.T) {
	require.Equal(t, RoleLandlord, ResponsibleParty(StatusDraft))
	require.Equal(t, RoleTenant, ResponsibleParty(StatusTenantInvited))
	require.Equal(t, RoleSystem, ResponsibleParty(StatusPublished))
}
