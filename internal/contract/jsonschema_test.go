package contract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateEconomicTerms(t *testing.T) {
	require.NoError(t, ValidateEconomicTerms(JSONMap{"monthly_rent": "1500000", "security_deposit": "1500000"}))
	require.Error(t, ValidateEconomicTerms(JSONMap{"monthly_rent": "1500000"}))
}

func TestValidateContractTerms(t *testing.T) {
	require.NoError(t, ValidateContractTerms(JSONMap{"lease_duration_months": 12}))
	err := ValidateContractTerms(JSONMap{"lease_duration_months": 0})
	require.Error(t, err)
}
