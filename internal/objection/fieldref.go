package objection

import (
	"strings"

	"github.com/jaxxstorm/landlord/internal/contract"
)

// applyFieldReference resolves field_reference against the contract's
// opaque data maps, or a small set of direct scalar fields, and writes
// proposed in place. It reports whether a match was found (§4.6: "first
// match wins; if the field does not exist... marked
// requires_manual_amendment=true").
//
// field_reference takes the form "<map>.<key>" (e.g. "economic_terms.
// monthly_rent") or a bare scalar field name (e.g. "pdf_handle").
func applyFieldReference(c *contract.Contract, fieldReference, proposed string) bool {
	mapName, key, hasDot := strings.Cut(fieldReference, ".")
	if hasDot {
		target := mapFor(c, mapName)
		if target == nil {
			return false
		}
		if _, exists := target[key]; !exists {
			return false
		}
		target[key] = proposed
		return true
	}

	switch fieldReference {
	case "pdf_handle":
		c.PDFHandle = &proposed
		return true
	default:
		return false
	}
}

func mapFor(c *contract.Contract, name string) contract.JSONMap {
	switch name {
	case "landlord_data":
		return c.LandlordData
	case "tenant_data":
		return c.TenantData
	case "property_data":
		return c.PropertyData
	case "economic_terms":
		return c.EconomicTerms
	case "contract_terms":
		return c.ContractTerms
	case "special_clauses":
		return c.SpecialClauses
	default:
		return nil
	}
}
