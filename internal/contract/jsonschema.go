package contract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaValidationError captures JSON Schema validation issues found in an
// opaque data payload (landlord_data, tenant_data, economic_terms,
// contract_terms). The core never imposes a closed schema on these maps
// generally (§9 Design Notes) — schemas are only applied at the specific
// edges that depend on required keys, per contract type.
type SchemaValidationError struct {
	Details []string
}

func (e *SchemaValidationError) Error() string {
	if len(e.Details) == 0 {
		return "schema validation failed"
	}
	return fmt.Sprintf("schema validation failed: %s", e.Details[0])
}

// economicTermsSchema is the edge schema for EconomicTerms, checked when the
// landlord completes their data: it requires monthly_rent and
// security_deposit, each a string or a number. Their values are not
// range-checked.
const economicTermsSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["monthly_rent", "security_deposit"],
  "properties": {
    "monthly_rent": {"type": ["string", "number"]},
    "security_deposit": {"type": ["string", "number"]}
  }
}`

// contractTermsSchema is the edge schema for ContractTerms.
const contractTermsSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["lease_duration_months"],
  "properties": {
    "lease_duration_months": {"type": "integer", "minimum": 1, "maximum": 120}
  }
}`

// ValidateEconomicTerms validates data against economicTermsSchema.
func ValidateEconomicTerms(data JSONMap) error {
	return validateAgainstSchema(economicTermsSchema, data)
}

// ValidateContractTerms validates data against contractTermsSchema.
func ValidateContractTerms(data JSONMap) error {
	return validateAgainstSchema(contractTermsSchema, data)
}

func validateAgainstSchema(schemaDoc string, data JSONMap) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader([]byte(schemaDoc))); err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	var payload interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("parse payload: %w", err)
	}

	if err := compiled.Validate(payload); err != nil {
		if vErr, ok := err.(*jsonschema.ValidationError); ok {
			return &SchemaValidationError{Details: flattenValidationErrors(vErr)}
		}
		return fmt.Errorf("%w: %s", ErrValidation, err)
	}
	return nil
}

func flattenValidationErrors(err *jsonschema.ValidationError) []string {
	var details []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		location := e.InstanceLocation
		if location == "" {
			location = "/"
		}
		details = append(details, fmt.Sprintf("%s: %s", location, e.Message))
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(err)
	return details
}
