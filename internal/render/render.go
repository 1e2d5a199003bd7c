// Package render implements the PDF renderer port: §6 treats PDF
// rendering as an out-of-scope external collaborator, consumed through
// a single Render call whose output the core treats as opaque bytes.
package render

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/jaxxstorm/landlord/internal/contract"
)

// Renderer renders a contract to a PDF document. A renderer failure is
// an external_failure that surfaces to the caller, unlike notification
// channel failures which never propagate.
type Renderer interface {
	Render(ctx context.Context, c *contract.Contract, includeSignatures, includeBiometric bool) ([]byte, error)
}

// TemplateRenderer is a placeholder Renderer: it substitutes contract
// fields into a plain-text template and returns that as the document
// body. It stands in for a real PDF engine (e.g. wkhtmltopdf, gotenberg)
// behind the same port, so swapping it later touches nothing upstream.
type TemplateRenderer struct {
	tmpl *template.Template
}

const defaultBody = `Contract {{.ContractNumber}}
Type: {{.ContractType}}
State: {{.CurrentState}}
Landlord: {{.LandlordID}}
{{if .TenantID}}Tenant: {{.TenantID}}{{end}}
{{if .IncludeSignatures}}
Tenant signed: {{.TenantSigned}}
Landlord signed: {{.LandlordSigned}}
{{if .GuarantorSigned}}Guarantor signed: {{.GuarantorSigned}}{{end}}
{{end}}
`

// NewTemplateRenderer builds a TemplateRenderer using the built-in body
// template.
func NewTemplateRenderer() (*TemplateRenderer, error) {
	tmpl, err := template.New("contract").Parse(defaultBody)
	if err != nil {
		return nil, fmt.Errorf("parse render template: %w", err)
	}
	return &TemplateRenderer{tmpl: tmpl}, nil
}

type renderView struct {
	*contract.Contract
	IncludeSignatures bool
}

// Render renders c into the template body. includeBiometric is accepted
// to satisfy the port's shape but the placeholder body never emits
// biometric payloads; a real PDF engine would gate that content on it.
func (r *TemplateRenderer) Render(_ context.Context, c *contract.Contract, includeSignatures, includeBiometric bool) ([]byte, error) {
	var buf bytes.Buffer
	view := renderView{Contract: c, IncludeSignatures: includeSignatures}
	if err := r.tmpl.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("render contract %s: %w", c.ID, err)
	}
	return buf.Bytes(), nil
}
