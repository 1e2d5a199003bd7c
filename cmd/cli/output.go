package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jaxxstorm/landlord/internal/contract"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F5F"))
	labelStyle   = lipgloss.NewStyle().Bold(true)
)

func renderContractList(contracts []*contract.Contract) string {
	headers := []string{"ID", "Number", "Type", "State", "Completion"}
	rows := make([][]string, 0, len(contracts))

	for _, c := range contracts {
		rows = append(rows, []string{
			c.ID.String(),
			c.ContractNumber,
			string(c.ContractType),
			formatState(string(c.CurrentState)),
			fmt.Sprintf("%.0f%%", c.CompletionPercentage()),
		})
	}

	widths := columnWidths(headers, rows)
	var lines []string
	lines = append(lines, headerStyle.Render(formatRow(headers, widths)))
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths))
	}

	return strings.Join(lines, "\n")
}

func renderContractDetails(c contract.Contract) string {
	lines := []string{
		fmt.Sprintf("%s %s", labelStyle.Render("ID:"), c.ID),
		fmt.Sprintf("%s %s", labelStyle.Render("Number:"), c.ContractNumber),
		fmt.Sprintf("%s %s", labelStyle.Render("Type:"), c.ContractType),
		fmt.Sprintf("%s %s", labelStyle.Render("State:"), formatState(string(c.CurrentState))),
		fmt.Sprintf("%s %.0f%%", labelStyle.Render("Completion:"), c.CompletionPercentage()),
		fmt.Sprintf("%s %s", labelStyle.Render("Landlord:"), c.LandlordID),
	}

	if c.TenantID != nil {
		lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render("Tenant:"), c.TenantID))
	}

	if len(c.LandlordData) > 0 {
		lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render("Landlord Data:"), formatMap(c.LandlordData)))
	}

	if len(c.TenantData) > 0 {
		lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render("Tenant Data:"), formatMap(c.TenantData)))
	}

	if c.ObjectionsCount > 0 {
		lines = append(lines, fmt.Sprintf("%s %d (pending: %t)", labelStyle.Render("Objections:"), c.ObjectionsCount, c.HasPendingObjections))
	}

	lines = append(lines, fmt.Sprintf("%s %t / %t / %t", labelStyle.Render("Signed (T/L/G):"), c.TenantSigned, c.LandlordSigned, c.GuarantorSigned))
	lines = append(lines, fmt.Sprintf("%s %t", labelStyle.Render("Published:"), c.Published))

	if !c.CreatedAt.IsZero() {
		lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render("Created At:"), c.CreatedAt.Format(time.RFC3339)))
	}

	if !c.UpdatedAt.IsZero() {
		lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render("Updated At:"), c.UpdatedAt.Format(time.RFC3339)))
	}

	lines = append(lines, fmt.Sprintf("%s %d", labelStyle.Render("Version:"), c.Version))

	return strings.Join(lines, "\n")
}

func formatState(state string) string {
	switch state {
	case "published", "fully_signed":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Render(state)
	case "cancelled":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")).Render(state)
	case "draft", "landlord_completing", "tenant_completing":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#F5A623")).Render(state)
	default:
		return state
	}
}

func formatMap(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(data)
}

func columnWidths(headers []string, rows [][]string) []int {
	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = len(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	return widths
}

func formatRow(cells []string, widths []int) string {
	parts := make([]string, 0, len(cells))
	for i, cell := range cells {
		parts = append(parts, padRight(cell, widths[i]+2))
	}
	return strings.TrimRight(strings.Join(parts, ""), " ")
}

func padRight(value string, width int) string {
	if len(value) >= width {
		return value
	}
	return fmt.Sprintf("%-*s", width, value)
}
