package composer

import (
	"fmt"
	"strings"

	"github.com/sweetpotato0/reportflow/report"
)

// renderResponse builds the user-facing reply for a non-casual turn: a
// status-specific lead line followed by the request summary block.
func renderResponse(status report.Status, id report.ID, fields report.Fields) string {
	var b strings.Builder

	switch status {
	case report.StatusConfirmed:
		b.WriteString("Got it, running your report now ✅\n\n")
	case report.StatusSuccess:
		b.WriteString("Here is your request. Reply \"yes\" to run it, or tell me what to change.\n\n")
	case report.StatusNoParams:
		b.WriteString("I'll use the defaults below. Reply \"yes\" to run it, or tell me what to change.\n\n")
	case report.StatusNoDateRange:
		b.WriteString("Which period should I use? Please give me a from and to date (e.g. 01/08/2026 - 07/08/2026) or something like \"last week\".\n\n")
	case report.StatusFromDateRequired:
		b.WriteString("I have the end date but not the start. From which date should the report begin?\n\n")
	case report.StatusNoReport:
		b.WriteString("⚠️ " + report.DisplayName("") + "\n\nI can pull: Win Loss, Turnover, Outstanding, Top Outstanding.\n\n")
	case report.StatusNothing:
		return "Sorry, I didn't catch a report or any parameters there. 🤔\nI can pull your Win Loss, Turnover, Outstanding or Top Outstanding report — which one would you like?"
	}

	if id != "" {
		b.WriteString(renderSummary(id, fields))
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderSummary prints the accumulated request, one line per field family.
func renderSummary(id report.ID, fields report.Fields) string {
	schema, ok := report.Definition(id)
	if !ok {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 Report: %s\n", schema.Display)

	if schema.HasDateRange() {
		fmt.Fprintf(&b, "📅 Period: %s → %s\n",
			orUnset(fields[report.FieldFromDate]), orUnset(fields[report.FieldToDate]))
	}
	if _, ok := schema.Field(report.FieldProduct); ok {
		fmt.Fprintf(&b, "🏢 Product: %s\n", fields[report.FieldProduct])
	}
	if _, ok := schema.Field(report.FieldProductDetail); ok {
		fmt.Fprintf(&b, "🎮 Product Detail: %s\n", fields[report.FieldProductDetail])
	}
	if _, ok := schema.Field(report.FieldLevel); ok {
		fmt.Fprintf(&b, "👥 Level: %s\n", fields[report.FieldLevel])
	}
	if _, ok := schema.Field(report.FieldUser); ok {
		fmt.Fprintf(&b, "👤 User: %s\n", orUnset(fields[report.FieldUser]))
	}
	if _, ok := schema.Field(report.FieldTop); ok {
		fmt.Fprintf(&b, "🔢 Top: %s\n", fields[report.FieldTop])
	}
	return b.String()
}

func orUnset(v string) string {
	if v == "" || v == report.Unspecified {
		return "not set"
	}
	return v
}
