package report

// Status is the deterministic outcome code computed for every turn. Codes are
// stable across releases; downstream automation branches on them.
type Status int

const (
	// StatusSuccess: report resolved and every mandatory parameter present.
	StatusSuccess Status = 200

	// StatusCasual: small talk, no report intent in the message.
	StatusCasual Status = 104

	// StatusConfirmed: the user agreed to run the pending request.
	StatusConfirmed Status = 209

	// StatusNoParams: report resolved but no parameter was given.
	StatusNoParams Status = 410

	// StatusNoReport: parameters recognized but the report itself was not.
	StatusNoReport Status = 411

	// StatusNoDateRange: the report needs a date range that is still missing.
	StatusNoDateRange Status = 412

	// StatusFromDateRequired: a to-date was given without a from-date.
	StatusFromDateRequired Status = 413

	// StatusNothing: neither report nor parameters recognized, and not casual.
	StatusNothing Status = 414
)

// String returns the short label used in logs and analytics rows.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusCasual:
		return "casual"
	case StatusConfirmed:
		return "confirmed"
	case StatusNoParams:
		return "no_params"
	case StatusNoReport:
		return "no_report"
	case StatusNoDateRange:
		return "no_date_range"
	case StatusFromDateRequired:
		return "from_date_required"
	case StatusNothing:
		return "nothing_recognized"
	default:
		return "unknown"
	}
}

// Actionable reports whether this status allows the backend call to proceed
// once the user confirms.
func (s Status) Actionable() bool {
	return s == StatusSuccess || s == StatusConfirmed
}
