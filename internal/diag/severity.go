package diag

// Severity ranks a diagnostic. Only SevError makes a check fail.
type Severity uint8

const (
	SevInfo Severity = iota // timings and other observations
	SevWarning
	SevError
)

var severityNames = [...]struct{ upper, lower string }{
	SevInfo:    {"INFO", "info"},
	SevWarning: {"WARNING", "warning"},
	SevError:   {"ERROR", "error"},
}

// String is the upper-case name used by the pretty and JSON formats.
func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s].upper
	}
	return "UNKNOWN"
}

// SeverityLabel is the lower-case severity used by single-line formats.
func SeverityLabel(sev Severity) string {
	if int(sev) < len(severityNames) {
		return severityNames[sev].lower
	}
	return "info"
}
