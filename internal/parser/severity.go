package parser

// severityNames and facilityNames are cosmetic lookup tables for rendering
// severity and facility codes as names; nothing in the ingestion path calls
// them, and they never influence the persisted LogEntry.Level/Facility
// integers.
var severityNames = [...]string{
	"emergency", "alert", "critical", "error", "warning", "notice", "info", "debug",
}

var facilityNames = [...]string{
	"kern", "user", "mail", "daemon", "auth", "syslog", "lpr", "news",
	"uucp", "cron", "authpriv", "ftp", "ntp", "security", "console", "solaris-cron",
	"local0", "local1", "local2", "local3", "local4", "local5", "local6", "local7",
}

// SeverityName renders a syslog severity (0-7) for log messages; out-of-
// range values render as "unknown".
func SeverityName(severity int) string {
	if severity < 0 || severity >= len(severityNames) {
		return "unknown"
	}
	return severityNames[severity]
}

// FacilityName renders a syslog facility (0-23) for log messages;
// out-of-range values render as "unknown".
func FacilityName(facility int) string {
	if facility < 0 || facility >= len(facilityNames) {
		return "unknown"
	}
	return facilityNames[facility]
}
