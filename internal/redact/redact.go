// Package redact masks the admin password before text reaches a log.
package redact

import "regexp"

const redacted = "[REDACTED]"

// commandPattern matches a shell login line and keeps only the verb.
var commandPattern = regexp.MustCompile(`(?i)^(\s*login)\s+.*$`)

// assignmentPattern matches inline password assignments such as
// "--password=x" or "ECOSCAN_ADMIN_PASSWORD=x".
var assignmentPattern = regexp.MustCompile(`(?i)(password\s*[:=]\s*)\S+`)

// Command masks the argument of a login line and any password assignment.
func Command(line string) string {
	line = commandPattern.ReplaceAllString(line, "${1} "+redacted)
	return assignmentPattern.ReplaceAllString(line, "${1}"+redacted)
}
