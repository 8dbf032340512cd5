package config

import (
	"fmt"
	"regexp"
	"strings"
)

// SensitivePattern represents a pattern that might indicate sensitive data
type SensitivePattern struct {
	Name        string
	Pattern     *regexp.Regexp
	Description string
}

var sensitivePatterns = []SensitivePattern{
	{
		Name:        "Token",
		Pattern:     regexp.MustCompile(`(?i)^\s*(token|auth[_-]?token|access[_-]?token)\s*:\s*['"]?[a-zA-Z0-9_-]{15,}`),
		Description: "API token stored in config file",
	},
	{
		Name:        "GitHub Token",
		Pattern:     regexp.MustCompile(`gh[pousr]_[a-zA-Z0-9]{36,}|github_pat_[a-zA-Z0-9_]{22,}`),
		Description: "GitHub token stored in config file",
	},
}

// SensitiveDataFinding represents a detected sensitive data instance
type SensitiveDataFinding struct {
	PatternName string
	Description string
	Line        int
	Preview     string // Redacted preview of the match
}

// DetectSensitiveData scans config file content for credentials. A line is
// reported once, for the first pattern it matches.
func DetectSensitiveData(content string) []SensitiveDataFinding {
	var findings []SensitiveDataFinding
	lines := strings.Split(content, "\n")

	for lineNum, line := range lines {
		for _, pattern := range sensitivePatterns {
			if pattern.Pattern.MatchString(line) {
				findings = append(findings, SensitiveDataFinding{
					PatternName: pattern.Name,
					Description: pattern.Description,
					Line:        lineNum + 1,
					Preview:     redactSensitiveValue(line),
				})
				break
			}
		}
	}

	return findings
}

// redactSensitiveValue keeps the YAML key and hides the value.
func redactSensitiveValue(line string) string {
	idx := strings.Index(line, ":")
	if idx == -1 {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) > 8 {
			return trimmed[:4] + "... [REDACTED]"
		}
		return "[REDACTED]"
	}
	return strings.TrimSpace(line[:idx]) + ": [REDACTED]"
}

// FormatSensitiveDataWarning formats findings into a warning for path.
func FormatSensitiveDataWarning(path string, findings []SensitiveDataFinding) string {
	if len(findings) == 0 {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s is readable by other users and contains credentials:\n", path)
	for i, finding := range findings {
		fmt.Fprintf(&sb, "  %d. %s (line %d): %s\n", i+1, finding.Description, finding.Line, finding.Preview)
	}
	fmt.Fprintf(&sb, "Restrict it with 'chmod 600 %s' or set ZB_INSTALL_TOKEN instead.\n", path)
	return sb.String()
}
