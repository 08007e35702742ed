// Package security redacts credentials from log output and error text.
package security

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// Linear personal API keys and OAuth access tokens
	linearAPIKeyPattern = regexp.MustCompile(`lin_api_[a-zA-Z0-9]{20,}`)
	linearOAuthPattern  = regexp.MustCompile(`lin_oauth_[a-zA-Z0-9]{20,}`)

	// Authorization header echoed in dumps. Linear takes the raw key without a scheme.
	authHeaderPattern = regexp.MustCompile(`(?i)(authorization)[[:space:]]*:[[:space:]]*(?:bearer[[:space:]]+)?([^[:space:]"',]+)`)

	bearerTokenPattern = regexp.MustCompile(`(?i)bearer[[:space:]]+([a-zA-Z0-9_\-\.]+)`)

	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?token|access[_-]?token)[[:space:]]*[:=][[:space:]]*['"` + "`" + `]?([a-zA-Z0-9_\-]{16,})['"` + "`" + `]?`)

	urlPasswordPattern = regexp.MustCompile(`(?i)(https?)://[^:/\s]+:([^@\s]+)@`)

	gcpServiceAccountPattern = regexp.MustCompile(`"private_key":\s*"[^"]+"`)
)

// LogSanitizer masks credentials in log messages.
type LogSanitizer struct {
	customPatterns []*regexp.Regexp
}

// NewLogSanitizer creates a sanitizer with the built-in patterns.
func NewLogSanitizer() *LogSanitizer {
	return &LogSanitizer{
		customPatterns: make([]*regexp.Regexp, 0),
	}
}

// AddCustomPattern adds a pattern whose matches are replaced with [REDACTED].
func (ls *LogSanitizer) AddCustomPattern(pattern *regexp.Regexp) {
	ls.customPatterns = append(ls.customPatterns, pattern)
}

// AddSecret redacts an exact secret value wherever it appears.
func (ls *LogSanitizer) AddSecret(secret string) {
	if strings.TrimSpace(secret) == "" {
		return
	}
	ls.AddCustomPattern(regexp.MustCompile(regexp.QuoteMeta(secret)))
}

// Sanitize removes or masks sensitive information from a message.
func (ls *LogSanitizer) Sanitize(message string) string {
	// Exact secrets first so partial pattern matches cannot leave a suffix behind
	for _, pattern := range ls.customPatterns {
		message = pattern.ReplaceAllString(message, "[REDACTED]")
	}

	message = linearAPIKeyPattern.ReplaceAllString(message, "[REDACTED-LINEAR-KEY]")
	message = linearOAuthPattern.ReplaceAllString(message, "[REDACTED-LINEAR-TOKEN]")
	message = authHeaderPattern.ReplaceAllStringFunc(message, func(m string) string {
		if strings.Contains(m, "[REDACTED") {
			return m
		}
		name := m[:strings.Index(m, ":")]
		return name + ": [REDACTED]"
	})
	message = bearerTokenPattern.ReplaceAllString(message, "Bearer [REDACTED]")
	message = apiKeyPattern.ReplaceAllString(message, "${1}=[REDACTED]")
	message = urlPasswordPattern.ReplaceAllString(message, "${1}://[REDACTED]@")
	message = gcpServiceAccountPattern.ReplaceAllString(message, `"private_key": "[REDACTED]"`)

	return message
}

// SanitizeError sanitizes an error's text.
func (ls *LogSanitizer) SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return ls.Sanitize(err.Error())
}

// SanitizeMap sanitizes all values in a label map. Values under sensitive key
// names are replaced outright.
func (ls *LogSanitizer) SanitizeMap(m map[string]string) map[string]string {
	sanitized := make(map[string]string, len(m))
	for k, v := range m {
		if isSensitiveKey(k) {
			sanitized[k] = "[REDACTED]"
			continue
		}
		sanitized[k] = ls.Sanitize(v)
	}
	return sanitized
}

// SanitizeFields sanitizes structured log fields. Non-string values are
// formatted before sanitizing only when they are errors or Stringers.
func (ls *LogSanitizer) SanitizeFields(fields map[string]interface{}) map[string]interface{} {
	if fields == nil {
		return nil
	}
	sanitized := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if isSensitiveKey(k) {
			sanitized[k] = "[REDACTED]"
			continue
		}
		switch val := v.(type) {
		case string:
			sanitized[k] = ls.Sanitize(val)
		case error:
			sanitized[k] = ls.SanitizeError(val)
		case fmt.Stringer:
			sanitized[k] = ls.Sanitize(val.String())
		default:
			sanitized[k] = v
		}
	}
	return sanitized
}

func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, keyword := range []string{"password", "secret", "token", "auth", "credential", "api_key", "apikey"} {
		if strings.Contains(lowerKey, keyword) {
			return true
		}
	}
	return false
}
