// Package security masks credentials before they reach logs or the console.
package security

import (
	"regexp"
	"strings"
)

// sensitiveFields contains field names whose values are always masked.
var sensitiveFields = map[string]bool{
	"access_token": true,
	"api_hash":     true,
	"bot_token":    true,
	"token":        true,
	"secret":       true,
	"password":     true,
	"bearer":       true,
	"credential":   true,
	"credentials":  true,
}

// sensitivePatterns match credentials embedded in free text. The first
// capture group, when present, is kept in clear.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9._~+/=-]{8,})`),
	regexp.MustCompile(`(?i)((?:access[_-]?token|api[_-]?hash|bot[_-]?token)["']?\s*[=:]\s*["']?)([^\s"',]+)`),
	regexp.MustCompile(`(/bot)(\d{5,}:[A-Za-z0-9_-]{30,})`), // Bot API URLs
	regexp.MustCompile(`()(\b\d{5,}:[A-Za-z0-9_-]{30,}\b)`),  // bare bot tokens
}

// IsSensitiveField reports whether values of the named field are secrets.
func IsSensitiveField(field string) bool {
	return sensitiveFields[strings.ToLower(field)]
}

// MaskCredential masks a credential value for display, keeping at most the
// first and last four characters.
func MaskCredential(value string) string {
	if len(value) == 0 {
		return ""
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	if len(value) <= 8 {
		return value[:2] + strings.Repeat("*", len(value)-2)
	}
	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}

// MaskSensitive masks every credential found in input.
func MaskSensitive(input string) string {
	result := input
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllStringFunc(result, func(match string) string {
			sub := pattern.FindStringSubmatch(match)
			if len(sub) < 3 {
				return MaskCredential(match)
			}
			return sub[1] + MaskCredential(sub[2])
		})
	}
	return result
}

// ContainsSensitiveData reports whether input contains a credential.
func ContainsSensitiveData(input string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(input) {
			return true
		}
	}
	return false
}

// MaskError returns err with credentials masked out of its message. The
// original chain is kept for errors.Is and errors.As.
func MaskError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if !ContainsSensitiveData(msg) {
		return err
	}
	return &maskedError{msg: MaskSensitive(msg), err: err}
}

type maskedError struct {
	msg string
	err error
}

func (e *maskedError) Error() string { return e.msg }

func (e *maskedError) Unwrap() error { return e.err }

// MaskFields returns a copy of data with sensitive values masked.
func MaskFields(data map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(data))
	for k, v := range data {
		switch val := v.(type) {
		case string:
			if IsSensitiveField(k) {
				result[k] = MaskCredential(val)
			} else {
				result[k] = MaskSensitive(val)
			}
		case map[string]interface{}:
			result[k] = MaskFields(val)
		default:
			if IsSensitiveField(k) {
				result[k] = "***"
			} else {
				result[k] = v
			}
		}
	}
	return result
}
