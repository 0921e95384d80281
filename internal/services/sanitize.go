package services

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Rupe88/kaji-service-backend-sub004/internal/models"
	apperrors "github.com/Rupe88/kaji-service-backend-sub004/pkg/errors"
)

var (
	scriptTagRegex = regexp.MustCompile(`(?i)<script[^>]*>[\s\S]*?</script>`)
	onEventRegex   = regexp.MustCompile(`(?i)\s+on\w+\s*=`)
)

// SanitizeMessageContent trims, bounds and defangs message content. Length
// is checked before HTML escaping so the limit applies to what the user
// actually typed, not to the escaped form.
func SanitizeMessageContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperrors.Validation("Message content is required", apperrors.FieldError{
			Field:   "content",
			Message: "content must not be empty",
		})
	}

	if utf8.RuneCountInString(content) > models.MaxContentLength {
		return "", apperrors.Validation("Message is too long", apperrors.FieldError{
			Field:   "content",
			Message: fmt.Sprintf("content must be at most %d characters", models.MaxContentLength),
		})
	}

	content = scriptTagRegex.ReplaceAllString(content, "")
	content = onEventRegex.ReplaceAllString(content, " ")
	content = html.EscapeString(content)
	content = strings.TrimSpace(content)

	if content == "" {
		return "", apperrors.Validation("Message content is required", apperrors.FieldError{
			Field:   "content",
			Message: "content must not be empty",
		})
	}
	return content, nil
}
