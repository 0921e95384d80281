package services

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/Rupe88/kaji-service-backend-sub004/internal/models"
	apperrors "github.com/Rupe88/kaji-service-backend-sub004/pkg/errors"
)

const maxAttachmentURLLength = 2048

// ValidateAttachments checks the cap and each entry's shape. Files are
// uploaded elsewhere and only references pass through here, so the checks
// guard against storing anything dangerous or unresolvable.
func ValidateAttachments(list []models.Attachment) error {
	if len(list) > models.MaxAttachments {
		return apperrors.Validation("Too many attachments", apperrors.FieldError{
			Field:   "attachments",
			Message: fmt.Sprintf("at most %d attachments are allowed", models.MaxAttachments),
		})
	}

	for i, a := range list {
		if strings.TrimSpace(a.Type) == "" {
			return apperrors.Validation("Invalid attachment", apperrors.FieldError{
				Field:   fmt.Sprintf("attachments[%d].type", i),
				Message: "type is required",
			})
		}
		if err := validateAttachmentURL(a.URL); err != nil {
			return apperrors.Validation("Invalid attachment", apperrors.FieldError{
				Field:   fmt.Sprintf("attachments[%d].url", i),
				Message: err.Error(),
			})
		}
	}
	return nil
}

func validateAttachmentURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return errors.New("url is required")
	}
	if len(raw) > maxAttachmentURLLength {
		return errors.New("url is too long")
	}

	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "javascript:") ||
		strings.HasPrefix(lower, "data:") ||
		strings.HasPrefix(lower, "vbscript:") ||
		strings.Contains(lower, "<script") {
		return errors.New("url contains unsafe content")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return errors.New("url is malformed")
	}
	if parsed.Scheme != "https" {
		return errors.New("only https urls are allowed")
	}
	if parsed.Host == "" {
		return errors.New("url host is missing")
	}
	return nil
}
