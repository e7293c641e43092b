package validator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/snobbots/chatbot-backend/internal/entity"
)

// ParseQAPairs decodes a qa_json payload. The payload must be a JSON array of
// {"question": ..., "answer": ...} objects; anything else (a list of strings,
// a bare object, missing fields) fails with entity.ErrInvalidQAPairs before
// any embedding call is made.
func ParseQAPairs(raw string) ([]entity.QAPair, error) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: not a JSON array", entity.ErrInvalidQAPairs)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: empty array", entity.ErrInvalidQAPairs)
	}

	pairs := make([]entity.QAPair, 0, len(items))
	for i, item := range items {
		var obj struct {
			Question *string `json:"question"`
			Answer   *string `json:"answer"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			return nil, fmt.Errorf("%w: element %d is not an object", entity.ErrInvalidQAPairs, i)
		}
		if obj.Question == nil || obj.Answer == nil || *obj.Question == "" || *obj.Answer == "" {
			return nil, fmt.Errorf("%w: element %d is missing question or answer", entity.ErrInvalidQAPairs, i)
		}
		pairs = append(pairs, entity.QAPair{Question: *obj.Question, Answer: *obj.Answer})
	}

	return pairs, nil
}

// ValidateTenantID checks the tenant identifier extracted from the request.
func ValidateTenantID(tenantID string) error {
	if strings.TrimSpace(tenantID) == "" {
		return fmt.Errorf("%w: tenant_id", entity.ErrMissingField)
	}
	return nil
}

// ValidateChatbotTitle checks a chatbot title before namespace derivation.
func ValidateChatbotTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: chatbot_title", entity.ErrMissingField)
	}
	return nil
}

// ValidateQuery checks an ask query.
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: query", entity.ErrMissingField)
	}
	return nil
}

// SanitizeFilename strips path separators so uploaded filenames are safe to
// use as source labels and vector id components.
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	if idx := strings.LastIndex(filename, "/"); idx >= 0 {
		filename = filename[idx+1:]
	}
	return filename
}
