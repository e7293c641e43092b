package validator

import (
	"errors"
	"testing"

	"github.com/snobbots/chatbot-backend/internal/entity"
)

func TestParseQAPairs(t *testing.T) {
	raw := `[{"question":"What are your hours?","answer":"9 to 5."},{"question":"Where?","answer":"Online."}]`

	pairs, err := ParseQAPairs(raw)
	if err != nil {
		t.Fatalf("ParseQAPairs() error = %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("ParseQAPairs() returned %d pairs, want 2", len(pairs))
	}
	if pairs[0].Question != "What are your hours?" || pairs[0].Answer != "9 to 5." {
		t.Errorf("pairs[0] = %+v", pairs[0])
	}
}

func TestParseQAPairsMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "list of strings", raw: `["question one", "question two"]`},
		{name: "not json", raw: `q: a`},
		{name: "bare object", raw: `{"question":"q","answer":"a"}`},
		{name: "missing answer", raw: `[{"question":"q"}]`},
		{name: "empty question", raw: `[{"question":"","answer":"a"}]`},
		{name: "empty array", raw: `[]`},
		{name: "number elements", raw: `[1, 2, 3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQAPairs(tt.raw)
			if !errors.Is(err, entity.ErrInvalidQAPairs) {
				t.Errorf("ParseQAPairs(%q) error = %v, want ErrInvalidQAPairs", tt.raw, err)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd", "passwd"},
		{`C:\docs\handbook.docx`, "handbook.docx"},
	}

	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
