package apikey

import "testing"

func TestGenerateShape(t *testing.T) {
	key, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !WellFormed(key) {
		t.Errorf("Generate() = %q, not well-formed", key)
	}
}

func TestGenerateUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key, err := Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if seen[key] {
			t.Fatalf("duplicate key generated: %s", key)
		}
		seen[key] = true
	}
}

func TestWellFormed(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"sb-0123456789abcdef0123456789abcdef", true},
		{"", false},
		{"sb-", false},
		{"sb-short", false},
		{"xx-0123456789abcdef0123456789abcdef", false},
		{"sb-0123456789abcdef0123456789abcdeg", false},
	}

	for _, tt := range tests {
		if got := WellFormed(tt.key); got != tt.want {
			t.Errorf("WellFormed(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
