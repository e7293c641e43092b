package entity

import "testing"

func TestDeriveNamespace(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Support Bot", "support_bot"},
		{"SUPPORT BOT", "support_bot"},
		{"  Support   Bot  ", "support_bot"},
		{"faq", "faq"},
		{"My  Cool\tBot", "my_cool_bot"},
	}

	for _, tt := range tests {
		if got := DeriveNamespace(tt.title); got != tt.want {
			t.Errorf("DeriveNamespace(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestIngestInputValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   IngestInput
		wantErr error
	}{
		{"empty", IngestInput{}, ErrNoInput},
		{"file", NewFileInput("a.txt", []byte("x")), nil},
		{"file without content", IngestInput{Kind: InputFile, File: &FileInput{Filename: "a.txt"}}, ErrNoInput},
		{"raw text", NewRawTextInput("x"), nil},
		{"qa pairs", NewQAPairsInput([]QAPair{{Question: "q", Answer: "a"}}), nil},
		{"qa pair empty answer", NewQAPairsInput([]QAPair{{Question: "q"}}), ErrInvalidQAPairs},
		{"crawl blocks", NewCrawlBlocksInput([]CrawlBlock{{Heading: "h", Body: "b"}}), nil},
		{
			"two kinds",
			IngestInput{Kind: InputRawText, RawText: "x", CrawlBlocks: []CrawlBlock{{Body: "b"}}},
			ErrAmbiguousInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.input.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUsageCategoryForInputKind(t *testing.T) {
	pairs := map[InputKind]UsageCategory{
		InputFile:        CategoryFileUpload,
		InputRawText:     CategoryRawText,
		InputQAPairs:     CategoryQAPairs,
		InputCrawlBlocks: CategoryWebCrawl,
	}
	for kind, want := range pairs {
		if got := kind.Category(); got != want {
			t.Errorf("%s.Category() = %s, want %s", kind, got, want)
		}
	}
}

func TestBotUsageTotals(t *testing.T) {
	u := &BotUsage{
		FileUploadTokens: 1,
		RawTextTokens:    2,
		QAPairsTokens:    3,
		WebCrawlTokens:   4,
		AskQueryTokens:   5,
	}
	if u.Total() != 15 {
		t.Errorf("Total() = %d, want 15", u.Total())
	}
	if u.ByCategory(CategoryWebCrawl) != 4 {
		t.Errorf("ByCategory(web_crawl) = %d, want 4", u.ByCategory(CategoryWebCrawl))
	}
}
