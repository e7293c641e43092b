package entity

// Source labels attached to vector record metadata for provenance. File
// uploads use the filename instead.
const (
	SourceQAJSON      = "qa_json"
	SourceRawText     = "raw_text"
	SourceWebCrawling = "web_crawling"
)

// InputKind discriminates the ingestion input union.
type InputKind string

const (
	InputFile        InputKind = "file"
	InputRawText     InputKind = "raw_text"
	InputQAPairs     InputKind = "qa_pairs"
	InputCrawlBlocks InputKind = "crawl_blocks"
)

// Category maps an input kind to its ledger accounting bucket.
func (k InputKind) Category() UsageCategory {
	switch k {
	case InputFile:
		return CategoryFileUpload
	case InputRawText:
		return CategoryRawText
	case InputQAPairs:
		return CategoryQAPairs
	case InputCrawlBlocks:
		return CategoryWebCrawl
	default:
		return ""
	}
}

// QAPair is one question/answer unit. Each pair becomes exactly one chunk.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// CrawlBlock is a heading+body block extracted from a crawled page. Blocks
// arrive pre-chunked and bypass the chunker.
type CrawlBlock struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// FileInput carries an uploaded document.
type FileInput struct {
	Filename string
	Content  []byte
}

// IngestInput is a tagged union over the heterogeneous ingestion payloads.
// Construct it with one of the NewXxxInput helpers; Validate rejects both the
// empty and the multi-kind states.
type IngestInput struct {
	Kind        InputKind
	File        *FileInput
	RawText     string
	QAPairs     []QAPair
	CrawlBlocks []CrawlBlock
}

func NewFileInput(filename string, content []byte) IngestInput {
	return IngestInput{Kind: InputFile, File: &FileInput{Filename: filename, Content: content}}
}

func NewRawTextInput(text string) IngestInput {
	return IngestInput{Kind: InputRawText, RawText: text}
}

func NewQAPairsInput(pairs []QAPair) IngestInput {
	return IngestInput{Kind: InputQAPairs, QAPairs: pairs}
}

func NewCrawlBlocksInput(blocks []CrawlBlock) IngestInput {
	return IngestInput{Kind: InputCrawlBlocks, CrawlBlocks: blocks}
}

// Validate checks that exactly one payload kind is populated and that it is
// not empty.
func (in *IngestInput) Validate() error {
	populated := 0
	if in.File != nil {
		populated++
	}
	if in.RawText != "" {
		populated++
	}
	if len(in.QAPairs) > 0 {
		populated++
	}
	if len(in.CrawlBlocks) > 0 {
		populated++
	}

	switch {
	case populated == 0:
		return ErrNoInput
	case populated > 1:
		return ErrAmbiguousInput
	}

	switch in.Kind {
	case InputFile:
		if in.File == nil || len(in.File.Content) == 0 || in.File.Filename == "" {
			return ErrNoInput
		}
	case InputRawText:
		if in.RawText == "" {
			return ErrNoInput
		}
	case InputQAPairs:
		if len(in.QAPairs) == 0 {
			return ErrNoInput
		}
		for _, p := range in.QAPairs {
			if p.Question == "" || p.Answer == "" {
				return ErrInvalidQAPairs
			}
		}
	case InputCrawlBlocks:
		if len(in.CrawlBlocks) == 0 {
			return ErrNoInput
		}
	default:
		return ErrNoInput
	}

	return nil
}

// IngestRequest drives one ingestion call.
type IngestRequest struct {
	TenantID     string
	ChatbotTitle string
	Input        IngestInput
}

// IngestResult reports what one ingestion call produced. TokensUsed is the
// embedding token spend already written to the ledger under the input kind's
// category.
type IngestResult struct {
	ChunksIndexed int    `json:"chunks_indexed"`
	TokensUsed    int64  `json:"tokens_used"`
	Namespace     string `json:"namespace"`
}
