package entity

// VectorMetadata travels with every vector record and comes back attached to
// query matches.
type VectorMetadata struct {
	ChunkText string `json:"chunk_text"`
	Source    string `json:"source"`
	TenantID  string `json:"tenant_id"`
}

// VectorRecord is one embedded chunk stored under a bot's namespace. IDs are
// minted fresh per ingestion call and never reused across calls.
type VectorRecord struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata VectorMetadata `json:"metadata"`
}

// VectorMatch is one ranked query result, descending by cosine similarity.
type VectorMatch struct {
	ID       string         `json:"id"`
	Score    float32        `json:"score"`
	Metadata VectorMetadata `json:"metadata"`
}
