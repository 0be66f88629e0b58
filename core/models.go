package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for photo records.
// It is generated by content-based hashing of the photo URL, so the same
// photo always maps to the same record.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Photo represents an ingested photo with its AI analysis and embedding.
type Photo struct {
	Id         ID                `json:"id"`
	URL        string            `json:"photo_url"`
	Analysis   string            `json:"photo_analysis,omitempty"`
	Vector     []float32         `json:"-"` // Embedding of the analysis text (populated by ingestion)
	Metadata   map[string]string `json:"metadata,omitempty"`
	InsertedAt time.Time         `json:"inserted_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// SearchRequest is the immutable input to one pipeline run.
type SearchRequest struct {
	Id       string `json:"id"`                  // Caller-supplied search identifier (UUID)
	Query    string `json:"query"`               // Search query text
	ImageURL string `json:"image_url,omitempty"` // Optional image to include in the search
}

// HasImage reports whether the request carries a query image.
func (r *SearchRequest) HasImage() bool {
	return r.ImageURL != ""
}

// Candidate is a photo returned by the similarity retriever for a formatted
// query. Rank is the 0-based position in the store's similarity-sorted
// response; it is never recomputed downstream.
type Candidate struct {
	PhotoId    ID      `json:"photo_id"`
	PhotoURL   string  `json:"photo_url"`
	Analysis   string  `json:"photo_analysis"`
	Similarity float32 `json:"similarity"` // Cosine similarity in [0,1]
	Rank       int     `json:"rank"`
}

// MatchRecord is the persisted outcome of reasoning over one candidate.
// Invariant: IsBestMatch == (Rank == 0).
type MatchRecord struct {
	Id                 string    `json:"id"`
	SearchResultId     string    `json:"search_result_id"`
	PhotoId            ID        `json:"photo_id"`
	PhotoURL           string    `json:"photo_url"`
	Similarity         float32   `json:"similarity"`
	Rank               int       `json:"rank"`
	IsBestMatch        bool      `json:"is_best_match"`
	Reasons            []string  `json:"reasons"`
	InterestingDetails []string  `json:"interesting_details"`
	Heading            string    `json:"heading,omitempty"`
	InsertedAt         time.Time `json:"inserted_at"`
}

// SimilarityMatch represents a photo match from vector similarity search.
type SimilarityMatch struct {
	Photo *Photo
	Score float32
}

// SearchOutcome is the terminal aggregate of one pipeline run.
// Matches are ordered by rank.
type SearchOutcome struct {
	SearchId              string         `json:"search_id"`
	SearchResultId        string         `json:"search_result_id"`
	Query                 string         `json:"query"`
	ExtractedDetails      string         `json:"extracted_details"`
	FormattedQuery        string         `json:"formatted_query"`
	FormattingExplanation string         `json:"formatting_explanation"`
	Matches               []*MatchRecord `json:"matches"`
}

// ChatMessage is one message in a conversation about a persisted match.
type ChatMessage struct {
	Id        string    `json:"id"`
	MatchId   string    `json:"match_id"`
	IsUser    bool      `json:"is_user"`
	Text      string    `json:"message_text"`
	CreatedAt time.Time `json:"created_at"`
}
