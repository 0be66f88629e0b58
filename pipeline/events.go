package pipeline

import "github.com/poiesic/picsearch/core"

// Event is one entry in the pipeline's outward event stream. The set of
// implementations is closed: one type per event name, so consumers can
// switch exhaustively over kinds.
type Event interface {
	// Kind returns the event's wire name, e.g. "extract_query_chunk".
	Kind() string
}

// ExtractQueryStart marks the beginning of the query extraction stage.
type ExtractQueryStart struct {
	SearchId string `json:"search_id"`
	Query    string `json:"query"`
}

func (ExtractQueryStart) Kind() string { return "extract_query_start" }

// ExtractQueryChunk carries one fragment of streamed extraction output.
type ExtractQueryChunk struct {
	Chunk string `json:"chunk"`
}

func (ExtractQueryChunk) Kind() string { return "extract_query_chunk" }

// ExtractQueryComplete carries the full extracted details text.
type ExtractQueryComplete struct {
	ExtractedDetails string `json:"extracted_details"`
}

func (ExtractQueryComplete) Kind() string { return "extract_query_complete" }

// ImageAnalysisStart marks the beginning of the image analysis stage.
// Emitted only when the request carries an image URL.
type ImageAnalysisStart struct {
	ImageURL string `json:"image_url"`
}

func (ImageAnalysisStart) Kind() string { return "image_analysis_start" }

// ImageAnalysisChunk carries one fragment of streamed analysis output.
type ImageAnalysisChunk struct {
	Chunk string `json:"chunk"`
}

func (ImageAnalysisChunk) Kind() string { return "image_analysis_chunk" }

// ImageAnalysisComplete carries the full image analysis text.
type ImageAnalysisComplete struct {
	Analysis string `json:"analysis"`
}

func (ImageAnalysisComplete) Kind() string { return "image_analysis_complete" }

// FormatQueryStart marks the beginning of the query formatting stage.
type FormatQueryStart struct{}

func (FormatQueryStart) Kind() string { return "format_query_start" }

// FormatQueryComplete carries the structured formatting result.
type FormatQueryComplete struct {
	FormattedQuery string `json:"formatted_query"`
	Explanation    string `json:"explanation"`
}

func (FormatQueryComplete) Kind() string { return "format_query_complete" }

// FormatQueryError reports that formatting output could not be parsed and
// the fallback values are in use. The run continues.
type FormatQueryError struct {
	FormattedQuery string `json:"formatted_query"`
	Explanation    string `json:"explanation"`
	Message        string `json:"message"`
}

func (FormatQueryError) Kind() string { return "format_query_error" }

// SearchStart marks the beginning of vector retrieval.
type SearchStart struct {
	FormattedQuery string `json:"formatted_query"`
}

func (SearchStart) Kind() string { return "search_start" }

// SearchComplete reports how many candidates retrieval returned.
type SearchComplete struct {
	SearchResultId string `json:"search_result_id"`
	MatchesCount   int    `json:"matches_count"`
}

func (SearchComplete) Kind() string { return "search_complete" }

// ReasoningStart marks the beginning of the per-candidate reasoning loop.
type ReasoningStart struct {
	Candidates int `json:"candidates"`
}

func (ReasoningStart) Kind() string { return "reasoning_start" }

// ReasoningProgress carries one fragment of streamed reasoning output for a
// single candidate, identified by rank.
type ReasoningProgress struct {
	PhotoId core.ID `json:"photo_id"`
	Rank    int     `json:"rank"`
	Chunk   string  `json:"chunk"`
}

func (ReasoningProgress) Kind() string { return "reasoning_progress" }

// InterestingDetailsProgress carries one fragment of streamed detail
// extraction output for a single candidate, identified by rank.
type InterestingDetailsProgress struct {
	PhotoId core.ID `json:"photo_id"`
	Rank    int     `json:"rank"`
	Chunk   string  `json:"chunk"`
}

func (InterestingDetailsProgress) Kind() string { return "interesting_details_progress" }

// MatchReasoningComplete carries the fully assembled record for one
// processed candidate.
type MatchReasoningComplete struct {
	Match *core.MatchRecord `json:"match"`
}

func (MatchReasoningComplete) Kind() string { return "match_reasoning_complete" }

// ReasoningComplete marks the end of the per-candidate reasoning loop.
type ReasoningComplete struct {
	MatchesCount int `json:"matches_count"`
}

func (ReasoningComplete) Kind() string { return "reasoning_complete" }

// Complete carries the terminal aggregate for a successful run.
type Complete struct {
	Outcome *core.SearchOutcome `json:"outcome"`
}

func (Complete) Kind() string { return "complete" }

// Error is the terminal event for a failed run. No partial aggregate
// accompanies it.
type Error struct {
	Message string `json:"message"`
}

func (Error) Kind() string { return "error" }
