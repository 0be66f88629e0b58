package pipeline

import "encoding/json"

// Fallback values substituted when a structured stage's output cannot be
// parsed. The run continues with these instead of aborting.
const (
	fallbackFormattingExplanation = "Error formatting query"
	fallbackReason                = "Unable to determine reasoning for this match"
)

// formatQueryPayload is the declared shape of the query formatting stage.
// Pointer fields distinguish an absent key from an empty value.
type formatQueryPayload struct {
	FormattedQuery *string `json:"formatted_query"`
	Explanation    *string `json:"explanation"`
}

// reasoningPayload is the declared shape of the reasoning stage.
type reasoningPayload struct {
	Reasons []string `json:"reasons"`
}

// detailsPayload is the declared shape of the detail extraction stage.
type detailsPayload struct {
	InterestingDetails []string `json:"interesting_details"`
	Explanation        *string  `json:"explanation"`
	Heading            *string  `json:"heading"`
}

// parseFormatQuery parses the formatting stage's output. On parse failure or
// a missing required field, the formatted query falls back to the original
// query text and ok is false. Unknown extra fields are ignored.
func parseFormatQuery(raw, originalQuery string) (formatted, explanation string, ok bool) {
	var payload formatQueryPayload
	if err := json.Unmarshal([]byte(sanitizeJSON(raw)), &payload); err != nil {
		return originalQuery, fallbackFormattingExplanation, false
	}
	if payload.FormattedQuery == nil || *payload.FormattedQuery == "" || payload.Explanation == nil {
		return originalQuery, fallbackFormattingExplanation, false
	}
	return *payload.FormattedQuery, *payload.Explanation, true
}

// parseReasons parses the reasoning stage's output. On parse failure or a
// missing reasons list, a single fallback reason is substituted and ok is
// false.
func parseReasons(raw string) (reasons []string, ok bool) {
	var payload reasoningPayload
	if err := json.Unmarshal([]byte(sanitizeJSON(raw)), &payload); err != nil {
		return []string{fallbackReason}, false
	}
	if payload.Reasons == nil {
		return []string{fallbackReason}, false
	}
	return payload.Reasons, true
}

// parseInterestingDetails parses the detail extraction stage's output. On
// parse failure or a missing required field, the details fall back to an
// empty list and ok is false.
func parseInterestingDetails(raw string) (details []string, explanation, heading string, ok bool) {
	var payload detailsPayload
	if err := json.Unmarshal([]byte(sanitizeJSON(raw)), &payload); err != nil {
		return []string{}, "", "", false
	}
	if payload.InterestingDetails == nil || payload.Explanation == nil || payload.Heading == nil {
		return []string{}, "", "", false
	}
	return payload.InterestingDetails, *payload.Explanation, *payload.Heading, true
}
