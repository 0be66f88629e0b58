package pipeline

import (
	"fmt"
	"strings"

	"github.com/poiesic/picsearch/ai"
)

// drain consumes a fragment sequence exactly once, invoking onChunk for each
// fragment while accumulating the full text. A mid-stream error is an
// upstream failure and aborts the drain; the partial text is discarded.
// onChunk may be nil for stages whose fragments are not forwarded.
func drain(frags ai.Fragments, onChunk func(chunk string)) (string, error) {
	var sb strings.Builder
	for chunk, err := range frags {
		if err != nil {
			return "", wrapUpstream(err)
		}
		sb.WriteString(chunk)
		if onChunk != nil {
			onChunk(chunk)
		}
	}
	return sb.String(), nil
}

// wrapUpstream tags a failed inference or retrieval call as terminal.
func wrapUpstream(err error) error {
	return fmt.Errorf("%w: %w", ErrUpstream, err)
}

// wrapSearchResult tags a failed search-result row creation as terminal.
func wrapSearchResult(err error) error {
	return fmt.Errorf("%w: %w", ErrSearchResultPersistence, err)
}
