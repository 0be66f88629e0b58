package main

import (
	"fmt"
	"io"

	"github.com/poiesic/picsearch/pipeline"
)

// consoleSink renders pipeline events as progress lines for the one-shot
// search command. Streaming chunks are dropped; only stage results print.
type consoleSink struct {
	out io.Writer
}

func (s *consoleSink) Emit(event pipeline.Event) {
	switch e := event.(type) {
	case pipeline.ExtractQueryStart:
		fmt.Fprintf(s.out, "Searching for: %s\n", e.Query)
	case pipeline.ImageAnalysisComplete:
		fmt.Fprintf(s.out, "Image analysis: %s\n", e.Analysis)
	case pipeline.FormatQueryComplete:
		fmt.Fprintf(s.out, "Formatted query: %s\n", e.FormattedQuery)
	case pipeline.FormatQueryError:
		fmt.Fprintf(s.out, "Formatting failed, searching with the raw query\n")
	case pipeline.SearchComplete:
		fmt.Fprintf(s.out, "Retrieved %d candidates\n", e.MatchesCount)
	case pipeline.MatchReasoningComplete:
		match := e.Match
		marker := " "
		if match.IsBestMatch {
			marker = "*"
		}
		fmt.Fprintf(s.out, "%s %d: %s [%0.3f]\n", marker, match.Rank, match.PhotoURL, match.Similarity)
		for _, reason := range match.Reasons {
			fmt.Fprintf(s.out, "     - %s\n", reason)
		}
	case pipeline.Error:
		fmt.Fprintf(s.out, "Search failed: %s\n", e.Message)
	}
}
