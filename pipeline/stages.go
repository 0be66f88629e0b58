package pipeline

import "github.com/poiesic/picsearch/ai"

// Stage adapters: each builds one inference request from prior-stage
// outputs. Free-text stages stream verbatim; structured stages request JSON
// output and are parsed by parser.go with the documented fallbacks.

func extractQueryRequest(query string) ai.CompletionRequest {
	return ai.CompletionRequest{
		Prompt: buildExtractQueryPrompt(query),
	}
}

func imageAnalysisRequest(image []byte, mime string) ai.CompletionRequest {
	return ai.CompletionRequest{
		Prompt:    imageAnalysisPrompt,
		Image:     image,
		ImageMIME: mime,
	}
}

func formatQueryRequest(query, extractedDetails, imageAnalysis string) ai.CompletionRequest {
	return ai.CompletionRequest{
		Prompt:     buildFormatQueryPrompt(query, extractedDetails, imageAnalysis),
		JSONOutput: true,
	}
}

func reasoningRequest(query, extractedDetails, formattedQuery, candidateAnalysis, imageAnalysis string) ai.CompletionRequest {
	return ai.CompletionRequest{
		Prompt:     buildReasoningPrompt(query, extractedDetails, formattedQuery, candidateAnalysis, imageAnalysis),
		JSONOutput: true,
	}
}

func interestingDetailsRequest(candidateAnalysis string) ai.CompletionRequest {
	return ai.CompletionRequest{
		Prompt:     buildInterestingDetailsPrompt(candidateAnalysis),
		JSONOutput: true,
	}
}
