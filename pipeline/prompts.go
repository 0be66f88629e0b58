package pipeline

import (
	"fmt"
	"strings"
)

const extractQueryPrompt = `Analyze the user's photo search query and extract every concrete detail
that could help locate matching photos: subjects, objects, colors, setting, time of day, season,
mood, activities, and any named people or places. Describe each detail in plain prose. Do not
invent details the query does not state or clearly imply.

Query: %s`

const imageAnalysisPrompt = `You are an advanced image analysis AI. Thoroughly examine the provided
image and describe the following aspects in detail:

1. Description: the overall scene or subject matter.
2. Colors: dominant colors and significant color patterns.
3. Text: transcribe any visible text.
4. Category: the general type of image (portrait, landscape, still life, etc.).
5. Emotion: the overall mood the image conveys.
6. Main Subject: the primary focus of the image.
7. People: pose, emotion, clothing, and other relevant details of any people.
8. Animals and Plants: identify and describe any present.
9. Objects: significant objects or items.
10. Composition and Lighting: layout, arrangement, and lighting conditions.

Be thorough. If unsure about an element, state your level of confidence. Finish with a brief
summary of the most notable aspects of the image.`

const formatQuerySchema = `{
  "type": "object",
  "required": ["formatted_query", "explanation"],
  "properties": {
    "formatted_query": {"type": "string"},
    "explanation": {"type": "string"}
  }
}`

const reasoningSchema = `{
  "type": "object",
  "required": ["reasons"],
  "properties": {
    "reasons": {"type": "array", "items": {"type": "string"}}
  }
}`

const detailsSchema = `{
  "type": "object",
  "required": ["interesting_details", "explanation", "heading"],
  "properties": {
    "interesting_details": {"type": "array", "items": {"type": "string"}},
    "explanation": {"type": "string"},
    "heading": {"type": "string"}
  }
}`

const jsonOutputRules = `Output ONLY valid JSON complying with the schema below. Do not include any
preamble, explanation outside the JSON, or markdown fences. Start with the opening brace { and end
with the closing brace }. Schema:

%s`

func buildExtractQueryPrompt(query string) string {
	return fmt.Sprintf(extractQueryPrompt, query)
}

func buildFormatQueryPrompt(query, extractedDetails, imageAnalysis string) string {
	var sb strings.Builder
	sb.WriteString("Rewrite the user's photo search query into a dense, descriptive paragraph ")
	sb.WriteString("optimized for semantic similarity search against detailed photo descriptions. ")
	sb.WriteString("Include the concrete details extracted from the query")
	if imageAnalysis != "" {
		sb.WriteString(" and the salient content of the provided image analysis")
	}
	sb.WriteString(". Explain briefly how you constructed the rewritten query.\n\n")
	fmt.Fprintf(&sb, jsonOutputRules, formatQuerySchema)
	fmt.Fprintf(&sb, "\n\nOriginal query: %s\n\nExtracted details:\n%s", query, extractedDetails)
	if imageAnalysis != "" {
		fmt.Fprintf(&sb, "\n\nImage analysis:\n%s", imageAnalysis)
	}
	return sb.String()
}

func buildReasoningPrompt(query, extractedDetails, formattedQuery, candidateAnalysis, imageAnalysis string) string {
	var sb strings.Builder
	sb.WriteString("A photo was retrieved as a match for the user's search. Explain, as a list of ")
	sb.WriteString("short reasons, why this photo matches the search. Each reason must reference ")
	sb.WriteString("something concrete from the photo's analysis that corresponds to the query. ")
	sb.WriteString("If the correspondence is weak, say so honestly.\n\n")
	fmt.Fprintf(&sb, jsonOutputRules, reasoningSchema)
	fmt.Fprintf(&sb, "\n\nOriginal query: %s\n\nExtracted details:\n%s\n\nFormatted query:\n%s\n\nPhoto analysis:\n%s",
		query, extractedDetails, formattedQuery, candidateAnalysis)
	if imageAnalysis != "" {
		fmt.Fprintf(&sb, "\n\nAnalysis of the image the user searched with:\n%s", imageAnalysis)
	}
	return sb.String()
}

func buildInterestingDetailsPrompt(candidateAnalysis string) string {
	var sb strings.Builder
	sb.WriteString("From the following photo analysis, pick out the most interesting or surprising ")
	sb.WriteString("details a viewer might not notice at first glance. Provide a short heading for ")
	sb.WriteString("the photo and a one-sentence explanation of your selection.\n\n")
	fmt.Fprintf(&sb, jsonOutputRules, detailsSchema)
	fmt.Fprintf(&sb, "\n\nPhoto analysis:\n%s", candidateAnalysis)
	return sb.String()
}

func buildAnswerPrompt(question, photoAnalysis string) string {
	return fmt.Sprintf(`Answer the user's question about a specific photo using only the photo's
analysis below. Keep the answer short and conversational. If the analysis does not contain the
information needed, say so rather than guessing.

Photo analysis:
%s

Question: %s`, photoAnalysis, question)
}

const answerHistoryPreamble = `This is a follow-up question in an ongoing conversation about a
specific photo. Previous questions and answers provide context; keep your answer consistent with
them.

Conversation so far:
`
