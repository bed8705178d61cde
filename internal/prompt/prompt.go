// Package prompt builds the single outbound prompt sent to the generation
// model from the optional pieces of an assistant request.
package prompt

import (
	"fmt"
	"strings"
)

// NoTextFound is the sentinel the OCR step renders when an image has no text.
const NoTextFound = "No text found in image"

const (
	screenshotIssueNote = "Note: There was an issue processing the screenshot, " +
		"but I'll help with your question based on the text query."

	imageOnlyInstruction = "Please analyze this screenshot and provide insights, explanations, " +
		"or relevant information about what you observe. Be specific and helpful."

	greeting = "Hello! I'm Glass, your AI assistant. How can I help you today?"

	guidelines = "\nResponse Guidelines:\n" +
		"- Be concise but comprehensive\n" +
		"- Use markdown formatting for better readability\n" +
		"- Provide actionable insights when possible\n" +
		"- Be friendly and professional\n" +
		"- If analyzing code or technical content, explain clearly"

	separator = "\n\n"
)

// Input holds everything the composer may use. Every field is optional.
type Input struct {
	Query           string
	ExtractedText   string
	PersonalContext string

	// HasImage reports whether a decoded screenshot accompanies the prompt.
	HasImage bool

	// ImageIssue reports that a screenshot was supplied but could not be
	// decoded. It replaces the screen content segment with a neutral note.
	ImageIssue bool
}

// Compose joins the prompt segments with a blank line between each.
// The guidelines segment is always last.
func Compose(in Input) string {
	return strings.Join(Segments(in), separator)
}

// Segments returns the ordered prompt segments for in.
func Segments(in Input) []string {
	segments := make([]string, 0, 4)

	if ctx := strings.TrimSpace(in.PersonalContext); ctx != "" {
		segments = append(segments, fmt.Sprintf(
			"Personal Context: %s\nUse this context to personalize your communication style and responses.",
			in.PersonalContext))
	}

	switch {
	case in.ImageIssue:
		segments = append(segments, screenshotIssueNote)
	case hasScreenText(in.ExtractedText):
		segments = append(segments, fmt.Sprintf(
			"Screen Content Analysis:\nThe following text was extracted from the user's screen:\n---\n%s\n---",
			in.ExtractedText))
	}

	segments = append(segments, querySegment(in.Query, in.HasImage))
	segments = append(segments, guidelines)
	return segments
}

func hasScreenText(text string) bool {
	return strings.TrimSpace(text) != "" && text != NoTextFound
}

func querySegment(query string, hasImage bool) string {
	hasQuery := strings.TrimSpace(query) != ""
	switch {
	case hasQuery && hasImage:
		return fmt.Sprintf("User Query about Screen Content: '%s'\n"+
			"Please analyze the screenshot and provide a comprehensive response "+
			"that addresses their specific question.", query)
	case hasQuery:
		return fmt.Sprintf("User Query: '%s'\n"+
			"Please provide a helpful, informative, and engaging response.", query)
	case hasImage:
		return imageOnlyInstruction
	default:
		return greeting
	}
}
