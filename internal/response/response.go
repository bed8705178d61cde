// Package response shapes model output for display and for speech.
//
// The display and speech cleanups are deliberately separate: Format only adds
// a header, ForSpeech strips markup and truncates.
package response

import (
	"strings"

	"github.com/nadzzz/glass/internal/message"
)

// NoResponse is returned by Format when the model produced no text.
const NoResponse = "No response received from AI."

// MaxSpeechRunes bounds the text handed to the speech synthesizer.
const MaxSpeechRunes = 500

var headers = map[message.Mode]string{
	message.ModeAnalyze:   "Analysis Report:\n",
	message.ModeSummarize: "Summary:\n",
	message.ModeTranslate: "Translation:\n",
}

const defaultHeader = "Response:\n"

// Format trims raw and prepends the header for mode.
func Format(raw string, mode message.Mode) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return NoResponse
	}
	return Header(mode) + text
}

// Header returns the display header for mode.
func Header(mode message.Mode) string {
	if h, ok := headers[mode]; ok {
		return h
	}
	return defaultHeader
}

var speechReplacer = strings.NewReplacer("*", "", "#", "")

// ForSpeech removes markdown emphasis and heading characters and truncates
// the result to MaxSpeechRunes, appending an ellipsis when cut.
func ForSpeech(text string) string {
	clean := strings.TrimSpace(speechReplacer.Replace(text))
	runes := []rune(clean)
	if len(runes) > MaxSpeechRunes {
		return string(runes[:MaxSpeechRunes]) + "..."
	}
	return clean
}
