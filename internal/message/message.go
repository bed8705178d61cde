// Package message defines the request and result types flowing through the
// assistant pipeline. All values are request-scoped; nothing here is persisted
// except Settings.
package message

import "strings"

// Mode selects the header the response formatter prepends.
type Mode string

const (
	ModeAnalyze   Mode = "analyze"
	ModeSummarize Mode = "summarize"
	ModeTranslate Mode = "translate"

	// ModeDefault is any mode not listed above, including the empty string.
	ModeDefault Mode = ""
)

// APIVersion is reported by the JSON endpoints.
const APIVersion = "2.0"

// AskRequest is an inbound question, optionally with a screenshot.
type AskRequest struct {
	// Query is the user's question. Blank is allowed.
	Query string `json:"query,omitempty"`

	// ScreenshotData is a base64-encoded image, optionally as a data URL.
	ScreenshotData string `json:"screenshot_data,omitempty"`

	// PersonalContext describes the user and shapes the tone of the answer.
	PersonalContext string `json:"personal_context,omitempty"`

	// Mode selects the display header of the formatted response.
	Mode Mode `json:"mode,omitempty"`
}

// HasScreenshot returns true if the request carries image data.
func (r *AskRequest) HasScreenshot() bool {
	return strings.TrimSpace(r.ScreenshotData) != ""
}

// HasContext returns true if the request carries non-blank personal context.
func (r *AskRequest) HasContext() bool {
	return strings.TrimSpace(r.PersonalContext) != ""
}

// Metadata describes how a request was processed.
type Metadata struct {
	// ProcessingTime is the wall time in seconds spent in the assistant.
	ProcessingTime float64 `json:"processing_time"`

	// RequestID is the value of the process-wide request counter for this request.
	RequestID int64 `json:"request_id"`

	HasScreenshot bool `json:"has_screenshot"`
	HasContext    bool `json:"has_context"`

	// ExtractedTextLength is the length of the OCR output string, including
	// the "no text" and error renderings.
	ExtractedTextLength int `json:"extracted_text_length"`

	// Extraction is the OCR outcome tag ("found", "not_found", "failed").
	// Empty when no screenshot was decoded.
	Extraction string `json:"extraction,omitempty"`
}

// Result is the outcome of one assistant request. Exactly one of Response
// or Error is set.
type Result struct {
	Success bool `json:"success"`

	// Response is the raw model text.
	Response string `json:"response,omitempty"`

	// Formatted is Response with the mode-specific display header.
	Formatted string `json:"formatted,omitempty"`

	Error    string   `json:"error,omitempty"`
	Metadata Metadata `json:"metadata"`
}

// Stats are process-wide usage statistics.
type Stats struct {
	UptimeSeconds       float64 `json:"uptime_seconds"`
	TotalRequests       int64   `json:"total_requests"`
	AvgRequestsPerHour  float64 `json:"avg_requests_per_hour"`
	MicrophoneAvailable bool    `json:"microphone_available"`
	TTSAvailable        bool    `json:"tts_available"`
	ModelConfigured     bool    `json:"model_configured"`
	ModelBackend        string  `json:"model_backend"`
}

// Settings are user preferences exposed through /api/settings.
type Settings struct {
	PersonalContext   string `json:"personal_context" yaml:"personal_context"`
	VoiceEnabled      bool   `json:"voice_enabled" yaml:"voice_enabled"`
	AutoScreenshot    bool   `json:"auto_screenshot" yaml:"auto_screenshot"`
	Theme             string `json:"theme" yaml:"theme"`
	MaxResponseLength int    `json:"max_response_length" yaml:"max_response_length"`
	SpeechRate        int    `json:"speech_rate" yaml:"speech_rate"`
}

// DefaultSettings returns the settings a fresh install starts with.
func DefaultSettings(voiceEnabled bool) Settings {
	return Settings{
		PersonalContext:   "",
		VoiceEnabled:      voiceEnabled,
		AutoScreenshot:    true,
		Theme:             "glass",
		MaxResponseLength: 2000,
		SpeechRate:        180,
	}
}
