package http

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nadzzz/glass/internal/apperr"
	"github.com/nadzzz/glass/internal/message"
	"github.com/nadzzz/glass/internal/settings"
	"github.com/nadzzz/glass/internal/speech"
)

const (
	msgNoJSON          = "No JSON data provided"
	msgBodyTooLarge    = "Request body too large"
	msgCaptureFailed   = "Failed to capture screenshot"
	msgNoCapture       = "Screen capture not available"
	msgSavedPersistent = "Settings updated successfully"
	msgSavedSession    = "Settings updated for this session only; they will be lost on restart (set settings.file to persist them)"
)

// errorBody is the failure document of every API route.
type errorBody struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Outcome   string `json:"outcome,omitempty"`
	Path      string `json:"path,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

type screenshotResponse struct {
	Success    bool   `json:"success"`
	Screenshot string `json:"screenshot"` // base64 PNG
	Size       int    `json:"size"`       // length of Screenshot
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	ArchivedAs string `json:"archived_as,omitempty"`
	Timestamp  string `json:"timestamp"`
}

type listenResponse struct {
	Success   bool   `json:"success"`
	Text      string `json:"text"`
	Outcome   string `json:"outcome"`
	Timestamp string `json:"timestamp"`
}

type askResponse struct {
	*message.Result
	APIVersion string `json:"api_version"`
	Timestamp  string `json:"timestamp"`
}

type speakRequest struct {
	Text string `json:"text"`
}

type speakResponse struct {
	Success     bool   `json:"success"`
	Audio       string `json:"audio"` // base64 WAV
	ContentType string `json:"content_type"`
	Text        string `json:"text"`
	Spoken      bool   `json:"spoken"` // played on the server's audio device
	Timestamp   string `json:"timestamp"`
}

type settingsResponse struct {
	message.Settings
	Persisted bool `json:"persisted"`
}

type saveSettingsResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Persisted bool   `json:"persisted"`
	Timestamp string `json:"timestamp"`
}

type statsResponse struct {
	message.Stats
	APIVersion string `json:"api_version"`
	Timestamp  string `json:"timestamp"`
}

// handleScreenshot godoc
//
//	@Summary		Capture the screen
//	@Description	Captures the configured display, downscales it to fit the capture bounds and returns it as base64 PNG.
//	@Tags			assistant
//	@Produce		json
//	@Success		200	{object}	screenshotResponse
//	@Failure		500	{object}	errorBody
//	@Failure		503	{object}	errorBody	"No display available"
//	@Router			/api/screenshot [post]
func (t *Transport) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	if t.deps.Screens == nil {
		t.writeError(w, http.StatusServiceUnavailable, msgNoCapture)
		return
	}
	shot, err := t.deps.Screens.Take(r.Context())
	if err != nil {
		slog.Error("screenshot failed", "error", err)
		t.writeError(w, http.StatusInternalServerError, msgCaptureFailed+": "+err.Error())
		return
	}
	t.writeJSON(w, http.StatusOK, screenshotResponse{
		Success:    true,
		Screenshot: shot.Base64,
		Size:       len(shot.Base64),
		Width:      shot.Width,
		Height:     shot.Height,
		ArchivedAs: shot.ArchivedAs,
		Timestamp:  t.timestamp(),
	})
}

// handleListen godoc
//
//	@Summary		Transcribe one spoken phrase
//	@Description	Records from the server microphone until the speaker pauses and returns the transcript.
//	@Description	A timeout, unintelligible audio or a missing microphone still answer 200 with success=true; the outcome field tells them apart and text carries a readable message.
//	@Tags			speech
//	@Produce		json
//	@Success		200	{object}	listenResponse
//	@Failure		409	{object}	errorBody	"Another listen is running"
//	@Failure		500	{object}	errorBody	"Recognition service failure"
//	@Router			/api/listen [post]
func (t *Transport) handleListen(w http.ResponseWriter, r *http.Request) {
	var (
		text string
		err  = speech.ErrUnavailable
	)
	if t.deps.Listener != nil {
		text, err = t.deps.Listener.Listen(r.Context())
	}

	outcome := speech.Outcome(err)
	switch outcome {
	case "recognized", "timeout", "unknown_value", "unavailable":
		if err != nil {
			slog.Info("listen finished without transcript", "outcome", outcome, "error", err)
			text = legacyListenMessage(err)
		}
		t.writeJSON(w, http.StatusOK, listenResponse{
			Success:   true,
			Text:      text,
			Outcome:   outcome,
			Timestamp: t.timestamp(),
		})
	default:
		status := apperr.StatusCode(speechError(err))
		if status >= 500 {
			slog.Error("listen failed", "error", err)
		}
		t.writeJSON(w, status, errorBody{
			Error:     err.Error(),
			Outcome:   outcome,
			Timestamp: t.timestamp(),
		})
	}
}

// legacyListenMessage returns the fixed user-facing message for the
// non-failure outcomes, dropping any wrapped detail.
func legacyListenMessage(err error) string {
	for _, sentinel := range []error{speech.ErrListenTimeout, speech.ErrNotUnderstood, speech.ErrUnavailable} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

// speechError classifies speech failures for the HTTP status mapping.
func speechError(err error) error {
	switch {
	case errors.Is(err, speech.ErrBusy):
		return apperr.Busy(err.Error(), err)
	case errors.Is(err, speech.ErrTTSUnavailable), errors.Is(err, speech.ErrUnavailable):
		return apperr.Unavailable(err.Error(), err)
	case errors.Is(err, speech.ErrNothingToSay):
		return apperr.Validation(err.Error(), err)
	default:
		return err
	}
}

// handleAsk godoc
//
//	@Summary		Ask the assistant
//	@Description	Runs the query, optional screenshot and personal context through text extraction and the model.
//	@Description	When personal_context is omitted the stored setting is used.
//	@Tags			assistant
//	@Accept			json
//	@Produce		json
//	@Param			request	body		message.AskRequest	true	"Question and optional screenshot"
//	@Success		200		{object}	askResponse
//	@Failure		400		{object}	errorBody	"No JSON data provided"
//	@Failure		500		{object}	askResponse	"Processing failed"
//	@Router			/api/ask [post]
func (t *Transport) handleAsk(w http.ResponseWriter, r *http.Request) {
	body, ok := t.readJSONBody(w, r)
	if !ok {
		return
	}
	if isEmptyObject(body) {
		t.writeError(w, http.StatusBadRequest, msgNoJSON)
		return
	}

	var req message.AskRequest
	if err := json.Unmarshal(body, &req); err != nil {
		t.writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	req.PersonalContext = strings.TrimSpace(req.PersonalContext)
	if req.PersonalContext == "" {
		if s, err := t.deps.Settings.Get(r.Context()); err != nil {
			slog.Warn("loading settings for personal context", "error", err)
		} else {
			req.PersonalContext = s.PersonalContext
		}
	}

	slog.Info("ask received",
		"query_length", len(req.Query),
		"has_screenshot", req.HasScreenshot(),
		"has_context", req.HasContext(),
		"mode", req.Mode)

	result := t.deps.Assistant.Handle(r.Context(), req)

	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	t.writeJSON(w, status, askResponse{
		Result:     result,
		APIVersion: message.APIVersion,
		Timestamp:  t.timestamp(),
	})
}

// handleSpeak godoc
//
//	@Summary		Read text aloud
//	@Description	Strips markdown, synthesizes the text with Piper and plays it on the server when a player is configured.
//	@Description	The WAV audio is always returned so the browser can play it instead.
//	@Tags			speech
//	@Accept			json
//	@Produce		json
//	@Param			request	body		speakRequest	true	"Text to speak"
//	@Success		200		{object}	speakResponse
//	@Failure		400		{object}	errorBody
//	@Failure		409		{object}	errorBody	"Speaker busy"
//	@Failure		503		{object}	errorBody	"Text-to-speech not available"
//	@Failure		500		{object}	errorBody
//	@Router			/api/speak [post]
func (t *Transport) handleSpeak(w http.ResponseWriter, r *http.Request) {
	body, ok := t.readJSONBody(w, r)
	if !ok {
		return
	}
	var req speakRequest
	if err := json.Unmarshal(body, &req); err != nil {
		t.writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		t.writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if t.deps.Speaker == nil {
		t.writeError(w, http.StatusServiceUnavailable, speech.ErrTTSUnavailable.Error())
		return
	}

	res, err := t.deps.Speaker.Speak(r.Context(), req.Text)
	if err != nil {
		status := apperr.StatusCode(speechError(err))
		if status >= 500 {
			slog.Error("speak failed", "error", err)
		}
		t.writeError(w, status, err.Error())
		return
	}
	t.writeJSON(w, http.StatusOK, speakResponse{
		Success:     true,
		Audio:       base64.StdEncoding.EncodeToString(res.Audio),
		ContentType: res.ContentType,
		Text:        res.Text,
		Spoken:      res.Played,
		Timestamp:   t.timestamp(),
	})
}

// handleGetSettings godoc
//
//	@Summary	Current settings
//	@Tags		settings
//	@Produce	json
//	@Success	200	{object}	settingsResponse
//	@Failure	500	{object}	errorBody
//	@Router		/api/settings [get]
func (t *Transport) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := t.deps.Settings.Get(r.Context())
	if err != nil {
		slog.Error("loading settings", "error", err)
		t.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	t.writeJSON(w, http.StatusOK, settingsResponse{Settings: s, Persisted: t.deps.Settings.Persistent()})
}

// handleSaveSettings godoc
//
//	@Summary		Update settings
//	@Description	Merges the posted fields into the current settings. persisted reports whether the change survives a restart.
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			settings	body		message.Settings	true	"Fields to change"
//	@Success		200			{object}	saveSettingsResponse
//	@Failure		400			{object}	errorBody
//	@Failure		500			{object}	errorBody
//	@Router			/api/settings [post]
func (t *Transport) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	body, ok := t.readJSONBody(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	cur, err := t.deps.Settings.Get(ctx)
	if err != nil {
		slog.Error("loading settings", "error", err)
		t.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	next, err := settings.Merge(cur, body)
	if err != nil {
		t.writeError(w, apperr.StatusCode(err), err.Error())
		return
	}
	if err := t.deps.Settings.Save(ctx, next); err != nil {
		slog.Error("saving settings", "error", err)
		t.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	persisted := t.deps.Settings.Persistent()
	msg := msgSavedPersistent
	if !persisted {
		msg = msgSavedSession
	}
	slog.Info("settings updated", "persisted", persisted)
	t.writeJSON(w, http.StatusOK, saveSettingsResponse{
		Success:   true,
		Message:   msg,
		Persisted: persisted,
		Timestamp: t.timestamp(),
	})
}

// handleStats godoc
//
//	@Summary	Usage statistics
//	@Tags		assistant
//	@Produce	json
//	@Success	200	{object}	statsResponse
//	@Router		/api/stats [get]
func (t *Transport) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := t.deps.Assistant.Stats()
	stats.MicrophoneAvailable = t.deps.Listener != nil && t.deps.Listener.Available()
	stats.TTSAvailable = t.deps.Speaker != nil && t.deps.Speaker.Available()
	t.writeJSON(w, http.StatusOK, statsResponse{
		Stats:      stats,
		APIVersion: message.APIVersion,
		Timestamp:  t.timestamp(),
	})
}

func (t *Transport) handleAPINotFound(w http.ResponseWriter, r *http.Request) {
	t.writeJSON(w, http.StatusNotFound, errorBody{
		Error: "API endpoint not found",
		Path:  r.URL.Path,
	})
}

// readJSONBody reads the request body and rejects a missing or null document.
func (t *Transport) readJSONBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			t.writeError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return nil, false
		}
		t.writeError(w, http.StatusBadRequest, "reading body: "+err.Error())
		return nil, false
	}
	switch string(bytes.TrimSpace(body)) {
	case "", "null":
		t.writeError(w, http.StatusBadRequest, msgNoJSON)
		return nil, false
	}
	return body, true
}

// isEmptyObject reports whether body is a JSON object with no members.
func isEmptyObject(body []byte) bool {
	var fields map[string]json.RawMessage
	return json.Unmarshal(body, &fields) == nil && len(fields) == 0
}

func (t *Transport) timestamp() string {
	return t.now().Format(time.RFC3339Nano)
}

func (t *Transport) writeError(w http.ResponseWriter, status int, msg string) {
	t.writeJSON(w, status, errorBody{Error: msg, Timestamp: t.timestamp()})
}

func (t *Transport) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("writing response", "error", err)
	}
}
