package piper

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// wyomingVersion is advertised in outgoing event headers.
const wyomingVersion = "1.5.3"

// maxEventBytes bounds a single data or payload section.
const maxEventBytes = 16 << 20

// event is a decoded Wyoming event.
type event struct {
	Type    string
	Data    map[string]any
	Payload []byte
}

type eventHeader struct {
	Type          string         `json:"type"`
	Version       string         `json:"version,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
	DataLength    int            `json:"data_length,omitempty"`
	PayloadLength int            `json:"payload_length,omitempty"`
}

// writeEvent writes the header line, the data section and the payload.
func writeEvent(w io.Writer, evt event) error {
	var data []byte
	if len(evt.Data) > 0 {
		var err error
		if data, err = json.Marshal(evt.Data); err != nil {
			return fmt.Errorf("marshalling event data: %w", err)
		}
	}

	header, err := json.Marshal(eventHeader{
		Type:          evt.Type,
		Version:       wyomingVersion,
		DataLength:    len(data),
		PayloadLength: len(evt.Payload),
	})
	if err != nil {
		return fmt.Errorf("marshalling event header: %w", err)
	}

	buf := make([]byte, 0, len(header)+1+len(data)+len(evt.Payload))
	buf = append(buf, header...)
	buf = append(buf, '\n')
	buf = append(buf, data...)
	buf = append(buf, evt.Payload...)
	_, err = w.Write(buf)
	return err
}

// readEvent reads one event. Inline header data and a separate data section
// are merged, the latter taking precedence.
func readEvent(r *bufio.Reader) (*event, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	var h eventHeader
	if err := json.Unmarshal(line, &h); err != nil {
		return nil, fmt.Errorf("invalid wyoming header %q: %w", line, err)
	}
	if h.DataLength < 0 || h.DataLength > maxEventBytes || h.PayloadLength < 0 || h.PayloadLength > maxEventBytes {
		return nil, fmt.Errorf("wyoming event %q too large", h.Type)
	}

	evt := &event{Type: h.Type, Data: h.Data}
	if evt.Data == nil {
		evt.Data = map[string]any{}
	}

	if h.DataLength > 0 {
		raw := make([]byte, h.DataLength)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, fmt.Errorf("reading data: %w", err)
		}
		var extra map[string]any
		if err := json.Unmarshal(raw, &extra); err != nil {
			return nil, fmt.Errorf("decoding data: %w", err)
		}
		for k, v := range extra {
			evt.Data[k] = v
		}
	}

	if h.PayloadLength > 0 {
		evt.Payload = make([]byte, h.PayloadLength)
		if _, err := io.ReadFull(r, evt.Payload); err != nil {
			return nil, fmt.Errorf("reading payload: %w", err)
		}
	}
	return evt, nil
}
