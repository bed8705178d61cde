package audio

import (
	"encoding/binary"
	"testing"
)

func TestWAVHeader(t *testing.T) {
	pcm := make([]byte, 100)
	wav := WAV(pcm, 16000, 1, 2)

	if len(wav) != 44+len(pcm) {
		t.Fatalf("len = %d, want %d", len(wav), 44+len(pcm))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" || string(wav[36:40]) != "data" {
		t.Fatalf("bad chunk ids: %q", wav[:44])
	}
	if got := binary.LittleEndian.Uint32(wav[4:8]); got != 136 {
		t.Errorf("RIFF size = %d, want 136", got)
	}
	if got := binary.LittleEndian.Uint32(wav[24:28]); got != 16000 {
		t.Errorf("sample rate = %d", got)
	}
	if got := binary.LittleEndian.Uint32(wav[28:32]); got != 32000 {
		t.Errorf("byte rate = %d, want 32000", got)
	}
	if got := binary.LittleEndian.Uint16(wav[34:36]); got != 16 {
		t.Errorf("bits per sample = %d", got)
	}
	if got := binary.LittleEndian.Uint32(wav[40:44]); got != 100 {
		t.Errorf("data size = %d", got)
	}
}

func TestExtFromContentType(t *testing.T) {
	tests := map[string]string{
		"audio/wav":   ".wav",
		"audio/x-wav": ".wav",
		"audio/ogg":   ".ogg",
		"audio/mpeg":  ".mp3",
		"audio/flac":  ".flac",
		"audio/webm":  ".webm",
		"audio/m4a":   ".m4a",
		"":            ".wav",
	}
	for ct, want := range tests {
		if got := ExtFromContentType(ct); got != want {
			t.Errorf("ExtFromContentType(%q) = %q, want %q", ct, got, want)
		}
	}
}
