package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Recorder streams raw 16-bit little-endian mono PCM from a microphone.
type Recorder interface {
	Available() bool
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Player plays a WAV file on the local audio device.
type Player interface {
	Available() bool
	Play(ctx context.Context, wav []byte) error
}

// ExecRecorder records by running an external command (e.g. arecord) and
// reading its standard output.
type ExecRecorder struct {
	args []string
}

// NewExecRecorder creates a recorder that runs args. It returns nil for an
// empty command.
func NewExecRecorder(args []string) *ExecRecorder {
	if len(args) == 0 {
		return nil
	}
	return &ExecRecorder{args: args}
}

// Available reports whether the recording command is installed.
func (r *ExecRecorder) Available() bool {
	if r == nil {
		return false
	}
	_, err := exec.LookPath(r.args[0])
	return err == nil
}

// Open starts the recording command. Closing the stream stops it.
func (r *ExecRecorder) Open(ctx context.Context) (io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, r.args[0], r.args[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("recorder stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", r.args[0], err)
	}
	return &cmdStream{ReadCloser: stdout, cmd: cmd, stderr: &stderr}, nil
}

type cmdStream struct {
	io.ReadCloser
	cmd    *exec.Cmd
	stderr *bytes.Buffer
}

func (s *cmdStream) Close() error {
	_ = s.cmd.Process.Kill()
	_ = s.ReadCloser.Close()
	err := s.cmd.Wait()

	// Killed on purpose; only report a failure the command had on its own.
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && !exitErr.Exited() {
		return nil
	}
	if err != nil && s.stderr.Len() > 0 {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(s.stderr.String()))
	}
	return err
}

// ExecPlayer plays audio by piping it into an external command (e.g. aplay).
type ExecPlayer struct {
	args []string
}

// NewExecPlayer creates a player that runs args. It returns nil for an
// empty command.
func NewExecPlayer(args []string) *ExecPlayer {
	if len(args) == 0 {
		return nil
	}
	return &ExecPlayer{args: args}
}

// Available reports whether the playback command is installed.
func (p *ExecPlayer) Available() bool {
	if p == nil {
		return false
	}
	_, err := exec.LookPath(p.args[0])
	return err == nil
}

// Play writes wav to the command's standard input and waits for it to exit.
func (p *ExecPlayer) Play(ctx context.Context, wav []byte) error {
	cmd := exec.CommandContext(ctx, p.args[0], p.args[1:]...)
	cmd.Stdin = bytes.NewReader(wav)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", p.args[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}
