package speech

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"time"
)

// bytesPerSample is fixed: recorders stream signed 16-bit little-endian mono.
const bytesPerSample = 2

// frameDuration is the analysis window for the energy detector.
const frameDuration = 30 * time.Millisecond

// vadParams configures phrase detection. Durations are converted to sample
// counts so detection does not depend on wall-clock time.
type vadParams struct {
	SampleRate      int
	StartTimeout    time.Duration // max wait for speech to begin
	PhraseTimeLimit time.Duration // max phrase length once speech began
	PauseThreshold  time.Duration // trailing silence that ends a phrase
	EnergyThreshold float64       // RMS level treated as speech
}

func (p vadParams) samples(d time.Duration) int {
	return int(d.Seconds() * float64(p.SampleRate))
}

// capturePhrase reads PCM from r until a phrase has been spoken and returns
// its samples. It returns ErrListenTimeout when no speech starts within the
// start timeout or the stream ends first.
func capturePhrase(r io.Reader, p vadParams) ([]byte, error) {
	frameSamples := max(p.samples(frameDuration), 1)
	frame := make([]byte, frameSamples*bytesPerSample)

	startLimit := p.samples(p.StartTimeout)
	phraseLimit := p.samples(p.PhraseTimeLimit)
	pauseLimit := p.samples(p.PauseThreshold)

	var (
		phrase   []byte
		waited   int
		spoken   int
		silence  int
		speaking bool
	)

	for {
		n, err := io.ReadFull(r, frame)
		n -= n % bytesPerSample
		if n > 0 {
			chunk := frame[:n]
			samples := n / bytesPerSample
			loud := rms(chunk) >= p.EnergyThreshold

			if !speaking {
				if loud {
					speaking = true
				} else {
					waited += samples
					if startLimit > 0 && waited >= startLimit {
						return nil, ErrListenTimeout
					}
				}
			}

			if speaking {
				phrase = append(phrase, chunk...)
				spoken += samples
				if loud {
					silence = 0
				} else {
					silence += samples
				}
				if pauseLimit > 0 && silence >= pauseLimit {
					return phrase, nil
				}
				if phraseLimit > 0 && spoken >= phraseLimit {
					return phrase, nil
				}
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				if speaking {
					return phrase, nil
				}
				return nil, ErrListenTimeout
			}
			return nil, err
		}
	}
}

// rms returns the root-mean-square amplitude of 16-bit little-endian samples.
func rms(pcm []byte) float64 {
	n := len(pcm) / bytesPerSample
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := float64(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
		sum += s * s
	}
	return math.Sqrt(sum / float64(n))
}
