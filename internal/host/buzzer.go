package host

import (
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/GoatWang/BopomofoLLM/internal/logging"
)

const (
	sampleRate = beep.SampleRate(48000)

	buzzFrequency = 440
	buzzDuration  = 90 * time.Millisecond
)

// Buzzer plays a short tone for rejected keys. When no audio device can be
// opened it writes the terminal bell to its fallback writer instead.
type Buzzer struct {
	mu          sync.Mutex
	log         *logging.Logger
	fallback    io.Writer
	volume      float64
	initialized bool
	disabled    bool
	mixer       *beep.Mixer

	// init opens the audio device.
	init func() error
}

// NewBuzzer creates a Buzzer. volume is clamped to [0, 1]; fallback may be
// nil.
func NewBuzzer(logger *logging.Logger, volume float64, fallback io.Writer) *Buzzer {
	if logger == nil {
		logger = logging.Default()
	}
	b := &Buzzer{
		log:      logger.WithComponent("buzzer"),
		fallback: fallback,
		volume:   min(max(volume, 0), 1),
		mixer:    &beep.Mixer{},
	}
	b.init = func() error {
		if err := speaker.Init(sampleRate, sampleRate.N(50*time.Millisecond)); err != nil {
			return err
		}
		speaker.Play(b.mixer)
		return nil
	}
	return b
}

// Play plays the error tone.
func (b *Buzzer) Play() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized && !b.disabled {
		if err := b.init(); err != nil {
			b.log.Warn("audio unavailable, using terminal bell", "error", err)
			b.disabled = true
		} else {
			b.initialized = true
		}
	}
	if b.disabled {
		if b.fallback != nil {
			fmt.Fprint(b.fallback, "\a")
		}
		return
	}

	speaker.Lock()
	b.mixer.Add(NewTone(sampleRate, buzzFrequency, buzzDuration, b.volume))
	speaker.Unlock()
}

// Close stops any playing tone.
func (b *Buzzer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return
	}
	speaker.Lock()
	b.mixer.Clear()
	speaker.Unlock()
	speaker.Close()
	b.initialized = false
}

// Tone is a sine wave with a short linear fade at both ends.
type Tone struct {
	sr     beep.SampleRate
	freq   float64
	volume float64
	pos    int
	total  int
	fade   int
}

// NewTone creates a Tone streamer.
func NewTone(sr beep.SampleRate, freq float64, d time.Duration, volume float64) *Tone {
	total := sr.N(d)
	return &Tone{
		sr:     sr,
		freq:   freq,
		volume: volume,
		total:  total,
		fade:   min(sr.N(5*time.Millisecond), total/2),
	}
}

func (t *Tone) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if t.pos >= t.total {
			return i, i > 0
		}
		s := t.volume * t.envelope() * math.Sin(2*math.Pi*t.freq*float64(t.pos)/float64(t.sr))
		samples[i][0] = s
		samples[i][1] = s
		t.pos++
	}
	return len(samples), true
}

func (t *Tone) envelope() float64 {
	if t.fade == 0 {
		return 1
	}
	switch {
	case t.pos < t.fade:
		return float64(t.pos) / float64(t.fade)
	case t.total-t.pos < t.fade:
		return float64(t.total-t.pos) / float64(t.fade)
	}
	return 1
}

func (t *Tone) Err() error { return nil }
