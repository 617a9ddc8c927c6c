package producer

import (
	"math"
	"math/rand"

	"github.com/tracescope/tracescope/internal/sequence"
)

// waveFunc computes the next sample value at signal time t.
type waveFunc func(t float64, rng *rand.Rand) float64

// Producer appends samples to one signal at a fixed sample rate.
//
// AppendUntil is called between frames, never concurrently with a pump of
// the same signal; the pipeline snapshots lengths per pass, so partial
// appends across frames are fine.
type Producer struct {
	signal  *sequence.Signal
	timeSeq sequence.Appender
	valSeq  sequence.Appender

	base float64 // time-domain origin (large epochs exercise the hi/lo split)
	rate float64 // samples per second of signal time
	next float64 // next sample offset from base, seconds
	wave waveFunc
	rng  *rand.Rand
}

// Signal returns the signal this producer appends to.
func (p *Producer) Signal() *sequence.Signal { return p.signal }

// AppendUntil appends every sample with offset < elapsed seconds.
// Returns the number of samples appended.
func (p *Producer) AppendUntil(elapsed float64) int {
	step := 1.0 / p.rate
	appended := 0
	for p.next < elapsed {
		t := p.base + p.next
		p.timeSeq.Push(t)
		p.valSeq.Push(p.wave(p.next, p.rng))
		p.next += step
		appended++
	}
	return appended
}

func newProducer(id, label, unit string, mode sequence.RenderMode, base, rate float64, wave waveFunc, rng *rand.Rand) *Producer {
	timeSeq := sequence.NewSlice()
	valSeq := sequence.NewSlice()
	sig := &sequence.Signal{
		ID:    id,
		Label: label,
		Unit:  unit,
		Mode:  mode,
		Time:  timeSeq,
		Value: valSeq,
	}
	return &Producer{
		signal:  sig,
		timeSeq: timeSeq,
		valSeq:  valSeq,
		base:    base,
		rate:    rate,
		wave:    wave,
		rng:     rng,
	}
}

// NewSine creates a continuous sine signal with optional noise amplitude.
func NewSine(id string, base, rate, freq, amp, noiseAmp float64, noise *NoiseSource) *Producer {
	rng := noise.ForSignal(id)
	wave := func(t float64, rng *rand.Rand) float64 {
		v := amp * math.Sin(2*math.Pi*freq*t)
		if noiseAmp > 0 {
			v += noiseAmp * (rng.Float64()*2 - 1)
		}
		return v
	}
	return newProducer(id, id, "V", sequence.ModeContinuous, base, rate, wave, rng)
}

// NewSawtooth creates a continuous sawtooth signal.
func NewSawtooth(id string, base, rate, period, amp float64, noise *NoiseSource) *Producer {
	rng := noise.ForSignal(id)
	wave := func(t float64, _ *rand.Rand) float64 {
		frac := t/period - math.Floor(t/period)
		return amp * (2*frac - 1)
	}
	return newProducer(id, id, "V", sequence.ModeContinuous, base, rate, wave, rng)
}

// NewRandomWalk creates a continuous random-walk signal.
func NewRandomWalk(id string, base, rate, stepSize float64, noise *NoiseSource) *Producer {
	rng := noise.ForSignal(id)
	level := 0.0
	wave := func(_ float64, rng *rand.Rand) float64 {
		level += stepSize * (rng.Float64()*2 - 1)
		return level
	}
	return newProducer(id, id, "V", sequence.ModeContinuous, base, rate, wave, rng)
}

// NewEnumWalker creates an enumerated signal that holds each state for a
// while and occasionally transitions, the worst and best case for the
// run-length policy.
func NewEnumWalker(id string, base, rate float64, labels map[int64]string, switchProb float64, noise *NoiseSource) *Producer {
	rng := noise.ForSignal(id)

	states := make([]int64, 0, len(labels))
	for code := range labels {
		states = append(states, code)
	}
	// Map iteration order is random; sort for determinism.
	for i := 1; i < len(states); i++ {
		for j := i; j > 0 && states[j] < states[j-1]; j-- {
			states[j], states[j-1] = states[j-1], states[j]
		}
	}

	timeSeq := sequence.NewSlice()
	valSeq := sequence.NewEnum(labels)
	sig := &sequence.Signal{
		ID:    id,
		Label: id,
		Mode:  sequence.ModeEnum,
		Time:  timeSeq,
		Value: valSeq,
	}

	idx := 0
	wave := func(_ float64, rng *rand.Rand) float64 {
		if len(states) > 1 && rng.Float64() < switchProb {
			next := rng.Intn(len(states) - 1)
			if next >= idx {
				next++
			}
			idx = next
		}
		if len(states) == 0 {
			return 0
		}
		return float64(states[idx])
	}

	return &Producer{
		signal:  sig,
		timeSeq: timeSeq,
		valSeq:  valSeq,
		base:    base,
		rate:    rate,
		wave:    wave,
		rng:     rng,
	}
}
