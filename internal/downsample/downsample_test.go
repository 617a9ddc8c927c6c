package downsample

import (
	"math"
	"testing"

	"github.com/tracescope/tracescope/internal/sequence"
)

// makeSignal builds a continuous signal from parallel time/value slices.
func makeSignal(times, values []float64) *sequence.Signal {
	return &sequence.Signal{
		ID:    "test",
		Mode:  sequence.ModeContinuous,
		Time:  sequence.FromValues(times...),
		Value: sequence.FromValues(values...),
	}
}

// point is one integrated output point.
type point struct {
	t, v float64
}

// collector integrates downsampler output the way the stream controller
// does: a provisional tail is retracted before the next non-empty chunk.
type collector struct {
	points           []point
	pendingOverwrite bool
}

// integrate drains everything currently available from ds.
func (c *collector) integrate(ds Downsampler) {
	for {
		res := ds.Advance()
		chunk := ds.Chunk()

		if chunk.Len() > 0 {
			if c.pendingOverwrite {
				c.points = c.points[:len(c.points)-1]
				c.pendingOverwrite = false
			}
			for i := 0; i < chunk.Len(); i++ {
				c.points = append(c.points, point{chunk.TimeAt(i), chunk.ValueAt(i)})
			}
			c.pendingOverwrite = res.OverwriteNext
		}

		if !res.HasMore {
			return
		}
	}
}

// samePoints compares integrated outputs within float32 tolerance.
func samePoints(a, b []point) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i].t-b[i].t) > 1e-3 || math.Abs(float64(float32(a[i].v))-float64(float32(b[i].v))) > 1e-6 {
			return false
		}
	}
	return true
}

func TestParsePolicy(t *testing.T) {
	testCases := []struct {
		input   string
		want    Policy
		wantErr bool
	}{
		{"off", PolicyOff, false},
		{"OFF", PolicyOff, false},
		{"aggressive", PolicyAggressive, false},
		{"normal", PolicyNormal, false},
		{"Lossless", PolicyLossless, false},
		{"", PolicyOff, true},
		{"bogus", PolicyOff, true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParsePolicy(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Errorf("ParsePolicy(%q) expected error", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePolicy(%q) error: %v", tc.input, err)
			}
			if got != tc.want {
				t.Errorf("ParsePolicy(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestPolicy_RoundTrip(t *testing.T) {
	for _, p := range []Policy{PolicyOff, PolicyAggressive, PolicyNormal, PolicyLossless} {
		got, err := ParsePolicy(p.String())
		if err != nil {
			t.Errorf("ParsePolicy(%q) error: %v", p.String(), err)
			continue
		}
		if got != p {
			t.Errorf("round trip %v -> %q -> %v", p, p.String(), got)
		}
	}
}

func TestPolicy_Threshold(t *testing.T) {
	testCases := []struct {
		policy Policy
		want   float64
	}{
		{PolicyOff, 0},
		{PolicyAggressive, 1.0},
		{PolicyNormal, 0.1},
		{PolicyLossless, 0},
	}
	for _, tc := range testCases {
		if got := tc.policy.Threshold(); got != tc.want {
			t.Errorf("%v.Threshold() = %v, want %v", tc.policy, got, tc.want)
		}
	}
}

func TestNew_Dispatch(t *testing.T) {
	cont := makeSignal([]float64{0}, []float64{0})
	enum := &sequence.Signal{
		ID:    "e",
		Mode:  sequence.ModeEnum,
		Time:  sequence.FromValues(0),
		Value: sequence.FromValues(0),
	}

	if _, ok := New(cont, PolicyOff, 8).(*Raw); !ok {
		t.Error("PolicyOff should select Raw")
	}
	if _, ok := New(cont, PolicyNormal, 8).(*Gradient); !ok {
		t.Error("continuous + PolicyNormal should select Gradient")
	}
	if _, ok := New(enum, PolicyNormal, 8).(*Enum); !ok {
		t.Error("enum + PolicyNormal should select Enum")
	}
	if _, ok := New(enum, PolicyOff, 8).(*Raw); !ok {
		t.Error("enum + PolicyOff should select Raw")
	}
}

// Downsampled output must keep the first and last source sample regardless
// of policy (the last one provisionally while the source is live).
func TestEndpointPreservation(t *testing.T) {
	times := []float64{0, 1, 2, 3, 4, 5, 6, 7}
	values := []float64{0, 0.05, 0.1, 0.12, 3, 3.01, 3.02, 3.0}

	for _, policy := range []Policy{PolicyOff, PolicyAggressive, PolicyNormal, PolicyLossless} {
		t.Run(policy.String(), func(t *testing.T) {
			sig := makeSignal(times, values)
			var c collector
			c.integrate(New(sig, policy, 64))

			if len(c.points) == 0 {
				t.Fatal("no output points")
			}
			first := c.points[0]
			last := c.points[len(c.points)-1]
			if first.t != times[0] {
				t.Errorf("first point at t=%v, want %v", first.t, times[0])
			}
			if last.t != times[len(times)-1] {
				t.Errorf("last point at t=%v, want %v", last.t, times[len(times)-1])
			}
		})
	}
}

// Lossy policies must never produce more points than raw passthrough.
func TestOutputNeverLargerThanRaw(t *testing.T) {
	n := 200
	times := make([]float64, n)
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		times[i] = float64(i) * 0.25
		values[i] = math.Sin(0.2 * float64(i))
	}

	var raw collector
	raw.integrate(New(makeSignal(times, values), PolicyOff, 32))

	for _, policy := range []Policy{PolicyAggressive, PolicyNormal, PolicyLossless} {
		var c collector
		c.integrate(New(makeSignal(times, values), policy, 32))
		if len(c.points) > len(raw.points) {
			t.Errorf("%v produced %d points, raw produced %d", policy, len(c.points), len(raw.points))
		}
	}
}

// Feeding a source in two phases (any split point) must integrate to the
// same points as feeding it all at once.
func TestResumability_AnySplit(t *testing.T) {
	n := 40
	times := make([]float64, n)
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		times[i] = float64(i) * 0.5
		values[i] = math.Sin(0.3 * float64(i))
	}

	for _, policy := range []Policy{PolicyOff, PolicyAggressive, PolicyNormal, PolicyLossless} {
		var oneShot collector
		oneShot.integrate(New(makeSignal(times, values), policy, 8))

		for k := 0; k <= n; k++ {
			timeSeq := sequence.NewSlice()
			valSeq := sequence.NewSlice()
			sig := &sequence.Signal{ID: "split", Mode: sequence.ModeContinuous, Time: timeSeq, Value: valSeq}
			ds := New(sig, policy, 8)

			var c collector
			for i := 0; i < k; i++ {
				timeSeq.Push(times[i])
				valSeq.Push(values[i])
			}
			c.integrate(ds)
			for i := k; i < n; i++ {
				timeSeq.Push(times[i])
				valSeq.Push(values[i])
			}
			c.integrate(ds)

			if !samePoints(c.points, oneShot.points) {
				t.Fatalf("%v split at %d: got %d points, one-shot %d points",
					policy, k, len(c.points), len(oneShot.points))
			}
		}
	}
}

// Per-advance output is bounded by maxPoints plus the provisional slack slot.
func TestChunkBound(t *testing.T) {
	n := 100
	times := make([]float64, n)
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		times[i] = float64(i)
		// Alternating spikes defeat simplification, worst case for chunking.
		values[i] = float64(i%2) * 10
	}

	for _, policy := range []Policy{PolicyOff, PolicyLossless} {
		t.Run(policy.String(), func(t *testing.T) {
			maxPoints := 7
			ds := New(makeSignal(times, values), policy, maxPoints)
			for {
				res := ds.Advance()
				if got := ds.Chunk().Len(); got > maxPoints+1 {
					t.Fatalf("chunk len %d exceeds bound %d", got, maxPoints+1)
				}
				if !res.HasMore {
					break
				}
			}
		})
	}
}

// Advance after exhaustion with no source growth is a no-op.
func TestNoOpAdvanceAfterExhaustion(t *testing.T) {
	times := []float64{0, 1, 2}
	values := []float64{0, 5, 5}

	for _, policy := range []Policy{PolicyOff, PolicyNormal, PolicyLossless} {
		t.Run(policy.String(), func(t *testing.T) {
			ds := New(makeSignal(times, values), policy, 16)
			for {
				if res := ds.Advance(); !res.HasMore {
					break
				}
			}

			res := ds.Advance()
			if res.HasMore || res.OverwriteNext {
				t.Errorf("no-op advance returned %+v", res)
			}
			if ds.Chunk().Len() != 0 {
				t.Errorf("no-op advance produced %d points", ds.Chunk().Len())
			}
		})
	}
}

func TestEmptySource(t *testing.T) {
	for _, policy := range []Policy{PolicyOff, PolicyNormal} {
		sig := makeSignal(nil, nil)
		ds := New(sig, policy, 8)

		res := ds.Advance()
		if res.HasMore || res.OverwriteNext {
			t.Errorf("%v: empty source returned %+v", policy, res)
		}
		if ds.Chunk().Len() != 0 {
			t.Errorf("%v: empty source produced points", policy)
		}
	}
}
