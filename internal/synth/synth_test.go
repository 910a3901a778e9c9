package synth

import (
	"errors"
	"testing"

	"github.com/iabetor/vosynth/internal/analysis"
)

func TestSegmentSamples(t *testing.T) {
	cases := []struct {
		frames int
		period float64
		rate   int
		want   int
	}{
		{10, 5.0, 44100, 1986}, // round((10-1)*5/1000*44100)+1
		{2, 5.0, 44100, 222},   // round(220.5)+1
		{100, 10.0, 22050, 21831}, // round(21829.5)+1
		{1, 5.0, 44100, 1},
		{0, 5.0, 44100, 1},
		{-3, 5.0, 44100, 1},
	}
	for _, c := range cases {
		got := SegmentSamples(c.frames, c.period, c.rate)
		if got != c.want {
			t.Errorf("SegmentSamples(%d, %g, %d): got %d, want %d",
				c.frames, c.period, c.rate, got, c.want)
		}
	}
}

// flatFrameSet 构造一个所有帧相同、包络平坦的分解结果。
func flatFrameSet(frames, bins int, env, ap float64) *analysis.FrameSet {
	fs := &analysis.FrameSet{
		Frames:       frames,
		Bins:         bins,
		Envelope:     make([]float64, frames*bins),
		Aperiodicity: make([]float64, frames*bins),
	}
	for i := range fs.Envelope {
		fs.Envelope[i] = env
		fs.Aperiodicity[i] = ap
	}
	return fs
}

func flatCurve(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestSynthesize_LengthMatchesFormula(t *testing.T) {
	fs := flatFrameSet(10, 513, 0.01, 0.1)
	out, err := Synthesize(flatCurve(220, 10), fs, 5.0, 44100)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	want := SegmentSamples(10, 5.0, 44100)
	if len(out) != want {
		t.Fatalf("segment length: got %d, want %d", len(out), want)
	}
	if want != 1986 {
		t.Fatalf("formula check: want 1986, got %d", want)
	}
}

func TestSynthesize_SingleFrame(t *testing.T) {
	fs := flatFrameSet(1, 513, 0.01, 0.1)
	out, err := Synthesize(flatCurve(220, 1), fs, 5.0, 44100)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if len(out) != 1 || out[0] != 0 {
		t.Fatalf("frame_count<=1 must yield a single zero sample, got %v", out)
	}
}

func TestSynthesize_VoicedIsNonSilent(t *testing.T) {
	fs := flatFrameSet(10, 513, 0.01, 0.1)
	out, err := Synthesize(flatCurve(220, 10), fs, 5.0, 44100)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	nonZero := 0
	for _, s := range out {
		if s != 0 {
			nonZero++
		}
	}
	if nonZero == 0 {
		t.Fatal("voiced synthesis must produce a non-silent segment")
	}
}

func TestSynthesize_UnvoicedIsNoise(t *testing.T) {
	fs := flatFrameSet(10, 513, 0.01, 0.5)
	out, err := Synthesize(flatCurve(0, 10), fs, 5.0, 44100)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	nonZero := 0
	for _, s := range out {
		if s != 0 {
			nonZero++
		}
	}
	if nonZero == 0 {
		t.Fatal("unvoiced frames should still carry noise excitation")
	}
}

func TestSynthesize_Deterministic(t *testing.T) {
	fs := flatFrameSet(10, 513, 0.01, 0.3)
	f0 := flatCurve(261.6, 10)

	a, err := Synthesize(f0, fs, 5.0, 44100)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Synthesize(f0, fs, 5.0, 44100)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("synthesis not bit-identical at sample %d", i)
		}
	}
}

func TestSynthesize_CurveLengthMismatch(t *testing.T) {
	fs := flatFrameSet(10, 513, 0.01, 0.1)
	_, err := Synthesize(flatCurve(220, 8), fs, 5.0, 44100)
	if !errors.Is(err, ErrCurveLength) {
		t.Fatalf("expected ErrCurveLength, got %v", err)
	}
}

func TestSynthesize_BadParams(t *testing.T) {
	fs := flatFrameSet(10, 513, 0.01, 0.1)
	if _, err := Synthesize(flatCurve(220, 10), fs, 0, 44100); err == nil {
		t.Error("expected error for zero frame period")
	}
	if _, err := Synthesize(flatCurve(220, 10), fs, 5.0, 0); err == nil {
		t.Error("expected error for zero sample rate")
	}
}
