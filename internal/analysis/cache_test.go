package analysis

import (
	"math"
	"testing"

	"github.com/iabetor/vosynth/internal/voicebank"
)

func sineSample(id string, n int, freq float64, sr int) *voicebank.Sample {
	pcm := make([]float64, n)
	for i := range pcm {
		pcm[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sr))
	}
	return &voicebank.Sample{ID: id, PCM: pcm, SampleRate: sr}
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := NewCache(1024, 260)
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}
	return c
}

func TestNewCache_BadParams(t *testing.T) {
	if _, err := NewCache(1000, 260); err == nil {
		t.Error("expected error for non-power-of-two fft size")
	}
	if _, err := NewCache(128, 260); err == nil {
		t.Error("expected error for too small fft size")
	}
	if _, err := NewCache(1024, 0); err == nil {
		t.Error("expected error for zero reference pitch")
	}
}

func TestGetOrAnalyze_Shapes(t *testing.T) {
	c := newTestCache(t)
	smp := sineSample("a", 4410, 261.6, 44100)

	fs, err := c.GetOrAnalyze(smp, 10)
	if err != nil {
		t.Fatalf("GetOrAnalyze failed: %v", err)
	}
	if fs.Frames != 10 {
		t.Errorf("Frames: got %d, want 10", fs.Frames)
	}
	if fs.Bins != 513 {
		t.Errorf("Bins: got %d, want 513", fs.Bins)
	}
	if len(fs.Envelope) != 10*513 || len(fs.Aperiodicity) != 10*513 {
		t.Errorf("matrix sizes: env=%d ap=%d", len(fs.Envelope), len(fs.Aperiodicity))
	}
	for i, v := range fs.Aperiodicity {
		if v < 0 || v > 1 {
			t.Fatalf("aperiodicity out of [0,1] at %d: %f", i, v)
		}
	}
}

func TestGetOrAnalyze_CacheHitSharesEntry(t *testing.T) {
	c := newTestCache(t)
	smp := sineSample("a", 4410, 261.6, 44100)

	fs1, err := c.GetOrAnalyze(smp, 10)
	if err != nil {
		t.Fatalf("first GetOrAnalyze failed: %v", err)
	}
	fs2, err := c.GetOrAnalyze(smp, 10)
	if err != nil {
		t.Fatalf("second GetOrAnalyze failed: %v", err)
	}
	if fs1 != fs2 {
		t.Error("identical key should return the same cached entry")
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 cache entry, got %d", c.Len())
	}
}

func TestGetOrAnalyze_FrameCountIsPartOfKey(t *testing.T) {
	c := newTestCache(t)
	smp := sineSample("a", 4410, 261.6, 44100)

	if _, err := c.GetOrAnalyze(smp, 10); err != nil {
		t.Fatal(err)
	}
	if _, err := c.GetOrAnalyze(smp, 20); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 2 {
		t.Errorf("distinct frame counts must be distinct entries, got %d", c.Len())
	}
}

func TestGetOrAnalyze_Deterministic(t *testing.T) {
	smp := sineSample("a", 4410, 261.6, 44100)

	c1 := newTestCache(t)
	fs1, err := c1.GetOrAnalyze(smp, 10)
	if err != nil {
		t.Fatal(err)
	}

	// 清空后重分析，以及在另一个缓存实例上分析，都必须逐元素一致
	c1.Clear()
	if c1.Len() != 0 {
		t.Fatalf("expected empty cache after Clear, got %d", c1.Len())
	}
	fs2, err := c1.GetOrAnalyze(smp, 10)
	if err != nil {
		t.Fatal(err)
	}
	c2 := newTestCache(t)
	fs3, err := c2.GetOrAnalyze(smp, 10)
	if err != nil {
		t.Fatal(err)
	}

	for i := range fs1.Envelope {
		if fs1.Envelope[i] != fs2.Envelope[i] || fs1.Envelope[i] != fs3.Envelope[i] {
			t.Fatalf("envelope not deterministic at %d", i)
		}
	}
	for i := range fs1.Aperiodicity {
		if fs1.Aperiodicity[i] != fs2.Aperiodicity[i] || fs1.Aperiodicity[i] != fs3.Aperiodicity[i] {
			t.Fatalf("aperiodicity not deterministic at %d", i)
		}
	}
}

func TestGetOrAnalyze_EmptySource(t *testing.T) {
	c := newTestCache(t)
	smp := &voicebank.Sample{ID: "empty", PCM: nil, SampleRate: 44100}

	if _, err := c.GetOrAnalyze(smp, 10); err == nil {
		t.Fatal("expected error for empty waveform")
	}
	if _, err := c.GetOrAnalyze(nil, 10); err == nil {
		t.Fatal("expected error for nil sample")
	}
	if _, err := c.GetOrAnalyze(sineSample("a", 100, 261.6, 44100), 0); err == nil {
		t.Fatal("expected error for zero frame count")
	}
}

func TestFramePeriodicity(t *testing.T) {
	sr := 44100
	// 周期信号的自相关峰应明显高于白噪声样式的信号
	sine := make([]float64, 1024)
	for i := range sine {
		sine[i] = math.Sin(2 * math.Pi * 220 * float64(i) / float64(sr))
	}
	pSine := framePeriodicity(sine, sr)
	if pSine < 0.8 {
		t.Errorf("expected high periodicity for sine, got %f", pSine)
	}

	silence := make([]float64, 1024)
	if p := framePeriodicity(silence, sr); p != 0 {
		t.Errorf("expected zero periodicity for silence, got %f", p)
	}
}
