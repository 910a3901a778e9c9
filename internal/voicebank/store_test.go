package voicebank

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/iabetor/vosynth/internal/codec"
)

func TestRegisterAndLookup(t *testing.T) {
	s := NewStore()
	s.Register("a", []float64{0.1, 0.2, 0.3}, 44100)

	smp, ok := s.Lookup("a")
	if !ok {
		t.Fatal("expected lookup hit for registered id")
	}
	if smp.ID != "a" || smp.SampleRate != 44100 || smp.Frames() != 3 {
		t.Errorf("unexpected sample: %+v", smp)
	}
}

func TestLookup_Missing(t *testing.T) {
	s := NewStore()
	if _, ok := s.Lookup("nope"); ok {
		t.Fatal("expected miss for unregistered id")
	}
}

func TestRegister_CopiesInput(t *testing.T) {
	s := NewStore()
	pcm := []float64{0.5, 0.5}
	s.Register("a", pcm, 44100)
	pcm[0] = -1

	smp, _ := s.Lookup("a")
	if smp.PCM[0] != 0.5 {
		t.Fatal("store must own an independent copy of the waveform")
	}
}

func TestRegister_Replaces(t *testing.T) {
	s := NewStore()
	s.Register("a", []float64{0.1}, 44100)
	s.Register("a", []float64{0.9, 0.9}, 22050)

	smp, _ := s.Lookup("a")
	if smp.Frames() != 2 || smp.SampleRate != 22050 {
		t.Errorf("re-registration should replace: %+v", smp)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 sample, got %d", s.Len())
	}
}

func TestClear(t *testing.T) {
	s := NewStore()
	s.Register("a", []float64{0.1}, 44100)
	s.Register("b", []float64{0.2}, 44100)
	s.Clear()

	if s.Len() != 0 {
		t.Errorf("expected empty store after Clear, got %d", s.Len())
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()

	// 写入一个 4410 样本的正弦 wav 和一个非音频文件
	sr := 44100
	pcm := make([]float64, 4410)
	for i := range pcm {
		pcm[i] = 0.5 * math.Sin(2*math.Pi*261.6*float64(i)/float64(sr))
	}
	if err := codec.EncodeWAV(filepath.Join(dir, "a.wav"), pcm, sr, 16); err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	s := NewStore()
	loaded, err := LoadDir(s, dir, sr, nil)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if loaded != 1 {
		t.Fatalf("expected 1 loaded sample, got %d", loaded)
	}

	smp, ok := s.Lookup("a")
	if !ok {
		t.Fatal("expected sample 'a' registered from a.wav")
	}
	if smp.Frames() != 4410 {
		t.Errorf("expected 4410 frames, got %d", smp.Frames())
	}
}

func TestLoadDir_Resamples(t *testing.T) {
	dir := t.TempDir()
	pcm := make([]float64, 2205) // 100ms @ 22050
	if err := codec.EncodeWAV(filepath.Join(dir, "b.wav"), pcm, 22050, 16); err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	s := NewStore()
	if _, err := LoadDir(s, dir, 44100, nil); err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}

	smp, _ := s.Lookup("b")
	if smp.SampleRate != 44100 {
		t.Errorf("expected resampled rate 44100, got %d", smp.SampleRate)
	}
	if smp.Frames() != 4410 {
		t.Errorf("expected 4410 frames after resample, got %d", smp.Frames())
	}
}

func TestResampleLinear_Identity(t *testing.T) {
	in := []float64{0.1, 0.2, 0.3}
	out := resampleLinear(in, 44100, 44100)
	if len(out) != 3 {
		t.Fatalf("identity resample should keep length, got %d", len(out))
	}
}
