package codec

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestWAVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.wav")

	// 100ms 440Hz 正弦
	sr := 44100
	n := sr / 10
	in := make([]float64, n)
	for i := range in {
		in[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/float64(sr))
	}

	if err := EncodeWAV(path, in, sr, 16); err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	out, gotSR, err := DecodeWAV(path)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}
	if gotSR != sr {
		t.Errorf("sample rate: got %d, want %d", gotSR, sr)
	}
	if len(out) != n {
		t.Fatalf("sample count: got %d, want %d", len(out), n)
	}
	// 16-bit 量化误差以内
	for i := 0; i < n; i += 997 {
		if math.Abs(out[i]-in[i]) > 1.0/32000 {
			t.Fatalf("sample %d: got %f, want %f", i, out[i], in[i])
		}
	}
}

func TestEncodeWAV_Clamps(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.wav")

	if err := EncodeWAV(path, []float64{2.0, -2.0}, 44100, 16); err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}
	out, _, err := DecodeWAV(path)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}
	if out[0] != 1.0 || out[1] != -1.0 {
		t.Fatalf("expected clamped [1,-1], got %v", out)
	}
}

func TestEncodeWAV_BadParams(t *testing.T) {
	dir := t.TempDir()
	if err := EncodeWAV(filepath.Join(dir, "x.wav"), nil, 0, 16); err == nil {
		t.Error("expected error for zero sample rate")
	}
	if err := EncodeWAV(filepath.Join(dir, "x.wav"), nil, 44100, 24); err == nil {
		t.Error("expected error for unsupported bit depth")
	}
}

func TestDecodeWAV_NotWAV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.wav")
	if err := os.WriteFile(path, []byte("this is not a wav file"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := DecodeWAV(path); err == nil {
		t.Fatal("expected error for non-wav content")
	}
}

func TestDecode_UnknownExtension(t *testing.T) {
	if _, _, err := Decode("voice.ogg"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
