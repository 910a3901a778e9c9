package codec

import (
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"

	"github.com/iabetor/vosynth/internal/audio"
)

// DecodeMP3 解码 mp3 文件为单声道 float64 样本。
// go-mp3 固定输出 16-bit LE 双声道交错 PCM，这里取左右声道均值。
func DecodeMP3(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("打开 mp3 文件失败: %w", err)
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, 0, fmt.Errorf("解码 mp3 失败: %w", err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, 0, fmt.Errorf("读取 mp3 数据失败: %w", err)
	}

	interleaved := audio.BytesToFloat64(raw)
	frames := len(interleaved) / 2
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		out[i] = (interleaved[2*i] + interleaved[2*i+1]) / 2
	}

	return out, dec.SampleRate(), nil
}
