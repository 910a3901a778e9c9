// Package codec 负责音频文件的解码与编码。
// 引擎核心只与解码后的样本数组打交道，文件格式的细节都挡在这一层。
package codec

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Decode 按文件扩展名解码音频文件为单声道 float64 样本。
// 支持 .wav 和 .mp3。
func Decode(path string) ([]float64, int, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return DecodeWAV(path)
	case ".mp3":
		return DecodeMP3(path)
	default:
		return nil, 0, fmt.Errorf("不支持的音频格式: %s", path)
	}
}
