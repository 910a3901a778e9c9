package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// wav 读写只处理本引擎需要的子集：
// 解码支持 16-bit PCM 与 32-bit float，多声道混合为单声道；
// 编码固定输出 16-bit PCM 单声道。

const (
	wavFormatPCM   = 1
	wavFormatFloat = 3
)

// DecodeWAV 解码 RIFF/WAVE 文件为单声道 float64 样本。
// 返回样本和采样率。
func DecodeWAV(path string) ([]float64, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("读取 wav 文件失败: %w", err)
	}
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("不是有效的 RIFF/WAVE 文件: %s", path)
	}

	var (
		format     uint16
		channels   uint16
		sampleRate uint32
		bits       uint16
		raw        []byte
		haveFmt    bool
	)

	// 逐块扫描，只关心 fmt 和 data
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, fmt.Errorf("fmt 块过短: %d 字节", size)
			}
			format = binary.LittleEndian.Uint16(data[body : body+2])
			channels = binary.LittleEndian.Uint16(data[body+2 : body+4])
			sampleRate = binary.LittleEndian.Uint32(data[body+4 : body+8])
			bits = binary.LittleEndian.Uint16(data[body+14 : body+16])
			haveFmt = true
		case "data":
			raw = data[body : body+size]
		}

		// 块按 2 字节对齐
		pos = body + size
		if size%2 == 1 {
			pos++
		}
	}

	if !haveFmt || raw == nil {
		return nil, 0, fmt.Errorf("wav 文件缺少 fmt 或 data 块: %s", path)
	}
	if channels == 0 || sampleRate == 0 {
		return nil, 0, fmt.Errorf("wav 头参数非法: channels=%d rate=%d", channels, sampleRate)
	}

	var samples []float64
	switch {
	case format == wavFormatPCM && bits == 16:
		samples = decodePCM16(raw, int(channels))
	case format == wavFormatFloat && bits == 32:
		samples = decodeFloat32(raw, int(channels))
	default:
		return nil, 0, fmt.Errorf("不支持的 wav 编码: format=%d bits=%d", format, bits)
	}

	return samples, int(sampleRate), nil
}

func decodePCM16(raw []byte, channels int) []float64 {
	frameBytes := 2 * channels
	frames := len(raw) / frameBytes
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			off := i*frameBytes + c*2
			v := int16(raw[off]) | int16(raw[off+1])<<8
			sum += float64(v) / math.MaxInt16
		}
		out[i] = sum / float64(channels)
	}
	return out
}

func decodeFloat32(raw []byte, channels int) []float64 {
	frameBytes := 4 * channels
	frames := len(raw) / frameBytes
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			off := i*frameBytes + c*4
			bits := binary.LittleEndian.Uint32(raw[off : off+4])
			sum += float64(math.Float32frombits(bits))
		}
		out[i] = sum / float64(channels)
	}
	return out
}

// EncodeWAV 将单声道 float64 样本编码为 16-bit PCM wav 文件。
// 超出 [-1,1] 的样本被钳位。
func EncodeWAV(path string, samples []float64, sampleRate, bitDepth int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("采样率必须为正数: %d", sampleRate)
	}
	if bitDepth != 16 {
		return fmt.Errorf("暂不支持的位深: %d", bitDepth)
	}

	dataSize := len(samples) * 2
	buf := make([]byte, 44+dataSize)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], wavFormatPCM)
	binary.LittleEndian.PutUint16(buf[22:24], 1) // 单声道
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(buf[32:34], 2)
	binary.LittleEndian.PutUint16(buf[34:36], 16)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))

	for i, s := range samples {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		v := int16(s * math.MaxInt16)
		buf[44+2*i] = byte(v)
		buf[44+2*i+1] = byte(v >> 8)
	}

	if err := os.WriteFile(path, buf, 0644); err != nil {
		return fmt.Errorf("写入 wav 文件失败: %w", err)
	}
	return nil
}
