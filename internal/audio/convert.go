package audio

import (
	"math"
)

// Float64ToInt16 将 [-1.0, 1.0] 范围的 float64 样本转换为 PCM int16。
func Float64ToInt16(in []float64) []int16 {
	out := make([]int16, len(in))
	for i, s := range in {
		// 钳位到 [-1.0, 1.0]
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		out[i] = int16(s * math.MaxInt16)
	}
	return out
}

// Int16ToFloat64 将 PCM int16 样本转换为 [-1.0, 1.0] 范围的 float64。
func Int16ToFloat64(in []int16) []float64 {
	out := make([]float64, len(in))
	for i, s := range in {
		out[i] = float64(s) / math.MaxInt16
	}
	return out
}

// BytesToInt16 将小端字节切片转换为 int16 样本。
func BytesToInt16(b []byte) []int16 {
	n := len(b) / 2
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		out[i] = int16(b[2*i]) | int16(b[2*i+1])<<8
	}
	return out
}

// Int16ToBytes 将 int16 样本转换为小端字节切片。
func Int16ToBytes(in []int16) []byte {
	out := make([]byte, len(in)*2)
	for i, s := range in {
		out[2*i] = byte(s)
		out[2*i+1] = byte(s >> 8)
	}
	return out
}

// BytesToFloat64 便捷函数：将原始 16-bit LE PCM 字节直接转换为 float64。
func BytesToFloat64(b []byte) []float64 {
	return Int16ToFloat64(BytesToInt16(b))
}

// Float64ToBytes 便捷函数：将 float64 样本直接转换为原始 16-bit LE PCM 字节。
func Float64ToBytes(in []float64) []byte {
	return Int16ToBytes(Float64ToInt16(in))
}

// Peak 返回样本的最大绝对值。
func Peak(in []float64) float64 {
	peak := 0.0
	for _, s := range in {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return peak
}

// Normalize 将样本峰值归一化到 target（通常略小于 1.0），
// 原地修改并返回同一切片。静音输入保持不变。
func Normalize(in []float64, target float64) []float64 {
	peak := Peak(in)
	if peak == 0 {
		return in
	}
	gain := target / peak
	for i := range in {
		in[i] *= gain
	}
	return in
}

// ApplyGain 将所有样本乘以 gain，原地修改并返回同一切片。
func ApplyGain(in []float64, gain float64) []float64 {
	for i := range in {
		in[i] *= gain
	}
	return in
}
