// Package synth 把目标音高曲线和整形后的频谱参数重合成为 PCM 片段。
// 有声帧用脉冲串激励，无声帧（音高 ≤ 0）用滤波噪声激励，帧间重叠相加。
package synth

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/madelynnblue/go-dsp/fft"
	"github.com/madelynnblue/go-dsp/window"

	"github.com/iabetor/vosynth/internal/analysis"
)

// ErrCurveLength 表示音高曲线长度与帧数不一致。
var ErrCurveLength = errors.New("音高曲线长度与帧数不一致")

// 噪声激励的固定种子。渲染必须逐比特可复现，噪声源不允许吃系统熵。
const noiseSeed = 0x5e

// SegmentSamples 返回 frameCount 帧在给定帧间隔和采样率下的片段长度。
// 时间线合成器用同一公式预计算总长，两处计算不允许有任何偏差。
// frameCount ≤ 1 时片段固定为单个零样本。
func SegmentSamples(frameCount int, framePeriodMs float64, sampleRate int) int {
	if frameCount <= 1 {
		return 1
	}
	return int(math.Round(float64(frameCount-1)*framePeriodMs/1000.0*float64(sampleRate))) + 1
}

// Synthesize 生成长度恰为 SegmentSamples(len(f0), framePeriodMs, sampleRate)
// 的 PCM 片段。f0 单位 Hz，≤ 0 的帧按无声处理。
func Synthesize(f0 []float64, fs *analysis.FrameSet, framePeriodMs float64, sampleRate int) ([]float64, error) {
	if framePeriodMs <= 0 {
		return nil, fmt.Errorf("帧间隔必须为正数: %g", framePeriodMs)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("采样率必须为正数: %d", sampleRate)
	}
	if len(f0) != fs.Frames {
		return nil, fmt.Errorf("%w: f0=%d frames=%d", ErrCurveLength, len(f0), fs.Frames)
	}

	if fs.Frames <= 1 {
		return []float64{0}, nil
	}

	bins := fs.Bins
	fftSize := (bins - 1) * 2
	hop := framePeriodMs / 1000.0 * float64(sampleRate)
	total := SegmentSamples(fs.Frames, framePeriodMs, sampleRate)
	out := make([]float64, total)

	// 有声成分：脉冲串激励，脉冲响应按帧缓存
	irCache := make([][]float64, fs.Frames)
	pulseIR := func(j int) []float64 {
		if irCache[j] != nil {
			return irCache[j]
		}
		env := fs.EnvelopeRow(j)
		ap := fs.AperiodicityRow(j)
		spec := make([]complex128, fftSize)
		for k := 0; k < bins; k++ {
			mag := env[k] * math.Sqrt(1.0-ap[k])
			spec[k] = complex(mag, 0)
			if k > 0 && k < bins-1 {
				spec[fftSize-k] = complex(mag, 0)
			}
		}
		// 零相位脉冲响应，循环移位到窗中心
		td := fft.IFFT(spec)
		ir := make([]float64, fftSize)
		half := fftSize / 2
		for i := 0; i < fftSize; i++ {
			ir[i] = real(td[(i+half)%fftSize])
		}
		irCache[j] = ir
		return ir
	}

	half := fftSize / 2
	pos := 0.0
	for pos < float64(total) {
		j := int(pos/hop + 0.5)
		if j < 0 {
			j = 0
		} else if j > fs.Frames-1 {
			j = fs.Frames - 1
		}

		f := f0[j]
		if f <= 0 {
			// 无声区间不放脉冲，按帧间隔步进
			pos += hop
			continue
		}

		period := float64(sampleRate) / f
		gain := math.Sqrt(period)
		ir := pulseIR(j)
		center := int(pos)
		for i := 0; i < fftSize; i++ {
			idx := center - half + i
			if idx >= 0 && idx < total {
				out[idx] += ir[i] * gain
			}
		}
		pos += period
	}

	// 噪声成分：逐帧滤波白噪声，Hann 窗重叠相加
	rng := rand.New(rand.NewSource(noiseSeed))
	win := window.Hann(fftSize)
	olaGain := 2.0 * hop / float64(fftSize)
	noise := make([]float64, fftSize)
	mag := make([]float64, bins)

	for j := 0; j < fs.Frames; j++ {
		env := fs.EnvelopeRow(j)
		ap := fs.AperiodicityRow(j)
		voiced := f0[j] > 0
		for k := 0; k < bins; k++ {
			if voiced {
				mag[k] = env[k] * math.Sqrt(ap[k])
			} else {
				// 无声帧整个包络都由噪声承载
				mag[k] = env[k]
			}
		}

		for i := range noise {
			noise[i] = rng.Float64()*2.0 - 1.0
		}
		spec := fft.FFTReal(noise)
		for k := 0; k < bins; k++ {
			spec[k] *= complex(mag[k], 0)
			if k > 0 && k < bins-1 {
				spec[fftSize-k] *= complex(mag[k], 0)
			}
		}
		td := fft.IFFT(spec)

		center := int(float64(j) * hop)
		for i := 0; i < fftSize; i++ {
			idx := center - half + i
			if idx >= 0 && idx < total {
				out[idx] += real(td[i]) * win[i] * olaGain
			}
		}
	}

	return out, nil
}
