// Package analysis 对音源波形做频谱分解并按 (采样 id, 帧数) 记忆化。
// 帧轴跟随目标音符的帧数而不是固定的实时帧率：引擎没有独立的源音高跟踪，
// 只能假设一个常数基准音高，把整段音源均匀映射到目标帧上。
package analysis

import (
	"errors"
	"math"

	"github.com/madelynnblue/go-dsp/fft"
	"github.com/madelynnblue/go-dsp/window"

	"github.com/iabetor/vosynth/internal/voicebank"
)

// ErrEmptySource 表示音源波形为空或不可分析。
var ErrEmptySource = errors.New("音源波形为空")

// 自相关搜索的基频范围（Hz）。
const (
	minSearchF0 = 70.0
	maxSearchF0 = 500.0
)

// 高频带的气声倾斜系数。
const apHighTilt = 0.25

// FrameSet 是一个采样在给定帧数下的频谱分解结果。
// Envelope 和 Aperiodicity 都是 Frames×Bins 的行主序扁平矩阵。
// 创建后只读，由缓存共享给多次渲染。
type FrameSet struct {
	Frames       int
	Bins         int
	Envelope     []float64
	Aperiodicity []float64
}

// EnvelopeRow 返回第 j 帧的包络切片（只读视图）。
func (fs *FrameSet) EnvelopeRow(j int) []float64 {
	return fs.Envelope[j*fs.Bins : (j+1)*fs.Bins]
}

// AperiodicityRow 返回第 j 帧的非周期比切片（只读视图）。
func (fs *FrameSet) AperiodicityRow(j int) []float64 {
	return fs.Aperiodicity[j*fs.Bins : (j+1)*fs.Bins]
}

// Clone 返回矩阵的深拷贝，供整形器写时复制。
func (fs *FrameSet) Clone() *FrameSet {
	env := make([]float64, len(fs.Envelope))
	copy(env, fs.Envelope)
	ap := make([]float64, len(fs.Aperiodicity))
	copy(ap, fs.Aperiodicity)
	return &FrameSet{Frames: fs.Frames, Bins: fs.Bins, Envelope: env, Aperiodicity: ap}
}

// analyze 对采样执行两趟确定性分析：包络提取和非周期比估计。
func analyze(smp *voicebank.Sample, frameCount, fftSize int, refPitch float64) (*FrameSet, error) {
	wave := smp.PCM
	if len(wave) == 0 {
		return nil, ErrEmptySource
	}

	bins := fftSize/2 + 1
	fs := &FrameSet{
		Frames:       frameCount,
		Bins:         bins,
		Envelope:     make([]float64, frameCount*bins),
		Aperiodicity: make([]float64, frameCount*bins),
	}

	win := window.Hann(fftSize)

	// 平滑半宽：按基准音高对应的谐波间隔取整到 bin 数
	binHz := float64(smp.SampleRate) / float64(fftSize)
	halfWidth := int(refPitch / binHz)
	if halfWidth < 1 {
		halfWidth = 1
	}

	seg := make([]float64, fftSize)
	windowed := make([]float64, fftSize)
	logMag := make([]float64, bins)

	for j := 0; j < frameCount; j++ {
		// 时间映射：把整段音源均匀铺到 frameCount 帧上
		var center float64
		if frameCount > 1 {
			center = float64(j) * float64(len(wave)-1) / float64(frameCount-1)
		}

		extractSegment(wave, center, seg)
		for i := range seg {
			windowed[i] = seg[i] * win[i]
		}

		// 第一趟：对数域平滑的幅度包络
		spec := fft.FFTReal(windowed)
		for k := 0; k < bins; k++ {
			power := real(spec[k])*real(spec[k]) + imag(spec[k])*imag(spec[k])
			logMag[k] = 0.5 * math.Log(power+1e-12)
		}
		envRow := fs.EnvelopeRow(j)
		for k := 0; k < bins; k++ {
			lo := k - halfWidth
			if lo < 0 {
				lo = 0
			}
			hi := k + halfWidth
			if hi > bins-1 {
				hi = bins - 1
			}
			sum := 0.0
			for i := lo; i <= hi; i++ {
				sum += logMag[i]
			}
			envRow[k] = math.Exp(sum / float64(hi-lo+1))
		}

		// 第二趟：帧周期性（自相关峰）决定基础非周期比，向高频抬升
		p := framePeriodicity(seg, smp.SampleRate)
		base := 1.0 - p
		apRow := fs.AperiodicityRow(j)
		for k := 0; k < bins; k++ {
			ap := base + (1.0-base)*apHighTilt*float64(k)/float64(bins-1)
			if ap > 1.0 {
				ap = 1.0
			} else if ap < 0.0 {
				ap = 0.0
			}
			apRow[k] = ap
		}
	}

	return fs, nil
}

// extractSegment 以 center 为中心截取 len(dst) 个样本，越界部分补零。
func extractSegment(wave []float64, center float64, dst []float64) {
	start := int(center) - len(dst)/2
	for i := range dst {
		idx := start + i
		if idx >= 0 && idx < len(wave) {
			dst[i] = wave[idx]
		} else {
			dst[i] = 0
		}
	}
}

// framePeriodicity 返回帧内归一化自相关峰值，范围 [0,1]。
// 无声或能量过低的帧返回 0。
func framePeriodicity(seg []float64, sampleRate int) float64 {
	minLag := int(float64(sampleRate) / maxSearchF0)
	maxLag := int(float64(sampleRate) / minSearchF0)
	if maxLag > len(seg)/2 {
		maxLag = len(seg) / 2
	}
	if minLag < 1 || minLag >= maxLag {
		return 0
	}

	energy := 0.0
	for _, v := range seg {
		energy += v * v
	}
	if energy < 1e-9 {
		return 0
	}

	best := 0.0
	n := len(seg)
	for lag := minLag; lag <= maxLag; lag++ {
		var num, e0, e1 float64
		for i := 0; i < n-lag; i++ {
			num += seg[i] * seg[i+lag]
			e0 += seg[i] * seg[i]
			e1 += seg[i+lag] * seg[i+lag]
		}
		if e0 < 1e-12 || e1 < 1e-12 {
			continue
		}
		r := num / math.Sqrt(e0*e1)
		if r > best {
			best = r
		}
	}

	if best < 0 {
		return 0
	}
	if best > 1 {
		return 1
	}
	return best
}
