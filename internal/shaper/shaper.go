// Package shaper 按表情曲线变换频谱参数。
// 输入矩阵与分析缓存共享，这里一律写时复制，绝不改写源数据。
package shaper

import (
	"errors"
	"fmt"

	"github.com/iabetor/vosynth/internal/analysis"
)

// ErrCurveLength 表示表情曲线长度与帧数不一致。
var ErrCurveLength = errors.New("表情曲线长度与帧数不一致")

// 共振峰偏移幅度：gender 从 0 到 1 对应频率轴 ∓20% 的拉伸。
const formantShiftRange = 0.4

// Shape 对分解结果施加三种逐帧变换，返回新的 FrameSet：
//  1. 共振峰偏移（gender）：沿 bin 轴线性插值重采样包络；
//  2. 张力（tension）：对偏移后的包络做线性高频倾斜；
//  3. 气声（breath）：在非周期比上叠加频率加权的噪声成分。
//
// 顺序有意义：张力作用在偏移后的包络上。bin 0（直流）不做任何变换。
func Shape(fs *analysis.FrameSet, gender, tension, breath []float64) (*analysis.FrameSet, error) {
	if len(gender) != fs.Frames || len(tension) != fs.Frames || len(breath) != fs.Frames {
		return nil, fmt.Errorf("%w: frames=%d gender=%d tension=%d breath=%d",
			ErrCurveLength, fs.Frames, len(gender), len(tension), len(breath))
	}

	out := &analysis.FrameSet{
		Frames:       fs.Frames,
		Bins:         fs.Bins,
		Envelope:     make([]float64, len(fs.Envelope)),
		Aperiodicity: make([]float64, len(fs.Aperiodicity)),
	}

	bins := fs.Bins
	for j := 0; j < fs.Frames; j++ {
		srcEnv := fs.EnvelopeRow(j)
		srcAp := fs.AperiodicityRow(j)
		dstEnv := out.EnvelopeRow(j)
		dstAp := out.AperiodicityRow(j)

		shift := (gender[j] - 0.5) * formantShiftRange

		dstEnv[0] = srcEnv[0]
		dstAp[0] = srcAp[0]

		for k := 1; k < bins; k++ {
			// 共振峰偏移：包络沿 bin 轴重采样，越界钳位到有效范围
			srcBin := float64(k) * (1.0 + shift)
			if srcBin < 0 {
				srcBin = 0
			} else if srcBin > float64(bins-1) {
				srcBin = float64(bins - 1)
			}
			i0 := int(srcBin)
			i1 := i0 + 1
			if i1 > bins-1 {
				i1 = bins - 1
			}
			frac := srcBin - float64(i0)
			warped := srcEnv[i0]*(1.0-frac) + srcEnv[i1]*frac

			// 张力：作用在偏移后的包络上，0.5 为中性
			warped *= 1.0 + (tension[j]-0.5)*float64(k)/float64(bins)
			if warped < 0 {
				warped = 0
			}
			dstEnv[k] = warped

			// 气声：频率加权的加性噪声成分，钳位到 [0,1]
			ap := srcAp[k] + breath[j]*float64(k)/float64(bins)
			if ap > 1.0 {
				ap = 1.0
			} else if ap < 0.0 {
				ap = 0.0
			}
			dstAp[k] = ap
		}
	}

	return out, nil
}
