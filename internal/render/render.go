// Package render 把音符时间线合成为一个完整的输出缓冲。
// 总长度在任何合成调用之前就确定，音符按调用方给定顺序落在
// 累计偏移上，单个音符失败只留下等长的静音段。
package render

import (
	"errors"
	"fmt"

	"github.com/iabetor/vosynth/internal/analysis"
	"github.com/iabetor/vosynth/internal/voicebank"
)

var (
	// ErrConfig 表示引擎参数非法。
	ErrConfig = errors.New("引擎配置非法")
	// ErrMissingSample 表示音符引用了未注册的采样 id。
	ErrMissingSample = errors.New("未注册的采样 id")
	// ErrCurveLength 表示音符上四条曲线长度不一致。
	ErrCurveLength = errors.New("音符曲线长度不一致")
	// ErrBounds 表示合成片段长度与预计算不符。
	// 这是整次渲染的致命错误，说明两处长度公式出现了分歧。
	ErrBounds = errors.New("片段长度与预计算不符")
)

// NoteEvent 是一个待渲染的音符。
// 四条曲线共享同一长度 N，即该音符的帧数；Pitch 中 ≤ 0 表示无声帧。
// NoteEvent 只在一次 Render 调用内存活，引擎不保留引用。
type NoteEvent struct {
	SampleID string
	Pitch    []float64 // Hz
	Gender   []float64 // [0,1]，0.5 中性
	Tension  []float64 // [0,1]，0.5 中性
	Breath   []float64 // [0,1]，0 表示无附加气声
}

// FrameCount 返回音符帧数。
func (n *NoteEvent) FrameCount() int {
	return len(n.Pitch)
}

// validateCurves 校验表情曲线长度与音高曲线一致。
func (n *NoteEvent) validateCurves() error {
	fc := len(n.Pitch)
	if len(n.Gender) != fc || len(n.Tension) != fc || len(n.Breath) != fc {
		return fmt.Errorf("%w: pitch=%d gender=%d tension=%d breath=%d",
			ErrCurveLength, fc, len(n.Gender), len(n.Tension), len(n.Breath))
	}
	return nil
}

// Renderer 是渲染引擎的统一契约，频谱引擎和拼接回退引擎都实现它。
type Renderer interface {
	// Render 按顺序渲染音符序列，返回完整的 PCM 缓冲。
	// 空序列返回零长度缓冲和 nil 错误。
	Render(notes []NoteEvent) ([]float64, error)
}

// Config 渲染引擎参数。
type Config struct {
	Mode           string  // spectral 或 concat
	SampleRate     int     // 输出采样率（Hz）
	FramePeriodMs  float64 // 帧间隔（毫秒）
	ReferencePitch float64 // 音源基准音高假设（Hz），拼接引擎使用
}

func (cfg Config) validate() error {
	if cfg.SampleRate <= 0 {
		return fmt.Errorf("%w: 采样率 %d", ErrConfig, cfg.SampleRate)
	}
	if cfg.FramePeriodMs <= 0 {
		return fmt.Errorf("%w: 帧间隔 %g", ErrConfig, cfg.FramePeriodMs)
	}
	if cfg.ReferencePitch <= 0 {
		return fmt.Errorf("%w: 基准音高 %g", ErrConfig, cfg.ReferencePitch)
	}
	return nil
}

// New 按配置选择渲染引擎。
func New(cfg Config, store *voicebank.Store, cache *analysis.Cache) (Renderer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	switch cfg.Mode {
	case "spectral", "":
		if cache == nil {
			return nil, fmt.Errorf("%w: 频谱引擎需要分析缓存", ErrConfig)
		}
		return &Engine{cfg: cfg, store: store, cache: cache}, nil
	case "concat":
		return &ConcatEngine{cfg: cfg, store: store}, nil
	default:
		return nil, fmt.Errorf("%w: 未知模式 %s", ErrConfig, cfg.Mode)
	}
}
