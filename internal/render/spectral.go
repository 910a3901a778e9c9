package render

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/iabetor/vosynth/internal/analysis"
	"github.com/iabetor/vosynth/internal/logger"
	"github.com/iabetor/vosynth/internal/shaper"
	"github.com/iabetor/vosynth/internal/synth"
	"github.com/iabetor/vosynth/internal/voicebank"
)

// Engine 是频谱重合成引擎：分析缓存 → 参数整形 → 脉冲/噪声重合成。
type Engine struct {
	cfg   Config
	store *voicebank.Store
	cache *analysis.Cache
}

// Render 实现 Renderer。
// 先用长度公式做一遍预计算并整体分配缓冲，之后逐音符合成并
// 拷贝到累计偏移上；任何音符失败都只推进偏移、留下静音。
func (e *Engine) Render(notes []NoteEvent) ([]float64, error) {
	jobID := uuid.NewString()

	segs := make([]int, len(notes))
	total := 0
	for i := range notes {
		segs[i] = synth.SegmentSamples(notes[i].FrameCount(), e.cfg.FramePeriodMs, e.cfg.SampleRate)
		total += segs[i]
	}

	logger.Infof("[render] %s: 开始渲染 %d 个音符, 共 %d 样本", jobID, len(notes), total)
	buf := make([]float64, total)

	offset := 0
	silent := 0
	for i := range notes {
		seg := segs[i]
		pcm, err := e.renderNote(&notes[i])
		if err != nil {
			logger.Warnf("[render] %s: 音符 %d (id=%s) 回退为静音: %v", jobID, i, notes[i].SampleID, err)
			offset += seg
			silent++
			continue
		}
		if len(pcm) != seg {
			// 长度公式分歧不可恢复，报告出错的音符
			return nil, fmt.Errorf("%w: 音符 %d 片段 %d, 预计算 %d", ErrBounds, i, len(pcm), seg)
		}
		copy(buf[offset:offset+seg], pcm)
		offset += seg
	}

	logger.Infof("[render] %s: 渲染完成, %d/%d 音符成功", jobID, len(notes)-silent, len(notes))
	return buf, nil
}

// renderNote 渲染单个音符，任何一步失败都让调用方回退为静音。
func (e *Engine) renderNote(note *NoteEvent) ([]float64, error) {
	if err := note.validateCurves(); err != nil {
		return nil, err
	}

	smp, ok := e.store.Lookup(note.SampleID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingSample, note.SampleID)
	}

	fs, err := e.cache.GetOrAnalyze(smp, note.FrameCount())
	if err != nil {
		return nil, fmt.Errorf("分析失败: %w", err)
	}

	shaped, err := shaper.Shape(fs, note.Gender, note.Tension, note.Breath)
	if err != nil {
		return nil, fmt.Errorf("整形失败: %w", err)
	}

	return synth.Synthesize(note.Pitch, shaped, e.cfg.FramePeriodMs, e.cfg.SampleRate)
}

var _ Renderer = (*Engine)(nil)
