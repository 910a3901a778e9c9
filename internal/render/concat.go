package render

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/iabetor/vosynth/internal/logger"
	"github.com/iabetor/vosynth/internal/synth"
	"github.com/iabetor/vosynth/internal/voicebank"
)

// ConcatEngine 是时域拼接回退引擎：按基准音高假设对原始波形做
// 线性插值变速重采样，段首段尾做短淡入淡出。保真度低于频谱引擎，
// 但不需要频谱分解，适合快速试听。
type ConcatEngine struct {
	cfg   Config
	store *voicebank.Store
}

// Render 实现 Renderer，长度语义与频谱引擎完全一致。
func (e *ConcatEngine) Render(notes []NoteEvent) ([]float64, error) {
	jobID := uuid.NewString()

	segs := make([]int, len(notes))
	total := 0
	for i := range notes {
		segs[i] = synth.SegmentSamples(notes[i].FrameCount(), e.cfg.FramePeriodMs, e.cfg.SampleRate)
		total += segs[i]
	}

	logger.Infof("[render] %s: 拼接渲染 %d 个音符, 共 %d 样本", jobID, len(notes), total)
	buf := make([]float64, total)

	offset := 0
	for i := range notes {
		seg := segs[i]
		pcm, err := e.renderNote(&notes[i], seg)
		if err != nil {
			logger.Warnf("[render] %s: 音符 %d (id=%s) 回退为静音: %v", jobID, i, notes[i].SampleID, err)
			offset += seg
			continue
		}
		if len(pcm) != seg {
			return nil, fmt.Errorf("%w: 音符 %d 片段 %d, 预计算 %d", ErrBounds, i, len(pcm), seg)
		}
		copy(buf[offset:offset+seg], pcm)
		offset += seg
	}

	return buf, nil
}

func (e *ConcatEngine) renderNote(note *NoteEvent, seg int) ([]float64, error) {
	if err := note.validateCurves(); err != nil {
		return nil, err
	}

	smp, ok := e.store.Lookup(note.SampleID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingSample, note.SampleID)
	}
	if smp.Frames() == 0 {
		return nil, fmt.Errorf("音源波形为空: %s", note.SampleID)
	}

	out := make([]float64, seg)
	if note.FrameCount() <= 1 {
		return out, nil
	}

	hop := e.cfg.FramePeriodMs / 1000.0 * float64(e.cfg.SampleRate)
	src := smp.PCM
	srcPos := 0.0

	for s := 0; s < seg; s++ {
		j := int(float64(s)/hop + 0.5)
		if j > note.FrameCount()-1 {
			j = note.FrameCount() - 1
		}
		f := note.Pitch[j]
		if f <= 0 {
			// 无声帧：输出静音，源位置不动
			continue
		}

		idx := int(srcPos)
		if idx >= len(src)-1 {
			// 源用尽，剩余保持静音
			break
		}
		frac := srcPos - float64(idx)
		out[s] = src[idx]*(1.0-frac) + src[idx+1]*frac

		// 源按音高比率步进，基准音高对应原速
		srcPos += f / e.cfg.ReferencePitch
	}

	applyFade(out)
	return out, nil
}

// applyFade 对片段做线性淡入淡出，缓和拼接边界的爆音。
func applyFade(pcm []float64) {
	fade := len(pcm) / 8
	if fade > 256 {
		fade = 256
	}
	if fade < 1 {
		return
	}
	for i := 0; i < fade; i++ {
		g := float64(i) / float64(fade)
		pcm[i] *= g
		pcm[len(pcm)-1-i] *= g
	}
}

var _ Renderer = (*ConcatEngine)(nil)
