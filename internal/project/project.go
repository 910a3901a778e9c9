// Package project 读取音符时间线工程文件（JSON）。
// 工程文件由编辑器生成，这里只做结构校验和缺省填充，
// 歌词到采样 id 的解析交给 lyric 包。
package project

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/iabetor/vosynth/internal/render"
)

// Note 是工程文件中的一个音符。
// SampleID 和 Lyric 至少要有一个；表情曲线可省略，按中性值补齐。
type Note struct {
	SampleID string    `json:"sample_id,omitempty"`
	Lyric    string    `json:"lyric,omitempty"`
	Pitch    []float64 `json:"pitch"`
	Gender   []float64 `json:"gender,omitempty"`
	Tension  []float64 `json:"tension,omitempty"`
	Breath   []float64 `json:"breath,omitempty"`
}

// Project 是一个完整的工程文件。
type Project struct {
	Name  string `json:"name,omitempty"`
	Notes []Note `json:"notes"`
}

// Load 读取并校验工程文件。
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取工程文件失败: %w", err)
	}

	p := &Project{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("解析工程文件失败: %w", err)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate 校验所有音符。
func (p *Project) Validate() error {
	for i := range p.Notes {
		n := &p.Notes[i]
		if n.SampleID == "" && n.Lyric == "" {
			return fmt.Errorf("音符 %d: sample_id 和 lyric 至少要有一个", i)
		}
		if len(n.Pitch) == 0 {
			return fmt.Errorf("音符 %d: 缺少音高曲线", i)
		}
		for name, curve := range map[string][]float64{"gender": n.Gender, "tension": n.Tension, "breath": n.Breath} {
			if len(curve) != 0 && len(curve) != len(n.Pitch) {
				return fmt.Errorf("音符 %d: %s 曲线长度 %d 与音高曲线 %d 不一致", i, name, len(curve), len(n.Pitch))
			}
		}
	}
	return nil
}

// Event 把工程音符转换为渲染事件：
// 省略的表情曲线按中性值补齐，越界的曲线值钳位到 [0,1]。
func (n *Note) Event() render.NoteEvent {
	fc := len(n.Pitch)
	ev := render.NoteEvent{
		SampleID: n.SampleID,
		Pitch:    append([]float64(nil), n.Pitch...),
		Gender:   fillCurve(n.Gender, fc, 0.5),
		Tension:  fillCurve(n.Tension, fc, 0.5),
		Breath:   fillCurve(n.Breath, fc, 0.0),
	}
	return ev
}

// fillCurve 拷贝并钳位曲线，空曲线按缺省值铺满。
func fillCurve(curve []float64, n int, def float64) []float64 {
	out := make([]float64, n)
	if len(curve) == 0 {
		for i := range out {
			out[i] = def
		}
		return out
	}
	for i := 0; i < n && i < len(curve); i++ {
		v := curve[i]
		if v < 0 {
			v = 0
		} else if v > 1 {
			v = 1
		}
		out[i] = v
	}
	return out
}
