// Package voicebank 管理解码后的音源采样。
// Store 持有注册采样的唯一所有权：注册后不可修改，同 id 重复注册整体替换。
package voicebank

import (
	"sync"
)

// Sample 是一段已解码的音源波形。
// 注册进 Store 后视为只读，调用方不得修改 PCM 内容。
type Sample struct {
	ID         string
	PCM        []float64
	SampleRate int
}

// Frames 返回采样点数。
func (s *Sample) Frames() int {
	return len(s.PCM)
}

// Store 是音源采样的内存仓库。
// 注册与渲染可能来自不同 goroutine，读写都加锁。
type Store struct {
	mu      sync.RWMutex
	samples map[string]*Sample
}

// NewStore 创建空的音源仓库。
func NewStore() *Store {
	return &Store{samples: make(map[string]*Sample)}
}

// Register 注册或替换一个采样。波形会被拷贝，调用方之后可随意复用 pcm。
func (s *Store) Register(id string, pcm []float64, sampleRate int) {
	buf := make([]float64, len(pcm))
	copy(buf, pcm)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples[id] = &Sample{ID: id, PCM: buf, SampleRate: sampleRate}
}

// Lookup 按 id 查找采样，返回只读引用和是否命中。
func (s *Store) Lookup(id string) (*Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	smp, ok := s.samples[id]
	return smp, ok
}

// Clear 清空所有采样。
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = make(map[string]*Sample)
}

// Len 返回已注册采样数量。
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.samples)
}

// IDs 返回所有已注册采样 id（无序）。
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.samples))
	for id := range s.samples {
		ids = append(ids, id)
	}
	return ids
}
