package analysis

import (
	"fmt"
	"sync"

	"github.com/iabetor/vosynth/internal/logger"
	"github.com/iabetor/vosynth/internal/voicebank"
)

// cacheKey 必须包含帧数：分解的时间分辨率取决于目标音符的帧数，
// 同一采样在不同帧数下是不同的缓存条目。
type cacheKey struct {
	sampleID string
	frames   int
}

// Cache 按 (采样 id, 帧数) 记忆化频谱分解结果。
// 条目创建后只读，只能通过 Clear 整体失效，没有部分淘汰。
type Cache struct {
	mu       sync.RWMutex
	fftSize  int
	refPitch float64
	entries  map[cacheKey]*FrameSet
}

// NewCache 创建分析缓存。
// fftSize 必须是不小于 256 的 2 的幂，refPitch 为正的基准音高（Hz）。
func NewCache(fftSize int, refPitch float64) (*Cache, error) {
	if fftSize < 256 || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("FFT 点数必须是不小于 256 的 2 的幂: %d", fftSize)
	}
	if refPitch <= 0 {
		return nil, fmt.Errorf("基准音高必须为正数: %g", refPitch)
	}
	return &Cache{
		fftSize:  fftSize,
		refPitch: refPitch,
		entries:  make(map[cacheKey]*FrameSet),
	}, nil
}

// Bins 返回频率 bin 数。
func (c *Cache) Bins() int {
	return c.fftSize/2 + 1
}

// GetOrAnalyze 返回采样在 frameCount 帧下的频谱分解，未命中时执行分析并缓存。
// 返回的 FrameSet 为只读共享视图，调用方不得修改。
func (c *Cache) GetOrAnalyze(smp *voicebank.Sample, frameCount int) (*FrameSet, error) {
	if smp == nil {
		return nil, ErrEmptySource
	}
	if frameCount <= 0 {
		return nil, fmt.Errorf("帧数必须为正数: %d", frameCount)
	}

	key := cacheKey{sampleID: smp.ID, frames: frameCount}

	c.mu.RLock()
	fs, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return fs, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// 拿写锁后重查，避免并发请求重复分析
	if fs, ok := c.entries[key]; ok {
		return fs, nil
	}

	fs, err := analyze(smp, frameCount, c.fftSize, c.refPitch)
	if err != nil {
		return nil, err
	}
	c.entries[key] = fs

	logger.Debugf("[analysis] 缓存填充: id=%s frames=%d bins=%d", smp.ID, frameCount, fs.Bins)
	return fs, nil
}

// Clear 整体清空缓存。
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]*FrameSet)
}

// Len 返回缓存条目数。
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
