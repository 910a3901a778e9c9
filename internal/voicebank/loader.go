package voicebank

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iabetor/vosynth/internal/codec"
	"github.com/iabetor/vosynth/internal/database"
	"github.com/iabetor/vosynth/internal/logger"
)

// LoadDir 扫描音源目录，解码所有 wav/mp3 文件并注册进 store。
// 文件名去掉扩展名后作为采样 id。采样率与 targetRate 不一致的波形
// 会在注册阶段线性重采样到 targetRate，渲染路径因此不再关心源采样率。
// db 不为 nil 时同步写入音源索引。返回成功注册的数量。
func LoadDir(store *Store, dir string, targetRate int, db *database.DB) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("读取音源目录失败: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".wav" && ext != ".mp3" {
			continue
		}

		path := filepath.Join(dir, name)
		pcm, rate, err := codec.Decode(path)
		if err != nil {
			logger.Warnf("[voicebank] 跳过 %s: %v", name, err)
			continue
		}
		if len(pcm) == 0 {
			logger.Warnf("[voicebank] 跳过 %s: 文件无样本", name)
			continue
		}

		if rate != targetRate {
			pcm = resampleLinear(pcm, rate, targetRate)
		}

		id := strings.TrimSuffix(name, filepath.Ext(name))
		store.Register(id, pcm, targetRate)
		loaded++

		if db != nil {
			if err := db.UpsertSample(id, path, targetRate, len(pcm)); err != nil {
				logger.Warnf("[voicebank] 写入索引失败 %s: %v", id, err)
			}
		}

		logger.Debugf("[voicebank] 已注册 %s (%d 样本, %d Hz)", id, len(pcm), targetRate)
	}

	logger.Infof("[voicebank] 音源加载完成: %d 个采样, 目录 %s", loaded, dir)
	return loaded, nil
}

// resampleLinear 线性插值重采样。
func resampleLinear(in []float64, srcRate, dstRate int) []float64 {
	if srcRate == dstRate || len(in) == 0 {
		return in
	}
	n := int(float64(len(in)) * float64(dstRate) / float64(srcRate))
	if n < 1 {
		n = 1
	}
	out := make([]float64, n)
	ratio := float64(srcRate) / float64(dstRate)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = in[idx]*(1-frac) + in[idx+1]*frac
	}
	return out
}
