package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/iabetor/vosynth/internal/analysis"
	"github.com/iabetor/vosynth/internal/audio"
	"github.com/iabetor/vosynth/internal/codec"
	"github.com/iabetor/vosynth/internal/config"
	"github.com/iabetor/vosynth/internal/database"
	"github.com/iabetor/vosynth/internal/logger"
	"github.com/iabetor/vosynth/internal/lyric"
	"github.com/iabetor/vosynth/internal/project"
	"github.com/iabetor/vosynth/internal/render"
	"github.com/iabetor/vosynth/internal/voicebank"
)

func main() {
	configPath := flag.String("config", "configs/vosynth.yaml", "配置文件路径")
	projectPath := flag.String("project", "", "工程文件路径（JSON）")
	outputPath := flag.String("o", "", "输出 wav 路径（默认取配置中的 output.path）")
	play := flag.Bool("play", false, "渲染完成后试听")
	history := flag.Int("history", 0, "列出最近 N 条渲染历史后退出")
	flag.Parse()

	if *history > 0 {
		if err := showHistory(*configPath, *history); err != nil {
			fmt.Fprintf(os.Stderr, "查询历史失败: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*configPath, *projectPath, *outputPath, *play); err != nil {
		fmt.Fprintf(os.Stderr, "渲染失败: %v\n", err)
		os.Exit(1)
	}
}

// showHistory 打印音源索引规模和最近的渲染记录。
func showHistory(configPath string, limit int) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.Voicebank.DataDir)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return err
	}

	count, err := db.SampleCount()
	if err != nil {
		return err
	}
	fmt.Printf("音源索引: %d 条\n", count)

	records, err := db.RecentRenders(limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("暂无渲染历史")
		return nil
	}
	for _, r := range records {
		fmt.Printf("%s  %s  音符 %d  样本 %d  耗时 %dms  %s\n",
			r.CreatedAt, r.JobID, r.NoteCount, r.Samples, r.DurationMs, r.OutputPath)
	}
	return nil
}

// loadConfig 读取配置文件，不存在时退回默认配置。
func loadConfig(configPath string) (*config.Config, error) {
	if _, err := os.Stat(configPath); err == nil {
		return config.Load(configPath)
	}
	return config.Default(), nil
}

func run(configPath, projectPath, outputPath string, play bool) error {
	if projectPath == "" {
		return fmt.Errorf("必须通过 -project 指定工程文件")
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
	}); err != nil {
		return err
	}
	defer logger.Sync()

	// 数据库不可用不阻塞渲染，索引和历史是锦上添花
	db, err := database.Open(cfg.Voicebank.DataDir)
	if err != nil {
		logger.Warnf("[main] 打开数据库失败，本次渲染不记录历史: %v", err)
		db = nil
	} else {
		defer db.Close()
		if err := db.Migrate(); err != nil {
			logger.Warnf("[main] 数据库迁移失败: %v", err)
		}
	}

	// 注册阶段：所有文件解码都发生在这里，渲染路径内不再碰磁盘
	store := voicebank.NewStore()
	if cfg.Voicebank.Dir != "" {
		if _, err := voicebank.LoadDir(store, cfg.Voicebank.Dir, cfg.Engine.SampleRate, db); err != nil {
			return err
		}
	} else {
		logger.Warn("[main] 未配置音源目录，所有音符都将渲染为静音")
	}

	proj, err := project.Load(projectPath)
	if err != nil {
		return err
	}

	resolver := lyric.NewPinyinResolver()
	notes := make([]render.NoteEvent, 0, len(proj.Notes))
	for i := range proj.Notes {
		ev := proj.Notes[i].Event()
		if ev.SampleID == "" {
			ev.SampleID = resolver.Resolve(proj.Notes[i].Lyric)
		}
		notes = append(notes, ev)
	}

	cache, err := analysis.NewCache(cfg.Engine.FFTSize, cfg.Engine.ReferencePitch)
	if err != nil {
		return err
	}
	eng, err := render.New(render.Config{
		Mode:           cfg.Engine.Mode,
		SampleRate:     cfg.Engine.SampleRate,
		FramePeriodMs:  cfg.Engine.FramePeriodMs,
		ReferencePitch: cfg.Engine.ReferencePitch,
	}, store, cache)
	if err != nil {
		return err
	}

	start := time.Now()
	pcm, err := eng.Render(notes)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if cfg.Output.Gain != 1.0 {
		audio.ApplyGain(pcm, cfg.Output.Gain)
	}
	if cfg.Output.Normalize {
		audio.Normalize(pcm, 0.95)
	}

	out := outputPath
	if out == "" {
		out = cfg.Output.Path
	}
	if err := codec.EncodeWAV(out, pcm, cfg.Engine.SampleRate, cfg.Engine.BitDepth); err != nil {
		return err
	}
	logger.Infof("[main] 已写出 %s (%d 样本, 耗时 %s)", out, len(pcm), elapsed.Round(time.Millisecond))

	if db != nil {
		jobID := uuid.NewString()
		if err := db.RecordRender(jobID, len(notes), out, len(pcm), elapsed); err != nil {
			logger.Warnf("[main] 写入渲染历史失败: %v", err)
		}
	}

	if play {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigCh
			cancel()
		}()

		player, err := audio.NewPlayer()
		if err != nil {
			return err
		}
		defer player.Close()
		if err := player.Play(ctx, pcm, cfg.Engine.SampleRate); err != nil && err != context.Canceled {
			return err
		}
	}

	return nil
}
