package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config 是 vosynth 的顶层配置结构。
type Config struct {
	Engine    EngineConfig    `yaml:"engine"`
	Voicebank VoicebankConfig `yaml:"voicebank"`
	Output    OutputConfig    `yaml:"output"`
	Log       LogConfig       `yaml:"log"`
}

// EngineConfig 渲染引擎配置。
type EngineConfig struct {
	// Mode 合成模式：spectral（频谱重合成）或 concat（拼接回退）。
	Mode string `yaml:"mode"`
	// SampleRate 输出采样率（Hz）。
	SampleRate int `yaml:"sample_rate"`
	// FramePeriodMs 分析/合成帧间隔（毫秒）。
	FramePeriodMs float64 `yaml:"frame_period_ms"`
	// FFTSize 频谱分析 FFT 点数，必须是 2 的幂。
	FFTSize int `yaml:"fft_size"`
	// ReferencePitch 音源基准音高假设（Hz）。
	// 引擎不做独立的源音高跟踪，分析与拼接回退都基于该常数。
	ReferencePitch float64 `yaml:"reference_pitch"`
	// BitDepth 输出位深，目前仅支持 16。
	BitDepth int `yaml:"bit_depth"`
}

// VoicebankConfig 音源库配置。
type VoicebankConfig struct {
	// Dir 音源目录，包含按采样 id 命名的 wav/mp3 文件。
	Dir string `yaml:"dir"`
	// DataDir 数据目录，存放索引数据库等。
	DataDir string `yaml:"data_dir"`
}

// OutputConfig 输出配置。
type OutputConfig struct {
	// Path 默认输出文件路径（可被命令行 -o 覆盖）。
	Path string `yaml:"path"`
	// Normalize 是否在编码前做峰值归一化。
	Normalize bool `yaml:"normalize"`
	// Gain 主增益，编码前统一乘到所有样本上。
	Gain float64 `yaml:"gain"`
}

// LogConfig 日志配置。
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
}

// Load 读取 YAML 配置文件并返回 Config。
// 支持 ${VAR_NAME} 形式的环境变量展开。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}

	expanded := os.Expand(string(data), func(key string) string {
		return os.Getenv(key)
	})

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}

	setDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default 返回全部使用默认值的配置。
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// setDefaults 为未设置的配置项填充默认值。
func setDefaults(cfg *Config) {
	if cfg.Engine.Mode == "" {
		cfg.Engine.Mode = "spectral"
	}
	if cfg.Engine.SampleRate == 0 {
		cfg.Engine.SampleRate = 44100
	}
	if cfg.Engine.FramePeriodMs == 0 {
		cfg.Engine.FramePeriodMs = 5.0
	}
	if cfg.Engine.FFTSize == 0 {
		cfg.Engine.FFTSize = 1024
	}
	if cfg.Engine.ReferencePitch == 0 {
		// C4 附近，与典型单音素音源的录音音高一致
		cfg.Engine.ReferencePitch = 260.0
	}
	if cfg.Engine.BitDepth == 0 {
		cfg.Engine.BitDepth = 16
	}
	if cfg.Output.Path == "" {
		cfg.Output.Path = "./out.wav"
	}
	if cfg.Output.Gain == 0 {
		cfg.Output.Gain = 0.8
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	if cfg.Voicebank.DataDir == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			cfg.Voicebank.DataDir = home + "/.vosynth"
		} else {
			cfg.Voicebank.DataDir = "./.vosynth-data"
		}
	} else if strings.HasPrefix(cfg.Voicebank.DataDir, "~/") {
		// Go 不会自动展开 ~，需要手动替换为用户主目录
		home, _ := os.UserHomeDir()
		if home != "" {
			cfg.Voicebank.DataDir = home + cfg.Voicebank.DataDir[1:]
		}
	}
}

// Validate 校验配置取值是否可用。
func (cfg *Config) Validate() error {
	switch cfg.Engine.Mode {
	case "spectral", "concat":
	default:
		return fmt.Errorf("未知的合成模式: %s", cfg.Engine.Mode)
	}
	if cfg.Engine.SampleRate <= 0 {
		return fmt.Errorf("采样率必须为正数: %d", cfg.Engine.SampleRate)
	}
	if cfg.Engine.FramePeriodMs <= 0 {
		return fmt.Errorf("帧间隔必须为正数: %g", cfg.Engine.FramePeriodMs)
	}
	if cfg.Engine.FFTSize < 256 || cfg.Engine.FFTSize > 8192 ||
		cfg.Engine.FFTSize&(cfg.Engine.FFTSize-1) != 0 {
		return fmt.Errorf("FFT 点数必须是 [256,8192] 内 2 的幂: %d", cfg.Engine.FFTSize)
	}
	if cfg.Engine.ReferencePitch <= 0 {
		return fmt.Errorf("基准音高必须为正数: %g", cfg.Engine.ReferencePitch)
	}
	if cfg.Engine.BitDepth != 16 {
		return fmt.Errorf("暂不支持的位深: %d", cfg.Engine.BitDepth)
	}
	return nil
}
