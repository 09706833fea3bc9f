package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/betbot/metricdeck/internal/carousel"
	"github.com/betbot/metricdeck/internal/domain"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultTitle 卡片标题
	DefaultTitle = "Automation Metrics"
	// DefaultLogFile TUI 模式下日志只写文件
	DefaultLogFile = "logs/metricdeck.log"

	envPrefix = "METRICDECK_"
)

// Config 应用配置
type Config struct {
	Title    string
	Carousel carousel.Options
	Metrics  []domain.Metric
	LogLevel string // 日志级别
	LogFile  string // 日志文件路径
	// Source 配置来源（文件路径；内置示例为空）
	Source string
}

// DeckFile 配置文件结构（用于 YAML/JSON 解析）
type DeckFile struct {
	Title           string `yaml:"title" json:"title"`
	IntervalMs      *int   `yaml:"interval_ms" json:"interval_ms"`
	AutoPlay        *bool  `yaml:"auto_play" json:"auto_play"`
	PauseOnInteract *bool  `yaml:"pause_on_interact" json:"pause_on_interact"`
	Loop            *bool  `yaml:"loop" json:"loop"`
	Log             struct {
		Level string `yaml:"level" json:"level"`
		File  string `yaml:"file" json:"file"`
	} `yaml:"log" json:"log"`
	Metrics []MetricEntry `yaml:"metrics" json:"metrics"`
}

// MetricEntry 配置文件中的一条指标
type MetricEntry struct {
	ID    string   `yaml:"id" json:"id"`
	Label string   `yaml:"label" json:"label"`
	Value RawValue `yaml:"value" json:"value"`
	Unit  string   `yaml:"unit" json:"unit"`
	Trend string   `yaml:"trend" json:"trend"`
}

// RawValue 数字或字符串。YAML/JSON 里未加引号的数字按数字处理，带引号的按文本处理。
type RawValue struct {
	domain.Value
}

// UnmarshalYAML 实现 yaml.Unmarshaler
func (v *RawValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return errors.Errorf("line %d: metric value must be a number or a string", node.Line)
	}
	switch node.Tag {
	case "!!int", "!!float":
		v.Value = domain.ParseValue(node.Value)
	case "!!null":
		v.Value = domain.Value{}
	default:
		v.Value = domain.TextValue(node.Value)
	}
	return nil
}

// UnmarshalJSON 实现 json.Unmarshaler
func (v *RawValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		v.Value = domain.Value{}
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v.Value = domain.TextValue(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return errors.Wrap(err, "metric value must be a number or a string")
		}
		v.Value = domain.ParseValue(n.String())
	}
	return nil
}

// LoadEnvFile 加载 .env 文件到环境变量。
// path 为空时尝试当前目录的 .env，不存在不算错误；显式指定的文件必须存在。
func LoadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "load env file %s", path)
	}
	return nil
}

// LoadFromFile 从指定文件加载配置；path 为空时使用内置示例。环境变量覆盖文件中的值。
func LoadFromFile(path string) (*Config, error) {
	deck := &DeckFile{}
	if path != "" {
		var err error
		deck, err = loadDeckFile(path)
		if err != nil {
			return nil, err
		}
	} else {
		deck.Title = DefaultTitle
	}

	cfg, err := build(deck)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid deck %s", displayPath(path))
	}
	if path == "" {
		cfg.Metrics = SampleMetrics()
	}
	cfg.Source = path

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDeckFile 加载配置文件（支持 YAML 和 JSON）
func loadDeckFile(path string) (*DeckFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read deck file")
	}

	var deck DeckFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &deck); err != nil {
			return nil, errors.Wrapf(err, "parse YAML deck %s", path)
		}
	case ".json":
		if err := json.Unmarshal(data, &deck); err != nil {
			return nil, errors.Wrapf(err, "parse JSON deck %s", path)
		}
	default:
		return nil, errors.Errorf("unsupported deck format: %s (want .yaml, .yml or .json)", path)
	}
	return &deck, nil
}

func build(deck *DeckFile) (*Config, error) {
	opts := carousel.DefaultOptions()
	if deck.IntervalMs != nil {
		opts.Interval = time.Duration(*deck.IntervalMs) * time.Millisecond
	}
	if deck.AutoPlay != nil {
		opts.AutoPlay = *deck.AutoPlay
	}
	if deck.PauseOnInteract != nil {
		opts.PauseOnInteract = *deck.PauseOnInteract
	}
	if deck.Loop != nil {
		opts.Loop = *deck.Loop
	}

	cfg := &Config{
		Title:    strings.TrimSpace(deck.Title),
		Carousel: opts,
		LogLevel: deck.Log.Level,
		LogFile:  deck.Log.File,
	}
	if cfg.Title == "" {
		cfg.Title = DefaultTitle
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFile == "" {
		cfg.LogFile = DefaultLogFile
	}

	metrics, err := buildMetrics(deck.Metrics)
	if err != nil {
		return nil, err
	}
	cfg.Metrics = metrics
	return cfg, nil
}

func buildMetrics(entries []MetricEntry) ([]domain.Metric, error) {
	seen := make(map[string]int, len(entries))
	out := make([]domain.Metric, 0, len(entries))
	for i, e := range entries {
		id := strings.TrimSpace(e.ID)
		if id == "" {
			id = uuid.NewString()
		}
		if prev, dup := seen[id]; dup {
			return nil, errors.Errorf("metrics[%d]: duplicate id %q (first used by metrics[%d])", i, id, prev)
		}
		seen[id] = i

		label := strings.TrimSpace(e.Label)
		if label == "" {
			return nil, errors.Errorf("metrics[%d] (%s): label is required", i, id)
		}
		trend, err := domain.ParseTrend(e.Trend)
		if err != nil {
			return nil, errors.Wrapf(err, "metrics[%d] (%s)", i, id)
		}
		out = append(out, domain.Metric{
			ID:    id,
			Label: label,
			Value: e.Value.Value,
			Unit:  strings.TrimSpace(e.Unit),
			Trend: trend,
		})
	}
	return out, nil
}

// applyEnv 环境变量覆盖：METRICDECK_INTERVAL_MS / AUTO_PLAY / PAUSE_ON_INTERACT / LOOP / LOG_LEVEL / LOG_FILE
func applyEnv(cfg *Config) error {
	if v := getEnv("INTERVAL_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "%sINTERVAL_MS", envPrefix)
		}
		cfg.Carousel.Interval = time.Duration(ms) * time.Millisecond
	}
	for key, dst := range map[string]*bool{
		"AUTO_PLAY":         &cfg.Carousel.AutoPlay,
		"PAUSE_ON_INTERACT": &cfg.Carousel.PauseOnInteract,
		"LOOP":              &cfg.Carousel.Loop,
	} {
		v := getEnv(key)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "%s%s", envPrefix, key)
		}
		*dst = b
	}
	if v := getEnv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getEnv("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	return nil
}

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + key))
}

func displayPath(path string) string {
	if path == "" {
		return "(built-in sample)"
	}
	return path
}

// SampleMetrics 内置示例数据（未指定 --deck 时使用）
func SampleMetrics() []domain.Metric {
	return []domain.Metric{
		{ID: "runs-today", Label: "Workflow runs today", Value: domain.ParseValue("12845"), Unit: "runs", Trend: domain.TrendUp},
		{ID: "success-rate", Label: "Success rate", Value: domain.ParseValue("98.6"), Unit: "%", Trend: domain.TrendFlat},
		{ID: "hours-saved", Label: "Hours saved this month", Value: domain.ParseValue("1342.5"), Unit: "h", Trend: domain.TrendUp},
		{ID: "failed-jobs", Label: "Failed jobs (24h)", Value: domain.ParseValue("37"), Unit: "jobs", Trend: domain.TrendDown},
		{ID: "median-duration", Label: "Median run duration", Value: domain.TextValue("2m 14s"), Trend: domain.TrendDown},
	}
}
