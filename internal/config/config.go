package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config 保存应用程序配置。
type Config struct {
	App       AppConfig       `json:"app"`
	Collector CollectorConfig `json:"collector"`
	Dashboard DashboardConfig `json:"dashboard"`
}

// AppConfig 应用程序基础配置。
type AppConfig struct {
	Env          string `json:"env"`           // 运行环境: local / prod
	LogLevel     string `json:"log_level"`     // 日志级别: debug / info / warn / error
	SnapshotPath string `json:"snapshot_path"` // 商品快照 CSV 文件路径
}

// CollectorConfig 采集器配置。
type CollectorConfig struct {
	APIBaseURL   string        `json:"api_base_url"`  // 商品 API 基础地址
	PageSize     int           `json:"page_size"`     // 每页商品数
	MaxPages     int           `json:"max_pages"`     // 单个分类最大翻页数（防止异常情况下无限翻页）
	RequestDelay time.Duration `json:"request_delay"` // 相邻请求之间的间隔
	HTTPTimeout  time.Duration `json:"http_timeout"`  // 单次 HTTP 请求超时
	MetricsAddr  string        `json:"metrics_addr"`  // Prometheus 指标监听地址（为空则不启动）
	Categories   []Category    `json:"categories"`    // 待抓取的分类树
}

// DashboardConfig 仪表盘服务配置。
type DashboardConfig struct {
	HTTPAddr string `json:"http_addr"` // 监听地址
	WebDir   string `json:"web_dir"`   // 前端静态文件目录
}

// Category 一级分类及其下属的二级分类。
type Category struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	Subcategories []Subcategory `json:"subcategories"`
}

// Subcategory 二级分类，翻页抓取以它为单位。
type Subcategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Load 从 JSON 文件加载配置。
//
// 它会尝试读取 configs/config.json 文件，如果不存在则使用默认值。
// 环境变量优先于配置文件。
//
// 参数:
//
//	configPath: 配置文件路径（如果为空则使用默认路径 "configs/config.json"）
//
// 返回值:
//
//	*Config: 加载完成的配置对象
//	error: 加载失败返回错误
func Load(configPath ...string) (*Config, error) {
	path := "configs/config.json"
	if len(configPath) > 0 && configPath[0] != "" {
		path = configPath[0]
	}

	// 如果配置文件不存在，使用默认配置
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := getDefaultConfig()
		applyEnvOverrides(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	return cfg, nil
}

// getDefaultConfig 返回默认配置。
func getDefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Env:          "local",
			LogLevel:     "info",
			SnapshotPath: "tiki_product_data.csv",
		},
		Collector: CollectorConfig{
			APIBaseURL:   "https://tiki.vn",
			PageSize:     40,
			MaxPages:     50,
			RequestDelay: 500 * time.Millisecond,
			HTTPTimeout:  15 * time.Second,
			MetricsAddr:  "",
			Categories:   nil,
		},
		Dashboard: DashboardConfig{
			HTTPAddr: ":8501",
			WebDir:   "web",
		},
	}
}

// applyDefaults 对未设置的字段应用默认值。
func applyDefaults(cfg *Config) {
	defaults := getDefaultConfig()

	if cfg.App.Env == "" {
		cfg.App.Env = defaults.App.Env
	}
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = defaults.App.LogLevel
	}
	if cfg.App.SnapshotPath == "" {
		cfg.App.SnapshotPath = defaults.App.SnapshotPath
	}
	if cfg.Collector.APIBaseURL == "" {
		cfg.Collector.APIBaseURL = defaults.Collector.APIBaseURL
	}
	if cfg.Collector.PageSize == 0 {
		cfg.Collector.PageSize = defaults.Collector.PageSize
	}
	if cfg.Collector.MaxPages == 0 {
		cfg.Collector.MaxPages = defaults.Collector.MaxPages
	}
	if cfg.Collector.RequestDelay == 0 {
		cfg.Collector.RequestDelay = defaults.Collector.RequestDelay
	}
	if cfg.Collector.HTTPTimeout == 0 {
		cfg.Collector.HTTPTimeout = defaults.Collector.HTTPTimeout
	}
	if cfg.Dashboard.HTTPAddr == "" {
		cfg.Dashboard.HTTPAddr = defaults.Dashboard.HTTPAddr
	}
	if cfg.Dashboard.WebDir == "" {
		cfg.Dashboard.WebDir = defaults.Dashboard.WebDir
	}
}

func applyEnvOverrides(cfg *Config) {
	viper.AutomaticEnv()

	_ = viper.BindEnv("snapshot_path", "SNAPSHOT_PATH")
	_ = viper.BindEnv("api_base_url", "TIKI_API_BASE_URL")

	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.App.Env = v
	}
	if v := os.Getenv("APP_LOG_LEVEL"); v != "" {
		cfg.App.LogLevel = v
	}
	if v := viper.GetString("snapshot_path"); v != "" {
		cfg.App.SnapshotPath = v
	}
	if v := viper.GetString("api_base_url"); v != "" {
		cfg.Collector.APIBaseURL = v
	}
	if v := os.Getenv("COLLECTOR_PAGE_SIZE"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Collector.PageSize = i
		}
	}
	if v := os.Getenv("COLLECTOR_MAX_PAGES"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Collector.MaxPages = i
		}
	}
	if v := os.Getenv("COLLECTOR_REQUEST_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Collector.RequestDelay = d
		}
	}
	if v := os.Getenv("COLLECTOR_HTTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Collector.HTTPTimeout = d
		}
	}
	if v := os.Getenv("COLLECTOR_METRICS_ADDR"); v != "" {
		cfg.Collector.MetricsAddr = v
	}
	if v := os.Getenv("DASHBOARD_HTTP_ADDR"); v != "" {
		cfg.Dashboard.HTTPAddr = v
	}
	if v := os.Getenv("DASHBOARD_WEB_DIR"); v != "" {
		cfg.Dashboard.WebDir = v
	}
}

// UnmarshalJSON 自定义 JSON 解析，支持 Duration 字符串（如 "500ms"）。
func (c *CollectorConfig) UnmarshalJSON(data []byte) error {
	type Alias CollectorConfig
	aux := &struct {
		RequestDelay string `json:"request_delay"`
		HTTPTimeout  string `json:"http_timeout"`
		*Alias
	}{
		Alias: (*Alias)(c),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.RequestDelay != "" {
		duration, err := time.ParseDuration(aux.RequestDelay)
		if err != nil {
			return fmt.Errorf("invalid request_delay format: %w", err)
		}
		c.RequestDelay = duration
	}
	if aux.HTTPTimeout != "" {
		duration, err := time.ParseDuration(aux.HTTPTimeout)
		if err != nil {
			return fmt.Errorf("invalid http_timeout format: %w", err)
		}
		c.HTTPTimeout = duration
	}

	return nil
}

// MarshalJSON 自定义 JSON 序列化，将 Duration 转为字符串。
func (c CollectorConfig) MarshalJSON() ([]byte, error) {
	type Alias CollectorConfig
	return json.Marshal(&struct {
		RequestDelay string `json:"request_delay"`
		HTTPTimeout  string `json:"http_timeout"`
		*Alias
	}{
		RequestDelay: c.RequestDelay.String(),
		HTTPTimeout:  c.HTTPTimeout.String(),
		Alias:        (*Alias)(&c),
	})
}
