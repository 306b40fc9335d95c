package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// 主配置结构
type Config struct {
	App        App      `yaml:"app"`
	Server     Server   `yaml:"server"`
	Database   DB       `yaml:"database"`
	Cache      Cache    `yaml:"cache"`
	Auth       Auth     `yaml:"auth"`
	Storage    Storage  `yaml:"storage"`
	Geo        Geo      `yaml:"geo"`
	Tracking   Tracking `yaml:"tracking"`
	Log        Log      `yaml:"log"`
	RateLimit  Limit    `yaml:"rate_limit"`
	ClickLimit Limit    `yaml:"click_rate_limit"`
}

// 应用配置
type App struct {
	Name    string `yaml:"name"`
	Mode    string `yaml:"mode"`
	Version string `yaml:"version"`
	// BaseURL 为空时按请求的 scheme 和 host 拼接外部链接
	BaseURL string `yaml:"base_url"`
}

// 服务器配置
type Server struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	ReadTimeout    int      `yaml:"read_timeout"`
	WriteTimeout   int      `yaml:"write_timeout"`
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// 数据库配置, driver 为 sqlite 或 mysql
type DB struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Charset  string `yaml:"charset"`
}

// 缓存配置（Redis）, Host 为空表示不启用
type Cache struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// 认证配置
type Auth struct {
	Secret          string `yaml:"secret"`
	AdminPassword   string `yaml:"admin_password"`
	Issuer          string `yaml:"issuer"`
	ExpirationHours int    `yaml:"expiration_hours"`
	CookieName      string `yaml:"cookie_name"`
}

// 文件存储配置
type Storage struct {
	OutputDir   string `yaml:"output_dir"`
	MaxUploadMB int64  `yaml:"max_upload_mb"`
	// MaxPixels 上传图片宽高乘积上限, 在解码像素前按文件头检查
	MaxPixels int64 `yaml:"max_pixels"`
}

// 地理位置查询配置
type Geo struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// 点击追踪配置
type Tracking struct {
	RedirectURL string `yaml:"redirect_url"`
	LogLimit    int    `yaml:"log_limit"`
}

// 日志配置
type Log struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// 限流配置, 按客户端地址计数: 每 PeriodSec 秒最多 Requests 次
type Limit struct {
	Enabled   bool     `yaml:"enabled"`
	Requests  int64    `yaml:"requests"`
	PeriodSec int64    `yaml:"period_seconds"`
	SkipPaths []string `yaml:"skip_paths"`
}

// Default 返回与原有部署一致的默认配置
func Default() *Config {
	return &Config{
		App:    App{Name: "doctrack", Mode: "development", Version: "1.0.0"},
		Server: Server{Host: "0.0.0.0", Port: 5000, ReadTimeout: 30, WriteTimeout: 30},
		Database: DB{
			Driver:  "sqlite",
			Path:    "generated/hits.db",
			Port:    3306,
			Charset: "utf8mb4",
		},
		Auth: Auth{
			Secret:          "dev_secret_change_this",
			AdminPassword:   "admin",
			Issuer:          "doctrack",
			ExpirationHours: 24,
			CookieName:      "session",
		},
		Cache:    Cache{Port: 6379, PoolSize: 20},
		Storage:  Storage{OutputDir: "generated", MaxUploadMB: 16, MaxPixels: 40_000_000},
		Geo:      Geo{BaseURL: "http://ip-api.com/json", TimeoutSeconds: 4},
		Tracking: Tracking{RedirectURL: "https://your-site.com/thank-you", LogLimit: 1000},
		Log:      Log{Level: "info", File: "./logs/app.log", MaxSizeMB: 10, MaxBackups: 5, MaxAgeDays: 30},
		RateLimit: Limit{
			Enabled:   true,
			Requests:  200,
			PeriodSec: 3600,
			SkipPaths: []string{"/static/", "/health", "/swagger/"},
		},
		ClickLimit: Limit{Enabled: true, Requests: 60, PeriodSec: 60},
	}
}

// Load 加载配置文件; 文件不存在时使用默认值, 最后应用环境变量覆盖
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"SECRET_KEY":      &cfg.Auth.Secret,
		"ADMIN_PASS":      &cfg.Auth.AdminPassword,
		"OUTPUT_DIR":      &cfg.Storage.OutputDir,
		"HOST":            &cfg.Server.Host,
		"DATABASE_DRIVER": &cfg.Database.Driver,
		"DATABASE_PATH":   &cfg.Database.Path,
		"REDIS_HOST":      &cfg.Cache.Host,
		"BASE_URL":        &cfg.App.BaseURL,
		"REDIRECT_URL":    &cfg.Tracking.RedirectURL,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	if v, ok := lookup("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT 不是合法端口: %q", v)
		}
		cfg.Server.Port = port
	}
	return nil
}

// Validate 检查必填项并补全零值
func (c *Config) Validate() error {
	if c.Auth.Secret == "" {
		return errors.New("auth.secret 不能为空")
	}
	if c.Auth.AdminPassword == "" {
		return errors.New("auth.admin_password 不能为空")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port 超出范围: %d", c.Server.Port)
	}
	if c.Storage.OutputDir == "" {
		return errors.New("storage.output_dir 不能为空")
	}
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("不支持的数据库驱动: %q", c.Database.Driver)
	}

	if c.Tracking.LogLimit <= 0 {
		c.Tracking.LogLimit = 1000
	}
	if c.Geo.TimeoutSeconds <= 0 {
		c.Geo.TimeoutSeconds = 4
	}
	if c.Auth.ExpirationHours <= 0 {
		c.Auth.ExpirationHours = 24
	}
	if c.Storage.MaxUploadMB <= 0 {
		c.Storage.MaxUploadMB = 16
	}
	if c.Storage.MaxPixels <= 0 {
		c.Storage.MaxPixels = 40_000_000
	}
	if c.Cache.PoolSize <= 0 {
		c.Cache.PoolSize = 20
	}
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = "session"
	}
	return nil
}

// MaxUploadBytes 上传请求体上限
func (s Storage) MaxUploadBytes() int64 {
	return s.MaxUploadMB << 20
}

// Addr 返回 http.Server 监听地址
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
