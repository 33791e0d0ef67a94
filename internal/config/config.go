package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RabbitMQ  RabbitMQConfig  `mapstructure:"rabbitmq"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
}

type HTTPConfig struct {
	Port            int           `mapstructure:"port"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogEnabled      bool          `mapstructure:"log_enabled"`
	SlowThreshold   time.Duration `mapstructure:"slow_threshold"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type RabbitMQConfig struct {
	URL   string `mapstructure:"url"`
	Queue string `mapstructure:"queue"`
}

type RateLimitConfig struct {
	Submissions int           `mapstructure:"submissions"`
	Window      time.Duration `mapstructure:"window"`
	// TrustedProxies lists the CIDR ranges or addresses whose
	// X-Forwarded-For header is believed. Empty means key on the peer.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// envBindings maps config keys to the environment variables that set them.
// PORT and DB_HOST/DB_USER/DB_PASSWORD/DB_NAME keep their historical names.
var envBindings = map[string]string{
	"http.port":                  "PORT",
	"http.request_timeout":       "REQUEST_TIMEOUT",
	"http.shutdown_timeout":      "SHUTDOWN_TIMEOUT",
	"database.driver":            "DB_DRIVER",
	"database.dsn":               "DB_DSN",
	"database.path":              "DB_PATH",
	"database.host":              "DB_HOST",
	"database.port":              "DB_PORT",
	"database.user":              "DB_USER",
	"database.password":          "DB_PASSWORD",
	"database.name":              "DB_NAME",
	"database.max_open_conns":    "DB_MAX_OPEN_CONNS",
	"database.max_idle_conns":    "DB_MAX_IDLE_CONNS",
	"database.conn_max_lifetime": "DB_CONN_MAX_LIFETIME",
	"database.log_enabled":       "DB_LOG",
	"database.slow_threshold":    "DB_SLOW_THRESHOLD",
	"redis.addr":                 "REDIS_ADDR",
	"redis.password":             "REDIS_PASSWORD",
	"redis.db":                   "REDIS_DB",
	"rabbitmq.url":               "RABBITMQ_URL",
	"rabbitmq.queue":             "RABBITMQ_QUEUE",
	"ratelimit.submissions":      "SUBMIT_RATE_LIMIT",
	"ratelimit.window":           "SUBMIT_RATE_WINDOW",
	"ratelimit.trusted_proxies":  "TRUSTED_PROXIES",
	"log.level":                  "LOG_LEVEL",
	"log.format":                 "LOG_FORMAT",
	"log.output":                 "LOG_OUTPUT",
	"log.file_path":              "LOG_FILE",
}

// Load reads .env (if present), the optional config file and the
// environment, in increasing order of precedence.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", 3001)
	v.SetDefault("http.request_timeout", 10*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "intern_app.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "intern_app")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.log_enabled", false)
	v.SetDefault("database.slow_threshold", time.Second)

	v.SetDefault("redis.db", 0)
	v.SetDefault("rabbitmq.queue", "applicant_events")

	v.SetDefault("ratelimit.submissions", 5)
	v.SetDefault("ratelimit.window", time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file_path", "logs/intern-app.log")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 10)
	v.SetDefault("log.max_age", 30)
	v.SetDefault("log.compress", true)
}

func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port)
	}
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" && c.Database.DSN == "" {
			return fmt.Errorf("database path is required for sqlite")
		}
	case DriverMySQL, DriverPostgres:
		if c.Database.DSN == "" && c.Database.Host == "" {
			return fmt.Errorf("database host or DSN is required for %s", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}
	if c.RateLimit.Submissions <= 0 {
		return fmt.Errorf("submission rate limit must be positive, got %d", c.RateLimit.Submissions)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("submission rate window must be positive, got %s", c.RateLimit.Window)
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.HTTP.Port)
}

// ConnectionString returns the driver-specific DSN, assembling one from the
// host/user/password/name fields when DB_DSN is not set.
func (d DatabaseConfig) ConnectionString() string {
	if d.DSN != "" {
		return d.DSN
	}
	switch d.Driver {
	case DriverMySQL:
		port := d.Port
		if port == 0 {
			port = 3306
		}
		mc := mysql.NewConfig()
		mc.User = d.User
		mc.Passwd = d.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(d.Host, strconv.Itoa(port))
		mc.DBName = d.Name
		mc.ParseTime = true
		mc.Params = map[string]string{"charset": "utf8mb4"}
		return mc.FormatDSN()
	case DriverPostgres:
		port := d.Port
		if port == 0 {
			port = 5432
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			d.Host, port, d.User, d.Password, d.Name)
	default:
		return d.Path
	}
}
