package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config — корневая структура конфигурации сервиса.
type Config struct {
	Environment string           `mapstructure:"environment"` // development, production
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Redis       RedisConfig      `mapstructure:"redis"`
	Logger      LoggerConfig     `mapstructure:"logger"`
	Codec       CodecConfig      `mapstructure:"codec"`
	Limiter     LimiterConfig    `mapstructure:"limiter"`
	Store       StoreConfig      `mapstructure:"store"`
	Notify      NotifyConfig     `mapstructure:"notify"`
	Audit       AuditConfig      `mapstructure:"audit"`
	Breaker     BreakerConfig    `mapstructure:"breaker"`
	Validation  ValidationConfig `mapstructure:"validation"`
}

// ServerConfig описывает служебный HTTP (health + metrics).
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig описывает подключение к PostgreSQL. Пустой URL — Postgres не используется.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int    `mapstructure:"max_conns"`
	MinConns int    `mapstructure:"min_conns"`
}

// RedisConfig описывает подключение к Redis (хранилище и сигналы изменений).
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	Namespace string `mapstructure:"namespace"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// CodecConfig — ключ обфускации. Если задана соль, ключ выводится из key через PBKDF2.
type CodecConfig struct {
	Key        string `mapstructure:"key"`
	Salt       string `mapstructure:"salt"`
	Iterations int    `mapstructure:"iterations"`
}

// LimiterConfig — политика отправки форм по умолчанию.
type LimiterConfig struct {
	FormMaxAttempts int           `mapstructure:"form_max_attempts"`
	FormWindow      time.Duration `mapstructure:"form_window"`
}

// StoreConfig выбирает бэкенд клиентского состояния.
type StoreConfig struct {
	Backend string `mapstructure:"backend"` // memory, redis, postgres
	Watch   bool   `mapstructure:"watch"`   // подписка на сигналы изменений (только redis)
}

type NotifyConfig struct {
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	Burst         int     `mapstructure:"burst"`
}

// AuditConfig — буферизация записи журнала безопасности в Postgres.
type AuditConfig struct {
	Persist       bool          `mapstructure:"persist"`
	BufferSize    int           `mapstructure:"buffer_size"`
	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// BreakerConfig — Circuit Breaker и повторы вокруг внешнего хранилища.
type BreakerConfig struct {
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
	RetryAttempts    uint          `mapstructure:"retry_attempts"`
	RetryDelay       time.Duration `mapstructure:"retry_delay"`
}

// ValidationConfig — дополнительные правила полей на CEL.
type ValidationConfig struct {
	CustomRules map[string]CustomRuleConfig `mapstructure:"custom_rules"`
}

type CustomRuleConfig struct {
	Expr      string `mapstructure:"expr"`
	Sanitizer string `mapstructure:"sanitizer"`
	Message   string `mapstructure:"message"`
}

// IsProduction — наружу уходят только обобщенные сообщения об ошибках.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. Настройка поиска файла
	v.SetConfigName("config")    // имя файла без расширения
	v.SetConfigType("yaml")      // формат
	v.AddConfigPath(".")         // ищем в корне
	v.AddConfigPath("./configs") // и в папке с конфигами
	if dir := os.Getenv("SECURESTATE_CONFIG_DIR"); dir != "" {
		v.AddConfigPath(dir)
	}

	// 2. Настройка переменных окружения (ENV)
	// Позволяет перекрывать конфиг: SERVER_PORT=9000 перекроет server.port
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 3. Установка дефолтных значений
	setDefaults(v)

	// 4. Чтение файла
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Если файла нет — работаем на ENV и дефолтах
	}

	// 5. Маппинг в структуру
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	// 6. Ключ кодека может прийти напрямую в ENV (Docker/K8s secrets)
	if key := os.Getenv("CODEC_KEY_DATA"); key != "" {
		cfg.Codec.Key = key
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("server.port", 9090)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("database.max_conns", 15)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.namespace", RedisNamespace)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("codec.key", "lovable-secure-2024")
	v.SetDefault("codec.iterations", 100000)
	v.SetDefault("limiter.form_max_attempts", 5)
	v.SetDefault("limiter.form_window", 60*time.Second)
	v.SetDefault("store.backend", "memory")
	v.SetDefault("notify.rate_per_second", 5.0)
	v.SetDefault("notify.burst", 10)
	v.SetDefault("audit.buffer_size", 10000)
	v.SetDefault("audit.batch_size", 100)
	v.SetDefault("audit.flush_interval", 500*time.Millisecond)
	v.SetDefault("breaker.max_requests", 3)
	v.SetDefault("breaker.interval", 5*time.Second)
	v.SetDefault("breaker.timeout", 30*time.Second)
	v.SetDefault("breaker.failure_threshold", 5)
	v.SetDefault("breaker.retry_attempts", 3)
	v.SetDefault("breaker.retry_delay", 50*time.Millisecond)
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case "memory", "redis":
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("config: store.backend=postgres requires database.url")
		}
	default:
		return fmt.Errorf("config: unknown store.backend %q", c.Store.Backend)
	}
	if c.Audit.Persist && c.Database.URL == "" {
		return errors.New("config: audit.persist requires database.url")
	}
	if c.Codec.Key == "" {
		return errors.New("config: codec.key must not be empty")
	}
	return nil
}
