// Package config собирает настройки chunkplan из YAML-файла и окружения.
//
// Порядок: значения по умолчанию, затем файл (CHUNKPLAN_CONFIG),
// затем переменные окружения. Флаги CLI применяются поверх в internal/cli.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/chunkplan/internal/domain"
	"github.com/shaiso/chunkplan/internal/store"
)

// Переменные окружения.
const (
	EnvConfigFile        = "CHUNKPLAN_CONFIG"
	EnvRemoteRoot        = "CHUNKPLAN_REMOTE_ROOT"
	EnvWorkerBinary      = "CHUNKPLAN_WORKER_BIN"
	EnvCatalogDBURL      = "CATALOG_DB_URL"
	EnvRabbitMQURL       = "RABBITMQ_URL"
	EnvMetricsAddr       = "METRICS_ADDR"
	EnvExistsMaxAttempts = "EXISTS_MAX_ATTEMPTS"
)

// MidasDBNames — поддерживаемые базы MIDAS.
var MidasDBNames = []string{"uhgg", "gtdb", "testdb"}

var (
	// ErrInvalidConfig — некорректное значение настройки.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrNoRemoteRoot — не задан корень удалённого хранилища.
	ErrNoRemoteRoot = errors.New("remote root is not set")
)

// Config — настройки chunkplan.
type Config struct {
	MidasDB  MidasDBConfig  `yaml:"midasdb"`
	Worker   WorkerConfig   `yaml:"worker"`
	Exists   ExistsConfig   `yaml:"exists"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Metrics  MetricsConfig  `yaml:"metrics"`

	// NumCores — размер ConcurrencyGate; 0 — по числу физических ядер.
	NumCores int `yaml:"num_cores"`
}

type MidasDBConfig struct {
	Name       string `yaml:"name"`
	Dir        string `yaml:"dir"`
	RemoteRoot string `yaml:"remote_root"`
}

type WorkerConfig struct {
	Binary    string        `yaml:"binary"`
	Grace     time.Duration `yaml:"grace"`
	InProcess bool          `yaml:"in_process"`
}

type ExistsConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

type CatalogConfig struct {
	DatabaseURL string `yaml:"database_url"`
}

type RabbitMQConfig struct {
	URL string `yaml:"url"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default возвращает настройки по умолчанию.
func Default() Config {
	policy := store.DefaultRetryPolicy()
	return Config{
		MidasDB: MidasDBConfig{Name: "uhgg", Dir: "."},
		Worker:  WorkerConfig{Binary: "chunkplan-worker", Grace: 2 * time.Second},
		Exists: ExistsConfig{
			MaxAttempts:  policy.MaxAttempts,
			InitialDelay: policy.InitialDelay,
			MaxDelay:     policy.MaxDelay,
		},
	}
}

// Load читает настройки: файл path (или CHUNKPLAN_CONFIG, если path пуст)
// и окружение.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFile накладывает YAML-файл поверх текущих значений.
func (c *Config) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("%w: parse %s: %w", ErrInvalidConfig, path, err)
	}
	return nil
}

// ApplyEnv накладывает переменные окружения.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(EnvRemoteRoot, &c.MidasDB.RemoteRoot)
	set(EnvWorkerBinary, &c.Worker.Binary)
	set(EnvCatalogDBURL, &c.Catalog.DatabaseURL)
	set(EnvRabbitMQURL, &c.RabbitMQ.URL)
	set(EnvMetricsAddr, &c.Metrics.Addr)

	if v, ok := lookup(EnvExistsMaxAttempts); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, EnvExistsMaxAttempts, v)
		}
		c.Exists.MaxAttempts = n
	}
	return nil
}

// Validate проверяет настройки перед запуском диспетчера.
func (c Config) Validate() error {
	if !slices.Contains(MidasDBNames, c.MidasDB.Name) {
		return fmt.Errorf("%w: midasdb name %q, want one of %v", ErrInvalidConfig, c.MidasDB.Name, MidasDBNames)
	}
	if c.MidasDB.RemoteRoot == "" {
		return ErrNoRemoteRoot
	}
	if c.NumCores < 0 {
		return fmt.Errorf("%w: num_cores %d", ErrInvalidConfig, c.NumCores)
	}
	return nil
}

// DBSpec возвращает координаты базы с абсолютными локальным путём
// и локальным удалённым корнем.
func (c Config) DBSpec() (domain.DBSpec, error) {
	dir, err := filepath.Abs(c.MidasDB.Dir)
	if err != nil {
		return domain.DBSpec{}, fmt.Errorf("resolve midasdb dir: %w", err)
	}
	root, err := store.ResolveRoot(c.MidasDB.RemoteRoot)
	if err != nil {
		return domain.DBSpec{}, fmt.Errorf("resolve remote root: %w", err)
	}
	return domain.DBSpec{
		Name:       c.MidasDB.Name,
		LocalDir:   dir,
		RemoteRoot: root,
	}, nil
}

// RetryPolicy возвращает политику повторов проверки существования.
func (c Config) RetryPolicy() store.RetryPolicy {
	return store.RetryPolicy{
		MaxAttempts:  c.Exists.MaxAttempts,
		InitialDelay: c.Exists.InitialDelay,
		MaxDelay:     c.Exists.MaxDelay,
	}
}
