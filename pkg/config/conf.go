// Package config loads the genrelay YAML configuration with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/mchmarny/genrelay/pkg/tagger"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	FileName  = "config.yaml"
	EnvPrefix = "GENRELAY"

	dirMode  = 0700
	fileMode = 0600

	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreDynamoDB = "dynamodb"

	StorageS3   = "s3"
	StorageFile = "file"

	sqsURLFormat = "https://sqs.%s.amazonaws.com/%s/%s"
)

// Config represents the app config object.
type Config struct {
	Server  Server  `yaml:"server" envconfig:"server"`
	AWS     AWS     `yaml:"aws" envconfig:"aws"`
	Queues  Queues  `yaml:"queues" envconfig:"queues"`
	Store   Store   `yaml:"store" envconfig:"store"`
	Storage Storage `yaml:"storage" envconfig:"storage"`
	Catalog Catalog `yaml:"catalog" envconfig:"catalog"`
	Tagger  Tagger  `yaml:"tagger" envconfig:"tagger"`
	Worker  Worker  `yaml:"worker" envconfig:"worker"`
	Metrics Metrics `yaml:"metrics" envconfig:"metrics"`
}

type Server struct {
	Address string `yaml:"address" envconfig:"address"`
	Port    int    `yaml:"port" envconfig:"port"`
}

type AWS struct {
	Region    string `yaml:"region" envconfig:"region"`
	AccountID string `yaml:"account_id" envconfig:"account_id"`
	// Endpoint overrides the service endpoint (e.g. localstack).
	Endpoint string `yaml:"endpoint,omitempty" envconfig:"endpoint"`
}

// Queues holds queue names; URLs are derived from the AWS region and account.
type Queues struct {
	Genre string `yaml:"genre" envconfig:"genre"`
	Meta  string `yaml:"meta" envconfig:"meta"`
}

type Store struct {
	Driver string `yaml:"driver" envconfig:"driver"`
	DSN    string `yaml:"dsn,omitempty" envconfig:"dsn"`
	Table  string `yaml:"table,omitempty" envconfig:"table"`
}

type Storage struct {
	Driver string `yaml:"driver" envconfig:"driver"`
	Bucket string `yaml:"bucket,omitempty" envconfig:"bucket"`
	Dir    string `yaml:"dir,omitempty" envconfig:"dir"`
}

type Catalog struct {
	BaseURL      string `yaml:"base_url" envconfig:"base_url"`
	TokenURL     string `yaml:"token_url,omitempty" envconfig:"token_url"`
	ClientID     string `yaml:"client_id,omitempty" envconfig:"client_id"`
	ClientSecret string `yaml:"-" envconfig:"client_secret"`
}

type Tagger struct {
	Command string        `yaml:"command" envconfig:"command"`
	Args    []string      `yaml:"args" envconfig:"args"`
	TopN    int           `yaml:"top_n" envconfig:"top_n"`
	Models  []string      `yaml:"models" envconfig:"models"`
	Timeout time.Duration `yaml:"timeout" envconfig:"timeout"`
	TempDir string        `yaml:"temp_dir" envconfig:"temp_dir"`
}

type Worker struct {
	MaxMessages int `yaml:"max_messages" envconfig:"max_messages"`
	WaitSeconds int `yaml:"wait_seconds" envconfig:"wait_seconds"`
	// VisibilitySeconds is how long a received message stays hidden.
	VisibilitySeconds int `yaml:"visibility_seconds" envconfig:"visibility_seconds"`
}

type Metrics struct {
	Enabled bool `yaml:"enabled" envconfig:"enabled"`
}

// Default returns the configuration written on first use.
func Default() *Config {
	return &Config{
		Server: Server{Address: "127.0.0.1", Port: 8080},
		AWS:    AWS{Region: "us-east-1"},
		Queues: Queues{Genre: "yt-dl-3-genre", Meta: "yt-dl-3-meta"},
		Store: Store{
			Driver: StoreSQLite,
			DSN:    "genrelay.db",
			Table:  "YTDL3_Tracks",
		},
		Storage: Storage{Driver: StorageS3},
		Tagger: Tagger{
			Command: "python3",
			Args:    []string{"-m", "genrelay_tagger", "--model", "{model}", "--top", "{top}", "{file}"},
			TopN:    5,
			Models:  []string{"MSD_musicnn", "MSD_vgg", "MTT_musicnn", "MTT_vgg"},
			Timeout: 5 * time.Minute,
			TempDir: os.TempDir(),
		},
		Worker: Worker{
			MaxMessages:       1,
			WaitSeconds:       20,
			VisibilitySeconds: 900,
		},
		Metrics: Metrics{Enabled: true},
	}
}

// QueueURL builds the SQS URL for a queue name.
func (c *Config) QueueURL(name string) string {
	if strings.HasPrefix(name, "https://") || strings.HasPrefix(name, "http://") {
		return name
	}
	return fmt.Sprintf(sqsURLFormat, c.AWS.Region, c.AWS.AccountID, name)
}

// Validate checks the values every command depends on.
func (c *Config) Validate() error {
	if c.Tagger.TopN <= 0 {
		return errors.Errorf("tagger.top_n must be positive, got %d", c.Tagger.TopN)
	}
	if _, err := tagger.ParseModels(c.Tagger.Models); err != nil {
		return errors.Wrap(err, "invalid tagger.models")
	}
	switch c.Store.Driver {
	case StoreSQLite, StorePostgres:
		if c.Store.DSN == "" {
			return errors.Errorf("store.dsn required for %s", c.Store.Driver)
		}
	case StoreDynamoDB:
		if c.Store.Table == "" {
			return errors.New("store.table required for dynamodb")
		}
	default:
		return errors.Errorf("unsupported store driver: %s", c.Store.Driver)
	}
	switch c.Storage.Driver {
	case StorageS3, StorageFile:
	default:
		return errors.Errorf("unsupported storage driver: %s", c.Storage.Driver)
	}
	return nil
}

// ValidateQueues checks the values the queue workers need.
func (c *Config) ValidateQueues() error {
	if c.AWS.Region == "" || c.AWS.AccountID == "" {
		return errors.New("aws.region and aws.account_id required for queue access")
	}
	if c.Queues.Genre == "" || c.Queues.Meta == "" {
		return errors.New("queues.genre and queues.meta required")
	}
	return nil
}

func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	path := filepath.Join(dirPath, FileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return errors.Wrapf(err, "failed to write config file: %s", path)
	}
	return nil
}

// ReadOrCreate reads app config from directory or creates a new one.
// Environment variables prefixed with GENRELAY override file values.
func ReadOrCreate(dirPath string) (*Config, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	if _, err := os.Stat(dirPath); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(dirPath, dirMode); err != nil {
			return nil, errors.Wrapf(err, "failed to create dir: %s", dirPath)
		}
	}

	path := filepath.Join(dirPath, FileName)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		d := Default()
		d.Store.DSN = filepath.Join(dirPath, d.Store.DSN)
		if err := Save(dirPath, d); err != nil {
			return nil, errors.Wrap(err, "failed to create default config")
		}
	}

	return Read(path)
}

// Read loads the config file at path and applies environment overrides.
func Read(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading config file: %s", path)
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, errors.Wrapf(err, "error unmarshalling config file: %s", path)
	}

	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return nil, errors.Wrap(err, "error applying environment overrides")
	}
	return c, nil
}

// GetOrCreateHomeDir returns the app directory under the user's home.
// The create flag is set to true if the directory was created.
func GetOrCreateHomeDir(name string) (path string, created bool, err error) {
	if name == "" {
		return "", false, errors.New("name cannot be empty")
	}

	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, errors.Wrap(err, "failed to get user home dir")
	}

	dir := filepath.Join(home, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		if err := os.Mkdir(dir, dirMode); err != nil {
			return "", false, errors.Wrapf(err, "failed to create dir: %s", dir)
		}
		created = true
	}
	return dir, created, nil
}
