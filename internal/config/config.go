package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	NATS          NATSConfig          `yaml:"nats"`
	MinIO         MinIOConfig         `yaml:"minio"`
	Vision        VisionConfig        `yaml:"vision"`
	Learning      LearningConfig      `yaml:"learning"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Workflow      WorkflowConfig      `yaml:"workflow"`
	Logging       LoggingConfig       `yaml:"logging"`
}

type ServerConfig struct {
	Port      int    `yaml:"port"`
	AuthToken string `yaml:"auth_token"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// VisionConfig controls detection, embedding and match thresholds.
// ThresholdStrict/MarginStrict gate GREEN verdicts, the loose pair gates
// YELLOW; everything else is UNKNOWN.
type VisionConfig struct {
	Enabled            bool    `yaml:"enabled"`
	ModelsDir          string  `yaml:"models_dir"`
	DetectionThreshold float64 `yaml:"detection_threshold"`
	ThresholdStrict    float64 `yaml:"threshold_strict"`
	ThresholdLoose     float64 `yaml:"threshold_loose"`
	MarginStrict       float64 `yaml:"margin_strict"`
	MarginLoose        float64 `yaml:"margin_loose"`
	MinFaceSize        int     `yaml:"min_face_size"`
	MinQualityScore    float64 `yaml:"min_quality_score"`
	AutoCreatePerson   bool    `yaml:"auto_create_person"`
}

// LearningConfig controls sample auto-learning for matched persons.
type LearningConfig struct {
	Enabled             bool   `yaml:"enabled"`
	OnlyGreenMatches    bool   `yaml:"only_green_matches"`
	CooldownSeconds     int    `yaml:"cooldown_seconds"`
	MaxSamplesPerPerson int    `yaml:"max_samples_per_person"`
	ReplaceStrategy     string `yaml:"replace_strategy"`
}

type NotificationsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Backend    string `yaml:"backend"` // command, webhook, log
	Command    string `yaml:"command"`
	WebhookURL string `yaml:"webhook_url"`
}

type WorkflowConfig struct {
	RulesPath string `yaml:"rules_path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from YAML file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	SetDefaults(cfg)

	return cfg, nil
}

// SetDefaults fills zero-valued fields with production defaults.
func SetDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 20
	}
	if cfg.Vision.DetectionThreshold == 0 {
		cfg.Vision.DetectionThreshold = 0.6
	}
	if cfg.Vision.ThresholdStrict == 0 {
		cfg.Vision.ThresholdStrict = 0.35
	}
	if cfg.Vision.ThresholdLoose == 0 {
		cfg.Vision.ThresholdLoose = 0.50
	}
	if cfg.Vision.MarginStrict == 0 {
		cfg.Vision.MarginStrict = 0.15
	}
	if cfg.Vision.MarginLoose == 0 {
		cfg.Vision.MarginLoose = 0.08
	}
	if cfg.Vision.MinFaceSize == 0 {
		cfg.Vision.MinFaceSize = 10000
	}
	if cfg.Vision.MinQualityScore == 0 {
		cfg.Vision.MinQualityScore = 0.6
	}
	if cfg.Learning.CooldownSeconds == 0 {
		cfg.Learning.CooldownSeconds = 60
	}
	if cfg.Learning.MaxSamplesPerPerson == 0 {
		cfg.Learning.MaxSamplesPerPerson = 15
	}
	if cfg.Learning.ReplaceStrategy == "" {
		cfg.Learning.ReplaceStrategy = "oldest"
	}
	if cfg.Notifications.Backend == "" {
		cfg.Notifications.Backend = "log"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FG_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FG_AUTH_TOKEN"); v != "" {
		cfg.Server.AuthToken = v
	}
	if v := os.Getenv("FG_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("FG_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("FG_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("FG_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("FG_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("FG_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("FG_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("FG_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("FG_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("FG_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("FG_MODELS_DIR"); v != "" {
		cfg.Vision.ModelsDir = v
	}
}
