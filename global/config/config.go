package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"LumeChat/logger"
)

// WorldConversationID is the well-known id of the broadcast conversation every
// profile is auto-joined to. Fixed so the bootstrap insert is idempotent.
const WorldConversationID = "00000000-0000-0000-0000-000000000001"

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type PostgresConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type NatsConfig struct {
	Servers []string `yaml:"servers"`
	Name    string   `yaml:"name"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type ChatConfig struct {
	NameCooldown   time.Duration `yaml:"name_cooldown"`   // display-name change window
	StoryTTL       time.Duration `yaml:"story_ttl"`       // story lifetime from creation
	PresenceTTL    time.Duration `yaml:"presence_ttl"`    // heartbeat key lifetime
	RequestTimeout time.Duration `yaml:"request_timeout"` // per-operation deadline
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

type StorageConfig struct {
	Root    string `yaml:"root"`     // object storage root directory
	BaseURL string `yaml:"base_url"` // public URL prefix
}

type AppConfig struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Nats     NatsConfig     `yaml:"nats"`
	Auth     AuthConfig     `yaml:"auth"`
	Chat     ChatConfig     `yaml:"chat"`
	Storage  StorageConfig  `yaml:"storage"`
}

func Default() AppConfig {
	return AppConfig{
		HTTP:     HTTPConfig{Addr: ":8080"},
		Postgres: PostgresConfig{URL: "postgres://localhost:5432/lumechat"},
		Redis:    RedisConfig{Addr: "127.0.0.1:6379"},
		Nats:     NatsConfig{Servers: []string{"nats://127.0.0.1:4222"}, Name: "lumechat"},
		Chat: ChatConfig{
			NameCooldown:   12 * time.Hour,
			StoryTTL:       24 * time.Hour,
			PresenceTTL:    45 * time.Second,
			RequestTimeout: 10 * time.Second,
			MaxUploadBytes: 25 << 20,
		},
		Storage: StorageConfig{Root: "./media", BaseURL: "/media"},
	}
}

// Load reads the YAML config at path (missing file falls back to defaults)
// and applies env overrides. A .env file next to the binary is honored.
func Load(path string) (AppConfig, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, err
			}
		} else if !os.IsNotExist(err) {
			return cfg, err
		} else {
			logger.Infof("config file %s not found, using defaults", path)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *AppConfig) {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = n
		}
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.Nats.Servers = []string{v}
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("STORAGE_ROOT"); v != "" {
		cfg.Storage.Root = v
	}
}
