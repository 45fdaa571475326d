package config

import (
	"flag"
	"fmt"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"os"
	"time"
)

type Config struct {
	Env            string `yaml:"env" env:"ENV" env-default:"local" env-description:"Environment: local, dev or prod"`
	ApiPort        int    `yaml:"api_port" env:"API_PORT" env-default:"8080"`
	ApiHost        string `yaml:"api_host" env:"API_HOST" env-default:"localhost"`
	DatabaseURL    string `yaml:"database_url" env:"DATABASE_URL" env-required:"true" env-description:"Postgres connection string"`
	MigrateOnStart bool   `yaml:"migrate_on_start" env:"MIGRATE_ON_START" env-default:"false"`
	JWT            JWT    `yaml:"jwt"`
	Ledger         Ledger `yaml:"ledger"`
	CORS           CORS   `yaml:"cors"`
}

type JWT struct {
	Secret string        `yaml:"secret" env:"JWT_SECRET_KEY" env-required:"true" env-description:"Token signing secret"`
	TTL    time.Duration `yaml:"ttl" env:"JWT_TTL" env-default:"1h"`
}

type Ledger struct {
	// EnforceOwnership rejects update and delete of rows owned by another user.
	EnforceOwnership bool `yaml:"enforce_ownership" env:"LEDGER_ENFORCE_OWNERSHIP" env-default:"false"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"*" env-separator:","`
}

func MustLoad() *Config {
	cfg, err := Load(fetchConfigPath())
	if err != nil {
		panic(err.Error())
	}

	return cfg
}

// Load reads the YAML file at path, if any, and then the process environment.
// An optional .env file in the working directory is loaded into the environment first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from env: %w", err)
		}
		return &cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return &cfg, nil
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
