package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTP  HTTP      `mapstructure:"http"`
	DB    *Postgres `mapstructure:"database"`
	RMQ   *RabbitMQ `mapstructure:"rabbitmq"`
	Redis *Redis    `mapstructure:"redis"`
	Auth  Auth      `mapstructure:"auth"`
}

type HTTP struct {
	Port int `mapstructure:"port"`
}

type Postgres struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

type RabbitMQ struct {
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	VHost    string `mapstructure:"vhost"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type Auth struct {
	JWTSecret    string `mapstructure:"jwt_secret"`
	TokenTTLMins int    `mapstructure:"token_ttl_mins"`
	BcryptCost   int    `mapstructure:"bcrypt_cost"`
}

// Load reads the yaml config at path, letting environment variables override
// any key (FLOOR_DATABASE_HOST overrides database.host). A .env file is
// loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("FLOOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http.port", 3000)
	v.SetDefault("database.port", "5432")
	v.SetDefault("rabbitmq.port", "5672")
	v.SetDefault("auth.token_ttl_mins", 480)
	v.SetDefault("auth.bcrypt_cost", 10)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.DB == nil {
		return nil, fmt.Errorf("config is missing the database section")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("config is missing auth.jwt_secret")
	}

	return cfg, nil
}
