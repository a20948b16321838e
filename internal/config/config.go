package config

import (
	"os"
	"strconv"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/pkg/errors"
)

type Config struct {
	Server Server `yaml:"server"`
	Auth   Auth   `yaml:"auth"`
	Cache  Cache  `yaml:"cache"`
}

type Server struct {
	Addr          string `yaml:"addr"`
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	NatsURL       string `yaml:"natsURL"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
	LogFormat     string `yaml:"logFormat"` // text, json
	Debug         bool   `yaml:"debug"`
}

type Auth struct {
	JwtSecret string        `yaml:"jwtSecret"`
	TokenTTL  time.Duration `yaml:"tokenTTL"`
}

type Cache struct {
	StatsTTL  time.Duration `yaml:"statsTTL"`
	OwnerTTL  time.Duration `yaml:"ownerTTL"`
	SlowQuery time.Duration `yaml:"slowQuery"`
}

func Default() Config {
	return Config{
		Server: Server{
			Addr:          ":8000",
			PostgresDsn:   "host=localhost user=postgres password=postgres dbname=postgres port=5432 sslmode=disable",
			RedisAddr:     "localhost:6379",
			MemcachedAddr: "localhost:11211",
			LogFormat:     "json",
		},
		Auth: Auth{
			TokenTTL: 24 * time.Hour,
		},
		Cache: Cache{
			StatsTTL:  30 * time.Second,
			OwnerTTL:  5 * time.Minute,
			SlowQuery: 300 * time.Millisecond,
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// COLLABFUND_* environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	config := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return Config{}, err
		}
		defer file.Close()

		err = yaml.NewDecoder(file).Decode(&config)
		if err != nil {
			return Config{}, errors.Wrap(err, "decode config")
		}
	}

	if err := applyEnv(&config, os.LookupEnv); err != nil {
		return Config{}, err
	}

	if config.Auth.JwtSecret == "" {
		return Config{}, errors.New("auth.jwtSecret is required")
	}

	return config, nil
}

func applyEnv(config *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"COLLABFUND_ADDR":           &config.Server.Addr,
		"COLLABFUND_POSTGRES_DSN":   &config.Server.PostgresDsn,
		"COLLABFUND_REDIS_ADDR":     &config.Server.RedisAddr,
		"COLLABFUND_REDIS_PASSWORD": &config.Server.RedisPassword,
		"COLLABFUND_MEMCACHED_ADDR": &config.Server.MemcachedAddr,
		"COLLABFUND_NATS_URL":       &config.Server.NatsURL,
		"COLLABFUND_TRACE_ENDPOINT": &config.Server.TraceEndpoint,
		"COLLABFUND_LOG_FORMAT":     &config.Server.LogFormat,
		"COLLABFUND_JWT_SECRET":     &config.Auth.JwtSecret,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"COLLABFUND_ENABLE_TRACE": &config.Server.EnableTrace,
		"COLLABFUND_DEBUG":        &config.Server.Debug,
	}
	for key, dst := range bools {
		if v, ok := lookup(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return errors.Wrapf(err, "invalid %s", key)
			}
			*dst = b
		}
	}

	if v, ok := lookup("COLLABFUND_REDIS_DB"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, "invalid COLLABFUND_REDIS_DB")
		}
		config.Server.RedisDB = n
	}

	return nil
}
