package config

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultConfigPath = "./config/config.yml"

// MustLoad читает конфигурацию и завершает процесс при ошибке.
// Путь берётся из флага -config, затем из CONFIG_PATH.
func MustLoad() *Config {
	path := fetchConfigPath()

	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}

	return cfg
}

// Load читает YAML-файл и переменные окружения.
// Если файла нет, конфигурация собирается только из окружения.
func Load(path string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read env: %w", err)
		}
	}

	cfg.configPath = path

	return &cfg, nil
}

// Path возвращает путь, из которого была загружена конфигурация.
func (c *Config) Path() string {
	return c.configPath
}

// DSN собирает строку подключения к PostgreSQL.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// HTTPAddr — адрес, на котором слушает HTTP-сервер.
func (c HttpServerConfig) HTTPAddr() string {
	return c.Address + ":" + c.Port
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	if res == "" {
		res = defaultConfigPath
	}

	return res
}
