package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type S3 struct {
	Endpoint       string `yaml:"endpoint" json:"endpoint"`
	Region         string `yaml:"region" json:"region"`
	Bucket         string `yaml:"bucket" json:"bucket"`
	ForcePathStyle bool   `yaml:"force_path_style" json:"force_path_style"`
}

type Config struct {
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`
	MetaDSN    string `yaml:"meta_dsn" json:"meta_dsn"`

	// BlobDriver выбирает бэкенд объектного хранилища: s3, badger или memory.
	BlobDriver string `yaml:"blob_driver" json:"blob_driver"`
	BadgerPath string `yaml:"badger_path" json:"badger_path"`
	S3         S3     `yaml:"s3" json:"s3"`
}

// Load читает YAML-конфигурацию, применяет ENV-переопределения и возвращает актуальную структуру.
func Load() (*Config, error) {
	path := getenv("CONFIG_PATH", "./config.yaml")
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	// ENV override
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("META_DSN"); v != "" {
		c.MetaDSN = v
	}
	if v := os.Getenv("BLOB_DRIVER"); v != "" {
		c.BlobDriver = v
	}
	if v := os.Getenv("BADGER_PATH"); v != "" {
		c.BadgerPath = v
	}
	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		c.S3.Endpoint = v
	}
	if v := os.Getenv("S3_REGION"); v != "" {
		c.S3.Region = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		c.S3.Bucket = v
	}

	if c.BlobDriver == "" {
		c.BlobDriver = "s3"
	}
	c.BlobDriver = strings.ToLower(strings.TrimSpace(c.BlobDriver))

	return &c, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}

	return def
}
