package config

import "time"

type Config struct {
	Workers       int           `yaml:"workers"`
	BatchSize     int32         `yaml:"batch_size"`
	ErrorInterval time.Duration `yaml:"error_interval"`
}
