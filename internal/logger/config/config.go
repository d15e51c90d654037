package config

type Config struct {
	LogLevel string `yaml:"log_level"`
}
