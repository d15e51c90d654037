package config

type Config struct {
	// Пустой ключ отключает проверку
	Secret string `yaml:"secret"`
}
