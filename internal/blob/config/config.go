package config

type Config struct {
	Container string `yaml:"container"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	// Адрес, от которого строятся ссылки на загруженные объекты
	PublicURL string `yaml:"public_url"`
}
