package config

type Config struct {
	ServerAddr    string `yaml:"server_addr"`
	MaxUploadSize int64  `yaml:"max_upload_size"`
}
