package config

type Config struct {
	// Точка монтирования сетевой шары
	MountPath string `yaml:"mount_path"`
	Share     string `yaml:"share"`
	Directory string `yaml:"directory"`
}
