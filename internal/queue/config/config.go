package config

const (
	BackendRedis = "redis"
	BackendSQS   = "sqs"
)

type Config struct {
	Backend   string `yaml:"backend"`
	QueueName string `yaml:"queue_name"`
	RedisAddr string `yaml:"redis_addr"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	// Секунды long polling при чтении
	WaitTimeSeconds int32 `yaml:"wait_time_seconds"`
}
