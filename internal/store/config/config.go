package config

const (
	BackendPostgres = "postgres"
	BackendDynamoDB = "dynamodb"
)

type Config struct {
	Backend     string `yaml:"backend"`
	DBDsn       string `yaml:"db_dsn"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	TablePrefix string `yaml:"table_prefix"`
}
