package config

const (
	EnvPrefix = "PRINTHAUS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "PRINTHAUS_DB_DSN"
	EnvDBHost = "PRINTHAUS_DB_HOST"
	EnvDBUser = "PRINTHAUS_DB_USER"
	EnvDBName = "PRINTHAUS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
