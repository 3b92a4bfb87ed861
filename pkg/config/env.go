package config

const (
	EnvPrefix = "QUAIDIRECT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "QUAIDIRECT_DB_DSN"
	EnvDBHost = "QUAIDIRECT_DB_HOST"
	EnvDBUser = "QUAIDIRECT_DB_USER"
	EnvDBName = "QUAIDIRECT_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
