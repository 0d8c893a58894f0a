package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "LABSTOCK"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv = "LABSTOCK_APP_ENV"
	EnvPort   = "LABSTOCK_APP_PORT"
	EnvDBDSN  = "LABSTOCK_DB_DSN"
	EnvDBHost = "LABSTOCK_DB_HOST"
	EnvDBUser = "LABSTOCK_DB_USER"
	EnvDBName = "LABSTOCK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
