package config

// EnvPrefix is the envconfig prefix for all service settings.
const EnvPrefix = "BILLSYNC"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "BILLSYNC_DB_DSN"
	EnvDBHost = "BILLSYNC_DB_HOST"
	EnvDBUser = "BILLSYNC_DB_USER"
	EnvDBName = "BILLSYNC_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
