package config

// EnvPrefix is the envconfig prefix shared by every binary.
const EnvPrefix = "ORDERBOARD"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "ORDERBOARD_DB_DSN"
	EnvDBHost = "ORDERBOARD_DB_HOST"
	EnvDBUser = "ORDERBOARD_DB_USER"
	EnvDBName = "ORDERBOARD_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
