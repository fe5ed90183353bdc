package config

const (
	EnvPrefix = "BILLSYNC"

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	EnvAppEnv = "BILLSYNC_APP_ENV"
	EnvPort   = "BILLSYNC_APP_PORT"

	EnvDBDSN  = "BILLSYNC_DB_DSN"
	EnvDBHost = "BILLSYNC_DB_HOST"
	EnvDBUser = "BILLSYNC_DB_USER"
	EnvDBName = "BILLSYNC_DB_NAME"

	EnvPaddleAPIKey        = "BILLSYNC_PADDLE_API_KEY"
	EnvPaddleWebhookSecret = "BILLSYNC_PADDLE_WEBHOOK_SECRET"
	EnvPaddleEnv           = "BILLSYNC_PADDLE_ENV"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
