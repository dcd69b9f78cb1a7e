package config

const (
	EnvPrefix = "INNKEEPER"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv        = "INNKEEPER_APP_ENV"
	EnvPort          = "INNKEEPER_APP_PORT"
	EnvDBDSN         = "INNKEEPER_DB_DSN"
	EnvDBHost        = "INNKEEPER_DB_HOST"
	EnvDBUser        = "INNKEEPER_DB_USER"
	EnvDBName        = "INNKEEPER_DB_NAME"
	EnvRedisURL      = "INNKEEPER_REDIS_URL"
	EnvJWTSecret     = "INNKEEPER_JWT_SECRET"
	EnvUseSQLite     = "INNKEEPER_USE_SQLITE"
	EnvHotelTimezone = "INNKEEPER_HOTEL_TIMEZONE"
	EnvCronInterval  = "INNKEEPER_CRON_INTERVAL"
)

var splitDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
