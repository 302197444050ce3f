package config

const EnvPrefix = "GENESOFT"

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv    = "GENESOFT_APP_ENV"
	EnvPort      = "GENESOFT_APP_PORT"
	EnvLogLevel  = "GENESOFT_LOG_LEVEL"
	EnvDBDSN     = "GENESOFT_DB_DSN"
	EnvDBHost    = "GENESOFT_DB_HOST"
	EnvDBUser    = "GENESOFT_DB_USER"
	EnvDBName    = "GENESOFT_DB_NAME"
	EnvUseSQLite = "GENESOFT_USE_SQLITE"

	EnvDBSessionRole = "GENESOFT_DB_SESSION_ROLE"
	EnvDBServiceRole = "GENESOFT_DB_SERVICE_ROLE"

	EnvRedisURL  = "GENESOFT_REDIS_URL"
	EnvRedisAddr = "GENESOFT_REDIS_ADDR"

	EnvJWTSecret              = "GENESOFT_JWT_SECRET"
	EnvJWTIssuer              = "GENESOFT_JWT_ISSUER"
	EnvJWTExpMins             = "GENESOFT_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "GENESOFT_REFRESH_TOKEN_TTL_MINUTES"
	EnvSessionCookieName      = "GENESOFT_SESSION_COOKIE_NAME"
	EnvSessionCookieSecure    = "GENESOFT_SESSION_COOKIE_SECURE"
	EnvAuditTimeout           = "GENESOFT_AUDIT_TIMEOUT"
	EnvCORSAllowedOrigins     = "GENESOFT_CORS_ALLOWED_ORIGINS"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
