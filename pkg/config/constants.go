package config

// EnvPrefix is passed to envconfig; field tags carry the full variable
// names, so the prefix only applies to untagged fields.
const EnvPrefix = "glowdesk"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "GLOWDESK_APP_ENV"
	EnvPort     = "GLOWDESK_APP_PORT"
	EnvDBDSN    = "GLOWDESK_DB_DSN"
	EnvDBHost   = "GLOWDESK_DB_HOST"
	EnvDBUser   = "GLOWDESK_DB_USER"
	EnvDBName   = "GLOWDESK_DB_NAME"
	EnvRedisURL = "GLOWDESK_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
