package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv          = "STOREFRONT_APP_ENV"
	EnvPort            = "STOREFRONT_APP_PORT"
	EnvDBDSN           = "STOREFRONT_DB_DSN"
	EnvDBDriver        = "STOREFRONT_DB_DRIVER"
	EnvDBHost          = "STOREFRONT_DB_HOST"
	EnvDBUser          = "STOREFRONT_DB_USER"
	EnvDBName          = "STOREFRONT_DB_NAME"
	EnvRedisURL        = "STOREFRONT_REDIS_URL"
	EnvRedisAddr       = "STOREFRONT_REDIS_ADDR"
	EnvStorageDriver   = "STOREFRONT_STORAGE_DRIVER"
	EnvSessionSecret   = "STOREFRONT_SESSION_SECRET"
	EnvIdentityDriver  = "STOREFRONT_IDENTITY_DRIVER"
	EnvSupabaseURL     = "STOREFRONT_SUPABASE_URL"
	EnvSupabaseAPIKey  = "STOREFRONT_SUPABASE_API_KEY"
	EnvCatalogMaxPrice = "STOREFRONT_CATALOG_MAX_PRICE"
	EnvCORSOrigins     = "STOREFRONT_CORS_ALLOWED_ORIGINS"

	StorageDriverMemory = "memory"
	StorageDriverRedis  = "redis"
	StorageDriverSQL    = "sql"

	IdentityDriverLocal    = "local"
	IdentityDriverSupabase = "supabase"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	DefaultSQLiteDSN = "file:storefront.db?cache=shared"
)

var dbPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
