package config

const (
	// EnvPrefix namespaces every environment variable read by envconfig.
	EnvPrefix = "RESTOCK"

	AppEnvDev     = "development"
	AppEnvStaging = "staging"
	AppEnvProd    = "production"

	EnvDBDSN = "RESTOCK_DB_DSN"
)

// legacyDBEnvVars are consulted when RESTOCK_DB_DSN is unset so older
// deployment manifests keep working.
var legacyDBEnvVars = struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}{
	Host:     "RESTOCK_DB_HOST",
	Port:     "RESTOCK_DB_PORT",
	User:     "RESTOCK_DB_USER",
	Password: "RESTOCK_DB_PASSWORD",
	Name:     "RESTOCK_DB_NAME",
	SSLMode:  "RESTOCK_DB_SSLMODE",
}
