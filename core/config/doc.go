// Package config provides configuration management for catalog-sync.
//
// It utilizes Viper for loading configuration from environment variables, an optional
// .env file and an optional config file passed with --config.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Catalog: catalog database connection (mysql or sqlite) and table namespace
//   - Warehouse: remote warehouse dialect, credentials and roles
//   - Exclusion: system databases, schemas and roles that are never mirrored
//   - Storage: S3/MinIO settings of the scan report archive
//   - Server: read API port, API key and cache TTL
//   - Log: Logging level and format
//
// Every key can be set through the environment, upper-cased with dots replaced by
// underscores (catalog.driver -> CATALOG_DRIVER).
//
// # Usage
//
//	cfg, err := config.Load(".", configFile)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Catalog.Driver)
package config
