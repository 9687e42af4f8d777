package exclusion

// Config holds the names of known system objects that are never mirrored.
// Lists are comma separated when supplied through the environment
// (e.g. EXCLUSION_DATABASES=snowflake,snowflake_sample_data).
type Config struct {
	// Databases lists excluded database names.
	Databases []string `mapstructure:"databases" default:"snowflake,snowflake_sample_data,catalog_db"`
	// Schemas lists excluded schema names.
	Schemas []string `mapstructure:"schemas" default:"information_schema"`
	// Roles lists excluded role names.
	Roles []string `mapstructure:"roles" default:"orgadmin,accountadmin,securityadmin,sysadmin,useradmin,catalogadmin,public"`
}
