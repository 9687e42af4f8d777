package warehouse

// Config holds the connection settings of the remote warehouse.
type Config struct {
	Dialect        string `mapstructure:"dialect" default:"snowflake"`
	Account        string `mapstructure:"account"`
	Host           string `mapstructure:"host" default:"localhost"`
	Port           int    `mapstructure:"port" default:"5432"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	Database       string `mapstructure:"database"`
	Warehouse      string `mapstructure:"warehouse"`
	Role           string `mapstructure:"role" default:"SYSADMIN"`
	UserAdminRole  string `mapstructure:"user_admin_role" default:"SECURITYADMIN"`
	SSLMode        string `mapstructure:"sslmode" default:"prefer"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" default:"60"`
}

const (
	DialectSnowflake = "snowflake"
	DialectPostgres  = "postgres"
)
