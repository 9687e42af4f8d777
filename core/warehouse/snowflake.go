package warehouse

import (
	"fmt"

	"catalog-sync/core/catalog"

	"github.com/snowflakedb/gosnowflake"
)

// snowflake lists objects with SHOW commands. Identifiers cannot be bound in SHOW,
// so every name is quoted instead.
type snowflake struct {
	cfg Config
}

func (snowflake) name() string   { return DialectSnowflake }
func (snowflake) driver() string { return "snowflake" }

func (s snowflake) dsn(cfg Config) (string, error) {
	sfCfg := &gosnowflake.Config{
		Account:   cfg.Account,
		User:      cfg.User,
		Password:  cfg.Password,
		Database:  cfg.Database,
		Warehouse: cfg.Warehouse,
		Role:      cfg.Role,
	}
	dsn, err := gosnowflake.DSN(sfCfg)
	if err != nil {
		return "", fmt.Errorf("failed to build snowflake dsn: %w", err)
	}
	return dsn, nil
}

func (s snowflake) topLevel(kind catalog.Kind) (statement, error) {
	switch kind {
	case catalog.KindDatabase:
		return statement{query: "SHOW DATABASES"}, nil
	case catalog.KindRole:
		return statement{query: "SHOW ROLES"}, nil
	case catalog.KindUser:
		// Listing users requires the user admin role; the session role is restored afterwards.
		st := statement{query: "SHOW USERS"}
		if s.cfg.UserAdminRole != "" {
			st.before = []string{"USE ROLE " + quoteIdent(s.cfg.UserAdminRole)}
			if s.cfg.Role != "" {
				st.after = []string{"USE ROLE " + quoteIdent(s.cfg.Role)}
			}
		}
		return st, nil
	default:
		return statement{}, fmt.Errorf("%s is not a top-level kind", kind)
	}
}

func (s snowflake) scoped(kind catalog.Kind, path []string) (statement, error) {
	if err := checkScope(kind, path); err != nil {
		return statement{}, err
	}
	switch kind {
	case catalog.KindSchema:
		return statement{query: "SHOW SCHEMAS IN DATABASE " + quotePath(path)}, nil
	case catalog.KindTable:
		return statement{query: "SHOW TABLES IN SCHEMA " + quotePath(path)}, nil
	case catalog.KindColumn:
		return statement{query: "SHOW COLUMNS IN TABLE " + quotePath(path)}, nil
	case catalog.KindPrivilegeGrant:
		return statement{query: "SHOW GRANTS TO ROLE " + quotePath(path)}, nil
	default:
		return statement{query: "SHOW GRANTS OF ROLE " + quotePath(path)}, nil
	}
}

func (snowflake) session() statement {
	return statement{query: "SELECT CURRENT_USER() AS user_name, CURRENT_WAREHOUSE() AS warehouse, CURRENT_ROLE() AS role_name"}
}

func (snowflake) rolesOfUser(user string) statement {
	return statement{query: "SHOW GRANTS TO USER " + quoteIdent(user)}
}

func (snowflake) grantsToRole(role string) statement {
	return statement{query: "SHOW GRANTS TO ROLE " + quoteIdent(role)}
}
