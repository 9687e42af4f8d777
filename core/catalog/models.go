package catalog

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// DatabaseObj is the catalog row of a warehouse database.
type DatabaseObj struct {
	ID           int64      `gorm:"column:id;primaryKey;autoIncrement"`
	ObjCreatedOn *time.Time `gorm:"column:obj_created_on"`
	Name         string     `gorm:"column:name;size:255;not null;uniqueIndex:uq_database_objs_key"`
}

type SchemaObj struct {
	ID           int64      `gorm:"column:id;primaryKey;autoIncrement"`
	ObjCreatedOn *time.Time `gorm:"column:obj_created_on"`
	Name         string     `gorm:"column:name;size:255;not null;uniqueIndex:uq_schema_objs_key"`
	DatabaseID   int64      `gorm:"column:database_id;not null;uniqueIndex:uq_schema_objs_key"`
}

type TableObj struct {
	ID           int64      `gorm:"column:id;primaryKey;autoIncrement"`
	ObjCreatedOn *time.Time `gorm:"column:obj_created_on"`
	Name         string     `gorm:"column:name;size:255;not null;uniqueIndex:uq_table_objs_key"`
	SchemaID     int64      `gorm:"column:schema_id;not null;uniqueIndex:uq_table_objs_key"`
}

type ColumnObj struct {
	ID           int64      `gorm:"column:id;primaryKey;autoIncrement"`
	ObjCreatedOn *time.Time `gorm:"column:obj_created_on"`
	Name         string     `gorm:"column:name;size:255;not null;uniqueIndex:uq_column_objs_key"`
	TableID      int64      `gorm:"column:table_id;not null;uniqueIndex:uq_column_objs_key"`
}

type RoleObj struct {
	ID           int64      `gorm:"column:id;primaryKey;autoIncrement"`
	ObjCreatedOn *time.Time `gorm:"column:obj_created_on"`
	Name         string     `gorm:"column:name;size:255;not null;uniqueIndex:uq_role_objs_key"`
}

type UserObj struct {
	ID               int64      `gorm:"column:id;primaryKey;autoIncrement"`
	ObjCreatedOn     *time.Time `gorm:"column:obj_created_on"`
	LoginName        string     `gorm:"column:login_name;size:255;not null;uniqueIndex:uq_user_objs_key"`
	LastSuccessLogin *time.Time `gorm:"column:last_success_login"`
	OwnerRoleID      *int64     `gorm:"column:owner_role_id"`
	Email            *string    `gorm:"column:email;size:255"`
	DefaultRoleID    *int64     `gorm:"column:default_role_id"`
	ExtAuthnUID      *string    `gorm:"column:ext_authn_uid;size:255"`
	IsExtAuthnDuo    bool       `gorm:"column:is_ext_authn_duo;not null;default:false"`
}

// GrantsPrivilegeObj is a privilege held by a role on a database, schema or table.
// grant_option is deliberately outside the unique key.
type GrantsPrivilegeObj struct {
	ID           int64      `gorm:"column:id;primaryKey;autoIncrement"`
	ObjCreatedOn *time.Time `gorm:"column:obj_created_on"`
	Privilege    string     `gorm:"column:privilege;size:64;not null;uniqueIndex:uq_grants_privilege_objs_key"`
	GrantedOn    string     `gorm:"column:granted_on;size:16;not null;uniqueIndex:uq_grants_privilege_objs_key"`
	GrantedOnID  int64      `gorm:"column:granted_on_id;not null;uniqueIndex:uq_grants_privilege_objs_key"`
	GrantedTo    string     `gorm:"column:granted_to;size:16;not null;uniqueIndex:uq_grants_privilege_objs_key"`
	GrantedToID  int64      `gorm:"column:granted_to_id;not null;uniqueIndex:uq_grants_privilege_objs_key"`
	GrantOption  bool       `gorm:"column:grant_option;not null;default:false"`
}

type GrantsRoleObj struct {
	ID              int64      `gorm:"column:id;primaryKey;autoIncrement"`
	ObjCreatedOn    *time.Time `gorm:"column:obj_created_on"`
	RoleID          int64      `gorm:"column:role_id;not null;uniqueIndex:uq_grants_role_objs_key"`
	GrantedTo       string     `gorm:"column:granted_to;size:16;not null;uniqueIndex:uq_grants_role_objs_key"`
	GrantedToID     int64      `gorm:"column:granted_to_id;not null;uniqueIndex:uq_grants_role_objs_key"`
	GrantedByRoleID *int64     `gorm:"column:granted_by_role_id"`
}

var models = []struct {
	table string
	model any
}{
	{TableDatabases, &DatabaseObj{}},
	{TableSchemas, &SchemaObj{}},
	{TableTables, &TableObj{}},
	{TableColumns, &ColumnObj{}},
	{TableRoles, &RoleObj{}},
	{TableUsers, &UserObj{}},
	{TablePrivilegeGrants, &GrantsPrivilegeObj{}},
	{TableRoleGrants, &GrantsRoleObj{}},
}

// mysqlTableOptions makes MySQL compare names byte-wise, as the natural-key diff does.
// Warehouse identifiers may differ only by case.
const mysqlTableOptions = "CHARSET=utf8mb4 COLLATE=utf8mb4_bin"

// Migrator returns the handle tables are created through.
func (s *Store) Migrator(ctx context.Context) *gorm.DB {
	db := s.db.WithContext(ctx)
	if db.Dialector.Name() == "mysql" {
		db = db.Set("gorm:table_options", mysqlTableOptions)
	}
	return db
}

// Migrate creates the entity tables and their natural-key indexes. It is safe to run repeatedly.
func (s *Store) Migrate(ctx context.Context) error {
	for _, m := range models {
		if err := s.Migrator(ctx).Table(s.Qualify(m.table)).AutoMigrate(m.model); err != nil {
			return &QueryError{Op: "migrate", Table: s.Qualify(m.table), Err: err}
		}
	}
	return nil
}
