package catalog

import (
	"time"

	"catalog-sync/core/utils"
)

// Row is one record keyed by column name. Catalog rows use catalog column names;
// remote descriptor records use the canonical descriptor field names.
type Row map[string]any

// ID returns the engine-assigned identity of a catalog row.
func (r Row) ID() int64 {
	return utils.ToInt64(r[ColID])
}

// Int64 returns an integer field, 0 when absent or NULL.
func (r Row) Int64(col string) int64 {
	return utils.ToInt64(r[col])
}

// String returns a text field, "" when absent or NULL.
func (r Row) String(col string) string {
	return utils.ToString(r[col])
}

// Bool returns a boolean field.
func (r Row) Bool(col string) bool {
	return utils.ToBool(r[col])
}

// Time returns a timestamp field, nil when absent or NULL.
func (r Row) Time(col string) *time.Time {
	return utils.ToTime(r[col])
}

// Clone returns a shallow copy.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Catalog column names.
const (
	ColID               = "id"
	ColObjCreatedOn     = "obj_created_on"
	ColName             = "name"
	ColDatabaseID       = "database_id"
	ColSchemaID         = "schema_id"
	ColTableID          = "table_id"
	ColLoginName        = "login_name"
	ColLastSuccessLogin = "last_success_login"
	ColEmail            = "email"
	ColOwnerRoleID      = "owner_role_id"
	ColDefaultRoleID    = "default_role_id"
	ColExtAuthnUID      = "ext_authn_uid"
	ColIsExtAuthnDuo    = "is_ext_authn_duo"
	ColPrivilege        = "privilege"
	ColGrantedOn        = "granted_on"
	ColGrantedOnID      = "granted_on_id"
	ColGrantedTo        = "granted_to"
	ColGrantedToID      = "granted_to_id"
	ColGrantOption      = "grant_option"
	ColRoleID           = "role_id"
	ColGrantedByRoleID  = "granted_by_role_id"
)

// Denormalized display fields. They are computed in memory and never persisted.
const (
	ColDatabaseName    = "database_name"
	ColSchemaName      = "schema_name"
	ColTableName       = "table_name"
	ColOwnerRoleName   = "owner_role_name"
	ColDefaultRoleName = "default_role_name"
	ColGrantedOnName   = "granted_on_name"
	ColGrantedToName   = "granted_to_name"
	ColRole            = "role"
	ColGranteeName     = "grantee_name"
	ColGrantedBy       = "granted_by"
)
