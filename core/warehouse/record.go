package warehouse

import (
	"strings"

	"catalog-sync/core/catalog"
	"catalog-sync/core/utils"
)

// Canonical descriptor fields. Both dialects produce records keyed by these names.
const (
	FieldName             = "name"
	FieldCreatedOn        = "created_on"
	FieldLoginName        = "login_name"
	FieldLastSuccessLogin = "last_success_login"
	FieldEmail            = "email"
	FieldOwner            = "owner"
	FieldDefaultRole      = "default_role"
	FieldExtAuthnUID      = "ext_authn_uid"
	FieldExtAuthnDuo      = "ext_authn_duo"
	FieldPrivilege        = "privilege"
	FieldGrantedOn        = "granted_on"
	FieldGrantOption      = "grant_option"
	FieldRole             = "role"
	FieldGrantedTo        = "granted_to"
	FieldGranteeName      = "grantee_name"
	FieldGrantedBy        = "granted_by"
)

// toRecord projects a raw result row onto the canonical fields of kind.
// Raw column names are expected in lower case.
func toRecord(kind catalog.Kind, raw map[string]any) catalog.Row {
	rec := catalog.Row{FieldCreatedOn: nullableTime(raw[FieldCreatedOn])}

	switch kind {
	case catalog.KindColumn:
		name := raw["column_name"]
		if name == nil {
			name = raw[FieldName]
		}
		rec[FieldName] = utils.ToString(name)
	case catalog.KindUser:
		rec[FieldLoginName] = utils.ToString(raw[FieldLoginName])
		rec[FieldLastSuccessLogin] = nullableTime(raw[FieldLastSuccessLogin])
		rec[FieldEmail] = utils.ToString(raw[FieldEmail])
		rec[FieldOwner] = utils.ToString(raw[FieldOwner])
		rec[FieldDefaultRole] = utils.ToString(raw[FieldDefaultRole])
		rec[FieldExtAuthnUID] = utils.ToString(raw[FieldExtAuthnUID])
		rec[FieldExtAuthnDuo] = utils.ToBool(raw[FieldExtAuthnDuo])
	case catalog.KindPrivilegeGrant:
		rec[FieldPrivilege] = utils.ToString(raw[FieldPrivilege])
		rec[FieldGrantedOn] = strings.ToUpper(utils.ToString(raw[FieldGrantedOn]))
		rec[FieldName] = utils.ToString(raw[FieldName])
		rec[FieldGrantOption] = utils.ToBool(raw[FieldGrantOption])
	case catalog.KindRoleGrant:
		rec[FieldRole] = utils.ToString(raw[FieldRole])
		rec[FieldGrantedTo] = strings.ToUpper(utils.ToString(raw[FieldGrantedTo]))
		rec[FieldGranteeName] = utils.ToString(raw[FieldGranteeName])
		rec[FieldGrantedBy] = utils.ToString(raw[FieldGrantedBy])
	default:
		rec[FieldName] = utils.ToString(raw[FieldName])
	}
	return rec
}

func nullableTime(v any) any {
	if t := utils.ToTime(v); t != nil {
		return *t
	}
	return nil
}

// SplitPath splits a dotted object name such as DB.SCH."My Table" into its parts.
// Double-quoted segments may contain dots; quotes are removed and doubled quotes unescaped.
func SplitPath(name string) []string {
	var parts []string
	var cur strings.Builder
	quoted := false

	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '"' && quoted && i+1 < len(name) && name[i+1] == '"':
			cur.WriteByte('"')
			i++
		case c == '"':
			quoted = !quoted
		case c == '.' && !quoted:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(parts, cur.String())
}

// JoinPath is the inverse of SplitPath for names that need no quoting.
func JoinPath(parts ...string) string {
	return strings.Join(parts, ".")
}
