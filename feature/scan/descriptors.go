package scan

import (
	"fmt"
	"strings"

	"catalog-sync/core/catalog"
	"catalog-sync/core/exclusion"
	"catalog-sync/core/reconcile"
	"catalog-sync/core/utils"
	"catalog-sync/core/warehouse"
)

// Descriptors returns the descriptor table of every mirrored kind, in dependency order.
func Descriptors() []reconcile.Descriptor {
	return []reconcile.Descriptor{
		databaseDescriptor(),
		schemaDescriptor(),
		tableDescriptor(),
		columnDescriptor(),
		roleDescriptor(),
		userDescriptor(),
		privilegeGrantDescriptor(),
		roleGrantDescriptor(),
	}
}

func databaseDescriptor() reconcile.Descriptor {
	return reconcile.Descriptor{
		Kind:  catalog.KindDatabase,
		Table: catalog.TableDatabases,
		Exclude: func(st *reconcile.State, _ reconcile.Scope, rec catalog.Row) bool {
			return st.Policy().Excludes(exclusion.Databases, rec.String(warehouse.FieldName))
		},
		Normalize: func(_ *reconcile.State, _ reconcile.Scope, rec catalog.Row) (catalog.Row, error) {
			return catalog.Row{
				catalog.ColObjCreatedOn: rec[warehouse.FieldCreatedOn],
				catalog.ColName:         rec.String(warehouse.FieldName),
			}, nil
		},
		Key: func(r catalog.Row) string {
			return r.String(catalog.ColName)
		},
		Path: func(_ *reconcile.State, r catalog.Row) []string {
			return []string{r.String(catalog.ColName)}
		},
		InsertColumns:  []string{catalog.ColObjCreatedOn, catalog.ColName},
		DisplayColumns: []string{catalog.ColName, catalog.ColObjCreatedOn},
	}
}

func schemaDescriptor() reconcile.Descriptor {
	return reconcile.Descriptor{
		Kind:  catalog.KindSchema,
		Table: catalog.TableSchemas,
		Scope: catalog.KindDatabase,
		SkipScope: func(st *reconcile.State, path []string) bool {
			return excludedPath(st.Policy(), path)
		},
		Exclude: func(st *reconcile.State, _ reconcile.Scope, rec catalog.Row) bool {
			return st.Policy().Excludes(exclusion.Schemas, rec.String(warehouse.FieldName))
		},
		Normalize: func(_ *reconcile.State, scope reconcile.Scope, rec catalog.Row) (catalog.Row, error) {
			return catalog.Row{
				catalog.ColObjCreatedOn: rec[warehouse.FieldCreatedOn],
				catalog.ColName:         rec.String(warehouse.FieldName),
				catalog.ColDatabaseID:   scope.Parent.ID(),
				catalog.ColDatabaseName: scope.Path[0],
			}, nil
		},
		Denormalize: func(st *reconcile.State, r catalog.Row) error {
			db, err := parentRow(st, catalog.KindDatabase, r.Int64(catalog.ColDatabaseID))
			if err != nil {
				return err
			}
			r[catalog.ColDatabaseName] = db.String(catalog.ColName)
			return nil
		},
		Key: func(r catalog.Row) string {
			return naturalKey(r.String(catalog.ColName), r.Int64(catalog.ColDatabaseID))
		},
		Path: func(_ *reconcile.State, r catalog.Row) []string {
			return []string{r.String(catalog.ColDatabaseName), r.String(catalog.ColName)}
		},
		InsertColumns:  []string{catalog.ColObjCreatedOn, catalog.ColName, catalog.ColDatabaseID},
		DisplayColumns: []string{catalog.ColDatabaseName, catalog.ColName, catalog.ColObjCreatedOn},
	}
}

func tableDescriptor() reconcile.Descriptor {
	return reconcile.Descriptor{
		Kind:  catalog.KindTable,
		Table: catalog.TableTables,
		Scope: catalog.KindSchema,
		SkipScope: func(st *reconcile.State, path []string) bool {
			return excludedPath(st.Policy(), path)
		},
		Normalize: func(_ *reconcile.State, scope reconcile.Scope, rec catalog.Row) (catalog.Row, error) {
			return catalog.Row{
				catalog.ColObjCreatedOn: rec[warehouse.FieldCreatedOn],
				catalog.ColName:         rec.String(warehouse.FieldName),
				catalog.ColSchemaID:     scope.Parent.ID(),
				catalog.ColDatabaseName: scope.Path[0],
				catalog.ColSchemaName:   scope.Path[1],
			}, nil
		},
		Denormalize: func(st *reconcile.State, r catalog.Row) error {
			schema, err := parentRow(st, catalog.KindSchema, r.Int64(catalog.ColSchemaID))
			if err != nil {
				return err
			}
			r[catalog.ColDatabaseName] = schema.String(catalog.ColDatabaseName)
			r[catalog.ColSchemaName] = schema.String(catalog.ColName)
			return nil
		},
		Key: func(r catalog.Row) string {
			return naturalKey(r.String(catalog.ColName), r.Int64(catalog.ColSchemaID))
		},
		Path: func(_ *reconcile.State, r catalog.Row) []string {
			return []string{r.String(catalog.ColDatabaseName), r.String(catalog.ColSchemaName), r.String(catalog.ColName)}
		},
		InsertColumns:  []string{catalog.ColObjCreatedOn, catalog.ColName, catalog.ColSchemaID},
		DisplayColumns: []string{catalog.ColDatabaseName, catalog.ColSchemaName, catalog.ColName, catalog.ColObjCreatedOn},
	}
}

func columnDescriptor() reconcile.Descriptor {
	return reconcile.Descriptor{
		Kind:  catalog.KindColumn,
		Table: catalog.TableColumns,
		Scope: catalog.KindTable,
		SkipScope: func(st *reconcile.State, path []string) bool {
			return excludedPath(st.Policy(), path)
		},
		Normalize: func(_ *reconcile.State, scope reconcile.Scope, rec catalog.Row) (catalog.Row, error) {
			return catalog.Row{
				catalog.ColObjCreatedOn: rec[warehouse.FieldCreatedOn],
				catalog.ColName:         rec.String(warehouse.FieldName),
				catalog.ColTableID:      scope.Parent.ID(),
				catalog.ColDatabaseName: scope.Path[0],
				catalog.ColSchemaName:   scope.Path[1],
				catalog.ColTableName:    scope.Path[2],
			}, nil
		},
		Denormalize: func(st *reconcile.State, r catalog.Row) error {
			table, err := parentRow(st, catalog.KindTable, r.Int64(catalog.ColTableID))
			if err != nil {
				return err
			}
			r[catalog.ColDatabaseName] = table.String(catalog.ColDatabaseName)
			r[catalog.ColSchemaName] = table.String(catalog.ColSchemaName)
			r[catalog.ColTableName] = table.String(catalog.ColName)
			return nil
		},
		Key: func(r catalog.Row) string {
			return naturalKey(r.String(catalog.ColName), r.Int64(catalog.ColTableID))
		},
		Path: func(_ *reconcile.State, r catalog.Row) []string {
			return []string{
				r.String(catalog.ColDatabaseName),
				r.String(catalog.ColSchemaName),
				r.String(catalog.ColTableName),
				r.String(catalog.ColName),
			}
		},
		InsertColumns:  []string{catalog.ColObjCreatedOn, catalog.ColName, catalog.ColTableID},
		DisplayColumns: []string{catalog.ColDatabaseName, catalog.ColSchemaName, catalog.ColTableName, catalog.ColName},
	}
}

func roleDescriptor() reconcile.Descriptor {
	return reconcile.Descriptor{
		Kind:  catalog.KindRole,
		Table: catalog.TableRoles,
		Exclude: func(st *reconcile.State, _ reconcile.Scope, rec catalog.Row) bool {
			return st.Policy().Excludes(exclusion.Roles, rec.String(warehouse.FieldName))
		},
		Normalize: func(_ *reconcile.State, _ reconcile.Scope, rec catalog.Row) (catalog.Row, error) {
			return catalog.Row{
				catalog.ColObjCreatedOn: rec[warehouse.FieldCreatedOn],
				catalog.ColName:         rec.String(warehouse.FieldName),
			}, nil
		},
		Key: func(r catalog.Row) string {
			return r.String(catalog.ColName)
		},
		Path: func(_ *reconcile.State, r catalog.Row) []string {
			return []string{r.String(catalog.ColName)}
		},
		InsertColumns:  []string{catalog.ColObjCreatedOn, catalog.ColName},
		DisplayColumns: []string{catalog.ColName, catalog.ColObjCreatedOn},
	}
}

func userDescriptor() reconcile.Descriptor {
	return reconcile.Descriptor{
		Kind:  catalog.KindUser,
		Table: catalog.TableUsers,
		Needs: []catalog.Kind{catalog.KindRole},
		Normalize: func(st *reconcile.State, _ reconcile.Scope, rec catalog.Row) (catalog.Row, error) {
			owner := rec.String(warehouse.FieldOwner)
			ownerID, err := roleRef(st, owner)
			if err != nil {
				return nil, err
			}
			defaultRole := rec.String(warehouse.FieldDefaultRole)
			defaultID, err := roleRef(st, defaultRole)
			if err != nil {
				return nil, err
			}
			return catalog.Row{
				catalog.ColObjCreatedOn:     rec[warehouse.FieldCreatedOn],
				catalog.ColLoginName:        rec.String(warehouse.FieldLoginName),
				catalog.ColLastSuccessLogin: rec[warehouse.FieldLastSuccessLogin],
				catalog.ColOwnerRoleID:      ownerID,
				catalog.ColEmail:            utils.ToNullableString(rec[warehouse.FieldEmail]),
				catalog.ColDefaultRoleID:    defaultID,
				catalog.ColExtAuthnUID:      utils.ToNullableString(rec[warehouse.FieldExtAuthnUID]),
				catalog.ColIsExtAuthnDuo:    rec.Bool(warehouse.FieldExtAuthnDuo),
				catalog.ColOwnerRoleName:    nameIfSet(ownerID, owner),
				catalog.ColDefaultRoleName:  nameIfSet(defaultID, defaultRole),
			}, nil
		},
		Denormalize: func(st *reconcile.State, r catalog.Row) error {
			owner, err := optionalRoleName(st, r.Int64(catalog.ColOwnerRoleID))
			if err != nil {
				return err
			}
			def, err := optionalRoleName(st, r.Int64(catalog.ColDefaultRoleID))
			if err != nil {
				return err
			}
			r[catalog.ColOwnerRoleName] = owner
			r[catalog.ColDefaultRoleName] = def
			return nil
		},
		Key: func(r catalog.Row) string {
			return r.String(catalog.ColLoginName)
		},
		Path: func(_ *reconcile.State, r catalog.Row) []string {
			return []string{r.String(catalog.ColLoginName)}
		},
		InsertColumns: []string{
			catalog.ColObjCreatedOn,
			catalog.ColLoginName,
			catalog.ColLastSuccessLogin,
			catalog.ColOwnerRoleID,
			catalog.ColEmail,
			catalog.ColDefaultRoleID,
			catalog.ColExtAuthnUID,
			catalog.ColIsExtAuthnDuo,
		},
		DisplayColumns: []string{
			catalog.ColLoginName,
			catalog.ColEmail,
			catalog.ColOwnerRoleName,
			catalog.ColDefaultRoleName,
			catalog.ColIsExtAuthnDuo,
			catalog.ColLastSuccessLogin,
		},
	}
}

// grantTargets maps the object types privilege grants are mirrored for to their kind.
var grantTargets = map[string]catalog.Kind{
	catalog.TargetDatabase: catalog.KindDatabase,
	catalog.TargetSchema:   catalog.KindSchema,
	catalog.TargetTable:    catalog.KindTable,
}

func privilegeGrantDescriptor() reconcile.Descriptor {
	return reconcile.Descriptor{
		Kind:  catalog.KindPrivilegeGrant,
		Table: catalog.TablePrivilegeGrants,
		Scope: catalog.KindRole,
		Needs: []catalog.Kind{catalog.KindDatabase, catalog.KindSchema, catalog.KindTable},
		SkipScope: func(st *reconcile.State, path []string) bool {
			return st.Policy().Excludes(exclusion.Roles, path[0])
		},
		Exclude: func(st *reconcile.State, _ reconcile.Scope, rec catalog.Row) bool {
			on := rec.String(warehouse.FieldGrantedOn)
			if _, ok := grantTargets[on]; !ok {
				st.Note("privilege grants on %s objects were skipped", on)
				return true
			}
			return excludedPath(st.Policy(), warehouse.SplitPath(rec.String(warehouse.FieldName)))
		},
		Normalize: func(st *reconcile.State, scope reconcile.Scope, rec catalog.Row) (catalog.Row, error) {
			on := rec.String(warehouse.FieldGrantedOn)
			kind := grantTargets[on]
			name := rec.String(warehouse.FieldName)
			path := warehouse.SplitPath(name)

			targetID, ok := st.Get(kind).Lookup(path...)
			if !ok {
				return nil, &reconcile.UnresolvedError{Kind: kind, Name: name}
			}
			return catalog.Row{
				catalog.ColObjCreatedOn:  rec[warehouse.FieldCreatedOn],
				catalog.ColPrivilege:     rec.String(warehouse.FieldPrivilege),
				catalog.ColGrantedOn:     on,
				catalog.ColGrantedOnID:   targetID,
				catalog.ColGrantedTo:     catalog.TargetRole,
				catalog.ColGrantedToID:   scope.Parent.ID(),
				catalog.ColGrantOption:   rec.Bool(warehouse.FieldGrantOption),
				catalog.ColGrantedOnName: warehouse.JoinPath(path...),
				catalog.ColGrantedToName: scope.Path[0],
			}, nil
		},
		Denormalize: func(st *reconcile.State, r catalog.Row) error {
			on := r.String(catalog.ColGrantedOn)
			kind, ok := grantTargets[on]
			if !ok {
				return fmt.Errorf("grant %d is on unsupported object type %s", r.ID(), on)
			}
			target, err := parentRow(st, kind, r.Int64(catalog.ColGrantedOnID))
			if err != nil {
				return err
			}
			role, err := parentRow(st, catalog.KindRole, r.Int64(catalog.ColGrantedToID))
			if err != nil {
				return err
			}
			r[catalog.ColGrantedOnName] = displayPath(kind, target)
			r[catalog.ColGrantedToName] = role.String(catalog.ColName)
			return nil
		},
		Key: func(r catalog.Row) string {
			return naturalKey(
				r.String(catalog.ColPrivilege),
				r.String(catalog.ColGrantedOn),
				r.Int64(catalog.ColGrantedOnID),
				r.String(catalog.ColGrantedTo),
				r.Int64(catalog.ColGrantedToID),
			)
		},
		InsertColumns: []string{
			catalog.ColObjCreatedOn,
			catalog.ColPrivilege,
			catalog.ColGrantedOn,
			catalog.ColGrantedOnID,
			catalog.ColGrantedTo,
			catalog.ColGrantedToID,
			catalog.ColGrantOption,
		},
		DisplayColumns: []string{
			catalog.ColGrantedToName,
			catalog.ColPrivilege,
			catalog.ColGrantedOn,
			catalog.ColGrantedOnName,
			catalog.ColGrantOption,
		},
	}
}

func roleGrantDescriptor() reconcile.Descriptor {
	return reconcile.Descriptor{
		Kind:  catalog.KindRoleGrant,
		Table: catalog.TableRoleGrants,
		Scope: catalog.KindRole,
		Needs: []catalog.Kind{catalog.KindUser},
		SkipScope: func(st *reconcile.State, path []string) bool {
			return st.Policy().Excludes(exclusion.Roles, path[0])
		},
		Exclude: func(st *reconcile.State, _ reconcile.Scope, rec catalog.Row) bool {
			to := rec.String(warehouse.FieldGrantedTo)
			switch to {
			case catalog.TargetRole:
				return st.Policy().Excludes(exclusion.Roles, rec.String(warehouse.FieldGranteeName))
			case catalog.TargetUser:
				return false
			default:
				st.Note("role grants to %s grantees were skipped", to)
				return true
			}
		},
		Normalize: func(st *reconcile.State, scope reconcile.Scope, rec catalog.Row) (catalog.Row, error) {
			to := rec.String(warehouse.FieldGrantedTo)
			grantee := rec.String(warehouse.FieldGranteeName)
			granteeID, err := granteeRef(st, to, grantee)
			if err != nil {
				return nil, err
			}
			grantedBy := rec.String(warehouse.FieldGrantedBy)
			grantedByID, err := roleRef(st, grantedBy)
			if err != nil {
				return nil, err
			}
			return catalog.Row{
				catalog.ColObjCreatedOn:    rec[warehouse.FieldCreatedOn],
				catalog.ColRoleID:          scope.Parent.ID(),
				catalog.ColGrantedTo:       to,
				catalog.ColGrantedToID:     granteeID,
				catalog.ColGrantedByRoleID: grantedByID,
				catalog.ColRole:            scope.Path[0],
				catalog.ColGranteeName:     grantee,
				catalog.ColGrantedBy:       nameIfSet(grantedByID, grantedBy),
			}, nil
		},
		Denormalize: func(st *reconcile.State, r catalog.Row) error {
			role, err := parentRow(st, catalog.KindRole, r.Int64(catalog.ColRoleID))
			if err != nil {
				return err
			}
			granteeKind := catalog.KindRole
			nameCol := catalog.ColName
			if r.String(catalog.ColGrantedTo) == catalog.TargetUser {
				granteeKind = catalog.KindUser
				nameCol = catalog.ColLoginName
			}
			grantee, err := parentRow(st, granteeKind, r.Int64(catalog.ColGrantedToID))
			if err != nil {
				return err
			}
			by, err := optionalRoleName(st, r.Int64(catalog.ColGrantedByRoleID))
			if err != nil {
				return err
			}
			r[catalog.ColRole] = role.String(catalog.ColName)
			r[catalog.ColGranteeName] = grantee.String(nameCol)
			r[catalog.ColGrantedBy] = by
			return nil
		},
		Key: func(r catalog.Row) string {
			return naturalKey(r.Int64(catalog.ColRoleID), r.String(catalog.ColGrantedTo), r.Int64(catalog.ColGrantedToID))
		},
		InsertColumns: []string{
			catalog.ColObjCreatedOn,
			catalog.ColRoleID,
			catalog.ColGrantedTo,
			catalog.ColGrantedToID,
			catalog.ColGrantedByRoleID,
		},
		DisplayColumns: []string{
			catalog.ColRole,
			catalog.ColGrantedTo,
			catalog.ColGranteeName,
			catalog.ColGrantedBy,
		},
	}
}

// naturalKey joins key parts with a separator that cannot appear in identifiers.
func naturalKey(parts ...any) string {
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = fmt.Sprint(p)
	}
	return strings.Join(s, "\x1f")
}

// excludedPath reports whether a database or schema along path is excluded.
// The first segment names a database, the second a schema.
func excludedPath(p exclusion.Policy, path []string) bool {
	if len(path) > 0 && p.Excludes(exclusion.Databases, path[0]) {
		return true
	}
	return len(path) > 1 && p.Excludes(exclusion.Schemas, path[1])
}

func parentRow(st *reconcile.State, kind catalog.Kind, id int64) (catalog.Row, error) {
	row, ok := st.Get(kind).Row(id)
	if !ok {
		return nil, fmt.Errorf("%s %d is referenced but not in the catalog", kind, id)
	}
	return row, nil
}

// roleRef resolves an optional role reference. Empty and excluded roles resolve to NULL.
func roleRef(st *reconcile.State, name string) (any, error) {
	if name == "" || st.Policy().Excludes(exclusion.Roles, name) {
		return nil, nil
	}
	id, ok := st.Get(catalog.KindRole).Lookup(name)
	if !ok {
		return nil, &reconcile.UnresolvedError{Kind: catalog.KindRole, Name: name}
	}
	return id, nil
}

func granteeRef(st *reconcile.State, to, name string) (int64, error) {
	kind := catalog.KindRole
	if to == catalog.TargetUser {
		kind = catalog.KindUser
	}
	res := st.Get(kind)
	if id, ok := res.Lookup(name); ok {
		return id, nil
	}
	// Snowflake reports grantees by user name, which usually equals the upper-cased login name.
	if kind == catalog.KindUser {
		for _, row := range res.Rows {
			if strings.EqualFold(row.String(catalog.ColLoginName), name) {
				return row.ID(), nil
			}
		}
	}
	return 0, &reconcile.UnresolvedError{Kind: kind, Name: name}
}

func optionalRoleName(st *reconcile.State, id int64) (string, error) {
	if id == 0 {
		return "", nil
	}
	row, err := parentRow(st, catalog.KindRole, id)
	if err != nil {
		return "", err
	}
	return row.String(catalog.ColName), nil
}

func nameIfSet(id any, name string) string {
	if id == nil {
		return ""
	}
	return name
}

func displayPath(kind catalog.Kind, row catalog.Row) string {
	switch kind {
	case catalog.KindSchema:
		return warehouse.JoinPath(row.String(catalog.ColDatabaseName), row.String(catalog.ColName))
	case catalog.KindTable:
		return warehouse.JoinPath(row.String(catalog.ColDatabaseName), row.String(catalog.ColSchemaName), row.String(catalog.ColName))
	default:
		return row.String(catalog.ColName)
	}
}
