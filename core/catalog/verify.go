package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"catalog-sync/core/database"
)

// Verify checks that every table backing the given kinds exists with the columns the engine writes.
// It is run before a scan so that a missing init surfaces before any remote work.
func (s *Store) Verify(ctx context.Context, kinds []Kind) error {
	problems, err := s.Problems(ctx, kinds)
	if err != nil {
		return err
	}
	if len(problems) > 0 {
		return &QueryError{
			Op:    "verify",
			Table: s.namespace,
			Err:   fmt.Errorf("%s (run init first)", strings.Join(problems, "; ")),
		}
	}
	return nil
}

// Problems lists every missing table and missing column for the given kinds.
func (s *Store) Problems(ctx context.Context, kinds []Kind) ([]string, error) {
	var problems []string
	for _, k := range kinds {
		table := TableFor(k)
		cols, err := database.GetTableColumns(s.db.WithContext(ctx), s.Qualify(table))
		if err != nil {
			return nil, &QueryError{Op: "inspect", Table: s.Qualify(table), Err: err}
		}
		if len(cols) == 0 {
			problems = append(problems, fmt.Sprintf("table %s does not exist", s.Qualify(table)))
			continue
		}

		have := make(map[string]bool, len(cols))
		for _, c := range cols {
			have[c.Field] = true
		}
		var missing []string
		for _, want := range requiredColumns[k] {
			if !have[want] {
				missing = append(missing, want)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			problems = append(problems, fmt.Sprintf("table %s is missing columns: %s", s.Qualify(table), strings.Join(missing, ", ")))
		}
	}
	return problems, nil
}

var requiredColumns = map[Kind][]string{
	KindDatabase:       {ColID, ColObjCreatedOn, ColName},
	KindSchema:         {ColID, ColObjCreatedOn, ColName, ColDatabaseID},
	KindTable:          {ColID, ColObjCreatedOn, ColName, ColSchemaID},
	KindColumn:         {ColID, ColObjCreatedOn, ColName, ColTableID},
	KindRole:           {ColID, ColObjCreatedOn, ColName},
	KindUser:           {ColID, ColObjCreatedOn, ColLoginName, ColLastSuccessLogin, ColOwnerRoleID, ColEmail, ColDefaultRoleID, ColExtAuthnUID, ColIsExtAuthnDuo},
	KindPrivilegeGrant: {ColID, ColObjCreatedOn, ColPrivilege, ColGrantedOn, ColGrantedOnID, ColGrantedTo, ColGrantedToID, ColGrantOption},
	KindRoleGrant:      {ColID, ColObjCreatedOn, ColRoleID, ColGrantedTo, ColGrantedToID, ColGrantedByRoleID},
}
