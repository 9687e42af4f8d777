package checks

import (
	"context"
	"fmt"

	"catalog-sync/core/catalog"
)

// Dangling is a catalog row whose reference points at no row.
type Dangling struct {
	Kind   catalog.Kind `json:"kind"`
	ID     int64        `json:"id"`
	Column string       `json:"column"`
	Target catalog.Kind `json:"target"`
	RefID  int64        `json:"ref_id"`
}

// reference describes one identity column. Polymorphic references name their
// discriminator column in by and map its values to kinds.
type reference struct {
	kind    catalog.Kind
	column  string
	target  catalog.Kind
	by      string
	targets map[string]catalog.Kind
}

var references = []reference{
	{kind: catalog.KindSchema, column: catalog.ColDatabaseID, target: catalog.KindDatabase},
	{kind: catalog.KindTable, column: catalog.ColSchemaID, target: catalog.KindSchema},
	{kind: catalog.KindColumn, column: catalog.ColTableID, target: catalog.KindTable},
	{kind: catalog.KindUser, column: catalog.ColOwnerRoleID, target: catalog.KindRole},
	{kind: catalog.KindUser, column: catalog.ColDefaultRoleID, target: catalog.KindRole},
	{kind: catalog.KindPrivilegeGrant, column: catalog.ColGrantedOnID, by: catalog.ColGrantedOn, targets: map[string]catalog.Kind{
		catalog.TargetDatabase: catalog.KindDatabase,
		catalog.TargetSchema:   catalog.KindSchema,
		catalog.TargetTable:    catalog.KindTable,
	}},
	{kind: catalog.KindPrivilegeGrant, column: catalog.ColGrantedToID, target: catalog.KindRole},
	{kind: catalog.KindRoleGrant, column: catalog.ColRoleID, target: catalog.KindRole},
	{kind: catalog.KindRoleGrant, column: catalog.ColGrantedToID, by: catalog.ColGrantedTo, targets: map[string]catalog.Kind{
		catalog.TargetRole: catalog.KindRole,
		catalog.TargetUser: catalog.KindUser,
	}},
	{kind: catalog.KindRoleGrant, column: catalog.ColGrantedByRoleID, target: catalog.KindRole},
}

// CheckReferences returns every identity reference that resolves to no catalog row.
// NULL references are not dangling.
func CheckReferences(ctx context.Context, store *catalog.Store) ([]Dangling, error) {
	ids := make(map[catalog.Kind]map[int64]bool, len(catalog.Kinds))
	for _, k := range catalog.Kinds {
		rows, err := store.Select(ctx, catalog.TableFor(k), []string{catalog.ColID}, nil)
		if err != nil {
			return nil, err
		}
		set := make(map[int64]bool, len(rows))
		for _, r := range rows {
			set[r.ID()] = true
		}
		ids[k] = set
	}

	var out []Dangling
	for _, ref := range references {
		cols := []string{catalog.ColID, ref.column}
		if ref.by != "" {
			cols = append(cols, ref.by)
		}
		rows, err := store.Select(ctx, catalog.TableFor(ref.kind), cols, nil)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			refID := r.Int64(ref.column)
			if refID == 0 {
				continue
			}
			target := ref.target
			if ref.by != "" {
				t, ok := ref.targets[r.String(ref.by)]
				if !ok {
					return nil, fmt.Errorf("%s %d has unknown %s %q", ref.kind, r.ID(), ref.by, r.String(ref.by))
				}
				target = t
			}
			if !ids[target][refID] {
				out = append(out, Dangling{Kind: ref.kind, ID: r.ID(), Column: ref.column, Target: target, RefID: refID})
			}
		}
	}
	return out, nil
}
