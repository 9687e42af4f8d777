package tags

import (
	"context"

	"catalog-sync/core/catalog"
)

const (
	TableTags          = "tags"
	TableAllowedValues = "tags_allowed_values"
	TableAssignments   = "tags_assignments"
)

// Tag is a named label. A tag without allowed values accepts any value.
type Tag struct {
	ID   int64  `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	Name string `gorm:"column:name;size:255;not null;uniqueIndex:uq_tags_name" json:"name"`
}

// AllowedValue restricts the values a tag may be assigned.
type AllowedValue struct {
	ID    int64  `gorm:"column:id;primaryKey;autoIncrement"`
	TagID int64  `gorm:"column:tag_id;not null;index:ix_tags_allowed_values_tag"`
	Value string `gorm:"column:value;size:500;not null"`
}

// Assignment attaches a tag value to a warehouse object, addressed by type and path.
type Assignment struct {
	ID      int64  `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	ObjType string `gorm:"column:obj_type;size:255;not null;index:ix_tags_assignments_obj" json:"obj_type"`
	ObjPath string `gorm:"column:obj_path;size:1024;not null;index:ix_tags_assignments_obj" json:"obj_path"`
	TagID   int64  `gorm:"column:tag_id;not null" json:"-"`
	Value   string `gorm:"column:value;size:500;not null" json:"value"`
}

// Migrate creates the tag tables next to the catalog tables.
func Migrate(ctx context.Context, store *catalog.Store) error {
	tables := []struct {
		name  string
		model any
	}{
		{TableTags, &Tag{}},
		{TableAllowedValues, &AllowedValue{}},
		{TableAssignments, &Assignment{}},
	}
	for _, t := range tables {
		if err := store.Migrator(ctx).Table(store.Qualify(t.name)).AutoMigrate(t.model); err != nil {
			return &catalog.QueryError{Op: "migrate", Table: store.Qualify(t.name), Err: err}
		}
	}
	return nil
}
