package tags

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"catalog-sync/core/catalog"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service manages tags and their assignments in the catalog database.
type Service struct {
	store  *catalog.Store
	logger *zap.Logger
}

// NewService creates a tag service over the catalog store.
func NewService(store *catalog.Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// TagView is a tag with its allowed values.
type TagView struct {
	Name          string   `json:"name"`
	AllowedValues []string `json:"allowed_values,omitempty"`
}

// SetResult reports which objects received the tag.
type SetResult struct {
	Assigned []ObjectRef `json:"assigned"`
	Skipped  []ObjectRef `json:"skipped,omitempty"`
}

func (s *Service) table(name string) *gorm.DB {
	return s.store.DB().Table(s.store.Qualify(name))
}

// Create records a new tag and its allowed values in one transaction.
func (s *Service) Create(ctx context.Context, name string, values []string) (*TagView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "must not be empty")
	}

	var allowed []string
	seen := map[string]bool{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		allowed = append(allowed, v)
	}

	if _, err := s.find(ctx, name); err == nil {
		return nil, invalid("name", "tag %q already exists", name)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err := s.store.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tag := Tag{Name: name}
		if err := tx.Table(s.store.Qualify(TableTags)).Create(&tag).Error; err != nil {
			return &catalog.QueryError{Op: "insert", Table: s.store.Qualify(TableTags), Err: err}
		}
		if len(allowed) == 0 {
			return nil
		}
		rows := make([]AllowedValue, len(allowed))
		for i, v := range allowed {
			rows[i] = AllowedValue{TagID: tag.ID, Value: v}
		}
		if err := tx.Table(s.store.Qualify(TableAllowedValues)).Create(&rows).Error; err != nil {
			return &catalog.QueryError{Op: "insert", Table: s.store.Qualify(TableAllowedValues), Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Tag created", zap.String("tag", name), zap.Int("allowed_values", len(allowed)))
	return &TagView{Name: name, AllowedValues: allowed}, nil
}

// List returns tags ordered by name. A non-empty nameLike keeps tags whose name contains it.
func (s *Service) List(ctx context.Context, nameLike string) ([]TagView, error) {
	q := s.table(TableTags).WithContext(ctx)
	if nameLike != "" {
		p := catalog.Like("name", nameLike)
		q = q.Where(p.SQL, p.Args...)
	}

	var found []Tag
	if err := q.Order("name").Find(&found).Error; err != nil {
		return nil, &catalog.QueryError{Op: "select", Table: s.store.Qualify(TableTags), Err: err}
	}

	out := make([]TagView, 0, len(found))
	for _, t := range found {
		values, err := s.allowedValues(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, TagView{Name: t.Name, AllowedValues: values})
	}
	return out, nil
}

// Assignments returns the tags assigned to objects of the given type, or of every type.
func (s *Service) Assignments(ctx context.Context, objType ObjectType) ([]AssignmentView, error) {
	q := s.store.DB().WithContext(ctx).
		Table(s.store.Qualify(TableAssignments) + " AS a").
		Select("t.name AS tag, a.value, a.obj_type, a.obj_path").
		Joins("JOIN " + s.store.Qualify(TableTags) + " AS t ON t.id = a.tag_id")
	if objType != "" {
		q = q.Where("a.obj_type = ?", string(objType))
	}

	var out []AssignmentView
	if err := q.Order("a.id").Scan(&out).Error; err != nil {
		return nil, &catalog.QueryError{Op: "select", Table: s.store.Qualify(TableAssignments), Err: err}
	}
	return out, nil
}

// AssignmentView is an assignment with its tag name resolved.
type AssignmentView struct {
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	ObjType string `json:"obj_type"`
	ObjPath string `json:"obj_path"`
}

// Set assigns req.Value of req.Tag to every object in req. Objects that already carry
// that tag value are skipped.
func (s *Service) Set(ctx context.Context, req *AssignmentRequest) (*SetResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tag, err := s.find(ctx, req.Tag)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid("tag", "tag %q not found", req.Tag)
	}
	if err != nil {
		return nil, err
	}

	allowed, err := s.allowedValues(ctx, tag.ID)
	if err != nil {
		return nil, err
	}
	if len(allowed) > 0 && !slices.Contains(allowed, req.Value) {
		return nil, invalid("value", "value %q is not allowed for tag %q (allowed: %s)", req.Value, req.Tag, strings.Join(allowed, ", "))
	}

	res := &SetResult{}
	var pending []Assignment
	for _, obj := range req.Objects {
		var n int64
		err := s.table(TableAssignments).WithContext(ctx).
			Where("tag_id = ? AND value = ? AND obj_type = ? AND obj_path = ?", tag.ID, req.Value, string(obj.Type), obj.Path).
			Count(&n).Error
		if err != nil {
			return nil, &catalog.QueryError{Op: "select", Table: s.store.Qualify(TableAssignments), Err: err}
		}
		if n > 0 || containsAssignment(pending, obj) {
			s.logger.Info("Tag already assigned, skipping",
				zap.String("tag", req.Tag), zap.String("type", string(obj.Type)), zap.String("path", obj.Path))
			res.Skipped = append(res.Skipped, obj)
			continue
		}
		pending = append(pending, Assignment{ObjType: string(obj.Type), ObjPath: obj.Path, TagID: tag.ID, Value: req.Value})
		res.Assigned = append(res.Assigned, obj)
	}

	if len(pending) > 0 {
		if err := s.table(TableAssignments).WithContext(ctx).Create(&pending).Error; err != nil {
			return nil, &catalog.QueryError{Op: "insert", Table: s.store.Qualify(TableAssignments), Err: err}
		}
	}
	s.logger.Info("Tag set", zap.String("tag", req.Tag), zap.Int("assigned", len(res.Assigned)), zap.Int("skipped", len(res.Skipped)))
	return res, nil
}

func (s *Service) find(ctx context.Context, name string) (*Tag, error) {
	var t Tag
	err := s.table(TableTags).WithContext(ctx).Where("name = ?", name).Take(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, &catalog.QueryError{Op: "select", Table: s.store.Qualify(TableTags), Err: err}
	}
	return &t, nil
}

func (s *Service) allowedValues(ctx context.Context, tagID int64) ([]string, error) {
	var values []string
	err := s.table(TableAllowedValues).WithContext(ctx).
		Where("tag_id = ?", tagID).
		Order("id").
		Pluck("value", &values).Error
	if err != nil {
		return nil, &catalog.QueryError{Op: "select", Table: s.store.Qualify(TableAllowedValues), Err: fmt.Errorf("tag %d: %w", tagID, err)}
	}
	return values, nil
}

func containsAssignment(pending []Assignment, obj ObjectRef) bool {
	return slices.ContainsFunc(pending, func(a Assignment) bool {
		return a.ObjType == string(obj.Type) && a.ObjPath == obj.Path
	})
}
