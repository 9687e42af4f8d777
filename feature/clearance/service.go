package clearance

import (
	"context"
	"strings"

	"catalog-sync/core/warehouse"

	"go.uber.org/zap"
)

// Requirement is a privilege the scanning user needs on some object type.
type Requirement struct {
	Privilege string `json:"privilege"`
	GrantedOn string `json:"granted_on"`
}

// requiredGrants are the privileges a scan needs. Callers get copies from Required.
var requiredGrants = []Requirement{
	{Privilege: "CREATE DATABASE", GrantedOn: "ACCOUNT"},
	{Privilege: "MANAGE GRANTS", GrantedOn: "ACCOUNT"},
	{Privilege: "USAGE", GrantedOn: "WAREHOUSE"},
}

// Required returns the privileges the scanning user must hold through one of its roles.
func Required() []Requirement {
	return append([]Requirement(nil), requiredGrants...)
}

// Warehouse is the part of the warehouse session clearance checks need.
type Warehouse interface {
	Session(ctx context.Context) (warehouse.Session, error)
	GrantsToRole(ctx context.Context, role string) ([]warehouse.Grant, error)
}

// Service inspects the privileges of the connected warehouse user.
type Service struct {
	warehouse Warehouse
	logger    *zap.Logger
}

// NewService creates a clearance service.
func NewService(w Warehouse, logger *zap.Logger) *Service {
	return &Service{warehouse: w, logger: logger}
}

// SessionDetails returns the current user, warehouse and the roles granted to the user.
func (s *Service) SessionDetails(ctx context.Context) (warehouse.Session, error) {
	return s.warehouse.Session(ctx)
}

// Missing returns the required privileges that none of the session user's roles hold.
func (s *Service) Missing(ctx context.Context) ([]Requirement, error) {
	sess, err := s.warehouse.Session(ctx)
	if err != nil {
		return nil, err
	}

	missing := Required()
	for _, role := range sess.Roles {
		if len(missing) == 0 {
			break
		}
		grants, err := s.warehouse.GrantsToRole(ctx, role)
		if err != nil {
			return nil, err
		}
		missing = removeHeld(missing, grants)
		s.logger.Debug("Checked role grants", zap.String("role", role), zap.Int("grants", len(grants)), zap.Int("still_missing", len(missing)))
	}
	return missing, nil
}

func removeHeld(reqs []Requirement, grants []warehouse.Grant) []Requirement {
	out := reqs[:0]
	for _, r := range reqs {
		held := false
		for _, g := range grants {
			if strings.EqualFold(g.Privilege, r.Privilege) && strings.EqualFold(g.GrantedOn, r.GrantedOn) {
				held = true
				break
			}
		}
		if !held {
			out = append(out, r)
		}
	}
	return out
}
