package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"catalog-sync/core/catalog"
	"catalog-sync/core/utils"

	"go.uber.org/zap"
)

// Inventory lists live warehouse objects over one dedicated session.
// Role switches (USE ROLE) stick to that session, so it is never shared.
type Inventory struct {
	db      *sql.DB
	conn    *sql.Conn
	dialect dialect
	timeout time.Duration
	logger  *zap.Logger
}

// Session describes who the inventory is connected as.
type Session struct {
	User      string   `json:"user"`
	Warehouse string   `json:"warehouse"`
	Role      string   `json:"role"`
	Roles     []string `json:"roles"`
}

// Grant is a privilege held by a role, as reported by the warehouse.
type Grant struct {
	Privilege string `json:"privilege"`
	GrantedOn string `json:"granted_on"`
	Name      string `json:"name,omitempty"`
}

// Open connects to the warehouse described by cfg and reserves one session for the run.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*Inventory, error) {
	d, err := dialectFor(cfg)
	if err != nil {
		return nil, err
	}
	dsn, err := d.dsn(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.driver(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse connection: %w", err)
	}

	inv, err := NewInventory(ctx, db, cfg, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return inv, nil
}

// NewInventory reserves a session on an already opened pool. Close releases both.
func NewInventory(ctx context.Context, db *sql.DB, cfg Config, logger *zap.Logger) (*Inventory, error) {
	d, err := dialectFor(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := db.Conn(pingCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve warehouse session: %w", err)
	}
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping warehouse: %w", err)
	}

	logger.Debug("Warehouse session opened", zap.String("dialect", d.name()))
	return &Inventory{db: db, conn: conn, dialect: d, timeout: timeout, logger: logger}, nil
}

// Close releases the session and the pool.
func (i *Inventory) Close() error {
	var firstErr error
	if i.conn != nil {
		firstErr = i.conn.Close()
	}
	if i.db != nil {
		if err := i.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ListTopLevel lists every object of a root kind (database, role, user).
func (i *Inventory) ListTopLevel(ctx context.Context, kind catalog.Kind) ([]catalog.Row, error) {
	st, err := i.dialect.topLevel(kind)
	if err != nil {
		return nil, &RemoteQueryError{Kind: kind, Err: err}
	}
	return i.list(ctx, kind, nil, st)
}

// ListScoped lists the objects of kind below one parent, named by its path
// (database; database, schema; database, schema, table; or role).
// Failures come back as *RemoteQueryError.
func (i *Inventory) ListScoped(ctx context.Context, kind catalog.Kind, path []string) ([]catalog.Row, error) {
	st, err := i.dialect.scoped(kind, path)
	if err != nil {
		return nil, &RemoteQueryError{Kind: kind, Scope: path, Err: err}
	}
	return i.list(ctx, kind, path, st)
}

func (i *Inventory) list(ctx context.Context, kind catalog.Kind, path []string, st statement) ([]catalog.Row, error) {
	raw, err := i.run(ctx, st)
	if err != nil {
		return nil, &RemoteQueryError{Kind: kind, Scope: path, Query: st.query, Err: err}
	}
	out := make([]catalog.Row, len(raw))
	for n, r := range raw {
		out[n] = toRecord(kind, r)
	}
	i.logger.Debug("Listed remote objects",
		zap.String("kind", string(kind)),
		zap.Strings("scope", path),
		zap.Int("count", len(out)))
	return out, nil
}

// Session reports the connected user, warehouse and the roles granted to the user.
func (i *Inventory) Session(ctx context.Context) (Session, error) {
	raw, err := i.run(ctx, i.dialect.session())
	if err != nil {
		return Session{}, fmt.Errorf("failed to read session details: %w", err)
	}
	if len(raw) == 0 {
		return Session{}, fmt.Errorf("failed to read session details: no rows")
	}
	s := Session{
		User:      utils.ToString(raw[0]["user_name"]),
		Warehouse: utils.ToString(raw[0]["warehouse"]),
		Role:      utils.ToString(raw[0]["role_name"]),
	}

	roles, err := i.run(ctx, i.dialect.rolesOfUser(s.User))
	if err != nil {
		return Session{}, fmt.Errorf("failed to list roles of %s: %w", s.User, err)
	}
	for _, r := range roles {
		if name := utils.ToString(r[FieldRole]); name != "" {
			s.Roles = append(s.Roles, name)
		}
	}
	return s, nil
}

// GrantsToRole lists the privileges held by role.
func (i *Inventory) GrantsToRole(ctx context.Context, role string) ([]Grant, error) {
	raw, err := i.run(ctx, i.dialect.grantsToRole(role))
	if err != nil {
		return nil, fmt.Errorf("failed to list grants to role %s: %w", role, err)
	}
	out := make([]Grant, 0, len(raw))
	for _, r := range raw {
		out = append(out, Grant{
			Privilege: utils.ToString(r[FieldPrivilege]),
			GrantedOn: strings.ToUpper(utils.ToString(r[FieldGrantedOn])),
			Name:      utils.ToString(r[FieldName]),
		})
	}
	return out, nil
}

func (i *Inventory) run(ctx context.Context, st statement) ([]map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	for _, q := range st.before {
		if _, err := i.conn.ExecContext(ctx, q); err != nil {
			return nil, fmt.Errorf("%s: %w", q, err)
		}
	}
	defer func() {
		for _, q := range st.after {
			if _, err := i.conn.ExecContext(context.WithoutCancel(ctx), q); err != nil {
				i.logger.Warn("Failed to restore session state", zap.String("statement", q), zap.Error(err))
			}
		}
	}()

	rows, err := i.conn.QueryContext(ctx, st.query, st.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMaps(rows)
}

// scanMaps reads every row into a map keyed by lower-cased column name.
func scanMaps(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for n := range values {
			ptrs[n] = &values[n]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		m := make(map[string]any, len(cols))
		for n, c := range cols {
			v := values[n]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			m[strings.ToLower(c)] = v
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
