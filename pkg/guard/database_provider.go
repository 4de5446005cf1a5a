package guard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DatabaseUser is the principal returned by the database provider: a row
// from the configured users table. Role, Roles and Permissions are read
// from the conventional "role", "roles" and "permissions" columns when
// present, which the authorization middlewares consume directly.
type DatabaseUser struct {
	Attributes map[string]any

	identifierColumn string
	passwordColumn   string
}

// NewDatabaseUser wraps a row of column values as a principal. The
// identifier and password columns name where AuthIdentifier and
// HashedPassword read from.
func NewDatabaseUser(attrs map[string]any, identifierColumn, passwordColumn string) *DatabaseUser {
	return &DatabaseUser{
		Attributes:       attrs,
		identifierColumn: identifierColumn,
		passwordColumn:   passwordColumn,
	}
}

// Get returns a raw column value from the row.
func (u *DatabaseUser) Get(column string) (any, bool) {
	v, ok := u.Attributes[column]
	return v, ok
}

// AuthIdentifier implements Principal.
func (u *DatabaseUser) AuthIdentifier() string {
	v, ok := u.Attributes[u.identifierColumn]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// HashedPassword implements HashedPasswordBearer.
func (u *DatabaseUser) HashedPassword() string {
	v, ok := u.Attributes[u.passwordColumn]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// Role implements RoleBearer.
func (u *DatabaseUser) Role() string {
	v, ok := u.Attributes["role"]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// Roles implements RolesBearer.
func (u *DatabaseUser) Roles() []string {
	return stringSlice(u.Attributes["roles"])
}

// Permissions implements PermissionsBearer.
func (u *DatabaseUser) Permissions() []string {
	return stringSlice(u.Attributes["permissions"])
}

func stringSlice(v any) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return nil
	}
}

// databaseProvider retrieves principals with plain SQL through a pgx pool.
type databaseProvider struct {
	pool             *pgxpool.Pool
	table            string
	identifierColumn string
	passwordColumn   string
	hasher           Hasher
}

func newDatabaseProvider(cfg ProviderConfig) (UserProvider, error) {
	if cfg.Pool == nil {
		return nil, errors.New("guard: database provider requires a connection pool")
	}
	return &databaseProvider{
		pool:             cfg.Pool,
		table:            cfg.table(),
		identifierColumn: cfg.identifierColumn(),
		passwordColumn:   cfg.passwordColumn(),
		hasher:           cfg.hasher(),
	}, nil
}

func (p *databaseProvider) RetrieveByID(ctx context.Context, id string) (Principal, error) {
	query := fmt.Sprintf(
		"SELECT * FROM %s WHERE %s = $1 LIMIT 1",
		pgx.Identifier{p.table}.Sanitize(),
		pgx.Identifier{p.identifierColumn}.Sanitize(),
	)
	return p.queryOne(ctx, query, id)
}

func (p *databaseProvider) RetrieveByCredentials(ctx context.Context, credentials Credentials) (Principal, error) {
	columns := make([]string, 0, len(credentials))
	for column := range credentials {
		if column == "password" {
			continue
		}
		columns = append(columns, column)
	}
	if len(columns) == 0 {
		return nil, ErrUserNotFound
	}
	sort.Strings(columns)

	conditions := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns))
	for i, column := range columns {
		conditions = append(conditions, fmt.Sprintf("%s = $%d", pgx.Identifier{column}.Sanitize(), i+1))
		args = append(args, credentials[column])
	}

	query := fmt.Sprintf(
		"SELECT * FROM %s WHERE %s LIMIT 1",
		pgx.Identifier{p.table}.Sanitize(),
		strings.Join(conditions, " AND "),
	)
	return p.queryOne(ctx, query, args...)
}

func (p *databaseProvider) ValidateCredentials(_ context.Context, principal Principal, credentials Credentials) (bool, error) {
	password, ok := credentials.Password()
	if !ok {
		return false, nil
	}
	bearer, ok := principal.(HashedPasswordBearer)
	if !ok {
		return false, nil
	}
	return p.hasher.Verify(bearer.HashedPassword(), password), nil
}

func (p *databaseProvider) queryOne(ctx context.Context, query string, args ...any) (Principal, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	attrs, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return NewDatabaseUser(attrs, p.identifierColumn, p.passwordColumn), nil
}
