package guard

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config is the full guard/provider configuration owned by a Manager.
// It is populated by the host application; this package performs no file
// or environment parsing.
type Config struct {
	// Default names the guard used when Guard is called without a name.
	Default string

	// Guards maps guard names to their driver configuration.
	Guards map[string]GuardConfig

	// Providers maps provider names to their user-provider configuration.
	Providers map[string]ProviderConfig
}

// GuardConfig configures a single named guard.
type GuardConfig struct {
	// Driver selects the guard factory: "session", "token", or a name
	// registered through Manager.Extend.
	Driver string

	// Provider names the user provider backing this guard.
	Provider string

	// TokenSecret is the HMAC signing secret for the token driver.
	TokenSecret string

	// TokenTTL is the lifetime of tokens issued by the token driver.
	// Zero means tokens are minted without an expiry claim.
	TokenTTL time.Duration
}

// ProviderConfig configures a single named user provider.
type ProviderConfig struct {
	// Driver selects the provider factory: "model" or "database".
	Driver string

	// Repository backs the model driver.
	Repository UserRepository

	// Pool backs the database driver.
	Pool *pgxpool.Pool

	// Table is the users table for the database driver.
	// Default: "users".
	Table string

	// IdentifierColumn is the primary identifier column for the database
	// driver. Default: "id".
	IdentifierColumn string

	// PasswordColumn is the hashed-password column for the database
	// driver. Default: "password_hash".
	PasswordColumn string

	// Hasher verifies credential passwords against stored hashes.
	// Defaults to bcrypt.
	Hasher Hasher
}

func (c ProviderConfig) table() string {
	if c.Table == "" {
		return "users"
	}
	return c.Table
}

func (c ProviderConfig) identifierColumn() string {
	if c.IdentifierColumn == "" {
		return "id"
	}
	return c.IdentifierColumn
}

func (c ProviderConfig) passwordColumn() string {
	if c.PasswordColumn == "" {
		return "password_hash"
	}
	return c.PasswordColumn
}

func (c ProviderConfig) hasher() Hasher {
	if c.Hasher == nil {
		return BcryptHasher{}
	}
	return c.Hasher
}
