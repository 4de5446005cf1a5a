package guard

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// UserProvider resolves principals from storage.
type UserProvider interface {
	// RetrieveByID returns the principal with the given identifier.
	// Returns ErrUserNotFound when no principal matches.
	RetrieveByID(ctx context.Context, id string) (Principal, error)

	// RetrieveByCredentials returns the principal matching every
	// credential except "password". Returns ErrUserNotFound when no
	// principal matches.
	RetrieveByCredentials(ctx context.Context, credentials Credentials) (Principal, error)

	// ValidateCredentials verifies the credential password against the
	// principal's stored hash.
	ValidateCredentials(ctx context.Context, p Principal, credentials Credentials) (bool, error)
}

// Hasher verifies a plaintext secret against a stored hash.
type Hasher interface {
	Verify(hashed, plain string) bool
}

// BcryptHasher verifies bcrypt hashes. It is the default Hasher for the
// built-in providers.
type BcryptHasher struct{}

// Verify implements Hasher.
func (BcryptHasher) Verify(hashed, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

// HashedPasswordBearer is implemented by principals that expose their
// stored password hash for credential validation.
type HashedPasswordBearer interface {
	HashedPassword() string
}

// UserRepository is the storage adapter behind the model provider,
// implemented by the host application (typically over its ORM or query
// layer).
type UserRepository interface {
	// FindByID returns the principal with the given identifier, or
	// ErrUserNotFound.
	FindByID(ctx context.Context, id string) (Principal, error)

	// FindByCredentials returns the principal matching the non-password
	// credentials, or ErrUserNotFound.
	FindByCredentials(ctx context.Context, credentials Credentials) (Principal, error)
}

// modelProvider adapts a UserRepository into a UserProvider.
type modelProvider struct {
	repo   UserRepository
	hasher Hasher
}

func newModelProvider(cfg ProviderConfig) (UserProvider, error) {
	if cfg.Repository == nil {
		return nil, errors.New("guard: model provider requires a repository")
	}
	return &modelProvider{repo: cfg.Repository, hasher: cfg.hasher()}, nil
}

func (p *modelProvider) RetrieveByID(ctx context.Context, id string) (Principal, error) {
	return p.repo.FindByID(ctx, id)
}

func (p *modelProvider) RetrieveByCredentials(ctx context.Context, credentials Credentials) (Principal, error) {
	return p.repo.FindByCredentials(ctx, credentials)
}

func (p *modelProvider) ValidateCredentials(_ context.Context, principal Principal, credentials Credentials) (bool, error) {
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
