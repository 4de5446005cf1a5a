package guard

import "errors"

// Guard errors. Configuration errors (ErrGuardNotDefined,
// ErrDriverNotDefined, ErrProviderNotDefined) are fatal: they indicate a
// misconfigured application and should fail boot rather than be retried.
var (
	// ErrGuardNotDefined is returned when no guard configuration exists
	// for the requested name.
	ErrGuardNotDefined = errors.New("guard: guard is not defined")

	// ErrDriverNotDefined is returned when a guard's configured driver
	// has no registered factory.
	ErrDriverNotDefined = errors.New("guard: auth driver is not defined")

	// ErrProviderNotDefined is returned when a guard references an
	// unconfigured user provider, or a provider's driver has no factory.
	ErrProviderNotDefined = errors.New("guard: auth provider is not defined")

	// ErrUnsupportedOperation is returned when a stateful operation
	// (login, logout, attempt) is routed to a stateless guard driver.
	ErrUnsupportedOperation = errors.New("guard: operation not supported by driver")

	// ErrNoSession is returned by the session guard when the context
	// carries no session to authenticate against.
	ErrNoSession = errors.New("guard: no session in context")

	// ErrUserNotFound is returned by user providers when no principal
	// matches the given ID or credentials.
	ErrUserNotFound = errors.New("guard: user not found")

	// ErrInvalidCredentials is returned by Login-style operations when
	// credential validation fails.
	ErrInvalidCredentials = errors.New("guard: invalid credentials")
)
