package types

import "github.com/m-mizutani/goerr/v2"

var (
	ErrInvalidOption    = goerr.New("invalid option")
	ErrValidationFailed = goerr.New("validation failed")
	ErrBadRequest       = goerr.New("bad request")

	// ErrConfiguration means the app identity or signing key is missing or unusable.
	ErrConfiguration = goerr.New("configuration error")
	// ErrAuth means the upstream rejected the credential exchange.
	ErrAuth = goerr.New("authentication error")

	ErrRepositoryNotFound   = goerr.New("repository not found")
	ErrOperationNotFound    = goerr.New("operation not found")
	ErrInstallationNotFound = goerr.New("installation not found")

	ErrSignatureVerification = goerr.New("signature verification failed")

	ErrWorkerUnavailable = goerr.New("execution worker unavailable")
	ErrExecutionTimeout  = goerr.New("execution timed out")
	ErrCommandFailure    = goerr.New("command failed")
	ErrOperationCanceled = goerr.New("operation canceled")

	ErrInvalidTransition = goerr.New("invalid operation status transition")
)
