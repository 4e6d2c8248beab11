package mongo

import (
	"errors"
	"fitformula/api/internal/repository"

	"go.mongodb.org/mongo-driver/mongo"
)

// Server error codes that mean the credentials are not allowed to run the operation.
const (
	codeUnauthorized         = 13
	codeAuthenticationFailed = 18
)

// classifyError maps driver errors onto repository errors using server error
// codes. Everything that is not an authorization failure is returned as is.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicate
	}
	var se mongo.ServerError
	if errors.As(err, &se) && (se.HasErrorCode(codeUnauthorized) || se.HasErrorCode(codeAuthenticationFailed)) {
		return repository.ErrPermissionDenied
	}
	return err
}
