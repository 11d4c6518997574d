package repository

import (
	stderrors "errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"hajzi/pkg/errors"
)

const (
	chatsCollection        = "chats"
	messagesCollection     = "messages"
	appointmentsCollection = "appointments"
	usersCollection        = "users"
)

// storeError passes application errors through and reports anything else as
// a store dependency failure.
func storeError(message string, err error) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return errors.Dependency(message, err)
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func isAlreadyExists(err error) bool {
	return status.Code(err) == codes.AlreadyExists
}
