package service

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/warikan/internal/models"
	"github.com/mmynk/warikan/internal/parser"
	"github.com/mmynk/warikan/internal/reconcile"
	"github.com/mmynk/warikan/internal/storage"
)

// connectError maps domain errors to Connect codes.
func connectError(err error) *connect.Error {
	switch {
	case errors.Is(err, models.ErrInvalidPayment),
		errors.Is(err, parser.ErrUnparseable),
		errors.Is(err, parser.ErrInvalidCandidate),
		errors.Is(err, parser.ErrUnknownParticipant):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrDuplicateName):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, reconcile.ErrReconcileFailed):
		// The cause stays in the server log.
		return connect.NewError(connect.CodeUnavailable, reconcile.ErrReconcileFailed)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func invalidArgument(msg string) *connect.Error {
	return connect.NewError(connect.CodeInvalidArgument, errors.New(msg))
}
