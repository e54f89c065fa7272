package rest

import (
	"errors"

	pkgError "github.com/postflow/postflow/pkg/error"
	"github.com/postflow/postflow/scheduler/domain/common"
)

// apiError translates domain sentinels into the typed errors the
// Recovery middleware renders. Already-typed errors pass through;
// anything unrecognized surfaces as a SchedulingError so scheduling
// failures never leak raw internals with a generic 500.
func apiError(err error) error {
	if err == nil {
		return nil
	}
	var typed pkgError.GenericError
	if errors.As(err, &typed) {
		return err
	}
	switch {
	case errors.Is(err, common.ErrPublicationNotFound),
		errors.Is(err, common.ErrPostNotFound),
		errors.Is(err, common.ErrAccountNotFound),
		errors.Is(err, common.ErrQueueNotFound),
		errors.Is(err, common.ErrGroupNotFound):
		return pkgError.NotFoundError(err.Error())
	case errors.Is(err, common.ErrTerminalStatus),
		errors.Is(err, common.ErrAlreadyClaimed):
		return pkgError.InvalidStateError(err.Error())
	default:
		return pkgError.SchedulingError(err.Error())
	}
}
