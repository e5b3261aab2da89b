package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/plotline-dev/plotline/pkg/domain/model"
	"github.com/plotline-dev/plotline/pkg/domain/model/auth"
	"github.com/plotline-dev/plotline/pkg/usecase"
	"github.com/plotline-dev/plotline/pkg/utils/errutil"
	"github.com/plotline-dev/plotline/pkg/utils/logging"
)

var errBadRequest = goerr.New("bad request")

// statusOf maps an error taxonomy to an HTTP status
func statusOf(err error) int {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, model.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, usecase.ErrSchemaNotFound),
		errors.Is(err, usecase.ErrPropertyNotFound),
		errors.Is(err, usecase.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrInvalidInput),
		errors.Is(err, usecase.ErrInvalidRole),
		errors.Is(err, model.ErrInvalidSchema),
		errors.Is(err, model.ErrDuplicateStepID),
		errors.Is(err, model.ErrDuplicateFieldKey),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusOf(err)

	var verr *model.ValidationError
	if status == http.StatusUnprocessableEntity && errors.As(err, &verr) {
		logging.From(ctx).Info("validation failed", "fields", verr.Fields)
		errutil.WriteJSON(ctx, w, status, errutil.ErrorResponse{
			Error:  verr.Error(),
			Fields: verr.Fields,
		})
		return
	}

	errutil.HandleHTTP(ctx, w, err, status)
}
