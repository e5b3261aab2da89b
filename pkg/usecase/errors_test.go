package usecase_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/plotline-dev/plotline/pkg/usecase"
)

func TestErrors_ErrorsAreDistinct(t *testing.T) {
	all := []error{
		usecase.ErrSchemaNotFound,
		usecase.ErrPropertyNotFound,
		usecase.ErrUserNotFound,
		usecase.ErrInvalidInput,
		usecase.ErrInvalidRole,
	}

	for i, a := range all {
		gt.Value(t, a).NotNil()
		for j, b := range all {
			if i != j {
				gt.Bool(t, errors.Is(a, b)).False()
			}
		}
	}
}
