package screening

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/turtacn/trademark-screening/pkg/errors"
)

// collaboratorErr classifies a failed collaborator call. AppErrors raised by
// adapters pass through untouched.
func collaboratorErr(ctx context.Context, collaborator string, err error) error {
	var ae *apperrors.AppError
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.Wrap(err, apperrors.ErrCodeCollaboratorTimeout, fmt.Sprintf("%s timed out", collaborator))
	}
	return apperrors.Unavailable(collaborator, err)
}

func computationErr(format string, args ...any) error {
	return apperrors.New(apperrors.ErrCodeCheckComputation, fmt.Sprintf(format, args...))
}

// goSafe schedules fn on g. A panic inside fn surfaces from g.Wait as a
// computation error instead of unwinding the worker goroutine.
func goSafe(g *errgroup.Group, collaborator string, fn func() error) {
	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = computationErr("%s panicked: %v", collaborator, r)
			}
		}()
		return fn()
	})
}
