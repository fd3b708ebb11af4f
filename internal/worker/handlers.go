package worker

import (
	"context"
	"fmt"

	"github.com/cuongbtq/jobqueue/internal/jobs/domain"
)

// AddNumbers returns input x + y
func AddNumbers(_ context.Context, input domain.Input) (float64, error) {
	x, err := requireField(input, "x")
	if err != nil {
		return 0, err
	}
	y, err := requireField(input, "y")
	if err != nil {
		return 0, err
	}
	return x + y, nil
}

func requireField(input domain.Input, name string) (float64, error) {
	v, ok := input[name]
	if !ok {
		return 0, domain.NewProcessingError(domain.FailureInvalidInput,
			fmt.Errorf("%w: missing field %q", domain.ErrInvalidInput, name))
	}
	return v, nil
}
