package service

import (
	"context"
	"errors"

	"github.com/totegamma/collabfund/internal/domain"
	"github.com/totegamma/collabfund/internal/usecase"
)

// Fanout publishes every event to all sinks and joins their errors.
type Fanout []usecase.EventPublisher

func (f Fanout) Publish(ctx context.Context, event domain.InteractionEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
