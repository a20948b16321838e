package usecase

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/collabfund/internal/domain"
)

// DonationResult carries the stored donation and the project's funding after it.
type DonationResult struct {
	Donation   domain.Donation `json:"donation"`
	NewFunding float64         `json:"new_funding"`
}

type DonationUsecase struct {
	repo       Repository
	projection *Projection
	publisher  EventPublisher
	now        func() time.Time
}

func NewDonationUsecase(repo Repository, projection *Projection, publisher EventPublisher) *DonationUsecase {
	return &DonationUsecase{
		repo:       repo,
		projection: projection,
		publisher:  publisher,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Donate records a donation and adds its amount to the project's funding in
// the same transaction.
func (uc *DonationUsecase) Donate(ctx context.Context, callerID, projectID int64, amount float64, message string) (DonationResult, error) {
	ctx, span := tracer.Start(ctx, "Donation.Usecase.Donate")
	defer span.End()
	span.SetAttributes(attribute.Int64("projectID", projectID))

	if callerID == 0 {
		return DonationResult{}, domain.ErrUnauthenticated
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return DonationResult{}, domain.InvalidOperationError{Reason: "donation amount must be positive"}
	}

	var result DonationResult
	err := uc.repo.InTx(ctx, func(tx Store) error {
		if _, err := tx.FindProject(ctx, projectID); err != nil {
			return err
		}

		donation := domain.Donation{
			DonorID:   callerID,
			ProjectID: projectID,
			Amount:    amount,
			Message:   message,
			CreatedAt: uc.now(),
		}
		if err := tx.CreateDonation(ctx, &donation); err != nil {
			return errors.Wrap(err, "create donation")
		}

		funding, err := tx.AddFunding(ctx, projectID, amount)
		if err != nil {
			return errors.Wrap(err, "add funding")
		}

		result = DonationResult{Donation: donation, NewFunding: funding}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return DonationResult{}, err
	}

	donationAmount.Add(amount)
	uc.projection.Invalidate(ctx, domain.ScopeProject, projectID)
	publish(ctx, uc.publisher, domain.InteractionEvent{
		ID:        uuid.NewString(),
		Kind:      domain.EventKindDonation,
		ActorID:   callerID,
		TargetID:  projectID,
		CallerID:  callerID,
		Outcome:   domain.OutcomeCreated,
		CreatedAt: uc.now(),
	})

	return result, nil
}

func publish(ctx context.Context, publisher EventPublisher, event domain.InteractionEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		slog.WarnContext(
			ctx, "failed to publish event",
			slog.String("error", err.Error()),
			slog.String("kind", string(event.Kind)),
			slog.String("module", "usecase"),
		)
	}
}
