package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/totegamma/collabfund/internal/domain"
)

type CommentResult struct {
	Comment       domain.Comment `json:"comment"`
	CommentsCount int64          `json:"comments_count"`
}

type CommentUsecase struct {
	repo       Repository
	projection *Projection
	publisher  EventPublisher
	now        func() time.Time
}

func NewCommentUsecase(repo Repository, projection *Projection, publisher EventPublisher) *CommentUsecase {
	return &CommentUsecase{
		repo:       repo,
		projection: projection,
		publisher:  publisher,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// AddComment stores a comment on a project and bumps its comments_count.
func (uc *CommentUsecase) AddComment(ctx context.Context, callerID, projectID int64, content string) (CommentResult, error) {
	ctx, span := tracer.Start(ctx, "Comment.Usecase.AddComment")
	defer span.End()

	if callerID == 0 {
		return CommentResult{}, domain.ErrUnauthenticated
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return CommentResult{}, domain.InvalidOperationError{Reason: "comment content is required"}
	}

	var result CommentResult
	err := uc.repo.InTx(ctx, func(tx Store) error {
		if _, err := tx.FindProject(ctx, projectID); err != nil {
			return err
		}

		comment := domain.Comment{
			AuthorID:  callerID,
			ProjectID: projectID,
			Content:   content,
			CreatedAt: uc.now(),
		}
		if err := tx.CreateComment(ctx, &comment); err != nil {
			return errors.Wrap(err, "create comment")
		}

		count, err := tx.IncrementCommentsCount(ctx, projectID)
		if err != nil {
			return errors.Wrap(err, "increment comments_count")
		}

		result = CommentResult{Comment: comment, CommentsCount: count}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return CommentResult{}, err
	}

	uc.projection.Invalidate(ctx, domain.ScopeProject, projectID)
	publish(ctx, uc.publisher, domain.InteractionEvent{
		ID:        uuid.NewString(),
		Kind:      domain.EventKindComment,
		ActorID:   callerID,
		TargetID:  projectID,
		CallerID:  callerID,
		Outcome:   domain.OutcomeCreated,
		CreatedAt: uc.now(),
	})

	return result, nil
}
