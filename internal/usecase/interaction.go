package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/collabfund/internal/domain"
	"github.com/totegamma/collabfund/internal/transition"
)

var tracer = otel.Tracer("usecase")

// maxAttempts bounds how often one action is retried after losing an insert race.
const maxAttempts = 3

// ActionResult is what a relationship action reports back.
type ActionResult struct {
	Outcome domain.Outcome
	// Relationship is nil when the action removed the row.
	Relationship *domain.Relationship
	Counters     domain.Counters
	Delta        domain.Counters
}

type request struct {
	kind     domain.Kind
	action   domain.Action
	callerID int64
	actorID  int64
	targetID int64
	role     domain.Role
	self     bool
	message  string
}

// InteractionUsecase coordinates every relationship action: it resolves the
// caller and target, then reads, decides and writes inside one transaction.
type InteractionUsecase struct {
	repo       Repository
	targets    TargetResolver
	machines   transition.Registry
	projection *Projection
	publisher  EventPublisher
	now        func() time.Time
}

func NewInteractionUsecase(
	repo Repository,
	targets TargetResolver,
	machines transition.Registry,
	projection *Projection,
	publisher EventPublisher,
) *InteractionUsecase {
	return &InteractionUsecase{
		repo:       repo,
		targets:    targets,
		machines:   machines,
		projection: projection,
		publisher:  publisher,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ToggleVote upvotes a project, or removes the caller's upvote if present.
func (uc *InteractionUsecase) ToggleVote(ctx context.Context, callerID, projectID int64) (ActionResult, error) {
	if callerID == 0 {
		return ActionResult{}, domain.ErrUnauthenticated
	}
	if _, err := uc.targets.Owner(ctx, domain.ScopeProject, projectID); err != nil {
		return ActionResult{}, err
	}
	return uc.apply(ctx, request{
		kind:     domain.KindVote,
		action:   domain.ActionUpvote,
		callerID: callerID,
		actorID:  callerID,
		targetID: projectID,
	})
}

func (uc *InteractionUsecase) RequestCollaboration(ctx context.Context, callerID, projectID int64, message string) (ActionResult, error) {
	if callerID == 0 {
		return ActionResult{}, domain.ErrUnauthenticated
	}
	owner, err := uc.targets.Owner(ctx, domain.ScopeProject, projectID)
	if err != nil {
		return ActionResult{}, err
	}
	return uc.apply(ctx, request{
		kind:     domain.KindCollaboration,
		action:   domain.ActionRequest,
		callerID: callerID,
		actorID:  callerID,
		targetID: projectID,
		self:     owner == callerID,
		message:  message,
	})
}

// RespondCollaboration accepts or rejects collaboratorID's pending request.
// Only the project owner may do so.
func (uc *InteractionUsecase) RespondCollaboration(ctx context.Context, callerID, projectID, collaboratorID int64, accept bool) (ActionResult, error) {
	if callerID == 0 {
		return ActionResult{}, domain.ErrUnauthenticated
	}
	owner, err := uc.targets.Owner(ctx, domain.ScopeProject, projectID)
	if err != nil {
		return ActionResult{}, err
	}
	return uc.apply(ctx, request{
		kind:     domain.KindCollaboration,
		action:   respondAction(accept),
		callerID: callerID,
		actorID:  collaboratorID,
		targetID: projectID,
		role:     roleOf(callerID, owner),
	})
}

func (uc *InteractionUsecase) SendFollowRequest(ctx context.Context, callerID, userID int64) (ActionResult, error) {
	if callerID == 0 {
		return ActionResult{}, domain.ErrUnauthenticated
	}
	if _, err := uc.targets.Owner(ctx, domain.ScopeUser, userID); err != nil {
		return ActionResult{}, err
	}
	return uc.apply(ctx, request{
		kind:     domain.KindFollow,
		action:   domain.ActionRequest,
		callerID: callerID,
		actorID:  callerID,
		targetID: userID,
		self:     userID == callerID,
	})
}

// RespondFollowRequest accepts or rejects followerID's request to follow userID.
// Only userID may do so.
func (uc *InteractionUsecase) RespondFollowRequest(ctx context.Context, callerID, userID, followerID int64, accept bool) (ActionResult, error) {
	if callerID == 0 {
		return ActionResult{}, domain.ErrUnauthenticated
	}
	if _, err := uc.targets.Owner(ctx, domain.ScopeUser, userID); err != nil {
		return ActionResult{}, err
	}
	return uc.apply(ctx, request{
		kind:     domain.KindFollow,
		action:   respondAction(accept),
		callerID: callerID,
		actorID:  followerID,
		targetID: userID,
		role:     roleOf(callerID, userID),
	})
}

// ToggleReaction adds, removes or replaces the caller's reaction on a post.
func (uc *InteractionUsecase) ToggleReaction(ctx context.Context, callerID, postID int64, reaction string) (ActionResult, error) {
	if callerID == 0 {
		return ActionResult{}, domain.ErrUnauthenticated
	}
	kind, ok := domain.ParseReaction(reaction)
	if !ok {
		return ActionResult{}, domain.InvalidOperationError{Reason: fmt.Sprintf("unknown reaction %q", reaction)}
	}
	if _, err := uc.targets.Owner(ctx, domain.ScopePost, postID); err != nil {
		return ActionResult{}, err
	}
	return uc.apply(ctx, request{
		kind:     domain.KindPostReaction,
		action:   domain.ReactAction(kind),
		callerID: callerID,
		actorID:  callerID,
		targetID: postID,
	})
}

func (uc *InteractionUsecase) TogglePostLike(ctx context.Context, callerID, postID int64) (ActionResult, error) {
	return uc.togglePresence(ctx, domain.KindPostLike, callerID, postID)
}

func (uc *InteractionUsecase) TogglePostSave(ctx context.Context, callerID, postID int64) (ActionResult, error) {
	return uc.togglePresence(ctx, domain.KindPostSave, callerID, postID)
}

func (uc *InteractionUsecase) ToggleDiscussionLike(ctx context.Context, callerID, discussionID int64) (ActionResult, error) {
	return uc.togglePresence(ctx, domain.KindDiscussionLike, callerID, discussionID)
}

func (uc *InteractionUsecase) togglePresence(ctx context.Context, kind domain.Kind, callerID, targetID int64) (ActionResult, error) {
	if callerID == 0 {
		return ActionResult{}, domain.ErrUnauthenticated
	}
	if _, err := uc.targets.Owner(ctx, domain.ScopeOf(kind), targetID); err != nil {
		return ActionResult{}, err
	}
	return uc.apply(ctx, request{
		kind:     kind,
		action:   domain.ActionToggle,
		callerID: callerID,
		actorID:  callerID,
		targetID: targetID,
	})
}

// apply runs the transition, retrying when a concurrent request inserted the
// same row first. For toggles, a retry that finds the row already in the state
// this request wanted to create reports that outcome without writing anything.
// Requests are replayed against the winner's row instead, so a duplicate
// request gets the same answer it would have got had it arrived second.
func (uc *InteractionUsecase) apply(ctx context.Context, req request) (ActionResult, error) {
	ctx, span := tracer.Start(ctx, "Interaction.Usecase.Apply")
	defer span.End()
	span.SetAttributes(
		attribute.String("kind", string(req.kind)),
		attribute.String("action", string(req.action)),
		attribute.Int64("targetID", req.targetID),
	)

	machine, ok := uc.machines.For(req.kind)
	if !ok {
		return ActionResult{}, fmt.Errorf("unknown relationship kind %q", req.kind)
	}

	var converge *transition.Result
	for attempt := 1; ; attempt++ {
		result, decided, err := uc.attempt(ctx, machine, req, converge)
		if err == nil {
			uc.afterCommit(ctx, req, result)
			return result, nil
		}

		if errors.Is(err, domain.ErrDuplicate) && decided.Op == transition.OpCreate && attempt < maxAttempts {
			duplicateRetries.WithLabelValues(string(req.kind)).Inc()
			slog.DebugContext(
				ctx, "relationship insert lost a race, retrying",
				slog.String("kind", string(req.kind)),
				slog.Int("attempt", attempt),
				slog.String("module", "interaction"),
			)
			if req.action != domain.ActionRequest {
				converge = &decided
			}
			continue
		}

		if isRejection(err) {
			interactionRejected.WithLabelValues(string(req.kind)).Inc()
		} else {
			span.RecordError(err)
		}
		return ActionResult{}, err
	}
}

func (uc *InteractionUsecase) attempt(
	ctx context.Context,
	machine *transition.Machine,
	req request,
	converge *transition.Result,
) (ActionResult, transition.Result, error) {
	var result ActionResult
	var decided transition.Result

	err := uc.repo.InTx(ctx, func(tx Store) error {
		current, err := tx.FindRelationship(ctx, req.kind, req.actorID, req.targetID)
		if err != nil {
			return pkgerrors.Wrap(err, "find relationship")
		}
		from := domain.StateAbsent
		if current != nil {
			from = current.State
		}

		if converge != nil && from == converge.To {
			decided = *converge
			decided.Op = transition.OpNone
			decided.Delta = domain.Counters{}
			result.Relationship = current
		} else {
			decided, err = machine.Apply(transition.Input{
				From:   from,
				Action: req.action,
				Role:   req.role,
				Self:   req.self,
			})
			if err != nil {
				return err
			}
			result.Relationship, err = uc.persist(ctx, tx, req, current, decided)
			if err != nil {
				return err
			}
		}

		result.Outcome = decided.Outcome
		result.Delta = decided.Delta
		result.Counters, err = uc.projection.Live(ctx, tx, req.kind, req.targetID)
		return err
	})
	return result, decided, err
}

func (uc *InteractionUsecase) persist(
	ctx context.Context,
	tx Store,
	req request,
	current *domain.Relationship,
	decided transition.Result,
) (*domain.Relationship, error) {
	now := uc.now()

	switch decided.Op {
	case transition.OpCreate:
		rel := domain.Relationship{
			Kind:      req.kind,
			ActorID:   req.actorID,
			TargetID:  req.targetID,
			State:     decided.To,
			Message:   req.message,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.CreateRelationship(ctx, rel); err != nil {
			return nil, err
		}
		return &rel, nil

	case transition.OpUpdate:
		rel := *current
		rel.State = decided.To
		rel.UpdatedAt = now
		if req.action == domain.ActionRequest && req.message != "" {
			rel.Message = req.message
		}
		if err := tx.UpdateRelationship(ctx, rel); err != nil {
			return nil, pkgerrors.Wrap(err, "update relationship")
		}
		return &rel, nil

	case transition.OpDelete:
		if err := tx.DeleteRelationship(ctx, req.kind, req.actorID, req.targetID); err != nil {
			return nil, pkgerrors.Wrap(err, "delete relationship")
		}
		return nil, nil

	default:
		return current, nil
	}
}

func (uc *InteractionUsecase) afterCommit(ctx context.Context, req request, result ActionResult) {
	interactionTotal.WithLabelValues(string(req.kind), string(result.Outcome)).Inc()
	uc.projection.Invalidate(ctx, domain.ScopeOf(req.kind), req.targetID)

	state := domain.StateAbsent
	if result.Relationship != nil {
		state = result.Relationship.State
	}
	publish(ctx, uc.publisher, domain.InteractionEvent{
		ID:        uuid.NewString(),
		Kind:      req.kind,
		ActorID:   req.actorID,
		TargetID:  req.targetID,
		CallerID:  req.callerID,
		Outcome:   result.Outcome,
		State:     state,
		CreatedAt: uc.now(),
	})
}

func respondAction(accept bool) domain.Action {
	if accept {
		return domain.ActionAccept
	}
	return domain.ActionReject
}

func roleOf(callerID, ownerID int64) domain.Role {
	if callerID == ownerID {
		return domain.RoleTarget
	}
	return domain.RoleActor
}

func isRejection(err error) bool {
	return errors.Is(err, domain.ErrInvalidOperation) ||
		errors.Is(err, domain.ErrForbidden) ||
		errors.Is(err, domain.ErrConflict) ||
		errors.Is(err, domain.ErrNotFound)
}
