package usecase

import (
	"context"

	"github.com/totegamma/collabfund/internal/domain"
)

// Store is the persistence surface the coordinator works against. Every method
// is expected to run inside whatever transaction the Store was obtained from.
type Store interface {
	FindUser(ctx context.Context, id int64) (domain.User, error)
	FindProject(ctx context.Context, id int64) (domain.Project, error)
	FindPost(ctx context.Context, id int64) (domain.Post, error)
	FindDiscussion(ctx context.Context, id int64) (domain.Discussion, error)

	// FindRelationship returns nil, nil when no row exists.
	FindRelationship(ctx context.Context, kind domain.Kind, actorID, targetID int64) (*domain.Relationship, error)
	// CreateRelationship fails with domain.DuplicateError when the row already exists.
	CreateRelationship(ctx context.Context, rel domain.Relationship) error
	UpdateRelationship(ctx context.Context, rel domain.Relationship) error
	DeleteRelationship(ctx context.Context, kind domain.Kind, actorID, targetID int64) error
	CountRelationshipsByState(ctx context.Context, kind domain.Kind, targetID int64) (map[domain.State]int64, error)

	CreateDonation(ctx context.Context, donation *domain.Donation) error
	AddFunding(ctx context.Context, projectID int64, amount float64) (float64, error)
	CreateComment(ctx context.Context, comment *domain.Comment) error
	IncrementCommentsCount(ctx context.Context, projectID int64) (int64, error)
	ListProjectsByOwner(ctx context.Context, ownerID int64) ([]domain.Project, error)
}

// Repository is a Store that can also open a transaction.
type Repository interface {
	Store
	// InTx runs fn in a single transaction. Any error rolls back every write made through tx.
	InTx(ctx context.Context, fn func(tx Store) error) error
}

// TargetResolver answers who owns a target, failing with domain.NotFoundError
// when the target does not exist. For users the owner is the user itself.
type TargetResolver interface {
	Owner(ctx context.Context, scope domain.Scope, id int64) (int64, error)
}

// StatsCache stores read-side aggregate snapshots. Each target has a
// generation counter; snapshots are filed under the generation they were
// computed in, and Bump moves readers on to a fresh one.
type StatsCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	// Generation returns 0 for a target that was never bumped.
	Generation(ctx context.Context, key string) (int64, error)
	Bump(ctx context.Context, key string) error
}

// EventPublisher announces committed interactions to other services.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.InteractionEvent) error
}
