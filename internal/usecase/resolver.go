package usecase

import (
	"context"
	"fmt"

	"github.com/totegamma/collabfund/internal/domain"
)

// StoreResolver answers ownership straight from the store.
type StoreResolver struct {
	store Store
}

func NewStoreResolver(store Store) *StoreResolver {
	return &StoreResolver{store: store}
}

func (r *StoreResolver) Owner(ctx context.Context, scope domain.Scope, id int64) (int64, error) {
	switch scope {
	case domain.ScopeProject:
		project, err := r.store.FindProject(ctx, id)
		if err != nil {
			return 0, err
		}
		return project.OwnerID, nil
	case domain.ScopePost:
		post, err := r.store.FindPost(ctx, id)
		if err != nil {
			return 0, err
		}
		return post.AuthorID, nil
	case domain.ScopeDiscussion:
		discussion, err := r.store.FindDiscussion(ctx, id)
		if err != nil {
			return 0, err
		}
		return discussion.AuthorID, nil
	case domain.ScopeUser:
		user, err := r.store.FindUser(ctx, id)
		if err != nil {
			return 0, err
		}
		return user.ID, nil
	default:
		return 0, fmt.Errorf("unknown scope %q", scope)
	}
}
