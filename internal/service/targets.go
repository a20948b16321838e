package service

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/totegamma/collabfund/internal/domain"
	"github.com/totegamma/collabfund/internal/usecase"
)

// CachedResolver remembers target owners in process. Owners never change once
// a target exists, so only positive lookups are cached.
type CachedResolver struct {
	next  usecase.TargetResolver
	cache *cache.Cache
}

func NewCachedResolver(next usecase.TargetResolver, ttl time.Duration) *CachedResolver {
	return &CachedResolver{
		next:  next,
		cache: cache.New(ttl, ttl*2),
	}
}

func (r *CachedResolver) Owner(ctx context.Context, scope domain.Scope, id int64) (int64, error) {
	key := fmt.Sprintf("%s:%d", scope, id)
	if owner, ok := r.cache.Get(key); ok {
		return owner.(int64), nil
	}

	owner, err := r.next.Owner(ctx, scope, id)
	if err != nil {
		return 0, err
	}
	r.cache.Set(key, owner, cache.DefaultExpiration)
	return owner, nil
}
