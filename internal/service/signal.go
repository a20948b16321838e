package service

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/totegamma/collabfund/internal/domain"
)

// SignalService fans interaction events out over redis pub/sub, one channel
// per target so that subscribers can follow a single project or post.
type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func Channel(event domain.InteractionEvent) string {
	return "collabfund:" + string(domain.ScopeOf(event.Kind)) + ":" + strconv.FormatInt(event.TargetID, 10)
}

func (s *SignalService) Publish(ctx context.Context, event domain.InteractionEvent) error {

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, Channel(event), jsonstr).Err()
	if err != nil {
		return err
	}

	return nil
}
