package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/totegamma/collabfund/internal/domain"
	"github.com/totegamma/collabfund/internal/transition"
)

// ProjectStats is the read-side snapshot of a project's aggregates.
type ProjectStats struct {
	ProjectID          int64   `json:"project_id"`
	VoteCount          int64   `json:"vote_count"`
	CollaborationCount int64   `json:"collaboration_count"`
	CommentsCount      int64   `json:"comments_count"`
	CurrentFunding     float64 `json:"current_funding"`
	FundingGoal        float64 `json:"funding_goal"`
}

// PostStats is the read-side snapshot of a post's aggregates.
type PostStats struct {
	PostID         int64           `json:"post_id"`
	LikeCount      int64           `json:"like_count"`
	SaveCount      int64           `json:"save_count"`
	CommentsCount  int64           `json:"comments_count"`
	ReactionCounts domain.Counters `json:"reaction_counts"`
}

// Projection derives aggregate values.
//
// Toggle-backed counters (votes, likes, saves, reactions, followers) are always
// counted live from relationship rows. Accumulation-backed counters
// (current_funding, comments_count) are stored on the target and only ever
// incremented in the transaction that creates the causing row.
type Projection struct {
	machines transition.Registry
	cache    StatsCache
}

func NewProjection(machines transition.Registry, cache StatsCache) *Projection {
	return &Projection{machines: machines, cache: cache}
}

// Live counts every counter the kind contributes to for one target.
func (p *Projection) Live(ctx context.Context, store Store, kind domain.Kind, targetID int64) (domain.Counters, error) {
	m, ok := p.machines.For(kind)
	if !ok {
		return nil, fmt.Errorf("unknown relationship kind %q", kind)
	}

	byState, err := store.CountRelationshipsByState(ctx, kind, targetID)
	if err != nil {
		return nil, errors.Wrap(err, "Projection.Live: count relationships")
	}

	counters := domain.Counters{}
	for _, name := range m.Counters() {
		counters[name] = 0
	}
	for state, n := range byState {
		for name, w := range m.Weights(state) {
			counters[name] += w * n
		}
	}
	return counters, nil
}

func (p *Projection) ProjectStats(ctx context.Context, store Store, projectID int64) (ProjectStats, error) {
	key := p.snapshotKey(ctx, domain.ScopeProject, projectID)

	var stats ProjectStats
	if p.cached(ctx, key, &stats) {
		return stats, nil
	}

	project, err := store.FindProject(ctx, projectID)
	if err != nil {
		return ProjectStats{}, err
	}
	votes, err := p.Live(ctx, store, domain.KindVote, projectID)
	if err != nil {
		return ProjectStats{}, err
	}
	collabs, err := p.Live(ctx, store, domain.KindCollaboration, projectID)
	if err != nil {
		return ProjectStats{}, err
	}

	stats = ProjectStats{
		ProjectID:          project.ID,
		VoteCount:          votes[domain.CounterVotes],
		CollaborationCount: collabs[domain.CounterCollaborations],
		CommentsCount:      project.CommentsCount,
		CurrentFunding:     project.CurrentFunding,
		FundingGoal:        project.FundingGoal,
	}
	p.store(ctx, key, stats)
	return stats, nil
}

func (p *Projection) PostStats(ctx context.Context, store Store, postID int64) (PostStats, error) {
	key := p.snapshotKey(ctx, domain.ScopePost, postID)

	var stats PostStats
	if p.cached(ctx, key, &stats) {
		return stats, nil
	}

	post, err := store.FindPost(ctx, postID)
	if err != nil {
		return PostStats{}, err
	}
	likes, err := p.Live(ctx, store, domain.KindPostLike, postID)
	if err != nil {
		return PostStats{}, err
	}
	saves, err := p.Live(ctx, store, domain.KindPostSave, postID)
	if err != nil {
		return PostStats{}, err
	}
	reactions, err := p.Live(ctx, store, domain.KindPostReaction, postID)
	if err != nil {
		return PostStats{}, err
	}

	stats = PostStats{
		PostID:         post.ID,
		LikeCount:      likes[domain.CounterLikes],
		SaveCount:      saves[domain.CounterSaves],
		CommentsCount:  post.CommentsCount,
		ReactionCounts: reactions,
	}
	p.store(ctx, key, stats)
	return stats, nil
}

// Invalidate moves the target to a new cache generation, so snapshots computed
// before the caller's write are never served again, even ones stored after
// this call. Failures are logged only: the snapshot expires on its own.
func (p *Projection) Invalidate(ctx context.Context, scope domain.Scope, id int64) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Bump(ctx, StatsKey(scope, id)); err != nil {
		slog.WarnContext(
			ctx, "failed to invalidate stats cache",
			slog.String("error", err.Error()),
			slog.String("scope", string(scope)),
			slog.Int64("id", id),
			slog.String("module", "projection"),
		)
	}
}

// snapshotKey returns "" when the cache is unusable; reads then go live.
func (p *Projection) snapshotKey(ctx context.Context, scope domain.Scope, id int64) string {
	if p.cache == nil {
		return ""
	}
	key := StatsKey(scope, id)
	gen, err := p.cache.Generation(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "stats cache generation read failed", slog.String("error", err.Error()), slog.String("module", "projection"))
		return ""
	}
	return fmt.Sprintf("%s:%d", key, gen)
}

func (p *Projection) cached(ctx context.Context, key string, dst any) bool {
	if key == "" {
		return false
	}
	found, err := p.cache.Get(ctx, key, dst)
	if err != nil {
		slog.WarnContext(ctx, "stats cache read failed", slog.String("error", err.Error()), slog.String("module", "projection"))
		return false
	}
	return found
}

func (p *Projection) store(ctx context.Context, key string, value any) {
	if key == "" {
		return
	}
	if err := p.cache.Set(ctx, key, value); err != nil {
		slog.WarnContext(ctx, "stats cache write failed", slog.String("error", err.Error()), slog.String("module", "projection"))
	}
}

func StatsKey(scope domain.Scope, id int64) string {
	return fmt.Sprintf("collabfund:stats:%s:%d", scope, id)
}
