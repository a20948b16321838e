package usecase

import (
	"context"

	"github.com/totegamma/collabfund/internal/domain"
)

// DashboardStats summarizes the caller's own projects.
type DashboardStats struct {
	TotalProjects  int64   `json:"total_projects"`
	TotalFunding   float64 `json:"total_funding"`
	TotalVotes     int64   `json:"total_votes"`
	TotalFollowers int64   `json:"total_followers"`
}

type StatsUsecase struct {
	repo       Repository
	projection *Projection
}

func NewStatsUsecase(repo Repository, projection *Projection) *StatsUsecase {
	return &StatsUsecase{repo: repo, projection: projection}
}

func (uc *StatsUsecase) ProjectStats(ctx context.Context, projectID int64) (ProjectStats, error) {
	return uc.projection.ProjectStats(ctx, uc.repo, projectID)
}

func (uc *StatsUsecase) PostStats(ctx context.Context, postID int64) (PostStats, error) {
	return uc.projection.PostStats(ctx, uc.repo, postID)
}

func (uc *StatsUsecase) Dashboard(ctx context.Context, callerID int64) (DashboardStats, error) {
	ctx, span := tracer.Start(ctx, "Stats.Usecase.Dashboard")
	defer span.End()

	if callerID == 0 {
		return DashboardStats{}, domain.ErrUnauthenticated
	}

	projects, err := uc.repo.ListProjectsByOwner(ctx, callerID)
	if err != nil {
		return DashboardStats{}, err
	}

	stats := DashboardStats{TotalProjects: int64(len(projects))}
	for _, project := range projects {
		stats.TotalFunding += project.CurrentFunding
		votes, err := uc.projection.Live(ctx, uc.repo, domain.KindVote, project.ID)
		if err != nil {
			return DashboardStats{}, err
		}
		stats.TotalVotes += votes[domain.CounterVotes]
	}

	followers, err := uc.projection.Live(ctx, uc.repo, domain.KindFollow, callerID)
	if err != nil {
		return DashboardStats{}, err
	}
	stats.TotalFollowers = followers[domain.CounterFollowers]

	return stats, nil
}
