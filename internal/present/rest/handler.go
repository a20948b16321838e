package rest

import (
	"context"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/totegamma/collabfund/internal/domain"
	"github.com/totegamma/collabfund/internal/present/rest/middleware"
	"github.com/totegamma/collabfund/internal/present/rest/presenter"
	"github.com/totegamma/collabfund/internal/service"
	"github.com/totegamma/collabfund/internal/usecase"
)

type Handler struct {
	interaction *usecase.InteractionUsecase
	donation    *usecase.DonationUsecase
	comment     *usecase.CommentUsecase
	stats       *usecase.StatsUsecase
	auth        *service.AuthService
}

func NewHandler(
	interaction *usecase.InteractionUsecase,
	donation *usecase.DonationUsecase,
	comment *usecase.CommentUsecase,
	stats *usecase.StatsUsecase,
	auth *service.AuthService,
) *Handler {
	return &Handler{
		interaction: interaction,
		donation:    donation,
		comment:     comment,
		stats:       stats,
		auth:        auth,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo, auth *middleware.AuthMiddleware) {
	api := e.Group("/api", auth.IdentifyIdentity, middleware.RequireIdentity)

	api.POST("/projects/:id/vote", h.handleVote)
	api.POST("/projects/:id/collaborate", h.handleCollaborate)
	api.POST("/projects/:id/collaborations/:userId/accept", h.handleRespondCollaboration(true))
	api.POST("/projects/:id/collaborations/:userId/reject", h.handleRespondCollaboration(false))
	api.POST("/projects/:id/donate", h.handleDonate)
	api.POST("/projects/:id/comments", h.handleComment)
	api.GET("/projects/:id/stats", h.handleProjectStats)

	api.POST("/users/:id/follow", h.handleFollow)
	api.POST("/users/:id/follow-requests/:followerId/accept", h.handleRespondFollow(true))
	api.POST("/users/:id/follow-requests/:followerId/reject", h.handleRespondFollow(false))

	api.POST("/posts/:id/react", h.handleReact)
	api.POST("/posts/:id/like", h.handlePostLike)
	api.POST("/posts/:id/save", h.handlePostSave)
	api.GET("/posts/:id/stats", h.handlePostStats)

	api.POST("/discussions/:id/like", h.handleDiscussionLike)

	api.GET("/dashboard/stats", h.handleDashboard)
	api.POST("/logout", h.handleLogout)
}

type collaborateRequest struct {
	Message string `json:"message" validate:"max=2000"`
}

type reactRequest struct {
	Kind string `json:"kind" validate:"required"`
}

type donateRequest struct {
	Amount  float64 `json:"amount" validate:"required"`
	Message string  `json:"message" validate:"max=2000"`
}

type commentRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
}

func (h *Handler) handleVote(c echo.Context) error {
	ctx := c.Request().Context()

	projectID, err := pathID(c, "id")
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid project id")
	}

	result, err := h.interaction.ToggleVote(ctx, middleware.RequesterID(ctx), projectID)
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, echo.Map{
		"message":    message("vote", result.Outcome),
		"vote":       result.Relationship,
		"vote_count": result.Counters[domain.CounterVotes],
	})
}

func (h *Handler) handleCollaborate(c echo.Context) error {
	ctx := c.Request().Context()

	projectID, err := pathID(c, "id")
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid project id")
	}

	var req collaborateRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	result, err := h.interaction.RequestCollaboration(ctx, middleware.RequesterID(ctx), projectID, req.Message)
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.Created(c, echo.Map{
		"message":             message("collaboration request", result.Outcome),
		"collaboration":       result.Relationship,
		"collaboration_count": result.Counters[domain.CounterCollaborations],
	})
}

func (h *Handler) handleRespondCollaboration(accept bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		projectID, err := pathID(c, "id")
		if err != nil {
			return presenter.BadRequestMessage(c, "invalid project id")
		}
		collaboratorID, err := pathID(c, "userId")
		if err != nil {
			return presenter.BadRequestMessage(c, "invalid user id")
		}

		result, err := h.interaction.RespondCollaboration(ctx, middleware.RequesterID(ctx), projectID, collaboratorID, accept)
		if err != nil {
			return presenter.Error(c, err)
		}

		return presenter.OK(c, echo.Map{
			"message":             message("collaboration request", result.Outcome),
			"collaboration":       result.Relationship,
			"collaboration_count": result.Counters[domain.CounterCollaborations],
		})
	}
}

func (h *Handler) handleFollow(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := pathID(c, "id")
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid user id")
	}

	result, err := h.interaction.SendFollowRequest(ctx, middleware.RequesterID(ctx), userID)
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.Created(c, echo.Map{
		"message":        message("follow request", result.Outcome),
		"follow_request": result.Relationship,
		"follower_count": result.Counters[domain.CounterFollowers],
	})
}

func (h *Handler) handleRespondFollow(accept bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		userID, err := pathID(c, "id")
		if err != nil {
			return presenter.BadRequestMessage(c, "invalid user id")
		}
		followerID, err := pathID(c, "followerId")
		if err != nil {
			return presenter.BadRequestMessage(c, "invalid follower id")
		}

		result, err := h.interaction.RespondFollowRequest(ctx, middleware.RequesterID(ctx), userID, followerID, accept)
		if err != nil {
			return presenter.Error(c, err)
		}

		return presenter.OK(c, echo.Map{
			"message":        message("follow request", result.Outcome),
			"follow_request": result.Relationship,
			"follower_count": result.Counters[domain.CounterFollowers],
		})
	}
}

func (h *Handler) handleReact(c echo.Context) error {
	ctx := c.Request().Context()

	postID, err := pathID(c, "id")
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid post id")
	}

	var req reactRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	result, err := h.interaction.ToggleReaction(ctx, middleware.RequesterID(ctx), postID, req.Kind)
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, echo.Map{
		"message":         message("reaction", result.Outcome),
		"reaction":        result.Relationship,
		"reaction_counts": result.Counters,
	})
}

func (h *Handler) handlePostLike(c echo.Context) error {
	return h.togglePresence(c, "post", "like", domain.CounterLikes, h.interaction.TogglePostLike)
}

func (h *Handler) handlePostSave(c echo.Context) error {
	return h.togglePresence(c, "post", "save", domain.CounterSaves, h.interaction.TogglePostSave)
}

func (h *Handler) handleDiscussionLike(c echo.Context) error {
	return h.togglePresence(c, "discussion", "like", domain.CounterLikes, h.interaction.ToggleDiscussionLike)
}

type toggleFunc = func(ctx context.Context, callerID, targetID int64) (usecase.ActionResult, error)

func (h *Handler) togglePresence(c echo.Context, target, name, counter string, toggle toggleFunc) error {
	ctx := c.Request().Context()

	targetID, err := pathID(c, "id")
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid "+target+" id")
	}

	result, err := toggle(ctx, middleware.RequesterID(ctx), targetID)
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, echo.Map{
		"message": message(name, result.Outcome),
		name:      result.Relationship,
		counter:   result.Counters[counter],
	})
}

func (h *Handler) handleDonate(c echo.Context) error {
	ctx := c.Request().Context()

	projectID, err := pathID(c, "id")
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid project id")
	}

	var req donateRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	result, err := h.donation.Donate(ctx, middleware.RequesterID(ctx), projectID, req.Amount, req.Message)
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.Created(c, echo.Map{
		"message":     "donation received",
		"donation":    result.Donation,
		"new_funding": result.NewFunding,
	})
}

func (h *Handler) handleComment(c echo.Context) error {
	ctx := c.Request().Context()

	projectID, err := pathID(c, "id")
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid project id")
	}

	var req commentRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	result, err := h.comment.AddComment(ctx, middleware.RequesterID(ctx), projectID, req.Content)
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.Created(c, echo.Map{
		"message":        "comment added",
		"comment":        result.Comment,
		"comments_count": result.CommentsCount,
	})
}

func (h *Handler) handleProjectStats(c echo.Context) error {
	projectID, err := pathID(c, "id")
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid project id")
	}

	stats, err := h.stats.ProjectStats(c.Request().Context(), projectID)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, stats)
}

func (h *Handler) handlePostStats(c echo.Context) error {
	postID, err := pathID(c, "id")
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid post id")
	}

	stats, err := h.stats.PostStats(c.Request().Context(), postID)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, stats)
}

func (h *Handler) handleDashboard(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := h.stats.Dashboard(ctx, middleware.RequesterID(ctx))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, stats)
}

func (h *Handler) handleLogout(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.auth.Revoke(ctx, middleware.RequesterToken(ctx)); err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, echo.Map{"message": "logged out"})
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.InvalidOperationError{Reason: "invalid " + name}
	}
	return id, nil
}

var outcomeText = map[domain.Outcome]string{
	domain.OutcomeAdded:    "added",
	domain.OutcomeRemoved:  "removed",
	domain.OutcomeUpdated:  "updated",
	domain.OutcomeCreated:  "sent",
	domain.OutcomeResent:   "resent",
	domain.OutcomeAccepted: "accepted",
	domain.OutcomeRejected: "rejected",
}

func message(subject string, outcome domain.Outcome) string {
	return subject + " " + outcomeText[outcome]
}
