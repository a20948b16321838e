package domain

import "time"

// Relationship is one actor's stance toward one target. At most one exists
// per (Kind, ActorID, TargetID).
type Relationship struct {
	Kind      Kind      `json:"kind"`
	ActorID   int64     `json:"actor_id"`
	TargetID  int64     `json:"target_id"`
	State     State     `json:"state"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Counters is a set of named aggregate values attached to a target.
type Counters map[string]int64

const (
	CounterVotes          = "vote_count"
	CounterCollaborations = "collaboration_count"
	CounterLikes          = "like_count"
	CounterSaves          = "save_count"
	CounterFollowers      = "follower_count"
	CounterComments       = "comments_count"
)

// InteractionEvent is emitted after a relationship change has been committed.
type InteractionEvent struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	ActorID   int64     `json:"actor_id"`
	TargetID  int64     `json:"target_id"`
	CallerID  int64     `json:"caller_id"`
	Outcome   Outcome   `json:"outcome"`
	State     State     `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

// Event kinds for accumulation actions, which have no relationship row.
const (
	EventKindDonation Kind = "donation"
	EventKindComment  Kind = "comment"
)
