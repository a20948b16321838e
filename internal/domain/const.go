package domain

type ctxKey string

const (
	RequesterIdCtxKey    ctxKey = "cf-requesterId"
	RequesterTokenCtxKey ctxKey = "cf-requesterToken"
)

// Kind identifies one relationship state machine.
type Kind string

const (
	KindVote           Kind = "vote"
	KindCollaboration  Kind = "collaboration"
	KindFollow         Kind = "follow"
	KindPostReaction   Kind = "post_reaction"
	KindPostLike       Kind = "post_like"
	KindPostSave       Kind = "post_save"
	KindDiscussionLike Kind = "discussion_like"
)

// State is the closed set of values a relationship row may hold.
// StateAbsent is never persisted.
type State string

const (
	StateAbsent State = ""

	StateUpvoted   State = "upvoted"
	StateDownvoted State = "downvoted"

	StatePending  State = "pending"
	StateAccepted State = "accepted"
	StateRejected State = "rejected"

	StatePresent State = "present"

	ReactionLike       State = "like"
	ReactionCelebrate  State = "celebrate"
	ReactionSupport    State = "support"
	ReactionInsightful State = "insightful"
	ReactionCurious    State = "curious"
)

// ReactionKinds lists every reaction a post accepts, in display order.
var ReactionKinds = []State{
	ReactionLike,
	ReactionCelebrate,
	ReactionSupport,
	ReactionInsightful,
	ReactionCurious,
}

func ParseReaction(s string) (State, bool) {
	for _, k := range ReactionKinds {
		if string(k) == s {
			return k, true
		}
	}
	return StateAbsent, false
}

// Action is what a caller asks a relationship to do.
type Action string

const (
	ActionUpvote   Action = "upvote"
	ActionDownvote Action = "downvote"
	ActionRequest  Action = "request"
	ActionAccept   Action = "accept"
	ActionReject   Action = "reject"
	ActionToggle   Action = "toggle"
)

// ReactAction builds the action that toggles the given reaction kind.
func ReactAction(kind State) Action {
	return Action("react:" + string(kind))
}

// Role tells which side of the relationship the caller is on.
type Role int

const (
	RoleActor Role = iota
	RoleTarget
)

// Outcome is reported back to the caller after a transition.
type Outcome string

const (
	OutcomeAdded    Outcome = "added"
	OutcomeRemoved  Outcome = "removed"
	OutcomeUpdated  Outcome = "updated"
	OutcomeCreated  Outcome = "created"
	OutcomeResent   Outcome = "resent"
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
)

// Scope names the type of entity a relationship points at.
type Scope string

const (
	ScopeProject    Scope = "project"
	ScopePost       Scope = "post"
	ScopeDiscussion Scope = "discussion"
	ScopeUser       Scope = "user"
)

// ScopeOf returns the target type of a relationship kind.
func ScopeOf(kind Kind) Scope {
	switch kind {
	case KindVote, KindCollaboration, EventKindDonation, EventKindComment:
		return ScopeProject
	case KindFollow:
		return ScopeUser
	case KindDiscussionLike:
		return ScopeDiscussion
	default:
		return ScopePost
	}
}
