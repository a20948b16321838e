package transition

import (
	"github.com/totegamma/collabfund/internal/domain"
)

// Vote is a binary self-toggling upvote.
//
// The downvote rows are reachable only through ActionDownvote, which no handler
// sends. They are kept so that a stored downvote is still a legal state.
func Vote() *Machine {
	up := domain.StateUpvoted
	down := domain.StateDownvoted
	return newMachine(domain.KindVote).
		weigh(up, domain.Counters{domain.CounterVotes: 1}).
		on(domain.StateAbsent, domain.ActionUpvote, Step{Op: OpCreate, To: up, Outcome: domain.OutcomeAdded}).
		on(up, domain.ActionUpvote, Step{Op: OpDelete, To: domain.StateAbsent, Outcome: domain.OutcomeRemoved}).
		on(down, domain.ActionUpvote, Step{Op: OpUpdate, To: up, Outcome: domain.OutcomeUpdated}).
		on(domain.StateAbsent, domain.ActionDownvote, Step{Op: OpCreate, To: down, Outcome: domain.OutcomeAdded}).
		on(down, domain.ActionDownvote, Step{Op: OpDelete, To: domain.StateAbsent, Outcome: domain.OutcomeRemoved}).
		on(up, domain.ActionDownvote, Step{Op: OpUpdate, To: down, Outcome: domain.OutcomeUpdated})
}

// request builds the pending/accepted/rejected machine shared by collaboration
// and follow requests. There is no transition out of accepted.
func request(kind domain.Kind, selfReason string) *Machine {
	pending := domain.StatePending
	accepted := domain.StateAccepted
	rejected := domain.StateRejected

	m := newMachine(kind).
		banSelf(domain.ActionRequest, selfReason).
		on(domain.StateAbsent, domain.ActionRequest, Step{Op: OpCreate, To: pending, Outcome: domain.OutcomeCreated}).
		on(pending, domain.ActionRequest, Step{Err: domain.ConflictError{Reason: "request already pending"}}).
		on(accepted, domain.ActionRequest, Step{Err: domain.ConflictError{Reason: "already in relationship"}}).
		on(rejected, domain.ActionRequest, Step{Op: OpUpdate, To: pending, Outcome: domain.OutcomeResent})

	respond := []struct {
		action  domain.Action
		to      domain.State
		outcome domain.Outcome
	}{
		{domain.ActionAccept, accepted, domain.OutcomeAccepted},
		{domain.ActionReject, rejected, domain.OutcomeRejected},
	}
	for _, r := range respond {
		m.on(domain.StateAbsent, r.action, Step{Role: domain.RoleTarget, Err: domain.NotFoundError{Resource: string(kind) + " request"}})
		m.on(pending, r.action, Step{Op: OpUpdate, To: r.to, Outcome: r.outcome, Role: domain.RoleTarget})
		m.on(accepted, r.action, Step{Role: domain.RoleTarget, Err: domain.ConflictError{Reason: "request is not pending"}})
		m.on(rejected, r.action, Step{Role: domain.RoleTarget, Err: domain.ConflictError{Reason: "request is not pending"}})
	}
	return m
}

// Collaboration counts every request row toward the project's collaboration_count.
func Collaboration() *Machine {
	one := domain.Counters{domain.CounterCollaborations: 1}
	return request(domain.KindCollaboration, "cannot collaborate on your own project").
		weigh(domain.StatePending, one).
		weigh(domain.StateAccepted, one).
		weigh(domain.StateRejected, one)
}

// Follow counts only accepted requests as followers.
func Follow() *Machine {
	return request(domain.KindFollow, "cannot follow yourself").
		weigh(domain.StateAccepted, domain.Counters{domain.CounterFollowers: 1})
}

// Reaction is a multi-valued toggle: the same kind removes, another kind replaces.
func Reaction() *Machine {
	m := newMachine(domain.KindPostReaction)
	for _, k := range domain.ReactionKinds {
		m.weigh(k, domain.Counters{string(k): 1})
		m.on(domain.StateAbsent, domain.ReactAction(k), Step{Op: OpCreate, To: k, Outcome: domain.OutcomeAdded})
		for _, current := range domain.ReactionKinds {
			if current == k {
				m.on(current, domain.ReactAction(k), Step{Op: OpDelete, To: domain.StateAbsent, Outcome: domain.OutcomeRemoved})
			} else {
				m.on(current, domain.ReactAction(k), Step{Op: OpUpdate, To: k, Outcome: domain.OutcomeUpdated})
			}
		}
	}
	return m
}

// Presence is a pure on/off toggle such as a like or a save.
func Presence(kind domain.Kind, counter string) *Machine {
	present := domain.StatePresent
	return newMachine(kind).
		weigh(present, domain.Counters{counter: 1}).
		on(domain.StateAbsent, domain.ActionToggle, Step{Op: OpCreate, To: present, Outcome: domain.OutcomeAdded}).
		on(present, domain.ActionToggle, Step{Op: OpDelete, To: domain.StateAbsent, Outcome: domain.OutcomeRemoved})
}

// Registry maps each relationship kind to its machine.
type Registry map[domain.Kind]*Machine

func NewRegistry() Registry {
	return Registry{
		domain.KindVote:           Vote(),
		domain.KindCollaboration:  Collaboration(),
		domain.KindFollow:         Follow(),
		domain.KindPostReaction:   Reaction(),
		domain.KindPostLike:       Presence(domain.KindPostLike, domain.CounterLikes),
		domain.KindPostSave:       Presence(domain.KindPostSave, domain.CounterSaves),
		domain.KindDiscussionLike: Presence(domain.KindDiscussionLike, domain.CounterLikes),
	}
}

func (r Registry) For(kind domain.Kind) (*Machine, bool) {
	m, ok := r[kind]
	return m, ok
}
