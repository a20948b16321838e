package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/totegamma/collabfund/internal/domain"
)

type relKey struct {
	kind     domain.Kind
	actorID  int64
	targetID int64
}

type fakeState struct {
	users       map[int64]domain.User
	projects    map[int64]domain.Project
	posts       map[int64]domain.Post
	discussions map[int64]domain.Discussion
	rels        map[relKey]domain.Relationship
	donations   []domain.Donation
	comments    []domain.Comment
}

func (s fakeState) clone() fakeState {
	c := fakeState{
		users:       map[int64]domain.User{},
		projects:    map[int64]domain.Project{},
		posts:       map[int64]domain.Post{},
		discussions: map[int64]domain.Discussion{},
		rels:        map[relKey]domain.Relationship{},
		donations:   append([]domain.Donation(nil), s.donations...),
		comments:    append([]domain.Comment(nil), s.comments...),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.projects {
		c.projects[k] = v
	}
	for k, v := range s.posts {
		c.posts[k] = v
	}
	for k, v := range s.discussions {
		c.discussions[k] = v
	}
	for k, v := range s.rels {
		c.rels[k] = v
	}
	return c
}

// fakeRepo is an in-memory Repository. Transactions are serialized and
// rolled back by restoring a snapshot.
type fakeRepo struct {
	mu    sync.Mutex
	state fakeState

	// racers are consumed one per CreateRelationship call: the returned row is
	// committed as if by a concurrent transaction and the insert fails.
	racers []func(rel domain.Relationship) domain.Relationship
	raced  []domain.Relationship

	failAddFunding error
	creates        int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{state: fakeState{}.clone()}
}

func (r *fakeRepo) addUser(id int64) {
	r.state.users[id] = domain.User{ID: id, Username: "user"}
}

func (r *fakeRepo) addProject(id, owner int64, funding float64) {
	r.state.projects[id] = domain.Project{ID: id, OwnerID: owner, Title: "project", FundingGoal: 1000, CurrentFunding: funding}
}

func (r *fakeRepo) addPost(id, author int64) {
	r.state.posts[id] = domain.Post{ID: id, AuthorID: author}
}

func (r *fakeRepo) addDiscussion(id, author int64) {
	r.state.discussions[id] = domain.Discussion{ID: id, AuthorID: author}
}

func (r *fakeRepo) rel(kind domain.Kind, actorID, targetID int64) (domain.Relationship, bool) {
	rel, ok := r.state.rels[relKey{kind, actorID, targetID}]
	return rel, ok
}

func (r *fakeRepo) countRows(kind domain.Kind, actorID, targetID int64) int {
	n := 0
	for k := range r.state.rels {
		if k.kind == kind && k.actorID == actorID && k.targetID == targetID {
			n++
		}
	}
	return n
}

func (r *fakeRepo) InTx(ctx context.Context, fn func(tx Store) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.state.clone()
	err := fn(r)
	if err != nil {
		r.state = snapshot
	}
	for _, rel := range r.raced {
		r.state.rels[relKey{rel.Kind, rel.ActorID, rel.TargetID}] = rel
	}
	r.raced = nil
	return err
}

func (r *fakeRepo) FindUser(ctx context.Context, id int64) (domain.User, error) {
	u, ok := r.state.users[id]
	if !ok {
		return domain.User{}, domain.NotFoundError{Resource: "user"}
	}
	return u, nil
}

func (r *fakeRepo) FindProject(ctx context.Context, id int64) (domain.Project, error) {
	p, ok := r.state.projects[id]
	if !ok {
		return domain.Project{}, domain.NotFoundError{Resource: "project"}
	}
	return p, nil
}

func (r *fakeRepo) FindPost(ctx context.Context, id int64) (domain.Post, error) {
	p, ok := r.state.posts[id]
	if !ok {
		return domain.Post{}, domain.NotFoundError{Resource: "post"}
	}
	return p, nil
}

func (r *fakeRepo) FindDiscussion(ctx context.Context, id int64) (domain.Discussion, error) {
	d, ok := r.state.discussions[id]
	if !ok {
		return domain.Discussion{}, domain.NotFoundError{Resource: "discussion"}
	}
	return d, nil
}

func (r *fakeRepo) FindRelationship(ctx context.Context, kind domain.Kind, actorID, targetID int64) (*domain.Relationship, error) {
	rel, ok := r.rel(kind, actorID, targetID)
	if !ok {
		return nil, nil
	}
	return &rel, nil
}

func (r *fakeRepo) CreateRelationship(ctx context.Context, rel domain.Relationship) error {
	r.creates++
	if len(r.racers) > 0 {
		winner := r.racers[0](rel)
		r.racers = r.racers[1:]
		r.raced = append(r.raced, winner)
		return domain.DuplicateError{Resource: string(rel.Kind)}
	}
	k := relKey{rel.Kind, rel.ActorID, rel.TargetID}
	if _, exists := r.state.rels[k]; exists {
		return domain.DuplicateError{Resource: string(rel.Kind)}
	}
	r.state.rels[k] = rel
	return nil
}

func (r *fakeRepo) UpdateRelationship(ctx context.Context, rel domain.Relationship) error {
	k := relKey{rel.Kind, rel.ActorID, rel.TargetID}
	if _, exists := r.state.rels[k]; !exists {
		return domain.NotFoundError{Resource: string(rel.Kind)}
	}
	r.state.rels[k] = rel
	return nil
}

func (r *fakeRepo) DeleteRelationship(ctx context.Context, kind domain.Kind, actorID, targetID int64) error {
	delete(r.state.rels, relKey{kind, actorID, targetID})
	return nil
}

func (r *fakeRepo) CountRelationshipsByState(ctx context.Context, kind domain.Kind, targetID int64) (map[domain.State]int64, error) {
	out := map[domain.State]int64{}
	for k, rel := range r.state.rels {
		if k.kind == kind && k.targetID == targetID {
			out[rel.State]++
		}
	}
	return out, nil
}

func (r *fakeRepo) CreateDonation(ctx context.Context, donation *domain.Donation) error {
	donation.ID = int64(len(r.state.donations) + 1)
	r.state.donations = append(r.state.donations, *donation)
	return nil
}

func (r *fakeRepo) AddFunding(ctx context.Context, projectID int64, amount float64) (float64, error) {
	if r.failAddFunding != nil {
		return 0, r.failAddFunding
	}
	p, ok := r.state.projects[projectID]
	if !ok {
		return 0, domain.NotFoundError{Resource: "project"}
	}
	p.CurrentFunding += amount
	r.state.projects[projectID] = p
	return p.CurrentFunding, nil
}

func (r *fakeRepo) CreateComment(ctx context.Context, comment *domain.Comment) error {
	comment.ID = int64(len(r.state.comments) + 1)
	r.state.comments = append(r.state.comments, *comment)
	return nil
}

func (r *fakeRepo) IncrementCommentsCount(ctx context.Context, projectID int64) (int64, error) {
	p, ok := r.state.projects[projectID]
	if !ok {
		return 0, domain.NotFoundError{Resource: "project"}
	}
	p.CommentsCount++
	r.state.projects[projectID] = p
	return p.CommentsCount, nil
}

func (r *fakeRepo) ListProjectsByOwner(ctx context.Context, ownerID int64) ([]domain.Project, error) {
	var out []domain.Project
	for _, p := range r.state.projects {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}

type memCache struct {
	values map[string]any
	gens   map[string]int64
	bumped []string
}

func newMemCache() *memCache {
	return &memCache{values: map[string]any{}, gens: map[string]int64{}}
}

func (c *memCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, ok := c.values[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *ProjectStats:
		*d = v.(ProjectStats)
	case *PostStats:
		*d = v.(PostStats)
	default:
		return false, errors.New("unsupported type")
	}
	return true, nil
}

func (c *memCache) Set(ctx context.Context, key string, value any) error {
	c.values[key] = value
	return nil
}

func (c *memCache) Generation(ctx context.Context, key string) (int64, error) {
	return c.gens[key], nil
}

func (c *memCache) Bump(ctx context.Context, key string) error {
	c.gens[key]++
	c.bumped = append(c.bumped, key)
	return nil
}

// interleavedCache runs beforeSet once, between a reader's live count and
// its snapshot write.
type interleavedCache struct {
	*memCache
	beforeSet func()
}

func (c *interleavedCache) Set(ctx context.Context, key string, value any) error {
	if hook := c.beforeSet; hook != nil {
		c.beforeSet = nil
		hook()
	}
	return c.memCache.Set(ctx, key, value)
}

type recordingPublisher struct {
	events []domain.InteractionEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event domain.InteractionEvent) error {
	p.events = append(p.events, event)
	return p.err
}
