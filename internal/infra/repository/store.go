package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/totegamma/collabfund/internal/domain"
	"github.com/totegamma/collabfund/internal/infra/database/models"
	"github.com/totegamma/collabfund/internal/usecase"
)

// Store is the gorm implementation of usecase.Repository. A Store obtained
// from InTx is bound to that transaction.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx usecase.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) FindUser(ctx context.Context, id int64) (domain.User, error) {
	var m models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		return domain.User{}, translate(err, "user")
	}
	return domain.User{ID: m.ID, Username: m.Username, FullName: m.FullName, CreatedAt: m.CDate}, nil
}

func (s *Store) FindProject(ctx context.Context, id int64) (domain.Project, error) {
	var m models.Project
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		return domain.Project{}, translate(err, "project")
	}
	return projectFromModel(m), nil
}

func (s *Store) FindPost(ctx context.Context, id int64) (domain.Post, error) {
	var m models.Post
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		return domain.Post{}, translate(err, "post")
	}
	return domain.Post{
		ID:            m.ID,
		AuthorID:      m.UserID,
		Content:       m.Content,
		CommentsCount: m.CommentsCount,
		CreatedAt:     m.CDate,
	}, nil
}

func (s *Store) FindDiscussion(ctx context.Context, id int64) (domain.Discussion, error) {
	var m models.Discussion
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		return domain.Discussion{}, translate(err, "discussion")
	}
	return domain.Discussion{ID: m.ID, AuthorID: m.UserID, Title: m.Title, CreatedAt: m.CDate}, nil
}

// FindRelationship locks the row for the rest of the transaction on postgres.
func (s *Store) FindRelationship(ctx context.Context, kind domain.Kind, actorID, targetID int64) (*domain.Relationship, error) {
	q := s.db.WithContext(ctx)
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var m models.Relationship
	err := q.Where("kind = ? AND actor_id = ? AND target_id = ?", string(kind), actorID, targetID).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rel := relationshipFromModel(m)
	return &rel, nil
}

func (s *Store) CreateRelationship(ctx context.Context, rel domain.Relationship) error {
	m := relationshipToModel(rel)
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return translate(err, string(rel.Kind))
	}
	return nil
}

func (s *Store) UpdateRelationship(ctx context.Context, rel domain.Relationship) error {
	result := s.db.WithContext(ctx).
		Model(&models.Relationship{}).
		Where("kind = ? AND actor_id = ? AND target_id = ?", string(rel.Kind), rel.ActorID, rel.TargetID).
		Updates(map[string]any{
			"state":   string(rel.State),
			"message": rel.Message,
			"m_date":  rel.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: string(rel.Kind)}
	}
	return nil
}

func (s *Store) DeleteRelationship(ctx context.Context, kind domain.Kind, actorID, targetID int64) error {
	return s.db.WithContext(ctx).
		Where("kind = ? AND actor_id = ? AND target_id = ?", string(kind), actorID, targetID).
		Delete(&models.Relationship{}).Error
}

func (s *Store) CountRelationshipsByState(ctx context.Context, kind domain.Kind, targetID int64) (map[domain.State]int64, error) {
	var rows []struct {
		State string
		Count int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.Relationship{}).
		Select("state, count(*) as count").
		Where("kind = ? AND target_id = ?", string(kind), targetID).
		Group("state").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.State]int64, len(rows))
	for _, row := range rows {
		counts[domain.State(row.State)] = row.Count
	}
	return counts, nil
}

func (s *Store) CreateDonation(ctx context.Context, donation *domain.Donation) error {
	m := models.Donation{
		UserID:    donation.DonorID,
		ProjectID: donation.ProjectID,
		Amount:    donation.Amount,
		Message:   donation.Message,
		CDate:     donation.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	donation.ID = m.ID
	donation.CreatedAt = m.CDate
	return nil
}

// AddFunding increments current_funding in place and returns the new total.
func (s *Store) AddFunding(ctx context.Context, projectID int64, amount float64) (float64, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ?", projectID).
		Update("current_funding", gorm.Expr("current_funding + ?", amount))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, domain.NotFoundError{Resource: "project"}
	}

	var m models.Project
	if err := s.db.WithContext(ctx).Select("current_funding").Where("id = ?", projectID).Take(&m).Error; err != nil {
		return 0, err
	}
	return m.CurrentFunding, nil
}

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) error {
	m := models.Comment{
		UserID:    comment.AuthorID,
		ProjectID: comment.ProjectID,
		Content:   comment.Content,
		CDate:     comment.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	comment.ID = m.ID
	comment.CreatedAt = m.CDate
	return nil
}

func (s *Store) IncrementCommentsCount(ctx context.Context, projectID int64) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ?", projectID).
		Update("comments_count", gorm.Expr("comments_count + 1"))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, domain.NotFoundError{Resource: "project"}
	}

	var m models.Project
	if err := s.db.WithContext(ctx).Select("comments_count").Where("id = ?", projectID).Take(&m).Error; err != nil {
		return 0, err
	}
	return m.CommentsCount, nil
}

func (s *Store) ListProjectsByOwner(ctx context.Context, ownerID int64) ([]domain.Project, error) {
	var ms []models.Project
	if err := s.db.WithContext(ctx).Where("user_id = ?", ownerID).Order("id").Find(&ms).Error; err != nil {
		return nil, err
	}
	projects := make([]domain.Project, 0, len(ms))
	for _, m := range ms {
		projects = append(projects, projectFromModel(m))
	}
	return projects, nil
}

func translate(err error, resource string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NotFoundError{Resource: resource}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.DuplicateError{Resource: resource}
	default:
		return err
	}
}

func projectFromModel(m models.Project) domain.Project {
	return domain.Project{
		ID:             m.ID,
		OwnerID:        m.UserID,
		Title:          m.Title,
		FundingGoal:    m.FundingGoal,
		CurrentFunding: m.CurrentFunding,
		CommentsCount:  m.CommentsCount,
		Status:         m.Status,
		CreatedAt:      m.CDate,
	}
}

func relationshipFromModel(m models.Relationship) domain.Relationship {
	return domain.Relationship{
		Kind:      domain.Kind(m.Kind),
		ActorID:   m.ActorID,
		TargetID:  m.TargetID,
		State:     domain.State(m.State),
		Message:   m.Message,
		CreatedAt: m.CDate,
		UpdatedAt: m.MDate,
	}
}

func relationshipToModel(rel domain.Relationship) models.Relationship {
	return models.Relationship{
		Kind:     string(rel.Kind),
		ActorID:  rel.ActorID,
		TargetID: rel.TargetID,
		State:    string(rel.State),
		Message:  rel.Message,
		CDate:    rel.CreatedAt,
		MDate:    rel.UpdatedAt,
	}
}
