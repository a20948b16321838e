package domain

import "time"

// User is the identity that acts on, and is followed by, other users.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Project is a fundable project. CurrentFunding and CommentsCount are stored
// counters; everything else about its popularity is counted live.
type Project struct {
	ID             int64     `json:"id"`
	OwnerID        int64     `json:"owner_id"`
	Title          string    `json:"title"`
	FundingGoal    float64   `json:"funding_goal"`
	CurrentFunding float64   `json:"current_funding"`
	CommentsCount  int64     `json:"comments_count"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

type Post struct {
	ID            int64     `json:"id"`
	AuthorID      int64     `json:"author_id"`
	Content       string    `json:"content"`
	CommentsCount int64     `json:"comments_count"`
	CreatedAt     time.Time `json:"created_at"`
}

type Discussion struct {
	ID        int64     `json:"id"`
	AuthorID  int64     `json:"author_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type Comment struct {
	ID        int64     `json:"id"`
	AuthorID  int64     `json:"author_id"`
	ProjectID int64     `json:"project_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Donation is bookkeeping only; no payment gateway is involved.
type Donation struct {
	ID        int64     `json:"id"`
	DonorID   int64     `json:"donor_id"`
	ProjectID int64     `json:"project_id"`
	Amount    float64   `json:"amount"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
