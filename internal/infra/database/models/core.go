package models

import (
	"time"
)

type User struct {
	ID       int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Username string    `json:"username" gorm:"type:text;uniqueIndex;not null"`
	FullName string    `json:"fullName" gorm:"type:text;not null"`
	CDate    time.Time `json:"cdate" gorm:"->;<-:create;autoCreateTime"`
}

type Project struct {
	ID             int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID         int64     `json:"userID" gorm:"index;not null"`
	User           User      `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE;"`
	Title          string    `json:"title" gorm:"type:text;not null"`
	FundingGoal    float64   `json:"fundingGoal" gorm:"not null;default:0"`
	CurrentFunding float64   `json:"currentFunding" gorm:"not null;default:0"`
	CommentsCount  int64     `json:"commentsCount" gorm:"not null;default:0"`
	Status         string    `json:"status" gorm:"type:text;not null;default:'active'"`
	CDate          time.Time `json:"cdate" gorm:"->;<-:create;autoCreateTime"`
	MDate          time.Time `json:"mdate" gorm:"autoUpdateTime"`
}

type Post struct {
	ID            int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID        int64     `json:"userID" gorm:"index;not null"`
	User          User      `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE;"`
	Content       string    `json:"content" gorm:"type:text;not null"`
	CommentsCount int64     `json:"commentsCount" gorm:"not null;default:0"`
	CDate         time.Time `json:"cdate" gorm:"->;<-:create;autoCreateTime"`
}

type Discussion struct {
	ID     int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID int64     `json:"userID" gorm:"index;not null"`
	User   User      `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE;"`
	Title  string    `json:"title" gorm:"type:text;not null"`
	CDate  time.Time `json:"cdate" gorm:"->;<-:create;autoCreateTime"`
}

type Comment struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    int64     `json:"userID" gorm:"index;not null"`
	ProjectID int64     `json:"projectID" gorm:"index;not null"`
	Project   Project   `json:"-" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE;"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CDate     time.Time `json:"cdate" gorm:"->;<-:create;autoCreateTime"`
}

type Donation struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    int64     `json:"userID" gorm:"index;not null"`
	ProjectID int64     `json:"projectID" gorm:"index;not null"`
	Project   Project   `json:"-" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE;"`
	Amount    float64   `json:"amount" gorm:"not null"`
	Message   string    `json:"message" gorm:"type:text"`
	CDate     time.Time `json:"cdate" gorm:"->;<-:create;autoCreateTime"`
}
