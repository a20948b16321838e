package models

import (
	"time"
)

// Relationship holds every kind of actor->target stance. The composite primary
// key is what makes a second row for the same (kind, actor, target) impossible.
type Relationship struct {
	Kind     string    `json:"kind" gorm:"primaryKey;type:text;index:idx_relationship_target,priority:1"`
	ActorID  int64     `json:"actorID" gorm:"primaryKey;autoIncrement:false"`
	TargetID int64     `json:"targetID" gorm:"primaryKey;autoIncrement:false;index:idx_relationship_target,priority:2"`
	State    string    `json:"state" gorm:"type:text;not null;index:idx_relationship_target,priority:3"`
	Message  string    `json:"message" gorm:"type:text"`
	CDate    time.Time `json:"cdate" gorm:"not null"`
	MDate    time.Time `json:"mdate" gorm:"not null"`
}
