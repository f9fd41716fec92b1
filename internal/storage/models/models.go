package models

import (
	"time"

	"gorm.io/datatypes"
)

// Candidate 提取出的候选人记录，每次写入使用新的 ResumeID
type Candidate struct {
	ResumeID         string         `gorm:"type:varchar(36);primaryKey"`
	CandidateName    string         `gorm:"type:varchar(255)"`
	ContactEmail     string         `gorm:"type:varchar(255);index:idx_resume_candidates_email"`
	Experience       string         `gorm:"type:varchar(32)"`
	Skills           datatypes.JSON `gorm:"not null"`
	SourceBucket     string         `gorm:"type:varchar(255)"`
	SourceKey        string         `gorm:"type:varchar(1024)"`
	ExtractorVersion string         `gorm:"type:varchar(32)"`
	CreatedAt        time.Time      `gorm:"index:idx_resume_candidates_created_at"`
	UpdatedAt        time.Time
}

// TableName 表名
func (Candidate) TableName() string {
	return "resume_candidates"
}
