package models

import (
	"time"
)

// SurveyEntry ist die persistierte Form des Input-Feeds: ein Seed-Paper für ein
// Topic. PaperRef ist entweder die Provider-ID selbst oder eine Provider-URL,
// deren letztes Pfadsegment die ID trägt.
type SurveyEntry struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TopicName string `json:"topic_name" gorm:"index;not null"`
	PaperRef  string `json:"paper_ref" gorm:"not null"`

	UseForRecommendation bool   `json:"use_for_recommendation"`
	PaperType            string `json:"paper_type" gorm:"size:16;not null;default:'positive'"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (SurveyEntry) TableName() string {
	return "survey_entries"
}
