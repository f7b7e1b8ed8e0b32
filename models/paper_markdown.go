package models

import (
	"time"
)

// PaperMarkdown speichert den gerenderten Markdown-Snapshot eines Papers.
type PaperMarkdown struct {
	PaperID   string    `json:"paper_id" gorm:"primaryKey;size:64"`
	Content   string    `json:"content" gorm:"type:text"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (PaperMarkdown) TableName() string {
	return "paper_markdown"
}
