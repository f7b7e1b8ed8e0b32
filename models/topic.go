package models

// Topic repräsentiert ein Survey-Thema, dem Seed-Paper zugeordnet werden.
// Topics werden beim ersten Auftreten eines Namens lazily angelegt.
type Topic struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;not null"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Topic) TableName() string {
	return "topics"
}
