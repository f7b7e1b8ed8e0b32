package models

// PaperAuthor verknüpft Paper und Autor mit der Position in der Autorenzeile.
// AuthorOrder ist 1-basiert und bleibt auch bei einem Re-Link erhalten.
type PaperAuthor struct {
	ID uint `json:"id" gorm:"primaryKey"`

	PaperID  string `json:"paper_id" gorm:"index:idx_paper_authors_pair,unique;size:64;not null"`
	AuthorID string `json:"author_id" gorm:"index:idx_paper_authors_pair,unique;size:128;not null"`

	AuthorOrder int `json:"author_order" gorm:"not null"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (PaperAuthor) TableName() string {
	return "paper_authors"
}
