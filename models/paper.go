package models

import (
	"time"
)

// Paper repräsentiert eine Publikation samt Metadaten aus der Semantic-Scholar-API.
// Die ID ist die Provider-ID und wird niemals lokal erzeugt; ein erneuter Fetch
// überschreibt alle Felder (last-write-wins).
type Paper struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title           string     `json:"title"`
	Abstract        string     `json:"abstract,omitempty" gorm:"type:text"`
	Journal         string     `json:"journal,omitempty"`
	URL             string     `json:"url,omitempty"`
	PublicationDate *time.Time `json:"publication_date,omitempty"`

	// CitationCount ist nil, wenn der Provider keinen Wert geliefert hat.
	CitationCount *int `json:"citation_count,omitempty"`

	// InfluenceScore ist der abgeleitete Einflusswert (siehe services.InfluenceScore),
	// immer >= 0; fehlen alle Autorenmetriken, steht hier 0.
	InfluenceScore float64 `json:"influence_score" gorm:"column:influence_score"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Paper) TableName() string {
	return "papers"
}
