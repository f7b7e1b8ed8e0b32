package models

// Recommendation modelliert eine gerichtete Empfehlungskante: Quelle empfiehlt Ziel.
// Rank ist die 1-basierte Position; pro Quell-Paper bilden die persistierten
// Ränge eine lückenlose Folge ab 1.
type Recommendation struct {
	ID uint `json:"id" gorm:"primaryKey"`

	SourcePaperID      string `json:"source_paper_id" gorm:"index:idx_recommendations_edge,unique;size:64;not null"`
	RecommendedPaperID string `json:"recommended_paper_id" gorm:"index:idx_recommendations_edge,unique;size:64;not null"`

	Rank int `json:"rank" gorm:"not null"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Recommendation) TableName() string {
	return "paper_recommendations"
}
