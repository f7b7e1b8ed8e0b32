package models

// Gültige Werte für TopicPaper.PaperType.
const (
	PaperTypePositive    = "positive"
	PaperTypeNegative    = "negative"
	PaperTypeRecommended = "recommended"
)

// TopicPaper verknüpft ein Paper mit einem Topic und klassifiziert die Rolle
// des Papers innerhalb des Topics.
type TopicPaper struct {
	ID uint `json:"id" gorm:"primaryKey"`

	TopicID uint   `json:"topic_id" gorm:"index:idx_topic_papers_pair,unique;not null"`
	PaperID string `json:"paper_id" gorm:"index:idx_topic_papers_pair,unique;size:64;not null"`

	PaperType            string `json:"paper_type" gorm:"size:16;not null;default:'positive'"`
	UseForRecommendation bool   `json:"use_for_recommendation"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (TopicPaper) TableName() string {
	return "topic_papers"
}
