package models

// Author repräsentiert einen Autor samt Zitationsmetriken.
//
// Die ID ist die Provider-ID; liefert der Provider keine, wird der Klarname als
// synthetische ID verwendet. Zwei verschiedene reale Autoren mit identischem
// Klarnamen verschmelzen dadurch zu einem Datensatz. Bekannte Einschränkung
// der Datenqualität.
type Author struct {
	ID   string `json:"id" gorm:"primaryKey;size:128"`
	Name string `json:"name"`

	// HIndex und CitationCount sind nil, solange keine Metriken bekannt sind.
	HIndex        *int `json:"h_index,omitempty"`
	CitationCount *int `json:"citation_count,omitempty"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Author) TableName() string {
	return "authors"
}

// MergeAuthor kombiniert einen bestehenden Autorendatensatz mit einem neuen.
// Felder des neuen Datensatzes gewinnen nur, wenn sie belegt sind; fehlende
// Werte überschreiben vorhandene Metriken nicht. Entspricht dem
// COALESCE-Verhalten der Datenbank-Upserts.
func MergeAuthor(old, update Author) Author {
	merged := old
	if update.Name != "" {
		merged.Name = update.Name
	}
	if update.HIndex != nil {
		merged.HIndex = update.HIndex
	}
	if update.CitationCount != nil {
		merged.CitationCount = update.CitationCount
	}
	return merged
}
