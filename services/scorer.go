package services

import (
	"math"

	"literature-survey/semanticscholar"
)

// maxCitationFactor deckelt den Zitations-Bonus auf 1.5.
const maxCitationFactor = 1.5

// InfluenceScore berechnet den Einflusswert eines Papers aus den
// h-Indizes seiner Autoren und seiner Zitationszahl. Die Basis ist der
// Mittelwert der h-Indizes über die Autoren mit aufgelöstem
// Metrik-Datensatz; ein fehlender h-Index zählt dabei als 0, Autoren
// ganz ohne Datensatz bleiben außen vor. Ohne einen einzigen Treffer
// ist der Wert 0. Der Zitationsfaktor min(1.5, cc/100+1) greift nur bei
// einer Zitationszahl größer 0. Das Ergebnis wird auf zwei
// Nachkommastellen gerundet (Halbwerte zur geraden Ziffer, kompatibel
// zu bereits gespeicherten Werten) und ist nie negativ.
func InfluenceScore(citationCount *int, authorIDs []string, metrics []*semanticscholar.AuthorResult) float64 {
	if len(authorIDs) == 0 {
		return 0
	}

	byID := make(map[string]*semanticscholar.AuthorResult, len(metrics))
	for _, m := range metrics {
		if m != nil {
			byID[m.AuthorID] = m
		}
	}

	matched := 0
	sum := 0.0
	for _, id := range authorIDs {
		m, ok := byID[id]
		if !ok {
			continue
		}
		matched++
		if m.HIndex != nil {
			sum += float64(*m.HIndex)
		}
	}
	if matched == 0 {
		return 0
	}
	base := sum / float64(matched)

	factor := 1.0
	if citationCount != nil && *citationCount > 0 {
		factor = float64(*citationCount)/100 + 1
		if factor > maxCitationFactor {
			factor = maxCitationFactor
		}
	}

	return math.RoundToEven(base*factor*100) / 100
}
