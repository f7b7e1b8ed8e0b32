package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"literature-survey/semanticscholar"
)

func intPtr(v int) *int { return &v }

func metric(id string, hIndex *int) *semanticscholar.AuthorResult {
	return &semanticscholar.AuthorResult{AuthorID: id, Name: id, HIndex: hIndex}
}

func TestInfluenceScoreMeanTimesCitationFactor(t *testing.T) {
	// Basis (10+20)/2 = 15, Faktor 50/100+1 = 1.5 → 22.5
	metrics := []*semanticscholar.AuthorResult{
		metric("a", intPtr(10)),
		metric("b", intPtr(20)),
	}
	score := InfluenceScore(intPtr(50), []string{"a", "b"}, metrics)
	assert.Equal(t, 22.5, score)
}

func TestInfluenceScoreCapsCitationFactor(t *testing.T) {
	// Faktor wäre 900/100+1 = 10, gedeckelt auf 1.5
	metrics := []*semanticscholar.AuthorResult{metric("a", intPtr(10))}
	score := InfluenceScore(intPtr(900), []string{"a"}, metrics)
	assert.Equal(t, 15.0, score)
}

func TestInfluenceScoreNilCitationCountMeansNoFactor(t *testing.T) {
	metrics := []*semanticscholar.AuthorResult{metric("a", intPtr(12))}
	score := InfluenceScore(nil, []string{"a"}, metrics)
	assert.Equal(t, 12.0, score)
}

func TestInfluenceScoreZeroCitationCountMeansNoFactor(t *testing.T) {
	metrics := []*semanticscholar.AuthorResult{metric("a", intPtr(12))}
	score := InfluenceScore(intPtr(0), []string{"a"}, metrics)
	assert.Equal(t, 12.0, score)
}

func TestInfluenceScoreIgnoresAuthorsWithoutRecord(t *testing.T) {
	// Der Autor ohne Datensatz fällt aus dem Mittelwert heraus: 30/1 = 30
	metrics := []*semanticscholar.AuthorResult{metric("a", intPtr(30))}
	score := InfluenceScore(nil, []string{"a", "unbekannt"}, metrics)
	assert.Equal(t, 30.0, score)
}

func TestInfluenceScoreCountsMatchedAuthorsWithoutHIndexAsZero(t *testing.T) {
	// Synthetisierte Autoren haben einen Datensatz ohne h-Index; sie
	// drücken den Mittelwert: (30+0)/2 = 15
	metrics := []*semanticscholar.AuthorResult{
		metric("a", intPtr(30)),
		metric("Grace Hopper", nil),
	}
	score := InfluenceScore(nil, []string{"a", "Grace Hopper"}, metrics)
	assert.Equal(t, 15.0, score)
}

func TestInfluenceScoreNoAuthorsIsZero(t *testing.T) {
	assert.Equal(t, 0.0, InfluenceScore(intPtr(100), nil, nil))
}

func TestInfluenceScoreNoMatchedAuthorsIsZero(t *testing.T) {
	score := InfluenceScore(intPtr(100), []string{"a", "b"}, nil)
	assert.Equal(t, 0.0, score)
}

func TestInfluenceScoreRoundsToTwoDecimals(t *testing.T) {
	// Basis 10/3 ≈ 3.3333, Faktor 1 → 3.33
	metrics := []*semanticscholar.AuthorResult{
		metric("a", intPtr(10)),
		metric("b", intPtr(0)),
		metric("c", intPtr(0)),
	}
	score := InfluenceScore(nil, []string{"a", "b", "c"}, metrics)
	assert.Equal(t, 3.33, score)
}

func TestInfluenceScoreRoundsTiesToEven(t *testing.T) {
	// Basis 81/8 = 10.125, Faktor 1; der Halbwert rundet zur geraden
	// Ziffer ab: 10.12
	metrics := []*semanticscholar.AuthorResult{
		metric("a", intPtr(11)),
		metric("b", intPtr(10)),
		metric("c", intPtr(10)),
		metric("d", intPtr(10)),
		metric("e", intPtr(10)),
		metric("f", intPtr(10)),
		metric("g", intPtr(10)),
		metric("h", intPtr(10)),
	}
	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	assert.Equal(t, 10.12, InfluenceScore(nil, ids, metrics))
}
