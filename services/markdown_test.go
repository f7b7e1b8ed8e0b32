package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"literature-survey/models"
	"literature-survey/semanticscholar"
)

func TestRenderPaperMarkdownIsDeterministic(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	paper := &models.Paper{
		ID:              "abc123",
		Title:           "Ein Titel",
		Abstract:        "Eine Zusammenfassung.",
		Journal:         "Testjournal",
		URL:             "https://example.org/abc123",
		PublicationDate: &date,
		CitationCount:   intPtr(42),
		InfluenceScore:  7.5,
	}
	authors := []semanticscholar.AuthorRef{
		{Name: "Ada Lovelace"},
		{Name: "Alan Turing"},
	}

	first := RenderPaperMarkdown(paper, authors)
	second := RenderPaperMarkdown(paper, authors)
	assert.Equal(t, first, second)

	assert.Contains(t, first, "# Ein Titel")
	assert.Contains(t, first, "Ada Lovelace, Alan Turing")
	assert.Contains(t, first, "**Journal:** Testjournal")
	assert.Contains(t, first, "**Erschienen:** 2024-03-01")
	assert.Contains(t, first, "**Zitationen:** 42")
	assert.Contains(t, first, "**Einflusswert:** 7.50")
	assert.Contains(t, first, "(https://example.org/abc123)")
}

func TestRenderPaperMarkdownSkipsMissingFields(t *testing.T) {
	paper := &models.Paper{ID: "abc123"}
	out := RenderPaperMarkdown(paper, nil)

	// Ohne Titel dient die Paper-ID als Überschrift.
	assert.Contains(t, out, "# abc123")
	assert.NotContains(t, out, "**Journal:**")
	assert.NotContains(t, out, "**Zitationen:**")
	assert.NotContains(t, out, "## Abstract")
	// Der Einflusswert steht immer drin, auch bei 0.
	assert.Contains(t, out, "**Einflusswert:** 0.00")
}
