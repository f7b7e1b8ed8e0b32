package semanticscholar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJournalNameCombinesJournalAndVenue(t *testing.T) {
	p := &PaperResult{
		Journal:          &Journal{Name: "Nature"},
		PublicationVenue: &Venue{Name: "Nature Communications"},
	}
	assert.Equal(t, "Nature, Nature Communications", p.JournalName())
}

func TestJournalNameSkipsDuplicateVenue(t *testing.T) {
	p := &PaperResult{
		Journal:          &Journal{Name: "Nature"},
		PublicationVenue: &Venue{Name: "nature"},
	}
	assert.Equal(t, "Nature", p.JournalName())
}

func TestJournalNameFallsBackToExternalIDTypes(t *testing.T) {
	p := &PaperResult{
		ExternalIDs: map[string]any{
			"ArXiv":    "2101.00001",
			"DOI":      "10.1/x",
			"CorpusId": 42,
			"DBLP":     "conf/x",
		},
	}
	// CorpusId und DOI werden ignoriert, der Rest sortiert.
	assert.Equal(t, "ArXiv, DBLP", p.JournalName())
}

func TestJournalNameEmptyWhenNothingKnown(t *testing.T) {
	p := &PaperResult{}
	assert.Equal(t, "", p.JournalName())
}

func TestAuthorRefIdentityPrefersProviderID(t *testing.T) {
	id := "1741101"
	withID := AuthorRef{AuthorID: &id, Name: "Oren Etzioni"}
	assert.Equal(t, "1741101", withID.Identity())

	withoutID := AuthorRef{Name: "Oren Etzioni"}
	assert.Equal(t, "Oren Etzioni", withoutID.Identity())

	empty := ""
	blankID := AuthorRef{AuthorID: &empty, Name: "Oren Etzioni"}
	assert.Equal(t, "Oren Etzioni", blankID.Identity())
}
