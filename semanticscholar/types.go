package semanticscholar

import (
	"sort"
	"strings"
)

// APIFields ist die Feldliste, die bei Paper-Abfragen angefordert wird.
const APIFields = "paperId,url,authors,journal,title,publicationTypes,publicationDate,citationCount,publicationVenue,externalIds,abstract"

// AuthorFields ist die Feldliste für Autoren-Batch-Abfragen.
const AuthorFields = "authorId,name,hIndex,citationCount"

// Journal ist der Journal-Block eines Paper-Datensatzes.
type Journal struct {
	Name string `json:"name"`
}

// Venue ist der publicationVenue-Block eines Paper-Datensatzes.
type Venue struct {
	Name string `json:"name"`
}

// AuthorRef ist der Autoreneintrag innerhalb eines Paper-Datensatzes.
// AuthorID kann null sein, wenn die API den Autor nicht aufgelöst hat.
type AuthorRef struct {
	AuthorID *string `json:"authorId"`
	Name     string  `json:"name"`
}

// Identity liefert die zu verwendende Autoren-ID: die Provider-ID, falls
// vorhanden, sonst den Klarnamen als synthetische ID.
func (a AuthorRef) Identity() string {
	if a.AuthorID != nil && *a.AuthorID != "" {
		return *a.AuthorID
	}
	return a.Name
}

// PaperResult ist ein Paper-Datensatz, wie ihn die Graph-API liefert.
// Alle optionalen Felder sind als Pointer abgebildet, damit "fehlt" von
// "null/0" unterscheidbar bleibt.
type PaperResult struct {
	PaperID          string         `json:"paperId"`
	URL              string         `json:"url"`
	Title            string         `json:"title"`
	Abstract         string         `json:"abstract"`
	PublicationDate  string         `json:"publicationDate"`
	CitationCount    *int           `json:"citationCount"`
	Journal          *Journal       `json:"journal"`
	PublicationVenue *Venue         `json:"publicationVenue"`
	ExternalIDs      map[string]any `json:"externalIds"`
	Authors          []AuthorRef    `json:"authors"`
}

// JournalName kombiniert Journal, Publication Venue und External-ID-Typen zu
// einem Anzeigenamen. Der Venue-Name wird nur ergänzt, wenn er sich vom
// Journalnamen unterscheidet; als letzter Ausweg dienen die External-ID-Typen
// (ohne CorpusId und DOI). Liefert "", wenn nichts bekannt ist.
func (p *PaperResult) JournalName() string {
	var names []string
	if p.Journal != nil && p.Journal.Name != "" {
		names = append(names, p.Journal.Name)
	}
	if p.PublicationVenue != nil && p.PublicationVenue.Name != "" {
		duplicate := false
		for _, name := range names {
			if strings.EqualFold(p.PublicationVenue.Name, name) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			names = append(names, p.PublicationVenue.Name)
		}
	}
	if len(names) == 0 {
		var idTypes []string
		for idType := range p.ExternalIDs {
			if idType == "CorpusId" || idType == "DOI" {
				continue
			}
			idTypes = append(idTypes, idType)
		}
		sort.Strings(idTypes)
		names = idTypes
	}
	return strings.Join(names, ", ")
}

// AuthorResult ist ein Autorendatensatz aus dem Author-Batch-Endpoint.
// HIndex und CitationCount sind null für synthetisierte Autoren ohne Provider-ID.
type AuthorResult struct {
	AuthorID      string `json:"authorId"`
	Name          string `json:"name"`
	HIndex        *int   `json:"hIndex"`
	CitationCount *int   `json:"citationCount"`
}

// recommendationsResponse ist die Hülle der Recommendations-API.
type recommendationsResponse struct {
	RecommendedPapers []*PaperResult `json:"recommendedPapers"`
}

// linkedPaper ist ein Eintrag aus den References-/Citations-Listen eines Papers.
type linkedPaper struct {
	CitedPaper  *paperStub `json:"citedPaper"`
	CitingPaper *paperStub `json:"citingPaper"`
}

// paperStub trägt nur die Paper-ID eines verknüpften Eintrags.
type paperStub struct {
	PaperID string `json:"paperId"`
}

// linkedPapersPage ist eine Seite der paginierten References-/Citations-Endpoints.
type linkedPapersPage struct {
	Offset int           `json:"offset"`
	Next   *int          `json:"next"`
	Data   []linkedPaper `json:"data"`
}
