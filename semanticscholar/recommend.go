package semanticscholar

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"go.uber.org/zap"
)

// linkedPageSize ist die Seitengröße beim Ablaufen der References- und
// Citations-Endpoints im Fallback.
const linkedPageSize = 500

// topicRequest ist der Request-Body der themenweiten Recommendations-API.
type topicRequest struct {
	PositivePaperIDs []string `json:"positivePaperIds"`
	NegativePaperIDs []string `json:"negativePaperIds"`
}

// Recommend liefert Empfehlungen für ein einzelnes Paper. Zuerst wird die
// Recommendations-API befragt; liefert sie einen Fehler oder eine leere
// Liste, werden stattdessen die direkten References und Citations des
// Papers als strukturelle Kandidaten herangezogen, absteigend nach
// Zitationszahl sortiert.
func (c *Client) Recommend(ctx context.Context, paperID string, limit int) ([]*PaperResult, error) {
	query := url.Values{}
	query.Set("from", "all-cs")
	query.Set("fields", APIFields)
	query.Set("limit", strconv.Itoa(limit))

	var resp recommendationsResponse
	err := c.call(ctx, http.MethodGet, c.recommendationsURL("/papers/forpaper/"+paperID), query, nil, &resp)
	if err != nil {
		c.log.Warn("Recommendations-API fehlgeschlagen, nutze strukturellen Fallback",
			zap.String("paper_id", paperID),
			zap.Error(err))
		return c.structuralFallback(ctx, paperID, limit)
	}
	if len(resp.RecommendedPapers) == 0 {
		c.log.Info("Recommendations-API lieferte keine Treffer, nutze strukturellen Fallback",
			zap.String("paper_id", paperID))
		return c.structuralFallback(ctx, paperID, limit)
	}
	if len(resp.RecommendedPapers) > limit {
		resp.RecommendedPapers = resp.RecommendedPapers[:limit]
	}
	return resp.RecommendedPapers, nil
}

// RecommendForTopic liefert Empfehlungen für ein ganzes Thema auf Basis
// von Positiv- und Negativ-Beispielen.
func (c *Client) RecommendForTopic(ctx context.Context, positive, negative []string, limit int) ([]*PaperResult, error) {
	if len(positive) == 0 {
		return nil, nil
	}
	if negative == nil {
		negative = []string{}
	}

	query := url.Values{}
	query.Set("fields", APIFields)
	query.Set("limit", strconv.Itoa(limit))

	var resp recommendationsResponse
	err := c.call(ctx, http.MethodPost, c.recommendationsURL("/papers/"), query,
		topicRequest{PositivePaperIDs: positive, NegativePaperIDs: negative}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.RecommendedPapers, nil
}

// structuralFallback sammelt die IDs der referenzierten und zitierenden
// Papers in Erstnennungsreihenfolge ein, lädt deren Datensätze nach und
// sortiert absteigend nach Zitationszahl. Die Sortierung ist stabil, bei
// gleicher Zitationszahl bleibt die Einsammelreihenfolge erhalten.
func (c *Client) structuralFallback(ctx context.Context, paperID string, limit int) ([]*PaperResult, error) {
	seen := map[string]bool{paperID: true}
	var candidateIDs []string

	for _, endpoint := range []string{"/references", "/citations"} {
		ids, err := c.collectLinked(ctx, c.graphURL("/paper/"+paperID+endpoint))
		if err != nil {
			c.log.Warn("verknüpfte Papers konnten nicht geladen werden",
				zap.String("paper_id", paperID),
				zap.String("endpoint", endpoint),
				zap.Error(err))
			continue
		}
		for _, id := range ids {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			candidateIDs = append(candidateIDs, id)
		}
	}

	if len(candidateIDs) > limit {
		candidateIDs = candidateIDs[:limit]
	}
	if len(candidateIDs) == 0 {
		return nil, nil
	}

	fetched, err := c.FetchPapers(ctx, candidateIDs)
	if err != nil {
		return nil, err
	}
	results := make([]*PaperResult, 0, len(fetched))
	for _, paper := range fetched {
		if paper != nil {
			results = append(results, paper)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return citations(results[i]) > citations(results[j])
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// collectLinked läuft einen paginierten References- oder Citations-Endpoint
// vollständig ab und liefert die Paper-IDs in API-Reihenfolge.
func (c *Client) collectLinked(ctx context.Context, rawURL string) ([]string, error) {
	var ids []string
	offset := 0
	for {
		query := url.Values{}
		query.Set("fields", "paperId")
		query.Set("limit", strconv.Itoa(linkedPageSize))
		query.Set("offset", strconv.Itoa(offset))

		var page linkedPapersPage
		if err := c.call(ctx, http.MethodGet, rawURL, query, nil, &page); err != nil {
			return nil, err
		}
		for _, entry := range page.Data {
			if entry.CitedPaper != nil {
				ids = append(ids, entry.CitedPaper.PaperID)
			}
			if entry.CitingPaper != nil {
				ids = append(ids, entry.CitingPaper.PaperID)
			}
		}
		// Ein fehlendes oder nicht wachsendes next beendet die Schleife.
		if page.Next == nil || *page.Next <= offset {
			return ids, nil
		}
		offset = *page.Next
	}
}

func citations(p *PaperResult) int {
	if p.CitationCount == nil {
		return 0
	}
	return *p.CitationCount
}
