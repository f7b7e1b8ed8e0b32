package semanticscholar

import (
	"context"
	"net/http"
	"net/url"
	"regexp"

	"go.uber.org/zap"
)

// nameOnlyID erkennt synthetische Autoren-IDs, die aus einem Klarnamen
// bestehen. Solche IDs kennt der Provider nicht und sie dürfen nicht an
// den Batch-Endpoint geschickt werden.
var nameOnlyID = regexp.MustCompile(`^[A-Za-z ]+$`)

// batchRequest ist der Request-Body der Batch-Endpoints.
type batchRequest struct {
	IDs []string `json:"ids"`
}

// FetchPapers lädt Paper-Datensätze über den Batch-Endpoint. Die IDs
// werden in Blöcke der konfigurierten Batch-Größe zerlegt; ein
// fehlgeschlagener Block wird geloggt und übersprungen, die übrigen
// Blöcke laufen weiter. Die Antwort behält die Reihenfolge der IDs bei,
// unbekannte IDs erscheinen als nil-Eintrag.
func (c *Client) FetchPapers(ctx context.Context, ids []string) ([]*PaperResult, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := url.Values{}
	query.Set("fields", APIFields)

	var results []*PaperResult
	for _, chunk := range chunkIDs(ids, c.cfg.PaperBatchSize) {
		var page []*PaperResult
		err := c.call(ctx, http.MethodPost, c.graphURL("/paper/batch"), query, batchRequest{IDs: chunk}, &page)
		if err != nil {
			c.log.Error("Paper-Batch fehlgeschlagen, Block wird übersprungen",
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err))
			for range chunk {
				results = append(results, nil)
			}
			continue
		}
		results = append(results, page...)
	}
	return results, nil
}

// FetchAuthors lädt Autorendatensätze über den Batch-Endpoint. IDs, die
// nur aus einem Klarnamen bestehen, gehen nicht über das Netz; für sie
// werden Datensätze ohne Metriken synthetisiert und hinten angehängt.
func (c *Client) FetchAuthors(ctx context.Context, ids []string) ([]*AuthorResult, error) {
	providerIDs := make([]string, 0, len(ids))
	var synthetic []*AuthorResult
	for _, id := range ids {
		if nameOnlyID.MatchString(id) {
			synthetic = append(synthetic, &AuthorResult{AuthorID: id, Name: id})
			continue
		}
		providerIDs = append(providerIDs, id)
	}

	query := url.Values{}
	query.Set("fields", AuthorFields)

	var results []*AuthorResult
	for _, chunk := range chunkIDs(providerIDs, c.cfg.AuthorBatchSize) {
		var page []*AuthorResult
		err := c.call(ctx, http.MethodPost, c.graphURL("/author/batch"), query, batchRequest{IDs: chunk}, &page)
		if err != nil {
			c.log.Error("Autoren-Batch fehlgeschlagen, Block wird übersprungen",
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err))
			for range chunk {
				results = append(results, nil)
			}
			continue
		}
		results = append(results, page...)
	}
	return append(results, synthetic...), nil
}

// chunkIDs zerlegt eine ID-Liste in Blöcke von maximal size Einträgen.
func chunkIDs(ids []string, size int) [][]string {
	if size <= 0 {
		size = len(ids)
	}
	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
