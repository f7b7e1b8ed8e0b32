package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"literature-survey/models"
	"literature-survey/semanticscholar"
	"literature-survey/store"
)

// refreshBatchSize begrenzt, wie viele Papers pro Durchgang aufgefrischt
// werden, bevor eine Pause eingelegt wird.
const refreshBatchSize = 5

// refreshPause ist die Pause zwischen zwei Auffrisch-Durchgängen.
const refreshPause = 2 * time.Second

// RefreshStats fasst einen Auffrisch-Lauf zusammen.
type RefreshStats struct {
	Papers  int `json:"papers"`
	Updated int `json:"updated"`
	Errors  int `json:"errors"`
}

// RefreshService frischt die Autoren-Metriken der gespeicherten Papers
// auf und berechnet ihre Einflusswerte neu.
type RefreshService struct {
	client  *semanticscholar.Client
	gateway *store.Gateway
	log     *zap.Logger
}

// NewRefreshService verdrahtet den Auffrisch-Dienst.
func NewRefreshService(client *semanticscholar.Client, gateway *store.Gateway, log *zap.Logger) *RefreshService {
	return &RefreshService{
		client:  client,
		gateway: gateway,
		log:     log.With(zap.String("service", "refresh")),
	}
}

// RefreshScores lädt für alle gespeicherten Papers die Autoren-Metriken
// neu, schreibt sie zurück und berechnet die Einflusswerte neu. Fehler
// an einzelnen Papers werden geloggt und gezählt, der Lauf geht weiter.
func (r *RefreshService) RefreshScores(ctx context.Context) (*RefreshStats, error) {
	var papers []models.Paper
	if err := r.gateway.DB().Order("id").Find(&papers).Error; err != nil {
		return nil, err
	}

	stats := &RefreshStats{Papers: len(papers)}
	for i, paper := range papers {
		if i > 0 && i%refreshBatchSize == 0 {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			case <-time.After(refreshPause):
			}
		}
		if err := r.refreshPaper(ctx, &paper); err != nil {
			r.log.Error("Einflusswert konnte nicht aufgefrischt werden",
				zap.String("paper_id", paper.ID),
				zap.Error(err))
			stats.Errors++
			continue
		}
		stats.Updated++
	}

	r.log.Info("Auffrisch-Lauf abgeschlossen",
		zap.Int("papers", stats.Papers),
		zap.Int("updated", stats.Updated),
		zap.Int("errors", stats.Errors))
	return stats, nil
}

// refreshPaper lädt die Metriken der Autoren eines Papers neu und
// schreibt Autoren und Einflusswert zurück.
func (r *RefreshService) refreshPaper(ctx context.Context, paper *models.Paper) error {
	var links []models.PaperAuthor
	err := r.gateway.DB().
		Where("paper_id = ?", paper.ID).
		Order("author_order").
		Find(&links).Error
	if err != nil {
		return err
	}

	authorIDs := make([]string, 0, len(links))
	for _, link := range links {
		authorIDs = append(authorIDs, link.AuthorID)
	}

	metrics, err := r.client.FetchAuthors(ctx, authorIDs)
	if err != nil {
		return err
	}

	for _, m := range metrics {
		if m == nil {
			continue
		}
		author := models.Author{
			ID:            m.AuthorID,
			Name:          m.Name,
			HIndex:        m.HIndex,
			CitationCount: m.CitationCount,
		}
		if err := r.gateway.UpsertAuthor(&author); err != nil {
			return err
		}
	}

	score := InfluenceScore(paper.CitationCount, authorIDs, metrics)
	return r.gateway.UpdateInfluenceScore(paper.ID, score)
}
