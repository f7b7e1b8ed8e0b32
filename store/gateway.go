package store

import (
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"literature-survey/models"
)

// maxRetryDelay deckelt die verdoppelnde Wartezeit bei Lock-Konflikten.
const maxRetryDelay = time.Second

// Gateway bündelt alle Schreibzugriffe auf die Datenbank. Jede Operation
// ist idempotent (Upsert über die natürlichen Schlüssel) und wiederholt
// sich begrenzt bei Lock-Konflikten.
type Gateway struct {
	db          *gorm.DB
	log         *zap.Logger
	maxAttempts int
	baseDelay   time.Duration
}

// NewGateway erstellt ein Gateway mit fünf Versuchen und 50ms Startpause.
func NewGateway(db *gorm.DB, log *zap.Logger) *Gateway {
	return &Gateway{
		db:          db,
		log:         log.With(zap.String("component", "store")),
		maxAttempts: 5,
		baseDelay:   50 * time.Millisecond,
	}
}

// DB liefert das unterliegende gorm-Handle für Lesezugriffe.
func (g *Gateway) DB() *gorm.DB {
	return g.db
}

// withRetry führt fn aus und wiederholt bei Lock-Konflikten mit
// verdoppelnder Pause. Andere Fehler gehen sofort nach oben.
func (g *Gateway) withRetry(fn func() error) error {
	delay := g.baseDelay
	var err error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !isLockContention(err) {
			return err
		}
		g.log.Warn("Lock-Konflikt, erneuter Versuch",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
		time.Sleep(delay)
		delay *= 2
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}
	return err
}

// isLockContention erkennt die üblichen Konfliktmeldungen von Postgres
// und SQLite.
func isLockContention(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "lock timeout") ||
		strings.Contains(msg, "could not serialize") ||
		strings.Contains(msg, "database is locked")
}

// UpsertTopic legt ein Thema an, falls es noch nicht existiert, und
// liefert dessen ID.
func (g *Gateway) UpsertTopic(name string) (uint, error) {
	topic := models.Topic{Name: name}
	err := g.withRetry(func() error {
		return g.db.Where(models.Topic{Name: name}).FirstOrCreate(&topic).Error
	})
	if err != nil {
		return 0, err
	}
	return topic.ID, nil
}

// UpsertPaper schreibt einen Paper-Datensatz. Bestehende Zeilen werden
// vollständig mit den neuen Werten überschrieben (last write wins).
func (g *Gateway) UpsertPaper(paper *models.Paper) error {
	return g.withRetry(func() error {
		return g.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title", "abstract", "journal", "url",
				"publication_date", "citation_count", "influence_score", "updated_at",
			}),
		}).Create(paper).Error
	})
}

// UpsertAuthor schreibt einen Autorendatensatz. Vorhandene Metriken
// bleiben erhalten, wenn der neue Datensatz keine liefert; der Name wird
// nur durch nicht-leere Werte ersetzt.
func (g *Gateway) UpsertAuthor(author *models.Author) error {
	return g.withRetry(func() error {
		return g.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"name":           gorm.Expr("COALESCE(NULLIF(excluded.name, ''), name)"),
				"h_index":        gorm.Expr("COALESCE(excluded.h_index, h_index)"),
				"citation_count": gorm.Expr("COALESCE(excluded.citation_count, citation_count)"),
			}),
		}).Create(author).Error
	})
}

// LinkPaperAuthor verknüpft ein Paper mit einem Autor an der gegebenen
// Position. Bei bestehender Verknüpfung wird die Position aktualisiert.
func (g *Gateway) LinkPaperAuthor(paperID, authorID string, order int) error {
	link := models.PaperAuthor{PaperID: paperID, AuthorID: authorID, AuthorOrder: order}
	return g.withRetry(func() error {
		return g.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "paper_id"}, {Name: "author_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"author_order"}),
		}).Create(&link).Error
	})
}

// LinkTopicPaper verknüpft ein Paper mit einem Thema. Der Paper-Typ und
// das Empfehlungs-Flag werden bei bestehender Verknüpfung aktualisiert.
func (g *Gateway) LinkTopicPaper(topicID uint, paperID, paperType string, useForRecommendation bool) error {
	link := models.TopicPaper{
		TopicID:              topicID,
		PaperID:              paperID,
		PaperType:            paperType,
		UseForRecommendation: useForRecommendation,
	}
	return g.withRetry(func() error {
		return g.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "topic_id"}, {Name: "paper_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"paper_type", "use_for_recommendation"}),
		}).Create(&link).Error
	})
}

// UpsertRecommendation schreibt eine Empfehlungskante mit ihrem Rang.
// Die Paper-Zeilen beider Enden müssen bereits existieren.
func (g *Gateway) UpsertRecommendation(sourceID, recommendedID string, rank int) error {
	edge := models.Recommendation{
		SourcePaperID:      sourceID,
		RecommendedPaperID: recommendedID,
		Rank:               rank,
	}
	return g.withRetry(func() error {
		return g.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_paper_id"}, {Name: "recommended_paper_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rank"}),
		}).Create(&edge).Error
	})
}

// UpdateInfluenceScore schreibt nur den Einflusswert eines Papers neu.
func (g *Gateway) UpdateInfluenceScore(paperID string, score float64) error {
	return g.withRetry(func() error {
		return g.db.Model(&models.Paper{}).
			Where("id = ?", paperID).
			Update("influence_score", score).Error
	})
}

// UpsertMarkdown schreibt den Markdown-Snapshot eines Papers.
func (g *Gateway) UpsertMarkdown(paperID, content string) error {
	snapshot := models.PaperMarkdown{
		PaperID:   paperID,
		Content:   content,
		UpdatedAt: time.Now(),
	}
	return g.withRetry(func() error {
		return g.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "paper_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
		}).Create(&snapshot).Error
	})
}
