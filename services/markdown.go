package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"literature-survey/config"
	"literature-survey/models"
	"literature-survey/semanticscholar"
	"literature-survey/storage"
	"literature-survey/store"
)

// SnapshotService rendert Markdown-Snapshots der persistierten Papers
// und legt sie in der Datenbank ab. Ist ein S3-Ziel konfiguriert, wird
// jeder Snapshot zusätzlich als <paperID>.md hochgeladen.
type SnapshotService struct {
	cfg      *config.Config
	gateway  *store.Gateway
	s3Client *s3.Client
	log      *zap.Logger
}

// NewSnapshotService erstellt den Snapshot-Dienst. s3Client darf nil
// sein, dann bleiben die Snapshots rein datenbankseitig.
func NewSnapshotService(cfg *config.Config, gateway *store.Gateway, s3Client *s3.Client, log *zap.Logger) *SnapshotService {
	return &SnapshotService{
		cfg:      cfg,
		gateway:  gateway,
		s3Client: s3Client,
		log:      log.With(zap.String("service", "snapshot")),
	}
}

// RenderPaperMarkdown erzeugt den Markdown-Snapshot eines Papers. Die
// Ausgabe ist für einen festen Datensatz deterministisch.
func RenderPaperMarkdown(paper *models.Paper, authors []semanticscholar.AuthorRef) string {
	var b strings.Builder

	title := paper.Title
	if title == "" {
		title = paper.ID
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	if len(authors) > 0 {
		names := make([]string, 0, len(authors))
		for _, a := range authors {
			names = append(names, a.Name)
		}
		fmt.Fprintf(&b, "**Autoren:** %s\n\n", strings.Join(names, ", "))
	}
	if paper.Journal != "" {
		fmt.Fprintf(&b, "**Journal:** %s\n\n", paper.Journal)
	}
	if paper.PublicationDate != nil {
		fmt.Fprintf(&b, "**Erschienen:** %s\n\n", paper.PublicationDate.Format("2006-01-02"))
	}
	if paper.CitationCount != nil {
		fmt.Fprintf(&b, "**Zitationen:** %d\n\n", *paper.CitationCount)
	}
	fmt.Fprintf(&b, "**Einflusswert:** %.2f\n\n", paper.InfluenceScore)
	if paper.Abstract != "" {
		fmt.Fprintf(&b, "## Abstract\n\n%s\n\n", paper.Abstract)
	}
	if paper.URL != "" {
		fmt.Fprintf(&b, "[Semantic Scholar](%s)\n", paper.URL)
	}
	return b.String()
}

// WriteSnapshot rendert und speichert den Snapshot eines Papers.
func (s *SnapshotService) WriteSnapshot(ctx context.Context, paper *models.Paper, authors []semanticscholar.AuthorRef) error {
	content := RenderPaperMarkdown(paper, authors)
	if err := s.gateway.UpsertMarkdown(paper.ID, content); err != nil {
		return err
	}

	if s.s3Client == nil {
		return nil
	}
	key := paper.ID + ".md"
	link, err := storage.UploadFile(ctx, s.s3Client, s.cfg.SnapshotS3Bucket, key, []byte(content), s.cfg)
	if err != nil {
		return fmt.Errorf("S3-Upload fehlgeschlagen: %w", err)
	}
	s.log.Debug("Snapshot hochgeladen", zap.String("link", link))
	return nil
}
