package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"literature-survey/models"
	"literature-survey/semanticscholar"
	"literature-survey/store"
)

// RunStats fasst einen Pipeline-Lauf zusammen.
type RunStats struct {
	Topics              int `json:"topics"`
	PapersIngested      int `json:"papers_ingested"`
	RecommendationEdges int `json:"recommendation_edges"`
	Errors              int `json:"errors"`
}

// topicInput ist die aufbereitete Eingabe eines Themas: die extrahierten
// Paper-IDs samt Flags aus den Survey-Einträgen.
type topicInput struct {
	name    string
	entries []models.SurveyEntry
	ids     []string
}

// SurveyService führt die komplette Ingestion-Pipeline aus: Einträge
// laden, Papers und Autoren nachladen, Einflusswerte berechnen,
// Empfehlungen expandieren und alles idempotent persistieren.
type SurveyService struct {
	client   *semanticscholar.Client
	gateway  *store.Gateway
	snapshot *SnapshotService
	log      *zap.Logger
	limit    int
}

// NewSurveyService verdrahtet die Pipeline. snapshot darf nil sein, dann
// werden keine Markdown-Snapshots geschrieben.
func NewSurveyService(client *semanticscholar.Client, gateway *store.Gateway, snapshot *SnapshotService, log *zap.Logger, recommendationLimit int) *SurveyService {
	return &SurveyService{
		client:   client,
		gateway:  gateway,
		snapshot: snapshot,
		log:      log.With(zap.String("service", "survey")),
		limit:    recommendationLimit,
	}
}

// ExtractPaperID liest die Paper-ID aus einer Referenz: dem letzten
// Pfadsegment einer URL, ohne Query-Anteil. Eine nackte ID bleibt
// unverändert.
func ExtractPaperID(ref string) string {
	ref = strings.TrimSpace(ref)
	if idx := strings.IndexAny(ref, "?#"); idx >= 0 {
		ref = ref[:idx]
	}
	ref = strings.TrimRight(ref, "/")
	if idx := strings.LastIndex(ref, "/"); idx >= 0 {
		ref = ref[idx+1:]
	}
	return ref
}

// RunSurvey führt einen vollständigen Pipeline-Lauf aus. Fehler an
// einzelnen Einträgen werden geloggt und gezählt, der Lauf geht weiter.
func (s *SurveyService) RunSurvey(ctx context.Context) (*RunStats, error) {
	var entries []models.SurveyEntry
	if err := s.gateway.DB().Order("topic_name, id").Find(&entries).Error; err != nil {
		return nil, err
	}

	topics := groupByTopic(entries)
	stats := &RunStats{Topics: len(topics)}

	// Negativ-Beispiele eines Themas sind die für Empfehlungen
	// freigegebenen Positiv-Papers aller anderen Themen; eigene
	// Positiv-Papers kommen nie in die Negativliste.
	seedsByTopic := make(map[string][]string, len(topics))
	positiveSet := make(map[string]map[string]bool, len(topics))
	for _, topic := range topics {
		positiveSet[topic.name] = make(map[string]bool)
		for i, entry := range topic.entries {
			if entry.PaperType != models.PaperTypePositive {
				continue
			}
			positiveSet[topic.name][topic.ids[i]] = true
			if entry.UseForRecommendation {
				seedsByTopic[topic.name] = append(seedsByTopic[topic.name], topic.ids[i])
			}
		}
	}

	for _, topic := range topics {
		negatives := crossTopicNegatives(seedsByTopic, positiveSet[topic.name], topic.name)
		s.runTopic(ctx, topic, negatives, stats)
	}

	s.log.Info("Pipeline-Lauf abgeschlossen",
		zap.Int("topics", stats.Topics),
		zap.Int("papers", stats.PapersIngested),
		zap.Int("edges", stats.RecommendationEdges),
		zap.Int("errors", stats.Errors))
	return stats, nil
}

// runTopic verarbeitet ein Thema: Stammdaten laden, persistieren und
// anschließend Empfehlungen auf Paper- und Themenebene expandieren.
func (s *SurveyService) runTopic(ctx context.Context, topic topicInput, negatives []string, stats *RunStats) {
	log := s.log.With(zap.String("topic", topic.name))

	topicID, err := s.gateway.UpsertTopic(topic.name)
	if err != nil {
		log.Error("Thema konnte nicht angelegt werden", zap.Error(err))
		stats.Errors++
		surveyErrorsCounter.Inc()
		return
	}

	papers, err := s.client.FetchPapers(ctx, topic.ids)
	if err != nil {
		log.Error("Paper-Batch fehlgeschlagen", zap.Error(err))
		stats.Errors++
		surveyErrorsCounter.Inc()
		return
	}

	// Die Antwortreihenfolge ist nicht garantiert, Zuordnung über die ID.
	byID := make(map[string]*semanticscholar.PaperResult, len(papers))
	for _, paper := range papers {
		if paper != nil && paper.PaperID != "" {
			byID[paper.PaperID] = paper
		}
	}

	var recommendationSeeds []*semanticscholar.PaperResult
	for i, entry := range topic.entries {
		paper, ok := byID[topic.ids[i]]
		if !ok {
			log.Warn("Paper nicht gefunden, Eintrag wird übersprungen",
				zap.String("paper_ref", entry.PaperRef))
			stats.Errors++
			surveyErrorsCounter.Inc()
			continue
		}
		if err := s.processPaper(ctx, topicID, paper, entry.PaperType, entry.UseForRecommendation); err != nil {
			log.Error("Paper konnte nicht verarbeitet werden",
				zap.String("paper_id", paper.PaperID),
				zap.Error(err))
			stats.Errors++
			surveyErrorsCounter.Inc()
			continue
		}
		stats.PapersIngested++
		if entry.PaperType == models.PaperTypePositive && entry.UseForRecommendation {
			recommendationSeeds = append(recommendationSeeds, paper)
		}
	}

	positives := make([]string, 0, len(recommendationSeeds))
	for _, seed := range recommendationSeeds {
		s.expandRecommendations(ctx, seed, stats)
		positives = append(positives, seed.PaperID)
	}

	s.topicRecommendations(ctx, topicID, positives, negatives, stats)
}

// processPaper persistiert einen Paper-Datensatz samt Autoren,
// Themen-Verknüpfung und Markdown-Snapshot. Die Paper-Zeile wird vor
// allen abhängigen Zeilen geschrieben. topicID 0 bedeutet "kein Thema":
// Empfehlungskandidaten aus der Paper-Expansion hängen nur an ihrer
// Empfehlungskante, nicht am Thema.
func (s *SurveyService) processPaper(ctx context.Context, topicID uint, paper *semanticscholar.PaperResult, paperType string, useForRecommendation bool) error {
	authorIDs := make([]string, 0, len(paper.Authors))
	for _, ref := range paper.Authors {
		authorIDs = append(authorIDs, ref.Identity())
	}

	metrics, err := s.client.FetchAuthors(ctx, authorIDs)
	if err != nil {
		return err
	}

	record := &models.Paper{
		ID:             paper.PaperID,
		Title:          paper.Title,
		Abstract:       paper.Abstract,
		Journal:        paper.JournalName(),
		URL:            paper.URL,
		CitationCount:  paper.CitationCount,
		InfluenceScore: InfluenceScore(paper.CitationCount, authorIDs, metrics),
	}
	if paper.PublicationDate != "" {
		if parsed, parseErr := time.Parse("2006-01-02", paper.PublicationDate); parseErr == nil {
			record.PublicationDate = &parsed
		}
	}

	if err := s.gateway.UpsertPaper(record); err != nil {
		return err
	}
	papersIngestedCounter.Inc()

	byID := make(map[string]*semanticscholar.AuthorResult, len(metrics))
	for _, m := range metrics {
		if m != nil {
			byID[m.AuthorID] = m
		}
	}
	for i, ref := range paper.Authors {
		author := models.Author{ID: ref.Identity(), Name: ref.Name}
		if m, ok := byID[author.ID]; ok {
			author.HIndex = m.HIndex
			author.CitationCount = m.CitationCount
		}
		if err := s.gateway.UpsertAuthor(&author); err != nil {
			return err
		}
		if err := s.gateway.LinkPaperAuthor(paper.PaperID, author.ID, i+1); err != nil {
			return err
		}
	}

	if topicID != 0 {
		if err := s.gateway.LinkTopicPaper(topicID, paper.PaperID, paperType, useForRecommendation); err != nil {
			return err
		}
	}

	if s.snapshot != nil {
		if err := s.snapshot.WriteSnapshot(ctx, record, paper.Authors); err != nil {
			// Snapshots sind Beiwerk, ein Fehler darf die Ingestion
			// nicht stoppen.
			s.log.Warn("Markdown-Snapshot fehlgeschlagen",
				zap.String("paper_id", paper.PaperID),
				zap.Error(err))
		}
	}
	return nil
}

// expandRecommendations holt Empfehlungen für ein Quell-Paper und
// persistiert sie eine Ebene tief, ohne Themen-Verknüpfung. Der Rang
// zählt lückenlos ab 1 über die erfolgreich persistierten Kandidaten;
// gescheiterte Kandidaten erhalten keinen Rang.
func (s *SurveyService) expandRecommendations(ctx context.Context, source *semanticscholar.PaperResult, stats *RunStats) {
	candidates, err := s.client.Recommend(ctx, source.PaperID, s.limit)
	if err != nil {
		s.log.Error("Empfehlungen konnten nicht geladen werden",
			zap.String("paper_id", source.PaperID),
			zap.Error(err))
		stats.Errors++
		surveyErrorsCounter.Inc()
		return
	}

	rank := 0
	seen := make(map[string]bool, len(candidates))
	for _, candidate := range candidates {
		if candidate == nil || candidate.PaperID == "" || candidate.PaperID == source.PaperID {
			continue
		}
		// Doppelte Kandidaten in der Provider-Antwort belegen nur beim
		// ersten Auftreten einen Rang.
		if seen[candidate.PaperID] {
			continue
		}
		seen[candidate.PaperID] = true
		// Kandidaten ohne Erscheinungsdatum sind zu unvollständig; sie
		// werden übersprungen und belegen keinen Rang.
		if candidate.PublicationDate == "" {
			s.log.Debug("Kandidat ohne Erscheinungsdatum übersprungen",
				zap.String("source_id", source.PaperID),
				zap.String("paper_id", candidate.PaperID))
			continue
		}
		if err := s.processPaper(ctx, 0, candidate, models.PaperTypeRecommended, false); err != nil {
			s.log.Error("Empfehlungskandidat konnte nicht verarbeitet werden",
				zap.String("source_id", source.PaperID),
				zap.String("paper_id", candidate.PaperID),
				zap.Error(err))
			stats.Errors++
			surveyErrorsCounter.Inc()
			continue
		}
		stats.PapersIngested++
		rank++
		if err := s.gateway.UpsertRecommendation(source.PaperID, candidate.PaperID, rank); err != nil {
			s.log.Error("Empfehlungskante konnte nicht geschrieben werden",
				zap.String("source_id", source.PaperID),
				zap.String("paper_id", candidate.PaperID),
				zap.Error(err))
			stats.Errors++
			surveyErrorsCounter.Inc()
			continue
		}
		stats.RecommendationEdges++
		recommendationEdgesCounter.Inc()
	}
}

// topicRecommendations holt themenweite Empfehlungen aus Positiv- und
// Negativ-Beispielen. Die Kandidaten werden als "recommended" mit dem
// Thema verknüpft, Rang-Kanten gibt es auf Themenebene nicht.
func (s *SurveyService) topicRecommendations(ctx context.Context, topicID uint, positives, negatives []string, stats *RunStats) {
	if len(positives) == 0 {
		return
	}

	candidates, err := s.client.RecommendForTopic(ctx, positives, negatives, s.limit)
	if err != nil {
		s.log.Error("themenweite Empfehlungen konnten nicht geladen werden", zap.Error(err))
		stats.Errors++
		surveyErrorsCounter.Inc()
		return
	}

	for _, candidate := range candidates {
		if candidate == nil || candidate.PaperID == "" || candidate.PublicationDate == "" {
			continue
		}
		if err := s.processPaper(ctx, topicID, candidate, models.PaperTypeRecommended, false); err != nil {
			s.log.Error("Themenkandidat konnte nicht verarbeitet werden",
				zap.String("paper_id", candidate.PaperID),
				zap.Error(err))
			stats.Errors++
			surveyErrorsCounter.Inc()
			continue
		}
		stats.PapersIngested++
	}
}

// groupByTopic bündelt die Survey-Einträge nach Themenname in stabiler
// Reihenfolge und extrahiert die Paper-IDs.
func groupByTopic(entries []models.SurveyEntry) []topicInput {
	byName := make(map[string]*topicInput)
	var order []string
	for _, entry := range entries {
		topic, ok := byName[entry.TopicName]
		if !ok {
			topic = &topicInput{name: entry.TopicName}
			byName[entry.TopicName] = topic
			order = append(order, entry.TopicName)
		}
		topic.entries = append(topic.entries, entry)
		topic.ids = append(topic.ids, ExtractPaperID(entry.PaperRef))
	}
	sort.Strings(order)
	result := make([]topicInput, 0, len(order))
	for _, name := range order {
		result = append(result, *byName[name])
	}
	return result
}

// crossTopicNegatives sammelt die freigegebenen Positiv-Papers aller
// anderen Themen ein. Papers, die im eigenen Thema positiv sind, werden
// übersprungen, Duplikate über Themen hinweg ebenfalls.
func crossTopicNegatives(seedsByTopic map[string][]string, ownPositives map[string]bool, topicName string) []string {
	names := make([]string, 0, len(seedsByTopic))
	for name := range seedsByTopic {
		names = append(names, name)
	}
	sort.Strings(names)

	seen := make(map[string]bool)
	var negatives []string
	for _, name := range names {
		if name == topicName {
			continue
		}
		for _, id := range seedsByTopic[name] {
			if ownPositives[id] || seen[id] {
				continue
			}
			seen[id] = true
			negatives = append(negatives, id)
		}
	}
	return negatives
}
