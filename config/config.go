package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"4242"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// Semantic-Scholar-API: Graph-API für Paper-/Autor-Details, Recommendations-API für Empfehlungen.
	GraphBaseURL           string `envconfig:"S2_GRAPH_BASE_URL" default:"https://api.semanticscholar.org/graph/v1"`
	RecommendationsBaseURL string `envconfig:"S2_RECOMMENDATIONS_BASE_URL" default:"https://api.semanticscholar.org/recommendations/v1"`
	// Optionaler API-Key; ohne Key gelten die niedrigeren öffentlichen Rate-Limits.
	SemanticScholarAPIKey string `envconfig:"S2_API_KEY"`

	HTTPTimeoutSeconds int `envconfig:"HTTP_TIMEOUT_SECONDS" default:"30"`
	// Pacing gegen die API; der öffentliche Zugang erlaubt 1 Request pro Sekunde.
	RequestsPerSecond float64 `envconfig:"REQUESTS_PER_SECOND" default:"1"`
	// Maximale Anzahl Versuche pro API-Aufruf (429, 5xx und Timeouts zählen als Versuch).
	MaxAttempts int `envconfig:"MAX_ATTEMPTS" default:"5"`

	// Service-seitige Obergrenzen für Batch-Anfragen.
	PaperBatchSize  int `envconfig:"PAPER_BATCH_SIZE" default:"500"`
	AuthorBatchSize int `envconfig:"AUTHOR_BATCH_SIZE" default:"1000"`

	// Anzahl Empfehlungen, die pro Quell-Paper persistiert werden.
	RecommendationLimit int `envconfig:"RECOMMENDATION_LIMIT" default:"10"`

	CronSchedule        string `envconfig:"CRON_SCHEDULE" default:"0 3 * * *"`
	RefreshCronSchedule string `envconfig:"REFRESH_CRON_SCHEDULE" default:"0 5 * * 0"`

	// Optionales S3-Ziel für Markdown-Snapshots; ohne vollständige Angaben bleibt der Upload deaktiviert.
	SnapshotS3Key    string `envconfig:"SNAPSHOT_S3_KEY"`
	SnapshotS3Secret string `envconfig:"SNAPSHOT_S3_SECRET"`
	SnapshotS3URL    string `envconfig:"SNAPSHOT_S3_URL"`
	SnapshotS3Region string `envconfig:"SNAPSHOT_S3_REGION"`
	SnapshotS3Bucket string `envconfig:"SNAPSHOT_S3_BUCKET"`

	// Optionale Zotero-Anbindung (Bulk-Export); ohne Credentials deaktiviert.
	ZoteroLibraryID     string `envconfig:"ZOTERO_LIBRARY_ID"`
	ZoteroAPIKey        string `envconfig:"ZOTERO_API_KEY"`
	ZoteroCollectionKey string `envconfig:"ZOTERO_COLLECTION_KEY"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// SnapshotsEnabled meldet, ob Markdown-Snapshots nach S3 hochgeladen werden sollen.
func (c *Config) SnapshotsEnabled() bool {
	return c.SnapshotS3Key != "" && c.SnapshotS3Secret != "" && c.SnapshotS3URL != "" &&
		c.SnapshotS3Region != "" && c.SnapshotS3Bucket != ""
}

// ZoteroEnabled meldet, ob der Zotero-Export konfiguriert ist.
func (c *Config) ZoteroEnabled() bool {
	return c.ZoteroLibraryID != "" && c.ZoteroAPIKey != "" && c.ZoteroCollectionKey != ""
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
