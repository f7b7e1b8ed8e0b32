package services

import "github.com/prometheus/client_golang/prometheus"

var (
	papersIngestedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "literature_survey_papers_ingested_total",
		Help: "Anzahl erfolgreich persistierter Paper-Datensätze.",
	})
	recommendationEdgesCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "literature_survey_recommendation_edges_total",
		Help: "Anzahl geschriebener Empfehlungskanten.",
	})
	surveyErrorsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "literature_survey_item_errors_total",
		Help: "Anzahl übersprungener Einträge wegen Fehlern.",
	})
)

func init() {
	prometheus.MustRegister(papersIngestedCounter)
	prometheus.MustRegister(recommendationEdgesCounter)
	prometheus.MustRegister(surveyErrorsCounter)
}
