package semanticscholar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"literature-survey/config"
)

// defaultRetryAfter wird gewartet, wenn die API bei 429 keinen
// Retry-After-Header mitschickt.
const defaultRetryAfter = 60 * time.Second

// timeoutRetryDelay ist die feste Pause vor dem erneuten Versuch nach
// einem Netzwerk-Timeout.
const timeoutRetryDelay = 2 * time.Second

// TransientError zeigt an, dass alle Versuche an vorübergehenden Fehlern
// (Rate-Limit, Serverfehler, Timeouts) gescheitert sind.
type TransientError struct {
	Status   int
	Attempts int
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("vorübergehender API-Fehler nach %d Versuchen (letzter Status %d)", e.Attempts, e.Status)
}

// StatusError ist ein endgültiger API-Fehler (4xx außer 429), der nicht
// wiederholt wird.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API-Fehler mit Status %d: %s", e.Status, e.Body)
}

// Client kapselt den Zugriff auf die Graph- und Recommendations-API von
// Semantic Scholar inklusive Rate-Limiting und begrenzter Wiederholung.
type Client struct {
	cfg        *config.Config
	log        *zap.Logger
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient erstellt einen API-Client mit dem konfigurierten Pacing.
func NewClient(cfg *config.Config, log *zap.Logger) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	return &Client{
		cfg: cfg,
		log: log.With(zap.String("component", "semanticscholar")),
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.HTTPTimeoutSeconds) * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// call führt einen API-Aufruf mit begrenzter Wiederholung aus und
// dekodiert die Antwort nach out. Bei 429 wird Retry-After respektiert,
// bei 5xx mit verdoppelnder Pause ab 1s gewartet, bei Timeouts fest 2s.
// Andere 4xx-Antworten sind endgültig und liefern einen StatusError.
func (c *Client) call(ctx context.Context, method, rawURL string, query url.Values, body any, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("request body konnte nicht serialisiert werden: %w", err)
		}
	}

	backoff := time.Second
	lastStatus := 0

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		status, header, respBody, err := c.doRequest(ctx, method, rawURL, query, payload)
		if err != nil {
			if isTimeout(err) {
				c.log.Warn("API-Timeout, erneuter Versuch",
					zap.String("url", rawURL),
					zap.Int("attempt", attempt))
				lastStatus = 0
				if attempt < c.cfg.MaxAttempts {
					if waitErr := sleepCtx(ctx, timeoutRetryDelay); waitErr != nil {
						return waitErr
					}
				}
				continue
			}
			return fmt.Errorf("API-Aufruf fehlgeschlagen: %w", err)
		}

		switch {
		case status >= 200 && status < 300:
			if out != nil {
				if err := json.Unmarshal(respBody, out); err != nil {
					return fmt.Errorf("API-Antwort konnte nicht dekodiert werden: %w", err)
				}
			}
			return nil
		case status == http.StatusTooManyRequests:
			delay := retryAfter(header)
			c.log.Warn("Rate-Limit erreicht, warte",
				zap.String("url", rawURL),
				zap.Duration("delay", delay),
				zap.Int("attempt", attempt))
			lastStatus = status
			if attempt < c.cfg.MaxAttempts {
				if waitErr := sleepCtx(ctx, delay); waitErr != nil {
					return waitErr
				}
			}
		case status >= 500:
			c.log.Warn("Serverfehler, erneuter Versuch",
				zap.String("url", rawURL),
				zap.Int("status", status),
				zap.Duration("delay", backoff),
				zap.Int("attempt", attempt))
			lastStatus = status
			if attempt < c.cfg.MaxAttempts {
				if waitErr := sleepCtx(ctx, backoff); waitErr != nil {
					return waitErr
				}
			}
			backoff *= 2
		default:
			return &StatusError{Status: status, Body: truncate(string(respBody), 200)}
		}
	}

	return &TransientError{Status: lastStatus, Attempts: c.cfg.MaxAttempts}
}

// doRequest baut den HTTP-Request, setzt den API-Key-Header und liest die
// komplette Antwort ein.
func (c *Client) doRequest(ctx context.Context, method, rawURL string, query url.Values, payload []byte) (int, http.Header, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return 0, nil, nil, err
	}
	if query != nil {
		req.URL.RawQuery = query.Encode()
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.SemanticScholarAPIKey != "" {
		req.Header.Set("x-api-key", c.cfg.SemanticScholarAPIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, err
	}
	return resp.StatusCode, resp.Header, respBody, nil
}

// retryAfter liest die Wartezeit aus dem Retry-After-Header, fällt sonst
// auf den Default zurück.
func retryAfter(header http.Header) time.Duration {
	if raw := header.Get("Retry-After"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultRetryAfter
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// graphURL setzt einen Pfad auf die Graph-API-Basis.
func (c *Client) graphURL(path string) string {
	return c.cfg.GraphBaseURL + path
}

// recommendationsURL setzt einen Pfad auf die Recommendations-API-Basis.
func (c *Client) recommendationsURL(path string) string {
	return c.cfg.RecommendationsBaseURL + path
}
