// internal/sources/trends/trends.go
package trends

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"trendscout/internal/common/config"
	apperrors "trendscout/internal/common/errors"
	"trendscout/internal/common/httpx"
	"trendscout/internal/common/logger"
	"trendscout/internal/models"
)

const sourceName = "google_trends"

type timeline struct {
	Timeline []point `json:"timeline"`
}

type point struct {
	Time  int64 `json:"time"`  // unix seconds
	Value int64 `json:"value"` // relative interest 0-100
}

// Source fetches an interest-over-time series. Every timeline point becomes
// one SignalRecord, which is exactly the shape the trend analyzer wants.
type Source struct {
	endpoint string
	apiKey   string
	client   *httpx.Client
	log      logger.Logger
}

func New(cfg config.SourceConfig, log logger.Logger) *Source {
	return &Source{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   httpx.NewClient(cfg.Timeout()),
		log:      log.WithFields(map[string]interface{}{"source": sourceName}),
	}
}

func (s *Source) Name() string { return sourceName }

func (s *Source) Fetch(ctx context.Context, query, category string) ([]models.SignalRecord, error) {
	u := s.endpoint + "/interest?q=" + url.QueryEscape(query)
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, apperrors.NewUnavailableError(sourceName, err.Error())
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return nil, apperrors.ClassifyTransportError(sourceName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.ClassifyHTTPStatus(sourceName, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.ClassifyTransportError(sourceName, err)
	}

	var tl timeline
	if err := json.Unmarshal(body, &tl); err != nil {
		return nil, apperrors.NewParseError(sourceName, err)
	}

	digest := models.DigestPayload(body)

	records := make([]models.SignalRecord, 0, len(tl.Timeline))
	for _, p := range tl.Timeline {
		records = append(records, models.SignalRecord{
			Source:        sourceName,
			Query:         query,
			Category:      category,
			RawVolume:     p.Value,
			Timestamp:     time.Unix(p.Time, 0).UTC(),
			PayloadDigest: digest,
		})
	}

	s.log.Debug("timeline parsed", map[string]interface{}{
		"query":  query,
		"points": len(records),
	})
	return records, nil
}
