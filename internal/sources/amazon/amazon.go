// internal/sources/amazon/amazon.go
package amazon

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

const sourceName = "amazon"

type searchResults struct {
	Results []struct {
		Title        string  `json:"title"`
		ReviewsCount int64   `json:"reviews_count"`
		Price        float64 `json:"price"`
	} `json:"results"`
}

// Source queries a marketplace search API. Review counts proxy demand;
// listings carry no timestamps, so records are stamped at fetch time.
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
	u := s.endpoint + "/products?q=" + url.QueryEscape(query)
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, apperrors.NewUnavailableError(sourceName, err.Error())
	}
	if s.apiKey != "" {
		req.Header.Set("X-Api-Key", s.apiKey)
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

	var res searchResults
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, apperrors.NewParseError(sourceName, err)
	}

	digest := models.DigestPayload(body)
	now := time.Now().UTC()

	records := make([]models.SignalRecord, 0, len(res.Results))
	for _, r := range res.Results {
		volume := r.ReviewsCount
		if volume == 0 {
			volume = 1
		}
		records = append(records, models.SignalRecord{
			Source:        sourceName,
			Query:         query,
			Category:      category,
			RawVolume:     volume,
			Timestamp:     now,
			PayloadDigest: digest,
		})
	}

	s.log.Debug("results parsed", map[string]interface{}{
		"query":    query,
		"listings": len(records),
	})
	return records, nil
}
