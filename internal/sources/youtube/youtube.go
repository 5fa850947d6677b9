// internal/sources/youtube/youtube.go
package youtube

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"trendscout/internal/common/config"
	apperrors "trendscout/internal/common/errors"
	"trendscout/internal/common/httpx"
	"trendscout/internal/common/logger"
	"trendscout/internal/models"
)

const sourceName = "youtube"

type searchResponse struct {
	Items []struct {
		Snippet struct {
			Title       string    `json:"title"`
			PublishedAt time.Time `json:"publishedAt"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// Source searches videos for the query; view counts are the volume signal.
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
	u := s.endpoint + "/search?part=snippet,statistics&maxResults=25&q=" + url.QueryEscape(query)
	if s.apiKey != "" {
		u += "&key=" + url.QueryEscape(s.apiKey)
	}
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, apperrors.NewUnavailableError(sourceName, err.Error())
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

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, apperrors.NewParseError(sourceName, err)
	}

	digest := models.DigestPayload(body)

	records := make([]models.SignalRecord, 0, len(sr.Items))
	for _, it := range sr.Items {
		views, _ := strconv.ParseInt(it.Statistics.ViewCount, 10, 64)
		if views == 0 {
			views = 1 // a published video is still one observation
		}
		records = append(records, models.SignalRecord{
			Source:        sourceName,
			Query:         query,
			Category:      category,
			RawVolume:     views,
			Timestamp:     it.Snippet.PublishedAt.UTC(),
			PayloadDigest: digest,
		})
	}

	s.log.Debug("search parsed", map[string]interface{}{
		"query":  query,
		"videos": len(records),
	})
	return records, nil
}
