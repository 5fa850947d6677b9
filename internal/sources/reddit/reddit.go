// internal/sources/reddit/reddit.go
package reddit

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

const sourceName = "reddit"

type listing struct {
	Data struct {
		Children []struct {
			Data post `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type post struct {
	Title       string  `json:"title"`
	Score       int64   `json:"score"`
	NumComments int64   `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
}

// Source searches submissions for the query. Engagement (score + comments)
// per post is the raw volume signal.
type Source struct {
	endpoint string
	client   *httpx.Client
	log      logger.Logger
}

func New(cfg config.SourceConfig, log logger.Logger) *Source {
	return &Source{
		endpoint: cfg.Endpoint,
		client:   httpx.NewClient(cfg.Timeout()),
		log:      log.WithFields(map[string]interface{}{"source": sourceName}),
	}
}

func (s *Source) Name() string { return sourceName }

func (s *Source) Fetch(ctx context.Context, query, category string) ([]models.SignalRecord, error) {
	u := s.endpoint + "/search.json?limit=50&sort=new&q=" + url.QueryEscape(query)
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, apperrors.NewUnavailableError(sourceName, err.Error())
	}
	req.Header.Set("User-Agent", "trendscout/1.0")

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

	var l listing
	if err := json.Unmarshal(body, &l); err != nil {
		return nil, apperrors.NewParseError(sourceName, err)
	}

	digest := models.DigestPayload(body)

	records := make([]models.SignalRecord, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		p := child.Data
		records = append(records, models.SignalRecord{
			Source:        sourceName,
			Query:         query,
			Category:      category,
			RawVolume:     p.Score + p.NumComments,
			Timestamp:     time.Unix(int64(p.CreatedUTC), 0).UTC(),
			PayloadDigest: digest,
		})
	}

	s.log.Debug("listing parsed", map[string]interface{}{
		"query": query,
		"posts": len(records),
	})
	return records, nil
}
