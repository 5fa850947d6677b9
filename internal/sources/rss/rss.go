// internal/sources/rss/rss.go
package rss

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"trendscout/internal/common/config"
	apperrors "trendscout/internal/common/errors"
	"trendscout/internal/common/httpx"
	"trendscout/internal/common/logger"
	"trendscout/internal/models"
)

const sourceName = "rss"

type feed struct {
	Channel struct {
		Items []item `xml:"item"`
	} `xml:"channel"`
}

type item struct {
	Title       string `xml:"title"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

// Source fetches a feed and counts items mentioning the query. Each matching
// item becomes one SignalRecord so the trend analyzer sees a time series.
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
	u := s.endpoint + "?category=" + url.QueryEscape(category)
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

	var f feed
	if err := xml.Unmarshal(body, &f); err != nil {
		return nil, apperrors.NewParseError(sourceName, err)
	}

	digest := models.DigestPayload(body)
	needle := models.NormalizeKeyword(query)

	var records []models.SignalRecord
	for _, it := range f.Channel.Items {
		text := models.NormalizeKeyword(it.Title + " " + it.Description)
		if !strings.Contains(text, needle) {
			continue
		}
		ts := parsePubDate(it.PubDate)
		records = append(records, models.SignalRecord{
			Source:        sourceName,
			Query:         query,
			Category:      category,
			RawVolume:     1,
			Timestamp:     ts,
			PayloadDigest: digest,
		})
	}

	s.log.Debug("feed parsed", map[string]interface{}{
		"query":   query,
		"items":   len(f.Channel.Items),
		"matched": len(records),
	})
	return records, nil
}

func parsePubDate(raw string) time.Time {
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC3339} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts
		}
	}
	return time.Now().UTC()
}
