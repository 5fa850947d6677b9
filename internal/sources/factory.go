// internal/sources/factory.go
package sources

import (
	"fmt"

	"trendscout/internal/common/config"
	apperrors "trendscout/internal/common/errors"
	"trendscout/internal/common/logger"
	"trendscout/internal/sources/amazon"
	"trendscout/internal/sources/reddit"
	"trendscout/internal/sources/rss"
	"trendscout/internal/sources/trends"
	"trendscout/internal/sources/youtube"
)

type constructor func(cfg config.SourceConfig, log logger.Logger) Adapter

var registry = map[string]constructor{
	"rss": func(cfg config.SourceConfig, log logger.Logger) Adapter {
		return rss.New(cfg, log)
	},
	"reddit": func(cfg config.SourceConfig, log logger.Logger) Adapter {
		return reddit.New(cfg, log)
	},
	"google_trends": func(cfg config.SourceConfig, log logger.Logger) Adapter {
		return trends.New(cfg, log)
	},
	"youtube": func(cfg config.SourceConfig, log logger.Logger) Adapter {
		return youtube.New(cfg, log)
	},
	"amazon": func(cfg config.SourceConfig, log logger.Logger) Adapter {
		return amazon.New(cfg, log)
	},
}

// Build instantiates every enabled adapter from configuration. An unknown
// source name is a configuration error, not a silent skip.
func Build(cfgs map[string]config.SourceConfig, log logger.Logger) (map[string]Adapter, error) {
	adapters := make(map[string]Adapter)
	for name, sc := range cfgs {
		if !sc.Enabled {
			continue
		}
		ctor, ok := registry[name]
		if !ok {
			return nil, apperrors.NewConfigError(
				fmt.Sprintf("sources.%s", name), "unknown source adapter")
		}
		adapters[name] = ctor(sc, log)
	}
	return adapters, nil
}
