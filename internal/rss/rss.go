package rss

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"

	"github.com/XQwart/Precious-Metals-News-Analyzer/internal/logger"
	"github.com/XQwart/Precious-Metals-News-Analyzer/internal/retry"
)

// Source is one named news source with its feed endpoints.
//
// sources:
//   - name: "РБК Экономика"
//     rss_urls:
//       - https://...
type Source struct {
	Name    string   `yaml:"name"`
	RSSURLs []string `yaml:"rss_urls"`
}

type sourcesConfig struct {
	Sources []Source `yaml:"sources"`
}

// LoadSources reads the news sources list from a YAML file.
func LoadSources(path string) ([]Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg sourcesConfig
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse sources config %s: %w", path, err)
	}
	if len(cfg.Sources) == 0 {
		return nil, fmt.Errorf("sources config %s lists no sources", path)
	}
	return cfg.Sources, nil
}

// Fetcher downloads and parses individual feeds, retrying transient failures.
type Fetcher struct {
	parser *gofeed.Parser
	retry  retry.Config
}

func NewFetcher(attempts int, delay time.Duration) *Fetcher {
	return &Fetcher{
		parser: gofeed.NewParser(),
		retry:  retry.Config{MaxAttempts: attempts, Delay: delay, Backoff: true},
	}
}

// Fetch returns the entries of one feed. A feed that stays broken after the
// retry budget is an error for the caller to log and skip, never fatal.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]*gofeed.Item, error) {
	var feed *gofeed.Feed
	err := retry.Do(ctx, f.retry, func() error {
		parsed, err := f.parser.ParseURLWithContext(url, ctx)
		if err != nil {
			return err
		}
		feed = parsed
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", url, err)
	}

	logger.Info("feed loaded", "url", url, "items", len(feed.Items))
	return feed.Items, nil
}
