// Package pipeline drives the staged relevance run: feed entries pass the
// keyword pre-filter before any network or AI cost is spent, admitted
// candidates are enriched with page content and classified, accepted items are
// deduplicated by URL and ranked by relevance score.
package pipeline

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"github.com/XQwart/Precious-Metals-News-Analyzer/internal/analyzer"
	"github.com/XQwart/Precious-Metals-News-Analyzer/internal/filter"
	"github.com/XQwart/Precious-Metals-News-Analyzer/internal/logger"
	"github.com/XQwart/Precious-Metals-News-Analyzer/internal/rss"
)

// NewsItem is an accepted, enriched record. It is only constructed for
// candidates the classifier judged relevant, and never mutated afterwards.
type NewsItem struct {
	Title          string
	URL            string
	Source         string
	Metals         []string
	Published      string // RFC 3339
	AISummary      string
	RelevanceScore float64
}

const maxSummaryRunes = 500

// FeedFetcher retrieves the entries of one feed endpoint.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]*gofeed.Item, error)
}

// ContentExtractor enriches a candidate with the article's main text.
// Implementations degrade to "" on failure instead of returning errors.
type ContentExtractor interface {
	Extract(ctx context.Context, url string) string
}

// Classifier produces the relevance verdict for a candidate.
type Classifier interface {
	Classify(ctx context.Context, title, content string, preliminaryMetals []string) analyzer.Result
}

// Deps are the collaborators an Orchestrator runs with.
type Deps struct {
	Filter     *filter.KeywordFilter
	Feeds      FeedFetcher
	Extractor  ContentExtractor
	Classifier Classifier

	// EntryDelay paces AI-classified entries, SourcePause separates feed
	// endpoints. Courtesy toward external services, not correctness; zero
	// disables the pause.
	EntryDelay  time.Duration
	SourcePause time.Duration
}

type Orchestrator struct {
	deps    Deps
	stats   *Stats
	limiter *rate.Limiter
	now     func() time.Time
}

func New(deps Deps) *Orchestrator {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if deps.EntryDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(deps.EntryDelay), 1)
	}
	return &Orchestrator{
		deps:    deps,
		stats:   &Stats{},
		limiter: limiter,
		now:     time.Now,
	}
}

// Stats returns the counters accumulated so far.
func (o *Orchestrator) Stats() StatsSnapshot {
	return o.stats.Snapshot()
}

// Run processes every feed of every source and returns the accepted items,
// deduplicated by URL and sorted by relevance score descending. Source-level
// failures are logged and skipped; Run itself never fails, at worst it returns
// an empty list.
func (o *Orchestrator) Run(ctx context.Context, sources []rss.Source, maxAgeHours int) []NewsItem {
	cutoff := o.now().Add(-time.Duration(maxAgeHours) * time.Hour)

	var all []NewsItem
	for _, src := range sources {
		logger.Info("processing source", "source", src.Name)
		for _, feedURL := range src.RSSURLs {
			items, err := o.deps.Feeds.Fetch(ctx, feedURL)
			if err != nil {
				logger.Warn("feed skipped", "url", feedURL, "error", err)
				continue
			}
			all = append(all, o.processFeed(ctx, src.Name, items, cutoff)...)

			if o.deps.SourcePause > 0 {
				select {
				case <-ctx.Done():
					return rankUnique(all)
				case <-time.After(o.deps.SourcePause):
				}
			}
		}
	}

	return rankUnique(all)
}

func (o *Orchestrator) processFeed(ctx context.Context, sourceName string, items []*gofeed.Item, cutoff time.Time) []NewsItem {
	var accepted []NewsItem
	for _, item := range items {
		select {
		case <-ctx.Done():
			logger.Warn("run cancelled", "source", sourceName)
			return accepted
		default:
		}

		if news, ok := o.processEntry(ctx, sourceName, item, cutoff); ok {
			accepted = append(accepted, news)
		}
	}
	return accepted
}

// processEntry runs one feed entry through the full staged pipeline. Any
// failure along the way skips the entry only.
func (o *Orchestrator) processEntry(ctx context.Context, sourceName string, item *gofeed.Item, cutoff time.Time) (NewsItem, bool) {
	o.stats.addTotalProcessed()

	published := resolvePublishTime(item, o.now)
	if published.Before(cutoff) {
		return NewsItem{}, false
	}

	title := strings.TrimSpace(item.Title)
	link := item.Link
	if title == "" || link == "" {
		return NewsItem{}, false
	}
	summary := stripMarkup(item.Description)

	pass, preliminaryMetals, reason := o.deps.Filter.PreFilter(title, summary)
	if !pass {
		o.stats.addPreFilteredOut()
		logger.Debug("pre-filter rejected", "title", title, "reason", reason)
		return NewsItem{}, false
	}
	logger.Info("pre-filter passed", "title", title, "metals", strings.Join(preliminaryMetals, ", "))

	if err := o.limiter.Wait(ctx); err != nil {
		return NewsItem{}, false
	}

	fullContent := o.deps.Extractor.Extract(ctx, link)
	content := strings.TrimSpace(title + " " + summary + " " + fullContent)

	o.stats.addAIAnalyzed()
	verdict := o.deps.Classifier.Classify(ctx, title, content, preliminaryMetals)
	if !verdict.IsRelevant {
		logger.Info("classifier rejected", "title", title, "reason", verdict.Reason)
		return NewsItem{}, false
	}

	o.stats.addRelevantFound()
	metals := verdict.Metals
	if len(metals) == 0 {
		metals = preliminaryMetals
	}

	logger.Info("accepted", "title", title, "score", verdict.Score)
	return NewsItem{
		Title:          title,
		URL:            link,
		Source:         sourceName,
		Metals:         metals,
		Published:      published.Format(time.RFC3339),
		AISummary:      truncateRunes(verdict.Summary, maxSummaryRunes),
		RelevanceScore: verdict.Score,
	}, true
}

// resolvePublishTime is the timestamp policy: entries without a parseable
// publish time are treated as fresh rather than discarded.
func resolvePublishTime(item *gofeed.Item, now func() time.Time) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return now()
}

// rankUnique deduplicates by URL (first occurrence wins) and sorts by
// relevance score descending. Both steps are stable, so equal-score items keep
// their original relative order.
func rankUnique(items []NewsItem) []NewsItem {
	seen := make(map[string]struct{}, len(items))
	unique := make([]NewsItem, 0, len(items))
	for _, item := range items {
		if _, dup := seen[item.URL]; dup {
			continue
		}
		seen[item.URL] = struct{}{}
		unique = append(unique, item)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].RelevanceScore > unique[j].RelevanceScore
	})
	return unique
}

// stripMarkup reduces a possibly-HTML feed summary to plain text.
func stripMarkup(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(strings.Join(strings.Fields(doc.Text()), " "))
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
