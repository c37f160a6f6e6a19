// Package extractor fetches article pages and pulls out the main text.
// Extraction is best-effort: every failure degrades to an empty string so the
// classifier can still work off the feed title and summary.
package extractor

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/XQwart/Precious-Metals-News-Analyzer/internal/logger"
)

const maxContentRunes = 2500

// contentSelectors are tried in order; the first one with any matches wins.
// Semantic containers first, then common CMS class names.
var contentSelectors = []string{
	"article",
	".article-body",
	".article-content",
	".news-content",
	".text",
	".content",
	".post-content",
	`[itemprop="articleBody"]`,
	".js-mediator-article",
	".article__text",
}

// Extractor holds the HTTP client and the denylist of URLs that are known to
// be unextractable (paywalls, JS-only pages).
type Extractor struct {
	client             *http.Client
	problematicDomains []string
}

func New() *Extractor {
	return &Extractor{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		problematicDomains: []string{
			"finam.ru/publications/item",
		},
	}
}

// ShouldSkip reports whether the URL matches the denylist.
func (e *Extractor) ShouldSkip(url string) bool {
	for _, domain := range e.problematicDomains {
		if strings.Contains(url, domain) {
			return true
		}
	}
	return false
}

// Extract returns the main article text for url, truncated to 2500 runes.
// It never returns an error: network failures, bad statuses and parse errors
// are logged and yield "".
func (e *Extractor) Extract(ctx context.Context, url string) string {
	if e.ShouldSkip(url) {
		logger.Debug("skipping denylisted url", "url", url)
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		logger.Debug("bad article url", "url", url, "error", err)
		return ""
	}
	browserHeaders(req)

	resp, err := e.client.Do(req)
	if err != nil {
		logger.Debug("article fetch failed", "url", url, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Debug("article fetch non-2xx", "url", url, "status", resp.StatusCode)
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		logger.Debug("article parse failed", "url", url, "error", err)
		return ""
	}

	return truncateRunes(extractText(doc), maxContentRunes)
}

// browserHeaders sets a browser-like request identity; some news sites reject
// requests without it.
func browserHeaders(r *http.Request) {
	r.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	r.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	r.Header.Set("Accept-Language", "ru-RU,ru;q=0.8,en-US;q=0.5,en;q=0.3")
}

func extractText(doc *goquery.Document) string {
	// Drop non-content structure before reading text.
	doc.Find("script, style, nav, header, footer, aside").Remove()

	for _, selector := range contentSelectors {
		sel := doc.Find(selector)
		if sel.Length() == 0 {
			continue
		}
		var parts []string
		sel.Each(func(i int, s *goquery.Selection) {
			if text := strings.TrimSpace(s.Text()); text != "" {
				parts = append(parts, text)
			}
		})
		if len(parts) > 0 {
			return collapseWhitespace(strings.Join(parts, " "))
		}
	}

	// No content region matched: fall back to all paragraph text.
	var paragraphs []string
	doc.Find("p").Each(func(i int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	return collapseWhitespace(strings.Join(paragraphs, " "))
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
