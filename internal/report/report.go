// Package report builds and writes the run's output document. The document
// shape is the durable external contract; field names must not change.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/XQwart/Precious-Metals-News-Analyzer/internal/pipeline"
)

type Metadata struct {
	ParsedAt           string                 `json:"parsed_at"`
	TotalNews          int                    `json:"total_news"`
	AIProvider         string                 `json:"ai_provider"`
	Model              string                 `json:"model"`
	SourcesCount       int                    `json:"sources_count"`
	MetalsDistribution map[string]int         `json:"metals_distribution"`
	AverageRelevance   float64                `json:"average_relevance"`
	ProcessingStats    pipeline.StatsSnapshot `json:"processing_stats"`
}

type NewsEntry struct {
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	Source         string  `json:"source"`
	Published      string  `json:"published"`
	AISummary      string  `json:"ai_summary"`
	RelevanceScore float64 `json:"relevance_score"`
}

type Document struct {
	Metadata Metadata    `json:"metadata"`
	News     []NewsEntry `json:"news"`
}

// Build assembles the document from the run's accepted items and counters.
func Build(items []pipeline.NewsItem, stats pipeline.StatsSnapshot, provider, model string, parsedAt time.Time) Document {
	news := make([]NewsEntry, 0, len(items))
	sources := make(map[string]struct{})
	distribution := make(map[string]int)
	var scoreSum float64

	for _, item := range items {
		news = append(news, NewsEntry{
			Title:          item.Title,
			URL:            item.URL,
			Source:         item.Source,
			Published:      item.Published,
			AISummary:      item.AISummary,
			RelevanceScore: item.RelevanceScore,
		})
		sources[item.Source] = struct{}{}
		for _, metal := range item.Metals {
			distribution[metal]++
		}
		scoreSum += item.RelevanceScore
	}

	average := 0.0
	if len(items) > 0 {
		average = scoreSum / float64(len(items))
	}

	return Document{
		Metadata: Metadata{
			ParsedAt:           parsedAt.Format(time.RFC3339),
			TotalNews:          len(items),
			AIProvider:         provider,
			Model:              model,
			SourcesCount:       len(sources),
			MetalsDistribution: distribution,
			AverageRelevance:   average,
			ProcessingStats:    stats,
		},
		News: news,
	}
}

// Write serializes the document to path as indented UTF-8 JSON. Key order is
// deterministic: struct fields in declaration order, map keys sorted.
func Write(doc Document, path string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

// Summary renders a console overview of the run: stage counters, AI
// efficiency, metal distribution and the top items.
func Summary(doc Document) string {
	var b strings.Builder
	stats := doc.Metadata.ProcessingStats

	b.WriteString("Релевантных новостей: ")
	fmt.Fprintf(&b, "%d\n", doc.Metadata.TotalNews)
	if doc.Metadata.TotalNews > 0 {
		fmt.Fprintf(&b, "Средняя релевантность: %.2f\n", doc.Metadata.AverageRelevance)
	}

	fmt.Fprintf(&b, "Всего проверено: %d\n", stats.TotalProcessed)
	fmt.Fprintf(&b, "Предфильтр исключил: %d\n", stats.PreFilteredOut)
	fmt.Fprintf(&b, "AI проанализировал: %d\n", stats.AIAnalyzed)
	fmt.Fprintf(&b, "Итого релевантных: %d\n", stats.RelevantFound)

	if stats.AIAnalyzed > 0 {
		efficiency := float64(stats.RelevantFound) / float64(stats.AIAnalyzed) * 100
		fmt.Fprintf(&b, "Точность AI: %.1f%%\n", efficiency)
	}
	if stats.TotalProcessed > 0 {
		savings := 100 - float64(stats.AIAnalyzed)/float64(stats.TotalProcessed)*100
		fmt.Fprintf(&b, "Экономия API: %.1f%%\n", savings)
	}

	if len(doc.Metadata.MetalsDistribution) > 0 {
		b.WriteString("По металлам:\n")
		for metal, count := range doc.Metadata.MetalsDistribution {
			fmt.Fprintf(&b, "  %s: %d\n", metal, count)
		}
	}

	top := doc.News
	if len(top) > 3 {
		top = top[:3]
	}
	for i, n := range top {
		fmt.Fprintf(&b, "%d. %s (%.2f, %s)\n", i+1, n.Title, n.RelevanceScore, n.Source)
	}

	return b.String()
}
