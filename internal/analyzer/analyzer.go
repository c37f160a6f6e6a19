// Package analyzer asks an OpenAI-compatible endpoint whether a candidate news
// item concerns precious metals as commodities or investments. The verdict is
// produced by a chain of decreasing-confidence strategies, so AI trouble never
// stops the pipeline: strict JSON from the model, then best-effort parsing of
// a loose text reply, then a pure keyword heuristic when the endpoint is down.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/XQwart/Precious-Metals-News-Analyzer/internal/filter"
	"github.com/XQwart/Precious-Metals-News-Analyzer/internal/logger"
)

const (
	maxPromptContentRunes = 1000
	requestTimeout        = 60 * time.Second

	looseReplyScore    = 0.7
	keywordOnlyScore   = 0.6
	looseSummaryRunes  = 200
	fallbackTitleRunes = 150
)

// Result is the classifier verdict for a single candidate.
type Result struct {
	IsRelevant bool
	Metals     []string
	Summary    string
	Score      float64
	Reason     string
}

// economicTerms signal commodity/investment context in the keyword fallback.
var economicTerms = []string{
	"цена", "курс", "стоимость", "подорожал", "подешевел",
	"растет", "падает", "инвестиции", "торги", "биржа",
	"унция", "тройская", "добыча", "запасы",
}

// relevanceTokens are checked in loose text replies alongside "true".
var relevanceTokens = []string{"релевант", "relevant", "цена", "курс", "инвестиц"}

type Analyzer struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func New(apiKey, baseURL, model string) (*Analyzer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenRouter API key is required")
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	return &Analyzer{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   model,
		timeout: requestTimeout,
	}, nil
}

// IsAvailable probes the endpoint. A negative answer is a warning, not an
// error: the pipeline still runs on fallback heuristics.
func (a *Analyzer) IsAvailable(ctx context.Context) bool {
	if _, err := a.client.ListModels(ctx); err != nil {
		logger.Warn("AI endpoint unavailable", "error", err)
		return false
	}
	return true
}

// Classify judges one candidate. Every path returns a well-formed Result with
// Score in [0,1] and Metals limited to known categories.
func (a *Analyzer) Classify(ctx context.Context, title, content string, preliminaryMetals []string) Result {
	prompt := buildPrompt(title, content, preliminaryMetals)

	reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.1,
		MaxTokens:   400,
		TopP:        0.9,
	})
	if err != nil {
		logger.Warn("AI request failed, using keyword fallback", "error", err)
		return KeywordFallback(title, content, preliminaryMetals)
	}
	if len(resp.Choices) == 0 {
		logger.Warn("AI reply has no choices, using keyword fallback")
		return KeywordFallback(title, content, preliminaryMetals)
	}

	reply := resp.Choices[0].Message.Content
	for _, parse := range []parseStrategy{parseStrictJSON, parseLooseText} {
		if res, ok := parse(reply, preliminaryMetals); ok {
			return res
		}
	}

	// parseLooseText accepts any reply, so this is unreachable; keep the
	// conservative answer anyway.
	return KeywordFallback(title, content, preliminaryMetals)
}

// parseStrategy inspects a raw model reply and either produces a verdict or
// signals that the next, less strict strategy should try.
type parseStrategy func(reply string, preliminaryMetals []string) (Result, bool)

// parseStrictJSON extracts the first brace-delimited object from the reply
// (the model may wrap the JSON in prose) and coerces its fields.
func parseStrictJSON(reply string, preliminaryMetals []string) (Result, bool) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return Result{}, false
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(reply[start:end+1]), &raw); err != nil {
		logger.Debug("AI reply JSON parse failed", "error", err)
		return Result{}, false
	}

	res := Result{Metals: normalizeMetals(preliminaryMetals)}
	if v, ok := raw["is_relevant"].(bool); ok {
		res.IsRelevant = v
	}
	if v, ok := raw["metals"]; ok {
		res.Metals = normalizeMetals(toStringSlice(v))
	}
	if v, ok := raw["summary"].(string); ok {
		res.Summary = v
	}
	if v, ok := raw["score"].(float64); ok {
		res.Score = clamp01(v)
	}
	if v, ok := raw["reason"].(string); ok {
		res.Reason = v
	}
	return res, true
}

// parseLooseText salvages a reply that is not valid JSON. It accepts the item
// only when the model both affirmed relevance and mentioned economic context.
func parseLooseText(reply string, preliminaryMetals []string) (Result, bool) {
	text := strings.ToLower(reply)
	relevant := strings.Contains(text, "true") && containsAny(text, relevanceTokens)
	if !relevant {
		return Result{Reason: "нет подтверждения релевантности в текстовом ответе"}, true
	}
	return Result{
		IsRelevant: true,
		Metals:     normalizeMetals(preliminaryMetals),
		Summary:    truncateRunes(reply, looseSummaryRunes),
		Score:      looseReplyScore,
		Reason:     "распознан текстовый ответ без JSON",
	}, true
}

// KeywordFallback decides without the AI: relevant only when the text carries
// an economic-context term and the pre-filter already found metals.
func KeywordFallback(title, content string, preliminaryMetals []string) Result {
	text := strings.ToLower(title + " " + content)

	if containsAny(text, economicTerms) && len(preliminaryMetals) > 0 {
		return Result{
			IsRelevant: true,
			Metals:     normalizeMetals(preliminaryMetals),
			Summary:    truncateRunes(title, fallbackTitleRunes) + "...",
			Score:      keywordOnlyScore,
			Reason:     "fallback: найдены экономические термины",
		}
	}
	return Result{
		Reason: "fallback: нет экономического контекста",
	}
}

func buildPrompt(title, content string, preliminaryMetals []string) string {
	return fmt.Sprintf(`Проанализируй новость о возможном упоминании драгоценных металлов.

Предварительно найдены упоминания: %s

Заголовок: %s
Содержание: %s

Определи:
1. Относится ли новость к драгоценным металлам (золото, серебро, платина, палладий) как к ТОВАРАМ, ИНВЕСТИЦИЯМ или ПРОМЫШЛЕННОМУ СЫРЬЮ?
2. Какие конкретно металлы упоминаются в контексте торговли/инвестиций?
3. Краткий пересказ (2-3 предложения) с важной экономической информацией.

ВАЖНО:
- Игнорируй переносные значения ("золотая медаль", "серебряный призер", "золотой ключ")
- Учитывай только прямые упоминания металлов как товаров или активов
- Новости о ценах, курсах, добыче, инвестициях = релевантны
- Новости о наградах, юбилеях, цветах = нерелевантны

Ответь СТРОГО в JSON:
{"is_relevant": true/false, "metals": ["золото"], "summary": "краткий пересказ", "score": 0.9, "reason": "объяснение"}`,
		strings.Join(preliminaryMetals, ", "), title, truncateRunes(content, maxPromptContentRunes))
}

// normalizeMetals drops duplicates and names outside the known categories, so
// a hallucinated metal never reaches the report.
func normalizeMetals(metals []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(metals))
	for _, m := range metals {
		m = strings.ToLower(strings.TrimSpace(m))
		if !filter.IsKnownMetal(m) {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

func toStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
