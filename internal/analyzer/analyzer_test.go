package analyzer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/XQwart/Precious-Metals-News-Analyzer/internal/filter"
)

// chatServer fakes an OpenAI-compatible endpoint whose model always replies
// with the given content.
func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "test",
			"object": "chat.completion",
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		})
	}))
}

func newTestAnalyzer(t *testing.T, baseURL string) *Analyzer {
	t.Helper()
	a, err := New("test-key", baseURL, "test-model")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestClassifyParsesJSONWrappedInProse(t *testing.T) {
	reply := `Вот мой анализ:
{"is_relevant": true, "metals": ["золото"], "summary": "Цена золота выросла.", "score": 0.9, "reason": "торги"}
Надеюсь, это помогло.`
	srv := chatServer(t, reply)
	defer srv.Close()

	res := newTestAnalyzer(t, srv.URL+"/v1").Classify(context.Background(), "Золото дорожает", "контент", []string{filter.MetalGold})

	if !res.IsRelevant {
		t.Fatal("IsRelevant = false, want true")
	}
	if res.Score != 0.9 {
		t.Errorf("Score = %v, want 0.9", res.Score)
	}
	if len(res.Metals) != 1 || res.Metals[0] != filter.MetalGold {
		t.Errorf("Metals = %v, want [%s]", res.Metals, filter.MetalGold)
	}
	if res.Summary != "Цена золота выросла." {
		t.Errorf("Summary = %q", res.Summary)
	}
}

func TestClassifyCoercesBadFields(t *testing.T) {
	// Score out of range, one hallucinated metal, missing summary/reason.
	reply := `{"is_relevant": true, "metals": ["золото", "криптонит"], "score": 1.7}`
	srv := chatServer(t, reply)
	defer srv.Close()

	res := newTestAnalyzer(t, srv.URL+"/v1").Classify(context.Background(), "t", "c", []string{filter.MetalGold})

	if res.Score != 1.0 {
		t.Errorf("Score = %v, want clamped 1.0", res.Score)
	}
	if len(res.Metals) != 1 || res.Metals[0] != filter.MetalGold {
		t.Errorf("Metals = %v, want unknown names dropped", res.Metals)
	}
	if res.Summary != "" {
		t.Errorf("Summary = %q, want empty default", res.Summary)
	}
}

func TestClassifyDefaultsMetalsToPreliminary(t *testing.T) {
	reply := `{"is_relevant": true, "summary": "s", "score": 0.8, "reason": "r"}`
	srv := chatServer(t, reply)
	defer srv.Close()

	preliminary := []string{filter.MetalSilver, filter.MetalPlatinum}
	res := newTestAnalyzer(t, srv.URL+"/v1").Classify(context.Background(), "t", "c", preliminary)

	if len(res.Metals) != 2 {
		t.Fatalf("Metals = %v, want preliminary set", res.Metals)
	}
}

func TestClassifySalvagesLooseTextReply(t *testing.T) {
	reply := "Я считаю, что ответ true: новость релевантна, цена золота растет."
	srv := chatServer(t, reply)
	defer srv.Close()

	res := newTestAnalyzer(t, srv.URL+"/v1").Classify(context.Background(), "t", "c", []string{filter.MetalGold})

	if !res.IsRelevant {
		t.Fatal("IsRelevant = false, want true for affirmative loose reply")
	}
	if res.Score != 0.7 {
		t.Errorf("Score = %v, want fixed 0.7", res.Score)
	}
	if res.Summary == "" {
		t.Error("Summary empty, want truncated raw reply")
	}
}

func TestClassifyRejectsLooseReplyWithoutEconomicContext(t *testing.T) {
	reply := "Не могу определить, данных недостаточно."
	srv := chatServer(t, reply)
	defer srv.Close()

	res := newTestAnalyzer(t, srv.URL+"/v1").Classify(context.Background(), "t", "c", []string{filter.MetalGold})

	if res.IsRelevant {
		t.Error("IsRelevant = true, want false")
	}
	if res.Score != 0 {
		t.Errorf("Score = %v, want 0", res.Score)
	}
}

func TestClassifyFallsBackWhenEndpointErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	res := newTestAnalyzer(t, srv.URL+"/v1").Classify(context.Background(),
		"Цена на золото выросла на 2%", "На бирже выросли торги золотом", []string{filter.MetalGold})

	if !res.IsRelevant {
		t.Fatal("IsRelevant = false, want keyword fallback acceptance")
	}
	if res.Score != 0.6 {
		t.Errorf("Score = %v, want fixed 0.6", res.Score)
	}
	if len(res.Metals) != 1 || res.Metals[0] != filter.MetalGold {
		t.Errorf("Metals = %v, want preliminary metals", res.Metals)
	}
}

func TestClassifyFallsBackWhenEndpointUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL + "/v1"
	srv.Close()

	res := newTestAnalyzer(t, baseURL).Classify(context.Background(),
		"Золотая медаль Олимпиады", "Спортсмен завоевал награду", []string{filter.MetalGold})

	// Metal keyword present but no economic context: conservative rejection.
	if res.IsRelevant {
		t.Error("IsRelevant = true, want false without economic context")
	}
	if res.Score != 0 {
		t.Errorf("Score = %v, want 0", res.Score)
	}
}

func TestKeywordFallbackRequiresMetalsAndEconomicTerms(t *testing.T) {
	// Economic terms without preliminary metals.
	res := KeywordFallback("Цена нефти выросла", "торги на бирже", nil)
	if res.IsRelevant {
		t.Error("accepted entry without preliminary metals")
	}

	// Preliminary metals without economic terms.
	res = KeywordFallback("Золотая осень", "красивые листья", []string{filter.MetalGold})
	if res.IsRelevant {
		t.Error("accepted entry without economic context")
	}

	// Both present.
	res = KeywordFallback("Цена на золото выросла на 2%", "", []string{filter.MetalGold})
	if !res.IsRelevant || res.Score != 0.6 {
		t.Errorf("got (%v, %v), want relevant with score 0.6", res.IsRelevant, res.Score)
	}
}

func TestParseStrictJSONSignalsNextStrategy(t *testing.T) {
	cases := []string{
		"никакого JSON здесь нет",
		"{broken json",
		"{'single': 'quotes'}",
	}
	for _, reply := range cases {
		if _, ok := parseStrictJSON(reply, nil); ok {
			t.Errorf("parseStrictJSON(%q) accepted, want try-next signal", reply)
		}
	}
}

func TestScoreAlwaysInRange(t *testing.T) {
	replies := []string{
		`{"is_relevant": true, "score": -3.5}`,
		`{"is_relevant": true, "score": 42}`,
		"true релевантно, цена",
	}
	for _, reply := range replies {
		srv := chatServer(t, reply)
		res := newTestAnalyzer(t, srv.URL+"/v1").Classify(context.Background(), "t", "c", []string{filter.MetalGold})
		srv.Close()
		if res.Score < 0 || res.Score > 1 {
			t.Errorf("reply %q: Score = %v, want within [0,1]", reply, res.Score)
		}
	}
}
