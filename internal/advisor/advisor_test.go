package advisor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camuig/capital-tracker/internal/alerts"
	"github.com/camuig/capital-tracker/internal/logger"
	"github.com/camuig/capital-tracker/internal/portfolio"
)

func TestParseSuggestions(t *testing.T) {
	held := []string{"BTC", "SOL", "PEPE"}
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"array", `[{"action":"REDUCE","symbol":"SOL","percent":5}]`, 1},
		{"single object", `{"action":"HOLD","symbol":"BTC"}`, 1},
		{"fenced", "```json\n[{\"action\":\"REDUCE\",\"symbol\":\"SOL\"},{\"action\":\"INCREASE\",\"symbol\":\"BTC\"}]\n```", 2},
		{"think tags", "<think>hmm [maybe]\nlet me see</think>\n[]", 0},
		{"embedded", `Here you go: [{"action":"CASHOUT_TO_STABLE","symbol":"PEPE","percent":5}] done`, 1},
		{"prose before object", `Step [1]: {"action":"reduce","symbol":"sol","percent":"5%"}`, 1},
		{"empty", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSuggestions(tt.in, held)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}

	_, err := ParseSuggestions("no json here", held)
	assert.Error(t, err)
}

func TestParseSuggestionsValidatesEntries(t *testing.T) {
	in := `[
		{"action":"sell","symbol":" sol ","percent":140,"reasoning":" lock in gains "},
		{"action":"REDUCE","symbol":"SOL","percent":10},
		{"action":"BUY","symbol":"DOGE","percent":5},
		{"action":"LEVERAGE","symbol":"BTC","percent":5},
		{"action":"hold","symbol":"BTC","percent":30},
		{"action":"take-profit","symbol":"ETH","percent":-3}
	]`

	got, err := ParseSuggestions(in, []string{"BTC", "sol", "ETH"})
	require.NoError(t, err)
	assert.Equal(t, []Suggestion{
		{Action: ActionReduce, Symbol: "SOL", Percent: 100, Reasoning: "lock in gains"},
		{Action: ActionHold, Symbol: "BTC", Percent: 0},
		{Action: ActionCashoutToStable, Symbol: "ETH", Percent: 0},
	}, got)
}

func TestParseSuggestionsCapsCount(t *testing.T) {
	in := `[
		{"action":"REDUCE","symbol":"A"},{"action":"REDUCE","symbol":"B"},
		{"action":"REDUCE","symbol":"C"},{"action":"REDUCE","symbol":"D"},
		{"action":"REDUCE","symbol":"E"},{"action":"REDUCE","symbol":"F"}
	]`
	got, err := ParseSuggestions(in, []string{"A", "B", "C", "D", "E", "F"})
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestBuildRequestAndPrompt(t *testing.T) {
	classes := portfolio.Classification{
		"BTC": {Name: "Bitcoin", Category: portfolio.CategoryBTCETH, TargetAllocation: 0.5},
		"SOL": {Name: "Solana", Category: portfolio.CategoryMidLowCap, TargetAllocation: 0.1},
	}
	req := BuildRequest(
		portfolio.Holdings{"SOL": 10, "BTC": 0.01},
		portfolio.Prices{"BTC": {Price: 50000, Change24h: 1}, "SOL": {Price: 150, Change24h: 35}},
		classes,
		nil,
		[]alerts.Alert{{Severity: alerts.SeverityCritical, Message: "Solana gained 35.00% - Consider 5% cashout", Action: alerts.ActionCashout5}},
	)

	require.Len(t, req.Positions, 2)
	assert.Equal(t, "BTC", req.Positions[0].Symbol)
	assert.Equal(t, 2000.0, req.TotalValue)
	assert.InDelta(t, 0.75, req.Positions[1].Allocation, 1e-12)

	prompt := BuildUserPrompt(req)
	assert.Contains(t, prompt, "| SOL | mid_low_cap |")
	assert.Contains(t, prompt, "(suggested: CASHOUT_5_PERCENT)")
	assert.Contains(t, BuildUserPrompt(&Request{}), "The portfolio is empty.")
}

func TestFormatNote(t *testing.T) {
	assert.Equal(t, "No rebalancing needed.", FormatNote(nil))
	assert.Equal(t, "• REDUCE SOL 5% - take profit\n• HOLD BTC 0%",
		FormatNote([]Suggestion{{Action: "REDUCE", Symbol: "SOL", Percent: 5, Reasoning: "take profit"}, {Action: "HOLD", Symbol: "BTC"}}))
}

func TestAdviseCallsChatCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "deepseek-chat", body["model"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "1",
			"object":  "chat.completion",
			"created": 0,
			"model":   "deepseek-chat",
			"choices": []map[string]interface{}{{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]string{
					"role":    "assistant",
					"content": `<think>x</think>[{"action":"REDUCE","symbol":"SOL","percent":5,"reasoning":"lock in gains"},{"action":"REDUCE","symbol":"XRP","percent":5}]`,
				},
			}},
		})
	}))
	defer srv.Close()

	a := New("key", srv.URL, "deepseek-chat", time.Second, logger.Discard())
	got, raw, err := a.Advise(context.Background(), &Request{Positions: []Position{{Symbol: "SOL"}, {Symbol: "BTC"}}})
	require.NoError(t, err)
	assert.Contains(t, raw, "<think>")
	require.Len(t, got, 1)
	assert.Equal(t, Suggestion{Action: "REDUCE", Symbol: "SOL", Percent: 5, Reasoning: "lock in gains"}, got[0])
}
