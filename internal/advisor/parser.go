package advisor

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	ActionReduce          = "REDUCE"
	ActionIncrease        = "INCREASE"
	ActionCashoutToStable = "CASHOUT_TO_STABLE"
	ActionHold            = "HOLD"

	maxSuggestions = 5
)

var (
	reasoningBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

	actionAliases = map[string]string{
		ActionReduce:          ActionReduce,
		"SELL":                ActionReduce,
		"TRIM":                ActionReduce,
		ActionIncrease:        ActionIncrease,
		"BUY":                 ActionIncrease,
		"ADD":                 ActionIncrease,
		ActionCashoutToStable: ActionCashoutToStable,
		"CASHOUT":             ActionCashoutToStable,
		"TAKE_PROFIT":         ActionCashoutToStable,
		ActionHold:            ActionHold,
	}
)

// percent accepts a JSON number or a numeric string such as "5" or "5%".
type percent float64

func (p *percent) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*p = percent(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("percent: %s is neither a number nor a string", data)
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%")), 64)
	if err != nil {
		return fmt.Errorf("percent %q: %w", s, err)
	}
	*p = percent(n)
	return nil
}

type wireSuggestion struct {
	Action    string  `json:"action"`
	Symbol    string  `json:"symbol"`
	Percent   percent `json:"percent"`
	Reasoning string  `json:"reasoning"`
}

// ParseSuggestions reads the suggestions out of a model answer. The answer
// may wrap the JSON in prose or a code fence, and may hold an array or one
// object. Entries are kept only when the action is known and the symbol is
// one of held; the percent is clamped to [0, 100] and HOLD always carries 0.
// At most five suggestions are returned, one per action and symbol.
func ParseSuggestions(text string, held []string) ([]Suggestion, error) {
	body := strings.TrimSpace(reasoningBlock.ReplaceAllString(text, ""))
	if body == "" {
		return nil, nil
	}

	entries, err := decodeFirstJSON(body)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(held))
	for _, s := range held {
		known[strings.ToUpper(s)] = true
	}

	var out []Suggestion
	seen := make(map[string]bool)
	for _, w := range entries {
		s, ok := validate(w, known)
		if !ok || seen[s.Action+"/"+s.Symbol] {
			continue
		}
		seen[s.Action+"/"+s.Symbol] = true
		out = append(out, s)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out, nil
}

// decodeFirstJSON decodes the first JSON array or object found in body.
// Text before and after it is ignored.
func decodeFirstJSON(body string) ([]wireSuggestion, error) {
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '[':
			var list []wireSuggestion
			if err := json.NewDecoder(strings.NewReader(body[i:])).Decode(&list); err == nil {
				return list, nil
			}
		case '{':
			var one wireSuggestion
			if err := json.NewDecoder(strings.NewReader(body[i:])).Decode(&one); err == nil {
				return []wireSuggestion{one}, nil
			}
		}
	}
	return nil, fmt.Errorf("no suggestion JSON in advisor answer: %.200s", body)
}

func validate(w wireSuggestion, known map[string]bool) (Suggestion, bool) {
	key := strings.ToUpper(strings.TrimSpace(w.Action))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	action, ok := actionAliases[key]
	if !ok {
		return Suggestion{}, false
	}

	symbol := strings.ToUpper(strings.TrimSpace(w.Symbol))
	if !known[symbol] {
		return Suggestion{}, false
	}

	pct := float64(w.Percent)
	switch {
	case action == ActionHold, math.IsNaN(pct), pct < 0:
		pct = 0
	case pct > 100:
		pct = 100
	}

	return Suggestion{
		Action:    action,
		Symbol:    symbol,
		Percent:   pct,
		Reasoning: strings.TrimSpace(w.Reasoning),
	}, true
}
