// Package research produces model-based win probability estimates for
// upcoming games.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sharpmismatch/sportsagent/pkg/models"
	"github.com/sharpmismatch/sportsagent/pkg/strategy"
)

// LLMClient is the completion surface a language model provider must
// expose.
type LLMClient interface {
	Complete(ctx context.Context, prompt string, systemPrompt string) (string, error)
	Name() string
}

// Result is one research estimate for a single team winning a game.
// Probability is nil when the model declined to commit to a number.
type Result struct {
	GameID      string              `json:"game_id"`
	Team        string              `json:"team"`
	Probability *float64            `json:"probability,omitempty"`
	Confidence  strategy.Confidence `json:"confidence"`
	Reasoning   string              `json:"reasoning"`
	Provider    string              `json:"provider"`
	Timestamp   time.Time           `json:"timestamp"`
}

// Provider is implemented by anything that can research a game.
type Provider interface {
	Research(ctx context.Context, game models.Game, team string) (*Result, error)
}

// MetricsRecorder receives per-provider call telemetry. Cache hits are
// not reported; only calls that reach a provider count.
type MetricsRecorder interface {
	RecordResearch(provider, status string, latencySec float64)
}

const systemPrompt = `You are a sports analyst estimating win probabilities.
Estimate the probability that the named team wins the given game.

Output format (JSON):
{
  "probability": 0.XX,
  "confidence": "HIGH" | "MEDIUM" | "LOW",
  "reasoning": "Your step-by-step reasoning"
}

Important: Only output valid JSON, nothing else.`

// Engine queries LLM clients in order until one returns a usable
// estimate, caching results per game and team.
type Engine struct {
	clients  []LLMClient
	cache    *Cache
	recorder MetricsRecorder
}

// NewEngine creates a research engine. Clients are tried in the order
// given.
func NewEngine(clients []LLMClient, cache *Cache) *Engine {
	if cache == nil {
		cache = NewCache(30*time.Minute, time.Now)
	}
	return &Engine{clients: clients, cache: cache}
}

// SetMetrics attaches a telemetry recorder. May be nil.
func (e *Engine) SetMetrics(recorder MetricsRecorder) {
	e.recorder = recorder
}

func (e *Engine) record(provider, status string, latencySec float64) {
	if e.recorder != nil {
		e.recorder.RecordResearch(provider, status, latencySec)
	}
}

// Research returns a win probability estimate for team in game. Cached
// results are served while fresh. When every provider fails the error
// from the last one is returned.
func (e *Engine) Research(ctx context.Context, game models.Game, team string) (*Result, error) {
	key := cacheKey(game.GameID, team)
	if res, ok := e.cache.Get(key); ok {
		return res, nil
	}

	if len(e.clients) == 0 {
		return nil, fmt.Errorf("no research providers configured")
	}

	prompt := buildPrompt(game, team)

	var lastErr error
	for _, client := range e.clients {
		start := time.Now()
		response, err := client.Complete(ctx, prompt, systemPrompt)
		if err != nil {
			slog.Warn("research provider failed",
				"provider", client.Name(),
				"game_id", game.GameID,
				"error", err)
			e.record(client.Name(), "error", time.Since(start).Seconds())
			lastErr = err
			continue
		}

		res, err := ParseResponse(response)
		if err != nil {
			slog.Warn("research response unparseable",
				"provider", client.Name(),
				"game_id", game.GameID,
				"error", err)
			e.record(client.Name(), "error", time.Since(start).Seconds())
			lastErr = err
			continue
		}

		res.GameID = game.GameID
		res.Team = team
		res.Provider = client.Name()
		res.Timestamp = time.Now()

		slog.Debug("research complete",
			"provider", client.Name(),
			"game_id", game.GameID,
			"team", team,
			"confidence", res.Confidence,
			"latency_ms", time.Since(start).Milliseconds())
		e.record(client.Name(), "ok", time.Since(start).Seconds())

		e.cache.Put(key, res)
		return res, nil
	}

	return nil, fmt.Errorf("all research providers failed: %w", lastErr)
}

// Invalidate drops any cached estimate for the game and team.
func (e *Engine) Invalidate(gameID, team string) {
	e.cache.Invalidate(cacheKey(gameID, team))
}

func cacheKey(gameID, team string) string {
	return gameID + "|" + team
}

func buildPrompt(game models.Game, team string) string {
	return fmt.Sprintf(`Game: %s vs %s (%s)
Start time: %s
Team to evaluate: %s

What is the probability that %s wins this game?

Consider:
1. Recent form and head-to-head record
2. Injuries and lineup changes
3. Home/away splits
4. Rest and schedule situation

Provide your estimate in JSON format.`,
		game.TeamA, game.TeamB, game.League,
		game.StartTime.Format(time.RFC3339),
		team, team)
}

// ParseResponse extracts a Result from raw LLM output. Markdown fences
// and leading prose are tolerated; probabilities given as percentages
// are rescaled to [0,1]. A probability outside (0,1) after rescaling
// comes back as nil so downstream blending falls through to fair odds.
func ParseResponse(response string) (*Result, error) {
	response = stripMarkdownCodeBlocks(response)

	jsonStr := extractJSON(response)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	res := &Result{
		Confidence: parseConfidence(extractString(raw, "confidence")),
		Reasoning:  extractString(raw, "reasoning"),
	}

	prob, found := extractFloat(raw, "probability")
	if found {
		if prob > 1 && prob <= 100 {
			prob = prob / 100.0
		}
		if prob > 0 && prob < 1 {
			res.Probability = &prob
		}
	}

	return res, nil
}

func parseConfidence(s string) strategy.Confidence {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HIGH":
		return strategy.ConfidenceHigh
	case "MEDIUM":
		return strategy.ConfidenceMedium
	case "LOW":
		return strategy.ConfidenceLow
	default:
		return strategy.ConfidenceNone
	}
}

// stripMarkdownCodeBlocks removes ```json ... ``` wrappers.
func stripMarkdownCodeBlocks(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

// extractJSON finds the first complete JSON object in a string.
func extractJSON(s string) string {
	start := -1
	braceCount := 0

	for i, c := range s {
		if c == '{' {
			if start == -1 {
				start = i
			}
			braceCount++
		} else if c == '}' {
			braceCount--
			if braceCount == 0 && start != -1 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func extractFloat(m map[string]interface{}, key string) (float64, bool) {
	if v, ok := m[key]; ok {
		switch val := v.(type) {
		case float64:
			return val, true
		case string:
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func extractString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
