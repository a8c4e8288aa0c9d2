// Package analysis runs language-model analyses over extracted
// messages: per-chat sentiment, topic labels, named entities and
// embedding-based clusters.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ziadkadry99/chat-lens/internal/llm"
	"github.com/ziadkadry99/chat-lens/internal/progress"
	"github.com/ziadkadry99/chat-lens/internal/search"
)

const (
	// One request per chat; the sample keeps each request within budget.
	maxSampleMessages = 50
	maxSampleTokens   = 6000

	defaultTopics = 5
)

// Analyzer sends chat samples to an LLM and parses the structured results.
type Analyzer struct {
	provider llm.Provider
	model    string
	reporter progress.Reporter
}

// NewAnalyzer creates an Analyzer using the given provider and model.
func NewAnalyzer(provider llm.Provider, model string) *Analyzer {
	return &Analyzer{provider: provider, model: model}
}

// SetReporter sets the progress reporter used during analyses.
func (a *Analyzer) SetReporter(rep progress.Reporter) {
	a.reporter = rep
}

func (a *Analyzer) progressReporter() progress.Reporter {
	if a.reporter != nil {
		return a.reporter
	}
	return progress.Silent()
}

// Sentiment classifies each chat's overall mood from a message sample.
func (a *Analyzer) Sentiment(ctx context.Context, msgs []search.Result) (*SentimentReport, error) {
	report := &SentimentReport{Counts: map[string]int{}}
	order, byChat := groupByChat(msgs)
	if len(order) == 0 {
		return report, nil
	}

	rep := a.progressReporter()
	rep.Start(len(order), "Analyzing sentiment")
	defer rep.Finish()

	for i, chatID := range order {
		chatMsgs := byChat[chatID]
		sample := sampleMessages(chatMsgs, maxSampleMessages, maxSampleTokens)
		chatName := chatMsgs[0].ChatName

		resp, err := a.completeWithRetry(ctx, llm.CompletionRequest{
			Model:       a.model,
			Messages:    sentimentMessages(chatName, sample),
			MaxTokens:   1024,
			Temperature: 0.1,
			JSONMode:    true,
		})
		if err != nil {
			return nil, fmt.Errorf("sentiment for chat %s: %w", chatID, err)
		}
		report.Usage.add(a.model, resp)

		var parsed struct {
			Sentiment string  `json:"sentiment"`
			Polarity  float64 `json:"polarity"`
			Rationale string  `json:"rationale"`
		}
		if err := decodeResponse(resp, &parsed); err != nil {
			return nil, fmt.Errorf("sentiment for chat %s: %w", chatID, err)
		}

		label := normalizeSentiment(parsed.Sentiment, parsed.Polarity)
		report.Chats = append(report.Chats, ChatSentiment{
			ChatID:    chatID,
			ChatName:  chatName,
			Sentiment: label,
			Polarity:  parsed.Polarity,
			Rationale: parsed.Rationale,
			Sampled:   len(sample),
		})
		report.Counts[label]++
		rep.Update(i+1, chatName)
	}

	return report, nil
}

// Topics extracts up to k topic labels. Each chat is asked separately;
// labels merge case-insensitively and rank by the number of chats that
// mention them.
func (a *Analyzer) Topics(ctx context.Context, msgs []search.Result, k int) (*TopicsReport, error) {
	if k <= 0 {
		k = defaultTopics
	}
	report := &TopicsReport{}
	order, byChat := groupByChat(msgs)
	if len(order) == 0 {
		return report, nil
	}

	rep := a.progressReporter()
	rep.Start(len(order), "Extracting topics")
	defer rep.Finish()

	type topicAgg struct {
		label    string
		chats    int
		examples []string
	}
	aggs := make(map[string]*topicAgg)
	var keys []string

	for i, chatID := range order {
		chatMsgs := byChat[chatID]
		sample := sampleMessages(chatMsgs, maxSampleMessages, maxSampleTokens)
		chatName := chatMsgs[0].ChatName

		resp, err := a.completeWithRetry(ctx, llm.CompletionRequest{
			Model:       a.model,
			Messages:    topicsMessages(chatName, sample, k),
			MaxTokens:   2048,
			Temperature: 0.1,
			JSONMode:    true,
		})
		if err != nil {
			return nil, fmt.Errorf("topics for chat %s: %w", chatID, err)
		}
		report.Usage.add(a.model, resp)

		var parsed struct {
			Topics []struct {
				Label    string   `json:"label"`
				Examples []string `json:"examples"`
			} `json:"topics"`
		}
		if err := decodeResponse(resp, &parsed); err != nil {
			return nil, fmt.Errorf("topics for chat %s: %w", chatID, err)
		}

		seen := make(map[string]bool)
		for _, tp := range parsed.Topics {
			label := strings.TrimSpace(tp.Label)
			if label == "" {
				continue
			}
			key := strings.ToLower(label)
			if seen[key] {
				continue
			}
			seen[key] = true

			agg, ok := aggs[key]
			if !ok {
				agg = &topicAgg{label: label}
				aggs[key] = agg
				keys = append(keys, key)
			}
			agg.chats++
			for _, ex := range tp.Examples {
				if ex = strings.TrimSpace(ex); ex != "" && len(agg.examples) < 3 {
					agg.examples = append(agg.examples, ex)
				}
			}
		}
		rep.Update(i+1, chatName)
	}

	sort.SliceStable(keys, func(i, j int) bool {
		if aggs[keys[i]].chats != aggs[keys[j]].chats {
			return aggs[keys[i]].chats > aggs[keys[j]].chats
		}
		return keys[i] < keys[j]
	})
	if len(keys) > k {
		keys = keys[:k]
	}
	for _, key := range keys {
		agg := aggs[key]
		report.Topics = append(report.Topics, Topic{Label: agg.label, Chats: agg.chats, Examples: agg.examples})
	}

	return report, nil
}

// Entities extracts people, places and organizations, counting each
// entity once per chat that mentions it.
func (a *Analyzer) Entities(ctx context.Context, msgs []search.Result) (*EntitiesReport, error) {
	report := &EntitiesReport{}
	order, byChat := groupByChat(msgs)
	if len(order) == 0 {
		return report, nil
	}

	rep := a.progressReporter()
	rep.Start(len(order), "Extracting entities")
	defer rep.Finish()

	people := newEntitySet()
	places := newEntitySet()
	orgs := newEntitySet()

	for i, chatID := range order {
		chatMsgs := byChat[chatID]
		sample := sampleMessages(chatMsgs, maxSampleMessages, maxSampleTokens)
		chatName := chatMsgs[0].ChatName

		resp, err := a.completeWithRetry(ctx, llm.CompletionRequest{
			Model:       a.model,
			Messages:    entitiesMessages(chatName, sample),
			MaxTokens:   1024,
			Temperature: 0.1,
			JSONMode:    true,
		})
		if err != nil {
			return nil, fmt.Errorf("entities for chat %s: %w", chatID, err)
		}
		report.Usage.add(a.model, resp)

		var parsed struct {
			People        []string `json:"people"`
			Places        []string `json:"places"`
			Organizations []string `json:"organizations"`
		}
		if err := decodeResponse(resp, &parsed); err != nil {
			return nil, fmt.Errorf("entities for chat %s: %w", chatID, err)
		}

		people.addAll(parsed.People)
		places.addAll(parsed.Places)
		orgs.addAll(parsed.Organizations)
		rep.Update(i+1, chatName)
	}

	report.People = people.ranked()
	report.Places = places.ranked()
	report.Organizations = orgs.ranked()
	return report, nil
}

// completeWithRetry calls the LLM with exponential backoff on rate
// limit errors.
func (a *Analyzer) completeWithRetry(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	const maxRetries = 3
	backoff := 5 * time.Second

	for attempt := 0; ; attempt++ {
		resp, err := a.provider.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}

		errStr := err.Error()
		retryable := strings.Contains(errStr, "rate_limit") || strings.Contains(errStr, "429") ||
			strings.Contains(errStr, "too many requests") || strings.Contains(errStr, "overloaded")
		if !retryable {
			return nil, err
		}
		if attempt == maxRetries {
			return nil, fmt.Errorf("rate limited after %d retries: %w", maxRetries, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
			backoff = min(backoff*2, time.Minute)
		}
	}
}

func (u *Usage) add(model string, resp *llm.CompletionResponse) {
	u.InputTokens += resp.InputTokens
	u.OutputTokens += resp.OutputTokens
	u.EstimatedCost = llm.EstimateCost(model, u.InputTokens, u.OutputTokens)
}

// decodeResponse parses a JSON-mode reply, reporting truncation
// instead of a confusing parse error when the token limit cut it off.
func decodeResponse(resp *llm.CompletionResponse, v any) error {
	if resp.Truncated() {
		return fmt.Errorf("response truncated at %d output tokens, raise the token limit", resp.OutputTokens)
	}
	return decodeJSON(resp.Content, v)
}

// decodeJSON parses an LLM response, stripping the markdown code fences
// some models wrap around JSON bodies.
func decodeJSON(raw string, v any) error {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		lines := strings.Split(raw, "\n")
		if len(lines) >= 2 {
			end := len(lines)
			if strings.TrimSpace(lines[end-1]) == "```" {
				end--
			}
			raw = strings.Join(lines[1:end], "\n")
		}
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("json parse: %w", err)
	}
	return nil
}

// normalizeSentiment keeps the model's label when valid, otherwise
// falls back to polarity thresholds.
func normalizeSentiment(label string, polarity float64) string {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "positive":
		return "positive"
	case "negative":
		return "negative"
	case "neutral":
		return "neutral"
	case "mixed":
		return "mixed"
	}
	switch {
	case polarity > 0.1:
		return "positive"
	case polarity < -0.1:
		return "negative"
	default:
		return "neutral"
	}
}

func groupByChat(msgs []search.Result) ([]string, map[string][]search.Result) {
	byChat := make(map[string][]search.Result)
	var order []string
	for _, m := range msgs {
		if _, ok := byChat[m.ChatID]; !ok {
			order = append(order, m.ChatID)
		}
		byChat[m.ChatID] = append(byChat[m.ChatID], m)
	}
	return order, byChat
}

// sampleMessages takes an even spread of up to limit messages, then
// trims to the token budget so one chatty thread cannot blow up a
// request.
func sampleMessages(msgs []search.Result, limit, tokenBudget int) []search.Result {
	if len(msgs) > limit {
		step := float64(len(msgs)) / float64(limit)
		spread := make([]search.Result, 0, limit)
		for i := 0; i < limit; i++ {
			spread = append(spread, msgs[int(float64(i)*step)])
		}
		msgs = spread
	}

	total := 0
	for i, m := range msgs {
		total += llm.EstimateTokens(m.Message) + 8
		if total > tokenBudget && i > 0 {
			return msgs[:i]
		}
	}
	return msgs
}

type entitySet struct {
	counts map[string]int
	labels map[string]string
	order  []string
}

func newEntitySet() *entitySet {
	return &entitySet{counts: make(map[string]int), labels: make(map[string]string)}
}

// addAll counts each entity once per call, keyed case-insensitively.
func (s *entitySet) addAll(names []string) {
	seen := make(map[string]bool)
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true

		if _, ok := s.counts[key]; !ok {
			s.labels[key] = name
			s.order = append(s.order, key)
		}
		s.counts[key]++
	}
}

func (s *entitySet) ranked() []EntityCount {
	keys := append([]string(nil), s.order...)
	sort.SliceStable(keys, func(i, j int) bool {
		if s.counts[keys[i]] != s.counts[keys[j]] {
			return s.counts[keys[i]] > s.counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	out := make([]EntityCount, 0, len(keys))
	for _, key := range keys {
		out = append(out, EntityCount{Name: s.labels[key], Count: s.counts[key]})
	}
	return out
}
