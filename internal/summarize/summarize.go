// Package summarize implements the Summarization Client (spec §4.5): an
// abstractive strategy backed by a live text-generation provider, and a
// pure extractive fallback that needs no network.
package summarize

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/aman-cerp/memsrv/internal/errs"
)

// Strategy selects how a summary is produced.
type Strategy string

const (
	Auto        Strategy = "auto"
	Abstractive Strategy = "abstractive"
	Extractive  Strategy = "extractive"
)

// Item is one source memory contributing to a summary window.
type Item struct {
	ID        string
	Text      string
	Timestamp time.Time
}

// Generator produces a summary string from a chronological list of items.
type Generator interface {
	// Generate returns the summary text, and which strategy actually ran
	// ("abstractive" or "extractive") since Auto resolves at call time.
	Generate(ctx context.Context, strategy Strategy, projectID string, start, end time.Time, items []Item, maxWords int, model string) (summary string, used Strategy, err error)
}

// LiveProvider is the capability interface an abstractive backend
// implements; OpenAIProvider is the only one wired today, grounded on the
// corpus's openai-go client usage.
type LiveProvider interface {
	Available(ctx context.Context) bool
	Complete(ctx context.Context, systemPrompt, userPrompt, model string, maxWords int) (string, error)
}

// Client dispatches between the abstractive live provider and the
// extractive fallback per the requested Strategy.
type Client struct {
	live LiveProvider
}

func NewClient(live LiveProvider) *Client {
	return &Client{live: live}
}

func (c *Client) Generate(ctx context.Context, strategy Strategy, projectID string, start, end time.Time, items []Item, maxWords int, model string) (string, Strategy, error) {
	switch strategy {
	case Abstractive:
		summary, err := c.abstractive(ctx, projectID, start, end, items, maxWords, model)
		if err != nil {
			return "", "", err
		}
		return summary, Abstractive, nil
	case Extractive:
		return Extract(items, maxWords), Extractive, nil
	case Auto, "":
		if c.live != nil && c.live.Available(ctx) {
			if summary, err := c.abstractive(ctx, projectID, start, end, items, maxWords, model); err == nil {
				return summary, Abstractive, nil
			}
		}
		return Extract(items, maxWords), Extractive, nil
	default:
		return "", "", errs.InvalidParamsf("strategy %q is not one of auto, abstractive, extractive", strategy)
	}
}

func (c *Client) abstractive(ctx context.Context, projectID string, start, end time.Time, items []Item, maxWords int, model string) (string, error) {
	if c.live == nil {
		return "", errs.ProviderUnavailablef("set OPENAI_API_KEY", "no live summarization provider configured")
	}

	system := fmt.Sprintf("You write concise, factual summaries of agent memory. "+
		"Produce a single paragraph of at most %d words. Do not invent details not present in the source items.", maxWords)

	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", projectID)
	fmt.Fprintf(&b, "Time range: %s to %s\n\n", start.Format(time.RFC3339), end.Format(time.RFC3339))
	for _, it := range items {
		fmt.Fprintf(&b, "[%s] %s\n", it.Timestamp.Format("2006-01-02"), it.Text)
	}

	text, err := c.live.Complete(ctx, system, b.String(), model, maxWords)
	if err != nil {
		return "", errs.ProviderUnavailablef("check the summarization provider's credentials and connectivity", "abstractive summarization failed: %v", err)
	}
	return strings.TrimSpace(text), nil
}

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// Extract implements the extractive strategy: split into sentences,
// dedupe by hash while preserving chronological order, accumulate until
// maxWords, join with ". ".
func Extract(items []Item, maxWords int) string {
	sorted := append([]Item(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	seen := make(map[string]bool)
	var sentences []string
	wordCount := 0

	for _, it := range sorted {
		for _, raw := range sentenceSplit.Split(it.Text, -1) {
			s := strings.TrimSpace(raw)
			if s == "" {
				continue
			}
			h := sentenceHash(s)
			if seen[h] {
				continue
			}
			seen[h] = true

			n := len(strings.Fields(s))
			if wordCount+n > maxWords && len(sentences) > 0 {
				return strings.Join(sentences, ". ")
			}
			sentences = append(sentences, s)
			wordCount += n
			if wordCount >= maxWords {
				return strings.Join(sentences, ". ")
			}
		}
	}
	return strings.Join(sentences, ". ")
}

func sentenceHash(s string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(s)))
	return hex.EncodeToString(sum[:])
}
