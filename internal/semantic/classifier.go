// Package semantic decides whether text is FAQ-like, first by a cheap
// phrase lookup and then by embedding similarity against a phrase bank.
package semantic

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
)

// DefaultMaxTokens caps how much text is sent to the encoder.
const DefaultMaxTokens = 200

// Encoder turns texts into fixed-length vectors, one per input, in order.
type Encoder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
}

type Options struct {
	MaxTokens int
}

// Classifier scores text against phrase banks. Phrase vectors are encoded
// once per Classifier and reused; it is safe for concurrent use.
type Classifier struct {
	enc       Encoder
	maxTokens int

	mu      sync.Mutex
	phrases map[string][]float32
}

func New(enc Encoder, opts Options) *Classifier {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	return &Classifier{
		enc:       enc,
		maxTokens: opts.MaxTokens,
		phrases:   map[string][]float32{},
	}
}

// MatchPhrase returns the first phrase that occurs in text, ignoring case.
func MatchPhrase(text string, phrases []string) (string, bool) {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if p == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(p)) {
			return p, true
		}
	}
	return "", false
}

// Classify reports whether text relates to phrases. A literal phrase match
// answers true without touching the encoder; otherwise the text is embedded
// and accepted when its best similarity reaches threshold.
func (c *Classifier) Classify(ctx context.Context, text string, phrases []string, threshold float64) (bool, error) {
	if _, ok := MatchPhrase(text, phrases); ok {
		return true, nil
	}
	score, err := c.Score(ctx, text, phrases)
	if err != nil {
		return false, err
	}
	return score >= threshold, nil
}

// Score returns the highest cosine similarity between text and any phrase,
// clamped to [0,1]. Blank text scores 0 without an encoder call.
func (c *Classifier) Score(ctx context.Context, text string, phrases []string) (float64, error) {
	text = Truncate(text, c.maxTokens)
	if text == "" || len(phrases) == 0 {
		return 0, nil
	}
	if c.enc == nil {
		return 0, errors.New("no encoder configured")
	}

	phraseVecs, err := c.phraseVectors(ctx, phrases)
	if err != nil {
		return 0, err
	}
	vecs, err := c.enc.Encode(ctx, []string{text})
	if err != nil {
		return 0, fmt.Errorf("encode text: %w", err)
	}
	if len(vecs) != 1 {
		return 0, fmt.Errorf("encode text: expected 1 vector, got %d", len(vecs))
	}

	best := 0.0
	for _, pv := range phraseVecs {
		if s := Cosine(vecs[0], pv); s > best {
			best = s
		}
	}
	return math.Min(best, 1), nil
}

func (c *Classifier) phraseVectors(ctx context.Context, phrases []string) ([][]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var missing []string
	for _, p := range phrases {
		if _, ok := c.phrases[p]; !ok {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		vecs, err := c.enc.Encode(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("encode phrases: %w", err)
		}
		if len(vecs) != len(missing) {
			return nil, fmt.Errorf("encode phrases: expected %d vectors, got %d", len(missing), len(vecs))
		}
		for i, p := range missing {
			c.phrases[p] = vecs[i]
		}
	}

	out := make([][]float32, len(phrases))
	for i, p := range phrases {
		out[i] = c.phrases[p]
	}
	return out, nil
}

// Truncate keeps the first max whitespace-separated tokens of text.
func Truncate(text string, max int) string {
	fields := strings.Fields(text)
	if max > 0 && len(fields) > max {
		fields = fields[:max]
	}
	return strings.Join(fields, " ")
}

// Cosine returns the cosine similarity of a and b. Mismatched lengths or a
// zero vector yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
