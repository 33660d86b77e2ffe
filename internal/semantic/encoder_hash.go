package semantic

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const DefaultDimensions = 256

// HashEncoder maps text to vectors by hashing word and character trigram
// features into a fixed number of buckets. It needs no model or network and
// is deterministic, so equal inputs always produce equal vectors.
type HashEncoder struct {
	Dimensions int
}

func NewHashEncoder(dimensions int) *HashEncoder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &HashEncoder{Dimensions: dimensions}
}

func (e *HashEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *HashEncoder) vector(text string) []float32 {
	dims := e.Dimensions
	if dims <= 0 {
		dims = DefaultDimensions
	}
	vec := make([]float32, dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		addFeature(vec, "w:"+w, 1)
		padded := []rune(" " + w + " ")
		for j := 0; j+3 <= len(padded); j++ {
			addFeature(vec, "c:"+string(padded[j:j+3]), 0.5)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

func addFeature(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	vec[sum%uint64(len(vec))] += weight
}
