package services

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultHashingDimension is the vector size produced by HashingEmbedder.
const DefaultHashingDimension = 256

// HashingEmbedder is a local MLClient that maps tokens into a fixed number
// of buckets. Used when no ML sidecar is configured; similar texts share
// tokens and therefore land close together.
type HashingEmbedder struct {
	Dimension int
}

var _ MLClient = HashingEmbedder{}

// GetEmbedding returns the L2-normalised bucket counts of text.
func (h HashingEmbedder) GetEmbedding(_ context.Context, text string) ([]float32, error) {
	dim := h.Dimension
	if dim <= 0 {
		dim = DefaultHashingDimension
	}
	vec := make([]float32, dim)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		f := fnv.New32a()
		_, _ = f.Write([]byte(tok))
		vec[f.Sum32()%uint32(dim)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}
