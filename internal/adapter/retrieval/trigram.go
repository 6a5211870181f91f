package retrieval

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

const defaultTrigramDims = 512

// TrigramEmbedder hashes character trigrams into a bag-of-features vector.
// It needs no model or network and is the offline default.
type TrigramEmbedder struct {
	dims int
}

func NewTrigramEmbedder(dims int) *TrigramEmbedder {
	if dims <= 0 {
		dims = defaultTrigramDims
	}
	return &TrigramEmbedder{dims: dims}
}

func (e *TrigramEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dims)
	for _, word := range words(text) {
		padded := []rune(" " + word + " ")
		for i := 0; i+3 <= len(padded); i++ {
			h := fnv.New32a()
			h.Write([]byte(string(padded[i : i+3])))
			vec[h.Sum32()%uint32(e.dims)]++
		}
	}
	return vec, nil
}

func (e *TrigramEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *TrigramEmbedder) Name() string {
	return "trigram"
}

// words lowercases text and splits it on anything that is not a letter or digit.
func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
