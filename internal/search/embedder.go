// Package search implements local semantic search over the rule catalog.
// Rules are embedded with a hashing-trick bag of words model, so no external
// embedding service is needed and the index rebuilds in memory in
// milliseconds.
package search

import (
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// EmbeddingDim is the dimension of the embedding vectors.
const EmbeddingDim = 256

// Embedder turns rule text into fixed-size vectors. Word features are hashed
// into the vector with a sign trick to reduce collision bias, and character
// trigrams add subword signal so "imports" still matches "import".
type Embedder struct {
	stopwords    map[string]bool
	tokenPattern *regexp.Regexp
}

// NewEmbedder creates a new embedder instance.
func NewEmbedder() *Embedder {
	return &Embedder{
		stopwords:    defaultStopwords(),
		tokenPattern: regexp.MustCompile(`[a-zA-Z_][a-zA-Z0-9_]*|[0-9]+`),
	}
}

// Embed generates an embedding vector for the given text.
func (e *Embedder) Embed(text string) []float32 {
	embedding := make([]float32, EmbeddingDim)
	if text == "" {
		return embedding
	}

	tokens := e.tokenize(text)
	if len(tokens) == 0 {
		return embedding
	}

	tokenCounts := make(map[string]int)
	for _, token := range tokens {
		tokenCounts[token]++
	}

	for token, count := range tokenCounts {
		if e.stopwords[token] {
			continue
		}

		// log-normalized TF weight
		weight := float32(1 + math.Log(float64(count)))

		idx := e.hash(token) % uint64(EmbeddingDim)
		sign := float32(1.0)
		if e.hash(token+"_sign")%2 == 1 {
			sign = -1.0
		}
		embedding[idx] += sign * weight
	}

	// Character trigrams carry subword information at a smaller weight.
	for token := range tokenCounts {
		if len(token) < 3 {
			continue
		}
		for i := 0; i <= len(token)-3; i++ {
			idx := e.hash("ngram:"+token[i:i+3]) % uint64(EmbeddingDim)
			embedding[idx] += 0.3
		}
	}

	normalize(embedding)
	return embedding
}

func (e *Embedder) tokenize(text string) []string {
	matches := e.tokenPattern.FindAllString(strings.ToLower(text), -1)

	tokens := make([]string, 0, len(matches))
	for _, match := range matches {
		if len(match) >= 2 {
			tokens = append(tokens, match)
		}
	}
	return tokens
}

func (e *Embedder) hash(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

func normalize(embedding []float32) {
	var norm float64
	for _, v := range embedding {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range embedding {
			embedding[i] = float32(float64(embedding[i]) / norm)
		}
	}
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func defaultStopwords() map[string]bool {
	words := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "he", "in", "is", "it", "its", "of", "on",
		"or", "that", "the", "to", "was", "were", "will", "with",
		"this", "but", "they", "have", "had", "what", "when", "where",
		"who", "which", "why", "how", "all", "each", "every", "both",
		"few", "more", "most", "other", "some", "such", "no", "nor",
		"not", "only", "own", "same", "so", "than", "too", "very",
		"can", "just", "should", "now", "if", "then", "else",
	}

	m := make(map[string]bool)
	for _, w := range words {
		m[w] = true
	}
	return m
}
