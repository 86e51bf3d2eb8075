package service

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/pageza/leanfeast/backend/internal/metrics"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiEmbedder embeds text with a Gemini embedding model
type GeminiEmbedder struct {
	client     *genai.Client
	model      string
	dimensions int
}

// NewGeminiEmbedder creates an embedder producing vectors of the given size
func NewGeminiEmbedder(client *genai.Client, model string, dimensions int) *GeminiEmbedder {
	return &GeminiEmbedder{client: client, model: model, dimensions: dimensions}
}

func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	dims := int32(e.dimensions)
	res, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), &genai.EmbedContentConfig{
		OutputDimensionality: &dims,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", classifyGenAIError(err))
	}
	if len(res.Embeddings) == 0 || res.Embeddings[0] == nil {
		return nil, errors.New("embedding response contained no vectors")
	}
	values := res.Embeddings[0].Values
	if len(values) != e.dimensions {
		return nil, fmt.Errorf("embedding has %d dimensions, expected %d", len(values), e.dimensions)
	}
	return values, nil
}

// HashEmbeddingModel selects the offline HashEmbedder
const HashEmbeddingModel = "hash"

// NewEmbedder builds the embedder for model. The hash model needs no client.
// A non-nil cache wraps the result in a CachedEmbedder.
func NewEmbedder(client *genai.Client, model string, dimensions int, cache *redis.Client, ttl time.Duration, logger *zap.Logger) (Embedder, error) {
	var e Embedder
	switch {
	case model == HashEmbeddingModel:
		e = NewHashEmbedder(dimensions)
	case client == nil:
		return nil, fmt.Errorf("embedding model %q needs a gemini client", model)
	default:
		e = NewGeminiEmbedder(client, model, dimensions)
	}
	if cache != nil {
		e = NewCachedEmbedder(e, cache, model, ttl, logger)
	}
	return e, nil
}

// HashEmbedder is a deterministic, offline embedder. Each lowercase word is
// hashed into a bucket and the vector is L2-normalised, so texts sharing
// vocabulary score high under cosine similarity.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder creates a HashEmbedder producing vectors of the given size
func NewHashEmbedder(dimensions int) *HashEmbedder {
	return &HashEmbedder{dimensions: dimensions}
}

func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dimensions)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		sum := h.Sum32()
		sign := float32(1)
		if sum&1 == 1 {
			sign = -1
		}
		vec[int(sum>>1)%e.dimensions] += sign
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

// CachedEmbedder memoises another Embedder in redis. Cache failures are
// logged and fall through to the wrapped embedder.
type CachedEmbedder struct {
	next   Embedder
	redis  *redis.Client
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// NewCachedEmbedder wraps next with a redis cache namespaced by model
func NewCachedEmbedder(next Embedder, client *redis.Client, model string, ttl time.Duration, logger *zap.Logger) *CachedEmbedder {
	return &CachedEmbedder{
		next:   next,
		redis:  client,
		ttl:    ttl,
		prefix: "embedding:" + model + ":",
		logger: logger.Named("embedding-cache"),
	}
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)

	raw, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if vec, ok := decodeVector(raw); ok {
			metrics.EmbeddingCacheHits.Inc()
			return vec, nil
		}
		c.logger.Warn("discarding corrupt cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("embedding cache read failed", zap.Error(err))
	}

	metrics.EmbeddingCacheMisses.Inc()
	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := c.redis.Set(ctx, key, encodeVector(vec), c.ttl).Err(); err != nil {
		c.logger.Warn("embedding cache write failed", zap.Error(err))
	}
	return vec, nil
}

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.prefix + hex.EncodeToString(sum[:])
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) ([]float32, bool) {
	if len(buf) == 0 || len(buf)%4 != 0 {
		return nil, false
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return vec, true
}
