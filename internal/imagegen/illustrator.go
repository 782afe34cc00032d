package imagegen

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultTTL is how long a generated image stays cached.
const DefaultTTL = 7 * 24 * time.Hour

// Generator produces an image URL for a word.
type Generator interface {
	Generate(ctx context.Context, word string, quirkiness int) (string, error)
}

// Image is a picture for one word.
type Image struct {
	Word     string `json:"word"`
	URL      string `json:"imageUrl"`
	Fallback bool   `json:"fallback,omitempty"`
	Cached   bool   `json:"cached,omitempty"`
}

// Illustrator puts a cache in front of a Generator and never fails: any
// error yields the fallback avatar.
type Illustrator struct {
	gen    Generator
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewIllustrator accepts a nil gen, in which case every image is a fallback.
func NewIllustrator(gen Generator, cache Cache, ttl time.Duration, logger *slog.Logger) *Illustrator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Illustrator{gen: gen, cache: cache, ttl: ttl, logger: logger}
}

func (il *Illustrator) Image(ctx context.Context, word string, quirkiness int) Image {
	key := cacheKey(word, quirkiness)
	if il.cache != nil {
		v, ok, err := il.cache.Get(ctx, key)
		if err != nil {
			il.logger.Warn("image cache read failed", "key", key, "error", err)
		}
		if ok {
			return Image{Word: word, URL: v, Cached: true}
		}
	}

	fallback := Image{Word: word, URL: FallbackURL(word, quirkiness), Fallback: true}
	if il.gen == nil {
		return fallback
	}
	url, err := il.gen.Generate(ctx, word, quirkiness)
	if err != nil {
		il.logger.Warn("image generation failed, using fallback", "word", word, "error", err)
		return fallback
	}

	// Only real pictures are worth keeping; anything else is regenerated next time.
	if il.cache != nil && strings.HasPrefix(url, "data:image") {
		if err := il.cache.Set(ctx, key, url, il.ttl); err != nil {
			il.logger.Warn("image cache write failed", "key", key, "error", err)
		}
	}
	return Image{Word: word, URL: url}
}

// Pair illustrates both words of a round concurrently.
func (il *Illustrator) Pair(ctx context.Context, civilian, imposter string, quirkiness int) (Image, Image) {
	var c, i Image
	var g errgroup.Group
	g.Go(func() error {
		c = il.Image(ctx, civilian, quirkiness)
		return nil
	})
	g.Go(func() error {
		i = il.Image(ctx, imposter, quirkiness)
		return nil
	})
	g.Wait()
	return c, i
}
