// Package generator orchestrates a run: it walks the schedule, draws
// prompt lines, encodes images, and assembles the final batch.
package generator

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/amorin/promptforge/catalog"
	"github.com/amorin/promptforge/corpus"
	"github.com/amorin/promptforge/imaging"
	"github.com/amorin/promptforge/payload"
	"github.com/amorin/promptforge/schedule"
)

// Config contains generation parameters
type Config struct {
	TotalMessages    int
	Ratio            float64
	ImagesPerRequest int
	Quality          imaging.Quality
	SystemPrompt     string
	Seed             int64
	Workers          int
	// Progress, when set, is called after each completed request with
	// (done, total). Workers call it concurrently, so it must be safe
	// for concurrent use.
	Progress func(done, total int)
}

// DefaultConfig returns the default generation parameters
func DefaultConfig() Config {
	return Config{
		TotalMessages:    100,
		Ratio:            0.0,
		ImagesPerRequest: 1,
		Quality:          imaging.QualityHigh,
		SystemPrompt:     payload.DefaultSystemPrompt,
		Workers:          runtime.NumCPU(),
	}
}

// Generator assembles payload batches from a text corpus and an image
// catalog
type Generator struct {
	corpus  *corpus.Corpus
	catalog *catalog.Catalog
	config  Config
}

// New creates a generator. imageCatalog may be nil as long as the
// configured ratio schedules no multimodal requests.
func New(textCorpus *corpus.Corpus, imageCatalog *catalog.Catalog, opts ...Option) *Generator {
	config := DefaultConfig()

	// Apply options
	for _, opt := range opts {
		opt(&config)
	}

	return &Generator{
		corpus:  textCorpus,
		catalog: imageCatalog,
		config:  config,
	}
}

// Run executes one generation run. The batch is returned only when every
// request was built; any failure discards the whole run so no partial
// output can leak to disk.
func (g *Generator) Run(ctx context.Context) (*payload.Batch, *Summary, error) {
	start := time.Now()
	cfg := g.config

	workers := cfg.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	// Build the plan. The scheduler owns ratio validation and image
	// sampling; everything after this point just executes its decisions.
	catalogSize := 0
	if g.catalog != nil {
		catalogSize = g.catalog.Len()
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	plan, err := schedule.Build(cfg.TotalMessages, cfg.Ratio, cfg.ImagesPerRequest, catalogSize, rng)
	if err != nil {
		return nil, nil, err
	}

	// Assign prompt lines in position order before any fan-out, so the
	// text sequence never depends on worker timing.
	texts := make([]string, cfg.TotalMessages)
	for i := range texts {
		texts[i] = g.corpus.Next()
	}

	// Fill slots with a fixed worker pool. Each worker writes only its
	// own pre-assigned positions, so output order is independent of
	// completion order.
	encoder := imaging.NewEncoder(cfg.Quality)
	composer := payload.NewComposer(cfg.SystemPrompt)
	requests := make([]payload.Request, cfg.TotalMessages)

	jobs := make(chan schedule.Slot, cfg.TotalMessages)
	for _, slot := range plan.Slots {
		jobs <- slot
	}
	close(jobs)

	var (
		wg     sync.WaitGroup
		done   atomic.Int64
		failed atomic.Bool
	)
	errs := make(chan error, workers)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for slot := range jobs {
				// Drain cheaply once the run is doomed.
				if failed.Load() || ctx.Err() != nil {
					continue
				}
				req, err := g.buildRequest(slot, texts[slot.Index], encoder, composer)
				if err != nil {
					failed.Store(true)
					errs <- err
					continue
				}
				requests[slot.Index] = req
				if cfg.Progress != nil {
					cfg.Progress(int(done.Add(1)), cfg.TotalMessages)
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	if err := <-errs; err != nil {
		return nil, nil, fmt.Errorf("generation failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	batch := &payload.Batch{Requests: requests}
	summary := g.summarize(plan, texts, time.Since(start))
	return batch, summary, nil
}

// buildRequest assembles one request according to its slot. Text-only
// slots never touch the catalog or the encoder.
func (g *Generator) buildRequest(slot schedule.Slot, text string, encoder *imaging.Encoder, composer *payload.Composer) (payload.Request, error) {
	if !slot.Multimodal {
		return composer.Text(text), nil
	}

	images := make([]payload.ImageURL, 0, len(slot.Images))
	for _, idx := range slot.Images {
		asset := g.catalog.Asset(idx)
		encoded, err := encoder.Encode(asset.Path)
		if err != nil {
			return payload.Request{}, err
		}
		images = append(images, payload.ImageURL{URL: encoded.DataURL, Detail: encoded.Detail})
	}
	return composer.Multimodal(text, images), nil
}

// Option is a functional option for configuring the generator
type Option func(*Config)

// WithTotalMessages sets how many requests the batch holds
func WithTotalMessages(total int) Option {
	return func(c *Config) {
		c.TotalMessages = total
	}
}

// WithRatio sets the multimodal request ratio
func WithRatio(ratio float64) Option {
	return func(c *Config) {
		c.Ratio = ratio
	}
}

// WithImagesPerRequest sets how many images each multimodal request carries
func WithImagesPerRequest(n int) Option {
	return func(c *Config) {
		c.ImagesPerRequest = n
	}
}

// WithQuality sets the image encoding quality
func WithQuality(q imaging.Quality) Option {
	return func(c *Config) {
		c.Quality = q
	}
}

// WithSystemPrompt sets the system prompt sent with every request
func WithSystemPrompt(prompt string) Option {
	return func(c *Config) {
		c.SystemPrompt = prompt
	}
}

// WithSeed sets the random seed for image sampling
func WithSeed(seed int64) Option {
	return func(c *Config) {
		c.Seed = seed
	}
}

// WithWorkers sets the encoding worker count
func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

// WithProgress sets the per-request progress callback
func WithProgress(fn func(done, total int)) Option {
	return func(c *Config) {
		c.Progress = fn
	}
}
