package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/amorin/promptforge/catalog"
	"github.com/amorin/promptforge/config"
	"github.com/amorin/promptforge/corpus"
	"github.com/amorin/promptforge/generator"
	"github.com/amorin/promptforge/payload"
	"github.com/amorin/promptforge/tokens"
	"github.com/amorin/promptforge/tui"
)

var (
	// Flags
	configFile string
	verbose    bool

	// Root command
	rootCmd = &cobra.Command{
		Use:   "promptforge",
		Short: "Synthetic request generator for chat completion load tests",
		Long: "Promptforge builds batches of chat completion request payloads for load testing.\n" +
			"Request text cycles through a prompt corpus; a configurable share of requests\n" +
			"also carries images sampled from a local directory, embedded as base64 data URLs.",
	}

	// Generate command builds a payload batch
	generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate a batch of request payloads",
		RunE:  runGenerate,
	}

	// Inspect command summarizes an existing payload file
	inspectCmd = &cobra.Command{
		Use:   "inspect [file]",
		Short: "Summarize an existing payload file",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (YAML, TOML, or JSON)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	// Generation flags
	generateCmd.Flags().StringP("output-file", "o", "", "Path the payload batch is written to")
	generateCmd.Flags().String("image-dir", "", "Directory holding source images for multimodal requests")
	generateCmd.Flags().String("text-file", "", "Prompt corpus, one prompt per line (default: embedded corpus)")
	generateCmd.Flags().Int("total-messages", 100, "Number of requests in the batch")
	generateCmd.Flags().Float64("request-ratio", 0.0, "Fraction of requests that carry images, 0.0 to 1.0")
	generateCmd.Flags().Int("images-per-request", 1, "Images attached to each multimodal request, 1 to 120")
	generateCmd.Flags().String("quality-mode", "high", "Image quality: low re-encodes as JPEG, high sends originals")
	generateCmd.Flags().String("system-prompt", payload.DefaultSystemPrompt, "System prompt sent with every request (empty disables it)")
	generateCmd.Flags().Int64("seed", 0, "Random seed for image sampling (unset: derived from the clock)")
	generateCmd.Flags().Int("workers", 0, "Image encoding workers (0 uses all CPUs)")
	generateCmd.Flags().String("manifest", "", "Also write a run summary to this path")
	generateCmd.Flags().Bool("no-progress", false, "Disable the progress UI")

	// Add subcommands
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(inspectCmd)

	// Bind flags to viper so env vars and config files can override them
	viper.BindPFlags(generateCmd.Flags())
	viper.BindPFlags(rootCmd.PersistentFlags())
	viper.SetEnvPrefix("PROMPTFORGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// It's okay if .env doesn't exist
		if !os.IsNotExist(err) {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	setupLogging()

	if configFile != "" {
		if err := config.LoadFile(configFile); err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.SettleSeed(cmd.Flags().Changed("seed") || cfg.Seed != 0)
	slog.Debug("configuration settled", "total", cfg.TotalMessages, "ratio", cfg.Ratio, "quality", cfg.Quality, "seed", cfg.Seed)

	// Prompt corpus: explicit file or the embedded defaults
	var textCorpus *corpus.Corpus
	if cfg.TextFile != "" {
		textCorpus, err = corpus.LoadFile(cfg.TextFile)
	} else {
		textCorpus, err = corpus.Default()
	}
	if err != nil {
		return err
	}

	// The catalog is only scanned when the run schedules images
	var imageCatalog *catalog.Catalog
	if cfg.Ratio > 0 {
		imageCatalog, err = catalog.Scan(cfg.ImageDir)
		if err != nil {
			return err
		}
		slog.Debug("scanned image catalog", "dir", cfg.ImageDir, "images", imageCatalog.Len())
	}

	opts := []generator.Option{
		generator.WithTotalMessages(cfg.TotalMessages),
		generator.WithRatio(cfg.Ratio),
		generator.WithImagesPerRequest(cfg.ImagesPerRequest),
		generator.WithQuality(cfg.QualityMode()),
		generator.WithSystemPrompt(cfg.SystemPrompt),
		generator.WithSeed(cfg.Seed),
		generator.WithWorkers(cfg.Workers),
	}

	if useProgressUI(cfg) {
		return runWithProgress(cmd.Context(), textCorpus, imageCatalog, opts, cfg)
	}
	return runPlain(cmd.Context(), textCorpus, imageCatalog, opts, cfg)
}

// runWithProgress drives the generator from a goroutine and feeds its
// progress into the TUI
func runWithProgress(ctx context.Context, textCorpus *corpus.Corpus, imageCatalog *catalog.Catalog, opts []generator.Option, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(tui.NewProgress(cfg.TotalMessages, cfg.OutputFile))

	opts = append(opts, generator.WithProgress(func(done, total int) {
		p.Send(tui.ProgressMsg{Done: done, Total: total})
	}))
	gen := generator.New(textCorpus, imageCatalog, opts...)

	go func() {
		batch, summary, err := gen.Run(ctx)
		if err == nil {
			err = writeOutputs(batch, summary, cfg)
		}
		p.Send(tui.DoneMsg{Summary: summary, Err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("error running progress UI: %w", err)
	}

	model := final.(tui.ProgressModel)
	if model.Cancelled() {
		return fmt.Errorf("generation cancelled")
	}
	return model.Err()
}

func runPlain(ctx context.Context, textCorpus *corpus.Corpus, imageCatalog *catalog.Catalog, opts []generator.Option, cfg *config.Config) error {
	gen := generator.New(textCorpus, imageCatalog, opts...)

	batch, summary, err := gen.Run(ctx)
	if err != nil {
		return err
	}
	if err := writeOutputs(batch, summary, cfg); err != nil {
		return err
	}

	fmt.Printf("Wrote %d requests to %s (%d multimodal, %d images, seed %d)\n",
		summary.TotalRequests, cfg.OutputFile, summary.MultimodalRequests, summary.TotalImages, summary.Seed)
	return nil
}

func writeOutputs(batch *payload.Batch, summary *generator.Summary, cfg *config.Config) error {
	if err := batch.WriteFile(cfg.OutputFile); err != nil {
		return err
	}
	if cfg.ManifestFile != "" {
		if err := summary.WriteFile(cfg.ManifestFile); err != nil {
			return err
		}
	}
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	setupLogging()

	batch, err := payload.ReadFile(args[0])
	if err != nil {
		return err
	}

	var textTokens, imageTokens, images int
	details := map[string]int{}
	for _, req := range batch.Requests {
		tt, it := tokens.FromRequest(req)
		textTokens += tt
		imageTokens += it
		for _, img := range req.Images() {
			images++
			detail := img.Detail
			if detail == "" {
				detail = "low"
			}
			details[detail]++
		}
	}

	multimodal := batch.MultimodalCount()
	fmt.Printf("%s\n", args[0])
	fmt.Printf("  requests:       %d (%d multimodal, %d text only)\n",
		len(batch.Requests), multimodal, len(batch.Requests)-multimodal)
	fmt.Printf("  images:         %d%s\n", images, detailBreakdown(details))
	fmt.Printf("  token estimate: %d text + %d image = %d\n",
		textTokens, imageTokens, textTokens+imageTokens)
	return nil
}

// detailBreakdown formats image counts per detail tag, e.g. " (4 high, 2 low)"
func detailBreakdown(details map[string]int) string {
	if len(details) == 0 {
		return ""
	}
	tags := make([]string, 0, len(details))
	for tag := range details {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		parts = append(parts, fmt.Sprintf("%d %s", details[tag], tag))
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

func useProgressUI(cfg *config.Config) bool {
	if cfg.NoProgress {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func setupLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
