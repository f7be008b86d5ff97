package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"drone-activity-classifier/config"
	"drone-activity-classifier/dataset"
	"drone-activity-classifier/drone"
	"drone-activity-classifier/utils"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/mdobak/go-xerrors"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("c", "", "Path to YAML config file")
	dataPath := flag.String("data", "", "Labeled dataset (.csv or .db); overrides config")
	outDir := flag.String("out", "", "Artifacts directory; overrides config")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, *configPath, *dataPath, *outDir)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, configPath, dataPath, outDir string) int {
	logger := utils.GetLogger()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load configuration.", slog.Any("error", xerrors.New(err)))
		return 1
	}
	if dataPath != "" {
		cfg.Dataset = dataPath
	}
	if outDir != "" {
		cfg.Artifacts.Dir = outDir
	}

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Printf("=== Drone Activity Classifier Training ===\n")
	log.Printf("Dataset: %s\n", cfg.Dataset)
	log.Printf("Artifacts: %s\n", cfg.Artifacts.Dir)
	log.Println()

	startTime := time.Now()

	log.Println("Step 1: Loading labeled dataset...")
	samples, err := dataset.Load(cfg.Dataset)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load dataset.", slog.Any("error", xerrors.New(err)))
		return 1
	}
	log.Printf("Loaded %s samples\n", humanize.Comma(int64(len(samples))))
	log.Println()

	log.Println("Step 2: Resampling, scaling and fitting gradient-boosted trees...")
	result, err := drone.Train(ctx, samples, cfg.Training)
	if err != nil {
		logger.ErrorContext(ctx, "Training failed, existing artifacts left untouched.", slog.Any("error", xerrors.New(err)))
		return 1
	}
	printCounts("Class distribution before resampling:", result.ClassCounts)
	printCounts("Class distribution after resampling:", result.ResampledCounts)
	log.Printf("Train/test split: %s / %s\n", humanize.Comma(int64(result.TrainSize)), humanize.Comma(int64(result.TestSize)))
	log.Printf("Fitted %d trees in %s\n", len(result.Pair.Model.Trees), result.Elapsed.Round(time.Millisecond))
	log.Println()

	log.Println("Step 3: Saving artifacts...")
	if err := drone.SaveModelPair(cfg.Artifacts.Dir, result.Pair); err != nil {
		logger.ErrorContext(ctx, "Failed to save artifacts.", slog.Any("error", xerrors.New(err)))
		return 1
	}
	for _, name := range []string{drone.ScalerFile, drone.ClassifierFile} {
		path := filepath.Join(cfg.Artifacts.Dir, name)
		if fi, err := os.Stat(path); err == nil {
			log.Printf("  %s (%s)\n", path, humanize.Bytes(uint64(fi.Size())))
		}
	}
	log.Printf("Model version: %s\n", result.Pair.Version)
	log.Println()

	log.Println("=== Evaluation on held-out partition ===")
	log.Printf("Accuracy: %.4f\n", result.Report.Accuracy)
	log.Println()
	log.Print("\n" + result.Report.String())

	log.Printf("Total training time: %s\n", time.Since(startTime).Round(time.Millisecond))
	log.Println("✓ Training complete!")
	return 0
}

func printCounts(title string, counts map[string]int) {
	log.Println(title)
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	for _, label := range labels {
		log.Printf("  %-12s: %s\n", label, humanize.Comma(int64(counts[label])))
	}
}
