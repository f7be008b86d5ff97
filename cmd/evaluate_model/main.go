package main

import (
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"drone-activity-classifier/config"
	"drone-activity-classifier/dataset"
	"drone-activity-classifier/drone"
	"drone-activity-classifier/utils"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/mdobak/go-xerrors"
)

// EvaluationReport is written to -report as JSON.
type EvaluationReport struct {
	Timestamp      time.Time       `json:"timestamp"`
	ArtifactsDir   string          `json:"artifactsDir"`
	Dataset        string          `json:"dataset"`
	Model          drone.ModelInfo `json:"model"`
	Report         drone.Report    `json:"report"`
	ProcessingTime time.Duration   `json:"processingTimeNs"`
}

func main() {
	_ = godotenv.Load()

	configPath := flag.String("c", "", "Path to YAML config file")
	dataPath := flag.String("data", "", "Labeled dataset (.csv or .db); overrides config")
	artifactsDir := flag.String("models", "", "Artifacts directory; overrides config")
	reportPath := flag.String("report", "", "Optional path for a JSON evaluation report")
	flag.Parse()

	os.Exit(run(*configPath, *dataPath, *artifactsDir, *reportPath))
}

func run(configPath, dataPath, artifactsDir, reportPath string) int {
	logger := utils.GetLogger()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("Failed to load configuration.", slog.Any("error", xerrors.New(err)))
		return 1
	}
	if dataPath != "" {
		cfg.Dataset = dataPath
	}
	if artifactsDir != "" {
		cfg.Artifacts.Dir = artifactsDir
	}

	log.SetFlags(log.Ldate | log.Ltime)
	log.Printf("=== Drone Activity Classifier Evaluation ===\n")
	startTime := time.Now()

	log.Println("Step 1: Loading model artifacts...")
	classifier, err := drone.NewClassifierFromDir(cfg.Artifacts.Dir)
	if err != nil {
		logger.Error("Failed to load artifacts.", slog.Any("error", xerrors.New(err)))
		return 1
	}
	info := classifier.Info()
	log.Printf("Model %s trained %s\n", info.Version, humanize.Time(info.TrainedAt))
	log.Println()

	log.Println("Step 2: Loading labeled dataset...")
	samples, err := dataset.Load(cfg.Dataset)
	if err != nil {
		logger.Error("Failed to load dataset.", slog.Any("error", xerrors.New(err)))
		return 1
	}
	log.Printf("Loaded %s samples from %s\n", humanize.Comma(int64(len(samples))), cfg.Dataset)
	log.Println()

	log.Println("Step 3: Classifying...")
	report, err := classifier.Evaluate(samples)
	if err != nil {
		logger.Error("Evaluation failed.", slog.Any("error", xerrors.New(err)))
		return 1
	}
	elapsed := time.Since(startTime)

	log.Println("=== Evaluation Results ===")
	log.Printf("Accuracy: %.4f\n", report.Accuracy)
	log.Print("\n" + report.String())

	if reportPath != "" {
		full := EvaluationReport{
			Timestamp:      time.Now(),
			ArtifactsDir:   cfg.Artifacts.Dir,
			Dataset:        cfg.Dataset,
			Model:          info,
			Report:         report,
			ProcessingTime: elapsed,
		}
		data, err := json.MarshalIndent(full, "", "  ")
		if err == nil {
			err = os.WriteFile(reportPath, data, 0644)
		}
		if err != nil {
			logger.Error("Failed to write report.", slog.Any("error", xerrors.New(err)))
			return 1
		}
		log.Printf("Report saved to %s\n", reportPath)
	}

	log.Printf("Evaluation took %s\n", elapsed.Round(time.Millisecond))
	return 0
}
