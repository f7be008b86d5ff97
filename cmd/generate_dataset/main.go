package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"drone-activity-classifier/dataset"
	"drone-activity-classifier/drone"
	"drone-activity-classifier/utils"

	"github.com/dustin/go-humanize"
	"github.com/mdobak/go-xerrors"
)

func main() {
	out := flag.String("out", utils.GetEnv("DRONE_DATASET_PATH", "drone_activity_dataset.csv"), "Output file (.csv, or .db for SQLite)")
	n := flag.Int("n", utils.GetEnvInt("DRONE_DATASET_SIZE", 1000), "Number of samples")
	fraction := flag.Float64("suspicious", 0.1, "Fraction of suspicious samples")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	logger := utils.GetLogger()

	if *n <= 0 || *fraction < 0 || *fraction > 1 {
		logger.Error("Invalid arguments.", slog.Int("n", *n), slog.Float64("suspicious", *fraction))
		os.Exit(2)
	}

	samples := drone.SyntheticDataset(*n, *fraction, *seed)
	if err := dataset.Save(*out, samples); err != nil {
		logger.Error("Failed to write dataset.", slog.Any("error", xerrors.New(err)))
		os.Exit(1)
	}

	suspicious := 0
	for _, s := range samples {
		if s.Label == drone.LabelSuspicious {
			suspicious++
		}
	}
	log.Printf("Wrote %s samples (%s suspicious) to %s\n",
		humanize.Comma(int64(len(samples))), humanize.Comma(int64(suspicious)), *out)
}
