package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/adityaks/cattle-api/internal/config"
	"github.com/adityaks/cattle-api/internal/dataset"
	"github.com/adityaks/cattle-api/internal/logging"
)

func splitCmd() *cobra.Command {
	var (
		sourceDir  string
		outputDir  string
		trainRatio float64
		valRatio   float64
		seed       int64
	)

	cmd := &cobra.Command{
		Use:   "split-dataset",
		Short: "Split a labeled image directory into train/val/test subsets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logging.Init(cfg.Log.Format, logging.ParseLevel(cfg.Log.Level))

			summaries, err := dataset.Split(dataset.Options{
				SourceDir:  sourceDir,
				OutputDir:  outputDir,
				TrainRatio: trainRatio,
				ValRatio:   valRatio,
				Seed:       seed,
			})
			if err != nil {
				return err
			}

			for _, s := range summaries {
				slog.Info("class split",
					"class", s.Class,
					"train", s.Train,
					"val", s.Val,
					"test", s.Test,
					"total", s.Total())
			}
			slog.Info("dataset split completed", "classes", len(summaries))
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceDir, "source", "dataset/cattle", "labeled source directory")
	cmd.Flags().StringVar(&outputDir, "output", "dataset", "output root for train/val/test")
	cmd.Flags().Float64Var(&trainRatio, "train-ratio", 0.70, "training share")
	cmd.Flags().Float64Var(&valRatio, "val-ratio", 0.15, "validation share (test gets the remainder)")
	cmd.Flags().Int64Var(&seed, "seed", 42, "shuffle seed")
	return cmd
}
