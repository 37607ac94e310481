package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hr-data-api/internal/database"
	"github.com/hr-data-api/internal/repository"
	"github.com/hr-data-api/internal/sample"
	"github.com/spf13/cobra"
)

func newGenerateSampleCmd() *cobra.Command {
	var (
		count int
		out   string
		seed  uint64
	)

	cmd := &cobra.Command{
		Use:   "generate-sample",
		Short: "Write a sample employee import file from existing teams and organizations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if count <= 0 {
				return errors.New("--count must be positive")
			}
			if seed == 0 {
				seed = uint64(time.Now().UnixNano())
			}

			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := database.Connect(ctx, cfg.Database, logger)
			if err != nil {
				return err
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if dir := filepath.Dir(out); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create output dir: %w", err)
				}
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create output file: %w", err)
			}
			defer f.Close()

			n, err := sample.NewGenerator(seed, nil).Write(ctx,
				repository.NewTeamRepository(db),
				repository.NewOrganizationRepository(db),
				count, f)
			if err != nil {
				os.Remove(out)
				return err
			}

			logger.Info("sample import file generated",
				slog.Int("records", n),
				slog.String("file", out),
			)
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 10, "number of employee records")
	cmd.Flags().StringVar(&out, "out", "sample_employee_data.json", "output file")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (0 = time based)")
	return cmd
}
