package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"cogbattery/internal/config"
	"cogbattery/internal/export"
	"cogbattery/internal/repository"
	"cogbattery/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	exportParticipant string
	exportOutput      string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a participant's results as CSV",
	Long: `Write every task section of one participant's results as a single CSV
document, in battery order. Tasks the participant never completed are marked
not_completed.

Examples:
  cogbattery export --participant 3f0c...        # to stdout
  cogbattery export --participant 3f0c... -o p.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportParticipant == "" {
			return errors.New("--participant is required")
		}
		db, registry, err := openBackend(config.Get())
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		participant, err := repository.New(db).GetParticipant(ctx, exportParticipant)
		if err != nil {
			return fmt.Errorf("looking up participant: %w", err)
		}

		var out io.Writer = cmd.OutOrStdout()
		if exportOutput != "" && exportOutput != "-" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		w := bufio.NewWriter(out)

		results := store.NewResultStore(store.NewGormKV(db), nil, log)
		if err := export.WriteCSV(ctx, w, *participant, registry.Battery(), results, time.Now()); err != nil {
			return err
		}
		if err := w.Flush(); err != nil {
			return err
		}
		log.Info("Exported participant results", zap.String("participant", participant.ID), zap.String("output", exportOutput))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportParticipant, "participant", "", "participant ID to export")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
}
