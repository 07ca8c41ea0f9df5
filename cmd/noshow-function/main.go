// Command noshow-function runs single prediction invocations from the command
// line, the way the hosted function runtime executes them.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/synaptica-ai/noshow/pkg/appointment"
	"github.com/synaptica-ai/noshow/pkg/bootstrap"
	"github.com/synaptica-ai/noshow/pkg/common/config"
	"github.com/synaptica-ai/noshow/pkg/common/database"
	"github.com/synaptica-ai/noshow/pkg/common/logger"
	"github.com/synaptica-ai/noshow/pkg/features"
	"github.com/synaptica-ai/noshow/pkg/prediction"
	"github.com/synaptica-ai/noshow/pkg/serving"
)

func main() {
	logger.Init()
	// stdout carries the outcome JSON
	logger.Log.SetOutput(os.Stderr)

	rootCmd := &cobra.Command{
		Use:           "noshow-function",
		Short:         "Appointment no-show prediction function",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(schemaCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		logger.Log.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one invocation against the latest appointment and print the outcome",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap.Build(config.Load())
			if err != nil {
				return fmt.Errorf("building prediction service: %w", err)
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := app.Service.Run(ctx)
			if err := printJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if out.State == prediction.StateError {
				return out.Error
			}
			return nil
		},
	}
}

func extractCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Print the feature vector of an appointment document read from a file or stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return extract(in, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "appointment document JSON, - for stdin")
	return cmd
}

func extract(in io.Reader, out io.Writer) error {
	dec := json.NewDecoder(in)
	dec.UseNumber()
	var rec appointment.Record
	if err := dec.Decode(&rec); err != nil {
		return fmt.Errorf("decoding appointment document: %w", err)
	}

	res, err := features.Extract(rec)
	if err != nil {
		return err
	}
	return printJSON(out, map[string]interface{}{
		"schema_version": features.SchemaVersion,
		"parse_outcome":  res.Outcome.String(),
		"features":       res.Vector,
	})
}

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the feature names in vector order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"version":  features.SchemaVersion,
				"width":    features.Width(),
				"features": features.FeatureNames(),
			})
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the appointments and prediction_logs tables in PostgreSQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.GetPostgres()
			if err != nil {
				return err
			}
			defer database.ClosePostgres()

			if err := appointment.NewRepository(db).AutoMigrate(); err != nil {
				return fmt.Errorf("migrating appointments: %w", err)
			}
			if err := serving.NewRepository(db).AutoMigrate(); err != nil {
				return fmt.Errorf("migrating prediction logs: %w", err)
			}
			logger.Log.Info("Migrations applied")
			return nil
		},
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
