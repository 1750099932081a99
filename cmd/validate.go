package cmd

import (
	"fmt"
	"io"

	zlogger "github.com/0chain/s3replicate/logger"
	"github.com/0chain/s3replicate/model"
	"github.com/0chain/s3replicate/replication"
	zerrors "github.com/0chain/s3replicate/zErrors"
	"github.com/go-yaml/yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check every bucket of the plan without copying anything",
	Long: `validate loads the plan, checks that each source and destination bucket exists and is
accessible, and prints the plan that a run would execute: only mappings whose source is valid,
each with its valid destinations. It exits with status 1 when any mapping would be skipped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(viper.GetViper())
		if err != nil {
			reportError(err)
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		resolved, skipped, err := replication.StartValidation(ctx, cfg)
		if err != nil {
			reportError(err)
			return err
		}

		if err := printPlan(cmd.OutOrStdout(), resolved); err != nil {
			return err
		}

		if skipped > 0 {
			zlogger.Logger.Warn().Msgf("%d source buckets would be skipped", skipped)
			return zerrors.New(zerrors.BadConfigErrCode, fmt.Sprintf("%d source buckets would be skipped", skipped))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func printPlan(w io.Writer, plan *model.ReplicationPlan) error {
	out, err := yaml.Marshal(plan)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
