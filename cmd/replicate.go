package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	zlogger "github.com/0chain/s3replicate/logger"
	"github.com/0chain/s3replicate/replication"
	"github.com/0chain/s3replicate/s3"
	"github.com/0chain/s3replicate/util"
	zerrors "github.com/0chain/s3replicate/zErrors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	concurrency, retryCount int
	delay                   = replication.DefaultDelay
)

func initReplicateFlags(c *cobra.Command) {
	c.Flags().IntVar(&concurrency, "concurrency", replication.DefaultConcurrency, "number of copies in flight at once")
	c.Flags().IntVar(&retryCount, "retry", replication.DefaultRetryCount, "retries of a copy that failed with a transient error")
	c.Flags().DurationVar(&delay, "delay", replication.DefaultDelay, "minimum spacing between two copy requests (0 disables)")

	_ = viper.BindPFlags(c.Flags())
}

// signalContext is cancelled on the first SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runReplicate(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(viper.GetViper())
	if err != nil {
		reportError(err)
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	_, err = replication.StartReplication(ctx, cfg)
	if err != nil {
		reportError(err)
	}
	return err
}

// reportError logs the reason the run ends with a failure status. Copy
// failures and interrupts are already covered by the run summary.
func reportError(err error) {
	if !zerrors.IsFatal(err) {
		if !zerrors.IsCopyFailedError(err) && !zerrors.IsCancelledError(err) {
			zlogger.Logger.Error().Err(err).Msg("Replication failed")
		}
		return
	}

	switch {
	case zerrors.IsMissingCredentialsError(err):
		zlogger.Logger.Error().Msg("AWS credentials not found. Please set:")
		for _, v := range s3.CredentialEnvVars {
			zlogger.Logger.Error().Msgf("  - %v", v)
		}
		if missing := util.MissingEnv("AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY"); len(missing) > 0 {
			zlogger.Logger.Error().Msgf("Not set in this environment: %v", strings.Join(missing, ", "))
		}
	case zerrors.IsMissingConfigError(err), zerrors.IsBadConfigError(err):
		zlogger.Logger.Error().Msg(err.Error())
		zlogger.Logger.Error().Msg("Expected format:\n" + strings.TrimSpace(examplePlan))
	default:
		zlogger.Logger.Error().Err(err).Msg("Fatal error")
	}
}

const examplePlan = `
buckets:
  - source_bucket: source-bucket-1
    destination_buckets:
      - destination-bucket-1
      - destination-bucket-2
`
