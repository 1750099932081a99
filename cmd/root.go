package cmd

import (
	"strings"

	zlogger "github.com/0chain/s3replicate/logger"
	"github.com/0chain/s3replicate/replication"
	"github.com/0chain/s3replicate/s3"
	"github.com/0chain/s3replicate/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "S3REPLICATE"
	defaultLogFile = "s3_sync.log"
)

var (
	cfgFile, logFile, logLevel, region string
	bSilent                            bool
	multipartThreshold, partSize       int64

	closeLog func() error

	rootCmd = &cobra.Command{
		Use:   "s3replicate",
		Short: "Replicate S3 buckets into one or more destination buckets",
		Long: `s3replicate reads a plan of source buckets and their destination buckets, checks that every
bucket is reachable, and copies each object of a source bucket into all of its destinations
using server-side copies. Objects never pass through the local machine.

Credentials come from the standard AWS credential chain (environment variables, shared
config files or instance roles). Every flag can also be set through an S3REPLICATE_*
environment variable, e.g. S3REPLICATE_CONCURRENCY=8.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runReplicate,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", replication.DefaultConfigPath, "replication plan file")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", defaultLogFile, "file the run log is appended to")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&bSilent, "silent", false, "log to file only and disable the progress bar")
	rootCmd.PersistentFlags().StringVar(&region, "region", s3.DefaultRegion, "region used for the initial S3 client")
	rootCmd.PersistentFlags().Int64Var(&multipartThreshold, "multipart-threshold", 0, "object size in bytes above which copies are made in parts (default 5GiB)")
	rootCmd.PersistentFlags().Int64Var(&partSize, "part-size", 0, "part size in bytes of multipart copies (default 64MiB)")

	_ = viper.BindPFlags(rootCmd.PersistentFlags())
	initReplicateFlags(rootCmd)
}

// Execute runs the command line and returns the error that ended it, if any.
func Execute() error {
	defer closeLogFile()
	return rootCmd.Execute()
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	setupLogging(viper.GetString("log-file"), viper.GetString("log-level"), viper.GetBool("silent"))
}

func setupLogging(file, level string, silent bool) {
	path, err := util.ExpandPath(file)
	if err != nil {
		zlogger.Logger.Warn().Err(err).Msgf("invalid log file path %v, logging to console only", file)
	} else if closer, err := zlogger.SetLogFile(path, !silent); err != nil {
		zlogger.Logger.Warn().Err(err).Msgf("cannot open log file %v, logging to console only", path)
	} else {
		closeLog = closer
	}

	zlogger.SetLevel(level)
}

func closeLogFile() {
	if closeLog == nil {
		return
	}
	_ = closeLog()
	closeLog = nil
}
