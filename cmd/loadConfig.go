package cmd

import (
	"fmt"

	"github.com/0chain/s3replicate/replication"
	"github.com/0chain/s3replicate/s3"
	zerrors "github.com/0chain/s3replicate/zErrors"
	"github.com/spf13/viper"
)

// LoadConfig assembles the run settings from v, where flags, S3REPLICATE_*
// environment variables and defaults have already been merged.
func LoadConfig(v *viper.Viper) (*replication.ReplicationConfig, error) {
	cfg := &replication.ReplicationConfig{
		ConfigPath:         v.GetString("config"),
		Region:             v.GetString("region"),
		Concurrency:        v.GetInt("concurrency"),
		RetryCount:         v.GetInt("retry"),
		Delay:              v.GetDuration("delay"),
		MultipartThreshold: v.GetInt64("multipart-threshold"),
		PartSize:           v.GetInt64("part-size"),
		Silent:             v.GetBool("silent"),
	}

	switch {
	case cfg.ConfigPath == "":
		return nil, badFlag("config", "must not be empty")
	case cfg.Concurrency < 1:
		return nil, badFlag("concurrency", "must be at least 1")
	case cfg.RetryCount < 0:
		return nil, badFlag("retry", "must not be negative")
	case cfg.Delay < 0:
		return nil, badFlag("delay", "must not be negative")
	case cfg.MultipartThreshold < 0 || cfg.MultipartThreshold > s3.MaxSimpleCopySize:
		return nil, badFlag("multipart-threshold", fmt.Sprintf("must be between 0 and %d bytes", s3.MaxSimpleCopySize))
	case cfg.PartSize != 0 && (cfg.PartSize < s3.MinPartSize || cfg.PartSize > s3.MaxSimpleCopySize):
		return nil, badFlag("part-size", fmt.Sprintf("must be 0 or between %d and %d bytes", s3.MinPartSize, s3.MaxSimpleCopySize))
	}

	return cfg, nil
}

func badFlag(name, problem string) error {
	return zerrors.New(zerrors.BadConfigErrCode, fmt.Sprintf("invalid --%v: %v", name, problem))
}
