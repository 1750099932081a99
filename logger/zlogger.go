package zlogger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var defaultLogLevel = zerolog.InfoLevel
var Logger zerolog.Logger

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	Logger = zerolog.New(consoleWriter(os.Stdout)).
		Level(defaultLogLevel).
		With().
		Timestamp().
		Logger()
}

func consoleWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "2006-01-02 15:04:05",
	}
}

// SetLogFile sends log output to logFile and, when verbose, to stdout as well.
// The returned closer releases the file handle.
func SetLogFile(logFile string, verbose bool) (func() error, error) {
	f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	fileOut := consoleWriter(f)
	fileOut.NoColor = true

	var out io.Writer = fileOut
	if verbose {
		out = zerolog.MultiLevelWriter(fileOut, consoleWriter(os.Stdout))
	}

	Logger = zerolog.New(out).
		Level(Logger.GetLevel()).
		With().
		Timestamp().
		Logger()

	return f.Close, nil
}

// SetLevel parses levelStr and applies it; unknown levels fall back to info.
func SetLevel(levelStr string) {
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil || levelStr == "" {
		Logger.Warn().Str("level", levelStr).Msg("invalid log level, defaulting to info")
		level = zerolog.InfoLevel
	}
	Logger = Logger.Level(level)
}

// SetOutput replaces the log destination. Used by tests to silence or capture output.
func SetOutput(w io.Writer) {
	Logger = Logger.Output(w)
}
