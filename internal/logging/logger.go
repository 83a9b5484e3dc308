package logging

import (
	"io"
	"os"
	"strings"

	"alcyxob/gym-admin/internal/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup configures the global logrus logger from the logging config section.
func Setup(cfg config.LoggingConfig) {
	if cfg.FormatJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	logrus.SetLevel(GetLevel(cfg.Level))
	logrus.SetOutput(Output(cfg))

	if cfg.File == "" {
		logrus.Println("writing logs only to STDOUT")
	} else if cfg.ToStdout {
		logrus.Println("writing logs to file and STDOUT")
	}
}

// Output builds the writer logs go to: stdout, a rotated file, or both.
func Output(cfg config.LoggingConfig) io.Writer {
	if cfg.File == "" {
		return os.Stdout
	}

	fileName := cfg.File
	if !strings.HasSuffix(fileName, ".log") {
		fileName += ".log"
	}

	lumberJackLogger := &lumberjack.Logger{
		Filename:   fileName,
		MaxSize:    cfg.MaxSizeMB, // megabytes
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		LocalTime:  false, // UTC
		Compress:   true,
	}

	if cfg.ToStdout {
		return io.MultiWriter(os.Stdout, lumberJackLogger)
	}
	return lumberJackLogger
}

func GetLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "trace":
		return logrus.TraceLevel
	case "warn":
		return logrus.WarnLevel
	default:
		return logrus.InfoLevel
	}
}
