package utils

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	InfoLogger  *logrus.Logger
	ErrorLogger *logrus.Logger
)

type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// InitLogger sets up the two package loggers. Info goes to stdout and errors
// to stderr, both are copied to a rotating file when File is set.
func InitLogger(cfg LogConfig) {
	InfoLogger = logrus.New()
	ErrorLogger = logrus.New()

	var formatter logrus.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	if cfg.Format == "json" {
		formatter = &logrus.JSONFormatter{}
	}
	InfoLogger.SetFormatter(formatter)
	ErrorLogger.SetFormatter(formatter)

	var infoOut, errOut io.Writer = os.Stdout, os.Stderr
	if cfg.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSizeMB, 50),
			MaxBackups: orDefault(cfg.MaxBackups, 5),
			MaxAge:     orDefault(cfg.MaxAgeDays, 14),
			Compress:   true,
		}
		infoOut = io.MultiWriter(os.Stdout, rotating)
		errOut = io.MultiWriter(os.Stderr, rotating)
	}
	InfoLogger.SetOutput(infoOut)
	ErrorLogger.SetOutput(errOut)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	InfoLogger.SetLevel(level)
	ErrorLogger.SetLevel(logrus.ErrorLevel)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
