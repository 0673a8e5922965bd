package framework

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/example/grpc-plugin-framework/pkg/api"
)

const logFileName = "gpf-framework.log"

// configureLogging builds the framework logger from the host preferences.
// This runs before anything else in Init so every later step is observable.
func configureLogging(prefs *api.Preferences) (*logrus.Logger, *os.File, error) {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	switch prefs.LogLevel {
	case api.LogLevelOff:
		log.SetLevel(logrus.PanicLevel)
	case api.LogLevelVerbose:
		log.SetLevel(logrus.DebugLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}

	var sinks []io.Writer

	// A host-owned callback replaces console output entirely.
	if prefs.Logger != nil {
		log.AddHook(&callbackHook{cb: prefs.Logger})
	} else if prefs.Flags&api.PreferenceShowConsole != 0 {
		sinks = append(sinks, os.Stderr)
	}

	var file *os.File
	if prefs.PathToLogsAndData != "" && prefs.Flags&api.PreferenceDisableLogFile == 0 {
		if err := os.MkdirAll(prefs.PathToLogsAndData, 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(
			filepath.Join(prefs.PathToLogsAndData, logFileName),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		file = f
		sinks = append(sinks, f)
	}

	if len(sinks) == 0 {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(io.MultiWriter(sinks...))
	}
	return log, file, nil
}

// callbackHook forwards every record to the host's log callback.
type callbackHook struct {
	cb api.LogCallback
}

func (h *callbackHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *callbackHook) Fire(e *logrus.Entry) error {
	level := api.LogLevelDefault
	if e.Level >= logrus.DebugLevel {
		level = api.LogLevelVerbose
	}

	component := "framework"
	if c, ok := e.Data["plugin"]; ok {
		component = fmt.Sprint(c)
	}
	h.cb(level, component, e.Message)
	return nil
}
