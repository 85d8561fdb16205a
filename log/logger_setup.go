package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/thrasher-corp/venuesim/common/convert"
)

var (
	errSubloggerConfigIsNil  = errors.New("sublogger config is nil")
	errUnhandledOutputWriter = errors.New("unhandled output writer")
	errSubLoggerNotFound     = errors.New("sub logger not found")
	errConfigIsNil           = errors.New("log config is nil")
)

func getWriters(s *SubLoggerConfig) (io.Writer, error) {
	if s == nil {
		return nil, errSubloggerConfigIsNil
	}
	mw, err := NewMultiWriter()
	if err != nil {
		return nil, err
	}
	outputWriters := strings.Split(s.Output, "|")
	for x := range outputWriters {
		var writer io.Writer
		switch strings.ToLower(outputWriters[x]) {
		case "stdout", "console":
			writer = os.Stdout
		case "stderr":
			writer = os.Stderr
		case "discard", "none":
			writer = io.Discard
		default:
			return nil, fmt.Errorf("%w: %s", errUnhandledOutputWriter, outputWriters[x])
		}
		err = mw.Add(writer)
		if err != nil {
			return nil, err
		}
	}
	return mw, nil
}

// GenDefaultSettings return struct with known sane/working logger settings
func GenDefaultSettings() Config {
	return Config{
		Enabled: convert.BoolPtr(true),
		SubLoggerConfig: SubLoggerConfig{
			Level:  defaultLevels,
			Output: "console",
		},
		AdvancedSettings: advancedSettings{
			ShowLogSystemName: convert.BoolPtr(true),
			Spacer:            spacer,
			TimeStampFormat:   timestampFormat,
			Headers: headers{
				Info:  "[INFO]",
				Warn:  "[WARN]",
				Debug: "[DEBUG]",
				Error: "[ERROR]",
			},
		},
	}
}

func newLogger(c *Config) Logger {
	return Logger{
		ShowLogSystemName: c.AdvancedSettings.ShowLogSystemName != nil && *c.AdvancedSettings.ShowLogSystemName,
		TimestampFormat:   c.AdvancedSettings.TimeStampFormat,
		Spacer:            c.AdvancedSettings.Spacer,
		ErrorHeader:       c.AdvancedSettings.Headers.Error,
		InfoHeader:        c.AdvancedSettings.Headers.Info,
		WarnHeader:        c.AdvancedSettings.Headers.Warn,
		DebugHeader:       c.AdvancedSettings.Headers.Debug,
	}
}

func configureSubLogger(subLogger, levels string, output io.Writer) error {
	logPtr, found := subLoggers[subLogger]
	if !found {
		return fmt.Errorf("%w: %v", errSubLoggerNotFound, subLogger)
	}

	logPtr.output = output
	logPtr.Levels = splitLevel(levels)
	return nil
}

// SetupGlobalLogger setup the global loggers with the provided config, a
// disabled config silences every sub logger
func SetupGlobalLogger(c *Config) error {
	if c == nil {
		return errConfigIsNil
	}
	mu.Lock()
	defer mu.Unlock()
	globalLogConfig = c
	enabled := c.Enabled == nil || *c.Enabled
	for x := range subLoggers {
		if !enabled {
			subLoggers[x].Levels = Levels{}
			continue
		}
		output, err := getWriters(&c.SubLoggerConfig)
		if err != nil {
			return err
		}
		subLoggers[x].Levels = splitLevel(c.Level)
		subLoggers[x].output = output
	}
	logger = newLogger(c)
	if !enabled {
		return nil
	}
	return setupSubLoggers(c.SubLoggers)
}

// SetupSubLoggers configure all sub loggers with provided configuration values
func SetupSubLoggers(s []SubLoggerConfig) error {
	mu.Lock()
	defer mu.Unlock()
	return setupSubLoggers(s)
}

func setupSubLoggers(s []SubLoggerConfig) error {
	for x := range s {
		output, err := getWriters(&s[x])
		if err != nil {
			return err
		}
		err = configureSubLogger(strings.ToUpper(s[x].Name), s[x].Level, output)
		if err != nil {
			return err
		}
	}
	return nil
}

// SetOutput redirects a sub logger to a custom writer, used by tests and
// callers that capture output
func SetOutput(sl *SubLogger, w io.Writer) error {
	if sl == nil {
		return errSubLoggerNotFound
	}
	if w == nil {
		return errWriterIsNil
	}
	mu.Lock()
	sl.output = w
	mu.Unlock()
	return nil
}

// SetLevel sets the levels of a named sub logger
func SetLevel(s, level string) (Levels, error) {
	mu.Lock()
	defer mu.Unlock()
	sl, found := subLoggers[strings.ToUpper(s)]
	if !found {
		return Levels{}, fmt.Errorf("%w: %v", errSubLoggerNotFound, s)
	}
	sl.Levels = splitLevel(level)
	return sl.Levels, nil
}

func splitLevel(level string) (l Levels) {
	enabledLevels := strings.Split(level, "|")
	for x := range enabledLevels {
		switch strings.ToUpper(enabledLevels[x]) {
		case "DEBUG":
			l.Debug = true
		case "INFO":
			l.Info = true
		case "WARN":
			l.Warn = true
		case "ERROR":
			l.Error = true
		}
	}
	return
}

func registerNewSubLogger(subLogger string) *SubLogger {
	temp := &SubLogger{
		name:   strings.ToUpper(subLogger),
		output: os.Stdout,
		Levels: splitLevel(defaultLevels),
	}
	subLoggers[temp.name] = temp
	return temp
}

// register all loggers at package init()
func init() {
	logger = newLogger(&Config{AdvancedSettings: GenDefaultSettings().AdvancedSettings})

	Global = registerNewSubLogger("LOG")
	Simulator = registerNewSubLogger("SIMULATOR")
	Feed = registerNewSubLogger("FEED")
	Ledger = registerNewSubLogger("LEDGER")
	OrderMgr = registerNewSubLogger("ORDER")
	Trade = registerNewSubLogger("TRADE")
	ConfigMgr = registerNewSubLogger("CONFIG")
	DatabaseMgr = registerNewSubLogger("DATABASE")
	Sweep = registerNewSubLogger("SWEEP")
	APIServer = registerNewSubLogger("API")
	Bot = registerNewSubLogger("BOT")
}
