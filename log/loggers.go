package log

import (
	"fmt"
	"log"
	"time"
)

// Info logs data at info level to the sub logger
func Info(sl *SubLogger, data string) {
	emit(sl, levelOfInfo, func() string { return data })
}

// Infoln logs the operands formatted as by fmt.Sprint at info level
func Infoln(sl *SubLogger, v ...any) {
	emit(sl, levelOfInfo, func() string { return fmt.Sprint(v...) })
}

// Infof logs a formatted message at info level
func Infof(sl *SubLogger, data string, v ...any) {
	emit(sl, levelOfInfo, func() string { return fmt.Sprintf(data, v...) })
}

// Debug logs data at debug level to the sub logger
func Debug(sl *SubLogger, data string) {
	emit(sl, levelOfDebug, func() string { return data })
}

// Debugln logs the operands formatted as by fmt.Sprint at debug level
func Debugln(sl *SubLogger, v ...any) {
	emit(sl, levelOfDebug, func() string { return fmt.Sprint(v...) })
}

// Debugf logs a formatted message at debug level
func Debugf(sl *SubLogger, data string, v ...any) {
	emit(sl, levelOfDebug, func() string { return fmt.Sprintf(data, v...) })
}

// Warn logs data at warning level to the sub logger
func Warn(sl *SubLogger, data string) {
	emit(sl, levelOfWarn, func() string { return data })
}

// Warnln logs the operands formatted as by fmt.Sprint at warning level
func Warnln(sl *SubLogger, v ...any) {
	emit(sl, levelOfWarn, func() string { return fmt.Sprint(v...) })
}

// Warnf logs a formatted message at warning level
func Warnf(sl *SubLogger, data string, v ...any) {
	emit(sl, levelOfWarn, func() string { return fmt.Sprintf(data, v...) })
}

// Error logs data at error level to the sub logger
func Error(sl *SubLogger, data string) {
	emit(sl, levelOfError, func() string { return data })
}

// Errorln logs the operands formatted as by fmt.Sprint at error level
func Errorln(sl *SubLogger, v ...any) {
	emit(sl, levelOfError, func() string { return fmt.Sprint(v...) })
}

// Errorf logs a formatted message at error level
func Errorf(sl *SubLogger, data string, v ...any) {
	emit(sl, levelOfError, func() string { return fmt.Sprintf(data, v...) })
}

type level uint8

const (
	levelOfInfo level = iota
	levelOfDebug
	levelOfWarn
	levelOfError
)

// emit snapshots the sub logger under the read lock and writes outside of it
func emit(sl *SubLogger, lvl level, msg func() string) {
	mu.RLock()
	fields := sl.getFields()
	mu.RUnlock()
	fields.stage(lvl, msg)
}

func displayError(err error) {
	if err != nil {
		log.Printf("Logger write error: %v\n", err)
	}
}

// getFields copies what a write needs from the sub logger, mu must be held
func (sl *SubLogger) getFields() *logFields {
	if sl == nil || sl.output == nil {
		return nil
	}
	return &logFields{
		info:   sl.Info,
		warn:   sl.Warn,
		debug:  sl.Debug,
		error:  sl.Error,
		name:   sl.name,
		output: sl.output,
		logger: logger,
	}
}

func (l *logFields) enabled(lvl level) bool {
	switch lvl {
	case levelOfInfo:
		return l.info
	case levelOfWarn:
		return l.warn
	case levelOfError:
		return l.error
	case levelOfDebug:
		return l.debug
	}
	return false
}

func (l *logFields) header(lvl level) string {
	switch lvl {
	case levelOfDebug:
		return l.logger.DebugHeader
	case levelOfWarn:
		return l.logger.WarnHeader
	case levelOfError:
		return l.logger.ErrorHeader
	}
	return l.logger.InfoHeader
}

// stage formats and writes a log event, the message is only built when the
// level is enabled
func (l *logFields) stage(lvl level, deferFunc func() string) {
	if l == nil || !l.enabled(lvl) {
		return
	}
	bp := bufferPool.Get().(*[]byte)
	buf := (*bp)[:0]
	buf = append(buf, l.header(lvl)...)
	if l.logger.ShowLogSystemName {
		buf = append(buf, l.logger.Spacer...)
		buf = append(buf, l.name...)
	}
	buf = append(buf, l.logger.Spacer...)
	if l.logger.TimestampFormat != "" {
		buf = time.Now().AppendFormat(buf, l.logger.TimestampFormat)
	}
	buf = append(buf, l.logger.Spacer...)
	data := deferFunc()
	buf = append(buf, data...)
	if data == "" || data[len(data)-1] != '\n' {
		buf = append(buf, '\n')
	}
	_, err := l.output.Write(buf)
	displayError(err)
	*bp = buf
	bufferPool.Put(bp)
}
