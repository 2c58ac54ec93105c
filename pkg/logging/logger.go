package logging

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"log"

	"github.com/fatih/color"
)

// writer is an io.Writer that splits its input stream into lines and writes
// those lines to an underlying logger.
type writer struct {
	// callback is the logging callback.
	callback func(string)
	// buffer is any incomplete line fragment left over from a previous write.
	buffer []byte
}

// trimCarriageReturn trims any single trailing carriage return from the end of
// a byte slice.
func trimCarriageReturn(buffer []byte) []byte {
	if len(buffer) > 0 && buffer[len(buffer)-1] == '\r' {
		return buffer[:len(buffer)-1]
	}
	return buffer
}

// Write implements io.Writer.Write.
func (w *writer) Write(buffer []byte) (int, error) {
	// Append the data to our internal buffer.
	w.buffer = append(w.buffer, buffer...)

	// Process all lines in the buffer, tracking the number of bytes that we
	// process.
	var processed int
	remaining := w.buffer
	for {
		// Find the index of the next newline character.
		index := bytes.IndexByte(remaining, '\n')
		if index == -1 {
			break
		}

		// Process the line.
		w.callback(string(trimCarriageReturn(remaining[:index])))

		// Update the number of bytes that we've processed.
		processed += index + 1

		// Update the remaining slice.
		remaining = remaining[index+1:]
	}

	// If we managed to process bytes, then truncate our internal buffer.
	if processed > 0 {
		// Compute the number of leftover bytes.
		leftover := len(w.buffer) - processed

		// If there are leftover bytes, then shift them to the front of the
		// buffer.
		if leftover > 0 {
			copy(w.buffer[:leftover], w.buffer[processed:])
		}

		// Truncate the buffer.
		w.buffer = w.buffer[:leftover]
	}

	// Done.
	return len(buffer), nil
}

// Logger is the main logger type. It has the novel property that it still
// functions if nil, but it doesn't log anything — every backend constructor
// in this module accepts an optional *Logger and can be handed a nil one
// without special-casing it. Beyond the nil check, every leveled method also
// checks its own level against the logger's configured Level, so a Logger
// built at LevelWarn silently drops Info/Debug/Trace calls. It is designed
// to use the standard logger provided by the log package, so it respects
// any flags set for that logger. It is safe for concurrent usage.
type Logger struct {
	// prefix is any prefix specified for the logger.
	prefix string
	// level is the maximum level this logger (and its subloggers) emit.
	level Level
	// colorize enables ANSI coloring of Warn/Error output.
	colorize bool
}

// RootLogger is the root logger from which all other loggers derive, at
// LevelInfo with no colorization. The CLI does not use it: it builds its
// own root logger with NewRoot once it has parsed its verbosity flag and
// detected whether standard error is a terminal.
var RootLogger = &Logger{level: LevelInfo}

// NewRoot constructs a root logger at the given level, colorizing Warn/Error
// output only if colorize is true.
func NewRoot(level Level, colorize bool) *Logger {
	return &Logger{level: level, colorize: colorize}
}

// Sublogger creates a new sublogger with the specified name, inheriting
// this logger's level and colorization.
func (l *Logger) Sublogger(name string) *Logger {
	// If the logger is nil, then the sublogger will be as well.
	if l == nil {
		return nil
	}

	// Compute the new prefix.
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}

	// Create the new logger.
	return &Logger{
		prefix:   prefix,
		level:    l.level,
		colorize: l.colorize,
	}
}

// Level reports the logger's configured level. A nil logger reports
// LevelDisabled.
func (l *Logger) Level() Level {
	if l == nil {
		return LevelDisabled
	}
	return l.level
}

func (l *Logger) enabled(at Level) bool {
	return l != nil && l.level >= at
}

// output is the internal logging method.
func (l *Logger) output(calldepth int, line string) {
	// Add a prefix if necessary.
	if l.prefix != "" {
		line = fmt.Sprintf("[%s] %s", l.prefix, line)
	}

	// Log.
	log.Output(calldepth, line)
}

// Print logs information unconditionally (below any Level gate), with
// semantics equivalent to fmt.Print.
func (l *Logger) Print(v ...interface{}) {
	if l != nil {
		l.output(3, fmt.Sprint(v...))
	}
}

// Println logs information unconditionally, with semantics equivalent to
// fmt.Println.
func (l *Logger) Println(v ...interface{}) {
	if l != nil {
		l.output(3, fmt.Sprintln(v...))
	}
}

// Writer returns an io.Writer that writes lines using Println.
func (l *Logger) Writer() io.Writer {
	// If the logger is nil, then we can just discard input since it won't be
	// logged anyway. This saves us the overhead of scanning lines.
	if l == nil {
		return ioutil.Discard
	}

	// Create the writer.
	return &writer{
		callback: func(s string) {
			l.Println(s)
		},
	}
}

// Info logs basic execution information, if the logger's level permits it.
func (l *Logger) Info(v ...interface{}) {
	if l.enabled(LevelInfo) {
		l.output(3, fmt.Sprint(v...))
	}
}

// Infof is Info with fmt.Sprintf-style formatting.
func (l *Logger) Infof(format string, v ...interface{}) {
	if l.enabled(LevelInfo) {
		l.output(3, fmt.Sprintf(format, v...))
	}
}

// Debug logs advanced execution information, if the logger's level permits
// it. The passthrough and archive backends use this to record host/format
// errors just before translating them into the public error taxonomy.
func (l *Logger) Debug(v ...interface{}) {
	if l.enabled(LevelDebug) {
		l.output(3, fmt.Sprint(v...))
	}
}

// Debugf is Debug with fmt.Sprintf-style formatting.
func (l *Logger) Debugf(format string, v ...interface{}) {
	if l.enabled(LevelDebug) {
		l.output(3, fmt.Sprintf(format, v...))
	}
}

// DebugWriter returns an io.Writer that writes lines using Debug, or a
// discarding writer if debug logging isn't enabled for this logger.
func (l *Logger) DebugWriter() io.Writer {
	if !l.enabled(LevelDebug) {
		return ioutil.Discard
	}
	return &writer{
		callback: func(s string) {
			l.Debug(s)
		},
	}
}

// Trace logs low-level execution information, if the logger's level
// permits it. The overlay and multiplexer backends use this to record
// mount and routing decisions.
func (l *Logger) Trace(v ...interface{}) {
	if l.enabled(LevelTrace) {
		l.output(3, fmt.Sprint(v...))
	}
}

// Tracef is Trace with fmt.Sprintf-style formatting.
func (l *Logger) Tracef(format string, v ...interface{}) {
	if l.enabled(LevelTrace) {
		l.output(3, fmt.Sprintf(format, v...))
	}
}

// Warn logs error information with a warning prefix, colorized yellow when
// this logger was constructed with colorization enabled.
func (l *Logger) Warn(err error) {
	if !l.enabled(LevelWarn) {
		return
	}
	if l.colorize {
		l.output(3, color.YellowString("Warning: %v", err))
	} else {
		l.output(3, fmt.Sprintf("Warning: %v", err))
	}
}

// Error logs error information with an error prefix, colorized red when
// this logger was constructed with colorization enabled.
func (l *Logger) Error(err error) {
	if !l.enabled(LevelError) {
		return
	}
	if l.colorize {
		l.output(3, color.RedString("Error: %v", err))
	} else {
		l.output(3, fmt.Sprintf("Error: %v", err))
	}
}
