// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/walteh/canfar/pkg/status"
	"github.com/walteh/canfar/pkg/transfer"
)

var _ transfer.Observer = (*Logger)(nil)

// 🎯 Logger writes user-facing console lines and mirrors each into zerolog.
// It is the copy engine's observer.
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	format  status.Formatter
	mu      sync.Mutex
}

// 🏭 New creates a new logger
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
		format:  status.NewDefaultFormatter(),
	}
}

// 📣 Observe renders one copy event
func (l *Logger) Observe(ctx context.Context, ev transfer.Event) {
	switch ev.Kind {
	case transfer.EventAnnounce:
		l.transferLine(ev.Source, ev.Destination)

	case transfer.EventDirectory:
		l.zlog.Debug().Str("destination", ev.Destination).Msg("created directory")

	case transfer.EventRetry, transfer.EventWarning:
		l.mu.Lock()
		defer l.mu.Unlock()
		fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(ev.Message))
		l.zlog.Warn().
			Err(ev.Err).
			Str("source", ev.Source).
			Str("destination", ev.Destination).
			Int("attempt", ev.Attempt).
			Msg(ev.Message)

	case transfer.EventOutcome:
		if ev.Outcome != nil {
			l.outcome(*ev.Outcome)
		}
	}
}

// transferLine prints "source -> destination" as a transfer starts
func (l *Logger) transferLine(src, dst string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "%s %s %s\n",
		color.New(color.FgCyan).Sprint(src),
		color.New(color.Faint).Sprint("->"),
		color.New(color.FgGreen).Sprint(dst))
	l.zlog.Info().Str("source", src).Str("destination", dst).Msg("transferring")
}

func (l *Logger) outcome(o transfer.Outcome) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var ev *zerolog.Event
	switch o.Status {
	case transfer.StatusCopied:
		ev = l.zlog.Debug()
	case transfer.StatusSkipped:
		fmt.Fprintln(l.console, color.New(color.Faint).Sprint(l.format.FormatOutcome(o)))
		ev = l.zlog.Info()
	default:
		fmt.Fprintln(l.console, color.New(color.FgRed).Sprint(l.format.FormatOutcome(o)))
		ev = l.zlog.Error().Err(o.Err)
	}
	ev.Str("source", o.Source).
		Str("destination", o.Destination).
		Stringer("status", o.Status).
		Str("reason", string(o.Reason)).
		Int("attempts", o.Attempts).
		Msg("task finished")
}

// 📦 Summary prints the totals of a run
func (l *Logger) Summary(res transfer.RunResult) {
	line := l.format.FormatSummary(res)
	if res.ExitStatus() == 0 && res.Count(transfer.StatusFailed) == 0 {
		l.Success(line)
		return
	}
	l.Warning(line)
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("canfar")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
