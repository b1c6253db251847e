// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package logutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	slogmulti "github.com/samber/slog-multi"
	slogwh "github.com/samber/slog-webhook/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

const ServiceName = "overlay-bgp"

type Options struct {
	Verbose bool
	// File enables additional rotated log file, always at debug level
	File string
	// Webhook enables sending warnings and errors to the URL
	Webhook string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup installs the default logger writing to stderr (colored on terminals only) and optionally to the file and
// webhook, returned closer should be closed on exit
func Setup(opts Options) io.Closer {
	handlers := []slog.Handler{
		NewHandler(os.Stderr, opts.Verbose),
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		logFile := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    5, // MB
			MaxBackups: 4,
			MaxAge:     30, // days
			Compress:   true,
		}
		closer = logFile

		handlers = append(handlers, slog.NewTextHandler(logFile, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}

	if opts.Webhook != "" {
		handlers = append(handlers, NewWebhookHandler(opts.Webhook))
	}

	slog.SetDefault(slog.New(slogmulti.Fanout(handlers...)))

	return closer
}

func NewHandler(w io.Writer, verbose bool) slog.Handler {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}

	return tint.NewHandler(w, &tint.Options{
		Level:      logLevel,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	})
}

func NewWebhookHandler(endpoint string) slog.Handler {
	hostname, _ := os.Hostname()

	return slogwh.Option{
		Level:    slog.LevelWarn,
		Endpoint: endpoint,
		AttrFromContext: []func(ctx context.Context) []slog.Attr{
			func(_ context.Context) []slog.Attr {
				return []slog.Attr{
					slog.String("service", ServiceName),
					slog.String("hostname", hostname),
				}
			},
		},
	}.NewWebhookHandler()
}
