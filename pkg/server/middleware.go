// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func ResponseRequestID(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			w.Header().Set("X-Request-ID", rid)
		}

		next.ServeHTTP(w, r)
	}

	return http.HandlerFunc(fn)
}

// RequestLogger logs every request at debug level and observes its duration by the matched route pattern
func RequestLogger(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			start := time.Now()
			defer func() { //nolint:contextcheck
				took := time.Since(start)

				route := "unknown"
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					route = rctx.RoutePattern()
				}
				if metrics != nil {
					metrics.RequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Observe(took.Seconds())
				}

				scheme := "http"
				if r.TLS != nil {
					scheme = "https"
				}

				slog.Debug("Request",
					"rid", middleware.GetReqID(r.Context()),
					"method", r.Method,
					"url", fmt.Sprintf("%s://%s%s", scheme, r.Host, r.RequestURI),
					"route", route,
					"from", r.RemoteAddr,
					"status", ww.Status(),
					"size", ww.BytesWritten(),
					"took", took.Milliseconds(),
				)
			}()

			next.ServeHTTP(ww, r)
		}

		return http.HandlerFunc(fn)
	}
}
