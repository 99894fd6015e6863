package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"jabber.at/hp"
	"jabber.at/hp/i18n"
	"jabber.at/hp/internal/site"
)

// logRequests attaches a logger carrying the request id to every request and
// logs the request once it's served.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger := s.logger.With(
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
		)
		ctx := hp.LoggingContext(r.Context(), logger)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(ctx))

		logger.InfoContext(ctx, "served request",
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

// language picks the visitor's language from the language cookie or the
// Accept-Language header.
func (s *Server) language(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		catalog := s.site.Catalog()
		tag := catalog.MatchRequest(r)
		w.Header().Set("Content-Language", tag.String())
		w.Header().Add("Vary", "Accept-Language, Cookie")
		ctx := i18n.WithTranslator(r.Context(), catalog.Translator(tag))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// remoteUser signs in the user named by the remote user header. The header
// must be set by a proxy that strips it from incoming requests.
func (s *Server) remoteUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.remoteUserHeader == "" {
			next.ServeHTTP(w, r)
			return
		}
		name := strings.TrimSpace(r.Header.Get(s.remoteUserHeader))
		if name == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := site.WithUser(r.Context(), &site.User{Name: name})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// traced runs h in a span named after its route.
func traced(route string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := otel.Tracer(tracerName).Start(r.Context(), route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("url.path", r.URL.Path),
			),
		)
		defer span.End()
		h(w, r.WithContext(ctx))
	})
}
