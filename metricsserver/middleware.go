/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package metricsserver

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/xid"

	"github.com/acronis/go-cachemetrics/log"
)

const headerRequestID = "X-Request-ID"

// requestLogging reads the request id from X-Request-ID header (generating a new one with xid if it's empty),
// returns it in the response and logs the finished request.
func requestLogging(logger log.FieldLogger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(headerRequestID)
			if requestID == "" {
				requestID = xid.New().String()
			}
			rw.Header().Set(headerRequestID, requestID)

			wrw := chimiddleware.NewWrapResponseWriter(rw, r.ProtoMajor)
			startTime := time.Now()
			next.ServeHTTP(wrw, r)

			status := wrw.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Info("response completed",
				log.String("request_id", requestID),
				log.String("method", r.Method),
				log.String("uri", r.RequestURI),
				log.String("remote_addr", r.RemoteAddr),
				log.Int("status", status),
				log.Int("bytes_sent", wrw.BytesWritten()),
				log.Duration("duration", time.Since(startTime)),
			)
		})
	}
}
