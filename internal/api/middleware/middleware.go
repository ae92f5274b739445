// Package middleware holds go-restful filters and error responses shared
// by the HTTP API.
package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/rs/zerolog"
)

// ErrorResponse is the JSON body of every non-2xx response
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// HandleError writes err as an ErrorResponse with the given status
func HandleError(resp *restful.Response, err error, status int) {
	resp.WriteHeaderAndEntity(status, ErrorResponse{
		Error:  err.Error(),
		Status: status,
	})
}

// Logger logs one line per request with its status and latency
func Logger(logger *zerolog.Logger) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		start := time.Now()
		chain.ProcessFilter(req, resp)

		event := logger.Info()
		if resp.StatusCode() >= http.StatusInternalServerError {
			event = logger.Error()
		}
		event.
			Str("method", req.Request.Method).
			Str("path", req.Request.URL.Path).
			Int("status", resp.StatusCode()).
			Dur("latency", time.Since(start)).
			Msg("HTTP request")
	}
}

// RecoverPanic turns a panicking handler into a 500 response
func RecoverPanic(logger *zerolog.Logger) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Interface("panic", r).
					Str("path", req.Request.URL.Path).
					Bytes("stack", debug.Stack()).
					Msg("Recovered from panic")
				resp.WriteHeaderAndEntity(http.StatusInternalServerError, ErrorResponse{
					Error:  "internal server error",
					Status: http.StatusInternalServerError,
				})
			}
		}()
		chain.ProcessFilter(req, resp)
	}
}
