package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/2dmdigital/xray-go-agent/trace/xrayagent"
)

// NewMiddleware binds the interceptor to a plain net/http handler chain.
// The begin, end and error events map onto the handler call and its
// deferred completion; a panic is attached as the request's exception and
// re-raised for the host's own recovery.
func NewMiddleware(itc *xrayagent.Interceptor) func(http.Handler) http.Handler {
	if itc == nil {
		panic("interceptor is nil")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := itc.BeginRequest(r.Context(), r)
			r = r.WithContext(ctx)

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			defer func() {
				if p := recover(); p != nil {
					ctx = itc.HandleError(ctx, r, panicError(p))
					itc.EndRequest(ctx, r, &xrayagent.Response{
						StatusCode: http.StatusInternalServerError,
						Header:     w.Header(),
					})
					panic(p)
				}
				itc.EndRequest(ctx, r, &xrayagent.Response{
					StatusCode: sw.status,
					Header:     w.Header(),
				})
			}()

			next.ServeHTTP(sw, r)
		})
	}
}

// Handler wraps a single handler; convenient when there is no middleware
// chain.
func Handler(itc *xrayagent.Interceptor, h http.Handler) http.Handler {
	return NewMiddleware(itc)(h)
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func panicError(p interface{}) error {
	if err, ok := p.(error); ok {
		return err
	}
	if s, ok := p.(string); ok {
		return errors.New(s)
	}
	return fmt.Errorf("panic: %v", p)
}
