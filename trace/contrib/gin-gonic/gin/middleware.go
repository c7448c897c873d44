package gin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/2dmdigital/xray-go-agent/trace/xrayagent"
)

// NewMiddleware binds the interceptor to a gin handler chain. Tracing
// runs before gin's recovery middleware, so a panic is observed here
// first and recorded before gin converts it to a 500.
func NewMiddleware(itc *xrayagent.Interceptor) gin.HandlerFunc {
	if itc == nil {
		panic("interceptor is nil")
	}
	return func(c *gin.Context) {
		ctx := itc.BeginRequest(c.Request.Context(), c.Request)
		c.Request = c.Request.WithContext(ctx)

		isPanic := true
		defer func() {
			status := c.Writer.Status()
			if isPanic {
				status = http.StatusInternalServerError
				ctx = itc.HandleError(ctx, c.Request, errors.New("unhandled panic"))
			} else if len(c.Errors) > 0 {
				ctx = itc.HandleError(ctx, c.Request, c.Errors.Last())
			}
			itc.EndRequest(ctx, c.Request, &xrayagent.Response{
				StatusCode: status,
				Header:     c.Writer.Header(),
			})
		}()

		c.Next()
		isPanic = false
	}
}
