package hertz

import (
	"context"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/stretchr/testify/require"

	"github.com/2dmdigital/xray-go-agent/trace/xrayagent"
)

func Test_example(t *testing.T) {
	if testing.Short() {
		t.Skip("example server")
	}
	rec := xrayagent.NewSegmentRecorder(xrayagent.WithDaemonAddress("127.0.0.1:2000"))
	rec.Start()
	defer rec.Stop()

	itc, err := xrayagent.NewInterceptor(rec, xrayagent.NewFixedSegmentNamer("hertz-example"))
	require.NoError(t, err)

	h := server.Default(server.WithHostPorts("127.0.0.1:8891"))
	h.Use(NewMiddleware(itc))
	h.GET("/ping", func(ctx context.Context, c *app.RequestContext) {
		c.String(200, "pong")
	})

	go h.Spin()
}
