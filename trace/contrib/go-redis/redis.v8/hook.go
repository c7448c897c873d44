package redis_v8

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/extra/rediscmd/v8"
	"github.com/go-redis/redis/v8"

	"github.com/2dmdigital/xray-go-agent/trace/xrayagent"
)

type TracingHook struct {
	addr string
	db   int
	// cache
	callService string
}

type config struct {
	db int
}

func newDefaultConfig() *config {
	return &config{}
}

type Option func(*config)

func WithDB(db int) Option {
	return func(cfg *config) {
		cfg.db = db
	}
}

// NewTracingHook returns a redis.Hook that records each command as a
// remote subsegment of the active request.
func NewTracingHook(addr string, opts ...Option) *TracingHook {
	cfg := newDefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &TracingHook{addr: addr, db: cfg.db}
}

func (th *TracingHook) BeforeProcess(ctx context.Context, cmd redis.Cmder) (context.Context, error) {
	seg := xrayagent.SegmentFromContext(ctx)
	if seg == nil {
		return ctx, nil
	}
	sub := seg.BeginSubsegment(th.getCallService(), time.Now())
	sub.SetNamespace("remote")
	sub.AddAnnotation("redis.command", cmd.Name())
	sub.SetSQL(map[string]string{
		"database_type":   "redis",
		"url":             th.addr,
		"sanitized_query": rediscmd.CmdString(cmd),
	})
	return xrayagent.ContextWithSubsegment(ctx, sub), nil
}

func (th *TracingHook) AfterProcess(ctx context.Context, cmd redis.Cmder) error {
	sub := xrayagent.SubsegmentFromContext(ctx)
	if sub == nil {
		return nil
	}
	if err := cmd.Err(); err != nil && err != redis.Nil {
		sub.Close(err)
	} else {
		sub.Close(nil)
	}
	return nil
}

func (th *TracingHook) BeforeProcessPipeline(ctx context.Context, cmds []redis.Cmder) (context.Context, error) {
	seg := xrayagent.SegmentFromContext(ctx)
	if seg == nil {
		return ctx, nil
	}
	summary, cmdsString := rediscmd.CmdsString(cmds)
	sub := seg.BeginSubsegment(th.getCallService(), time.Now())
	sub.SetNamespace("remote")
	sub.AddAnnotation("redis.pipeline", summary)
	sub.SetSQL(map[string]string{
		"database_type":   "redis",
		"url":             th.addr,
		"sanitized_query": cmdsString,
	})
	return xrayagent.ContextWithSubsegment(ctx, sub), nil
}

func (th *TracingHook) AfterProcessPipeline(ctx context.Context, cmds []redis.Cmder) error {
	sub := xrayagent.SubsegmentFromContext(ctx)
	if sub == nil {
		return nil
	}
	sub.Close(firstCmdError(cmds))
	return nil
}

func firstCmdError(cmds []redis.Cmder) error {
	for _, cmd := range cmds {
		if err := cmd.Err(); err != nil && err != redis.Nil {
			return err
		}
	}
	return nil
}

func (th *TracingHook) getCallService() string {
	if th.callService == "" {
		th.callService = th.addr + ":" + strconv.Itoa(th.db)
	}
	return th.callService
}
