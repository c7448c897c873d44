package mongo_go_driver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/event"

	"github.com/2dmdigital/xray-go-agent/trace/xrayagent"
)

type segmentKey struct {
	ConnectionID string
	RequestID    int64
}

type monitor struct {
	segments map[segmentKey]*xrayagent.Segment
	sync.Mutex
}

// NewMonitor returns a command monitor that records every mongo command
// issued under a traced context as a remote subsegment.
func NewMonitor() *event.CommandMonitor {
	m := &monitor{
		segments: make(map[segmentKey]*xrayagent.Segment),
	}
	return &event.CommandMonitor{
		Started:   m.Started,
		Succeeded: m.Succeeded,
		Failed:    m.Failed,
	}
}

func (m *monitor) Started(ctx context.Context, evt *event.CommandStartedEvent) {
	if evt == nil {
		return
	}
	seg := xrayagent.SegmentFromContext(ctx)
	if seg == nil {
		return
	}
	callService := fmt.Sprintf("mongodb:%s/%s", getAddr(evt), evt.DatabaseName)
	sub := seg.BeginSubsegment(callService, time.Now())
	sub.SetNamespace("remote")
	sub.AddAnnotation("mongodb.command", evt.CommandName)
	if collection := tryGetCollection(evt); collection != "" {
		sub.AddAnnotation("mongodb.collection", collection)
	}
	sub.SetSQL(map[string]string{
		"database_type":   "mongodb",
		"url":             getAddr(evt),
		"sanitized_query": toJSONString(evt.Command),
	})

	key := segmentKey{
		ConnectionID: evt.ConnectionID,
		RequestID:    evt.RequestID,
	}
	m.Mutex.Lock()
	m.segments[key] = sub
	m.Mutex.Unlock()
}

func (m *monitor) Succeeded(ctx context.Context, evt *event.CommandSucceededEvent) {
	if evt == nil {
		return
	}
	sub, ok := m.getSegment(&evt.CommandFinishedEvent)
	if !ok {
		return
	}
	sub.Close(nil)
}

func (m *monitor) Failed(ctx context.Context, evt *event.CommandFailedEvent) {
	if evt == nil {
		return
	}
	sub, ok := m.getSegment(&evt.CommandFinishedEvent)
	if !ok {
		return
	}
	sub.Close(errors.New(evt.Failure))
}

func getAddr(evt *event.CommandStartedEvent) string {
	addr := evt.ConnectionID
	if idx := strings.IndexByte(addr, '['); idx >= 0 {
		addr = addr[:idx]
	}
	port := "27017"
	if idx := strings.IndexByte(addr, ':'); idx >= 0 {
		port = addr[idx+1:]
		addr = addr[:idx]
	}
	return addr + ":" + port
}

func tryGetCollection(evt *event.CommandStartedEvent) string {
	kv, err := evt.Command.IndexErr(0)
	if err != nil {
		return ""
	}
	if k := kv.Key(); k == evt.CommandName {
		if v := kv.Value(); v.Type == bsontype.String {
			return v.String()
		}
	}
	return ""
}

func toJSONString(command bson.Raw) string {
	b, _ := bson.MarshalExtJSON(command, false, false)
	return string(b)
}

func (m *monitor) getSegment(evt *event.CommandFinishedEvent) (*xrayagent.Segment, bool) {
	key := segmentKey{
		ConnectionID: evt.ConnectionID,
		RequestID:    evt.RequestID,
	}
	m.Mutex.Lock()
	defer m.Mutex.Unlock()
	sub, ok := m.segments[key]
	if ok {
		delete(m.segments, key)
	}
	return sub, ok
}
