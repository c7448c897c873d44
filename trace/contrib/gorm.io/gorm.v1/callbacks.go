package gorm_v1

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/2dmdigital/xray-go-agent/trace/xrayagent"
)

// WrapDB registers tracing callbacks around every gorm operation. Each
// statement issued under a traced context becomes a remote subsegment
// named after the database endpoint.
func WrapDB(dbType, endpoint, dbName string, db *gorm.DB) (*gorm.DB, error) {
	cb := db.Callback()
	callService := endpoint + "/" + dbName
	after := newAfter(dbType, endpoint)

	if err := cb.Create().Before("gorm:create").Register("xray:before_create", newBefore(callService, "gorm:create")); err != nil {
		return nil, err
	}
	if err := cb.Create().After("gorm:create").Register("xray:after_create", after); err != nil {
		return nil, err
	}
	if err := cb.Update().Before("gorm:update").Register("xray:before_update", newBefore(callService, "gorm:update")); err != nil {
		return nil, err
	}
	if err := cb.Update().After("gorm:update").Register("xray:after_update", after); err != nil {
		return nil, err
	}
	if err := cb.Delete().Before("gorm:delete").Register("xray:before_delete", newBefore(callService, "gorm:delete")); err != nil {
		return nil, err
	}
	if err := cb.Delete().After("gorm:delete").Register("xray:after_delete", after); err != nil {
		return nil, err
	}
	if err := cb.Query().Before("gorm:query").Register("xray:before_query", newBefore(callService, "gorm:query")); err != nil {
		return nil, err
	}
	if err := cb.Query().After("gorm:query").Register("xray:after_query", after); err != nil {
		return nil, err
	}
	if err := cb.Row().Before("gorm:row").Register("xray:before_row", newBefore(callService, "gorm:row")); err != nil {
		return nil, err
	}
	if err := cb.Row().After("gorm:row").Register("xray:after_row", after); err != nil {
		return nil, err
	}
	if err := cb.Raw().Before("gorm:raw").Register("xray:before_raw", newBefore(callService, "gorm:raw")); err != nil {
		return nil, err
	}
	if err := cb.Raw().After("gorm:raw").Register("xray:after_raw", after); err != nil {
		return nil, err
	}
	return db, nil
}

func newBefore(callService, action string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		if db == nil || db.Statement == nil || db.Statement.Context == nil {
			return
		}
		seg := xrayagent.SegmentFromContext(db.Statement.Context)
		if seg == nil {
			return
		}
		sub := seg.BeginSubsegment(callService, time.Now())
		sub.SetNamespace("remote")
		sub.AddAnnotation("db.operation", action)
		db.Statement.Context = xrayagent.ContextWithSubsegment(db.Statement.Context, sub)
	}
}

func newAfter(dbType, endpoint string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		if db == nil || db.Statement == nil || db.Statement.Context == nil {
			return
		}
		sub := xrayagent.SubsegmentFromContext(db.Statement.Context)
		if sub == nil {
			return
		}
		sub.SetSQL(map[string]string{
			"database_type":   dbType,
			"url":             endpoint,
			"sanitized_query": db.Statement.SQL.String(),
			"parameters":      formatVars(db.Statement.Vars),
		})
		if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
			sub.Close(db.Error)
		} else {
			sub.Close(nil)
		}
	}
}

func formatVars(vars []interface{}) string {
	sb := strings.Builder{}
	sb.WriteString("[")
	for i, v := range vars {
		if i > 0 {
			sb.WriteString(",")
		}
		switch vv := v.(type) {
		case string:
			sb.WriteString("'")
			sb.WriteString(vv)
			sb.WriteString("'")
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
			sb.WriteString(fmt.Sprintf("%v", vv))
		case time.Time:
			sb.WriteString(strconv.FormatInt(vv.Unix(), 10))
		case gorm.DeletedAt:
			if vv.Valid {
				sb.WriteString(strconv.FormatInt(vv.Time.Unix(), 10))
			} else {
				sb.WriteString("null")
			}
		default:
			sb.WriteString("'?'")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
