package metrics

import (
	"bytes"
	"errors"
	"strconv"
)

const (
	maxNameLen = 255
)

var (
	mtCounter = uint8(1)
	mtTimer   = uint8(2)
	mtGauge   = uint8(3)
)

// formatCommon renders one metric in statsd line format, with tags in
// the dogstatsd extension:
//
//	<prefix>.<name>:<value>|<type>|#k1:v1,k2:v2\n
func formatCommon(buf *bytes.Buffer, mt uint8, prefix string, name string, value float64, tags []t) error {
	if err := writeName(buf, prefix, name); err != nil {
		return err
	}
	buf.WriteByte(':')
	buf.WriteString(strconv.FormatFloat(value, 'f', -1, 64))
	buf.WriteByte('|')
	switch mt {
	case mtCounter:
		buf.WriteByte('c')
	case mtTimer:
		buf.WriteString("ms")
	case mtGauge:
		buf.WriteByte('g')
	default:
		return errors.New("unknown metric type")
	}
	writeTags(buf, tags)
	buf.WriteByte('\n')
	return nil
}

func writeName(buf *bytes.Buffer, prefix string, name string) error {
	if len(prefix)+len(name) > maxNameLen {
		return errors.New("<prefix>.<name> must be smaller than 256")
	}
	if prefix != "" {
		buf.WriteString(prefix)
		buf.WriteByte('.')
	}
	buf.WriteString(name)
	return nil
}

func writeTags(buf *bytes.Buffer, tags []t) {
	if len(tags) == 0 {
		return
	}
	buf.WriteString("|#")
	for i, tag := range tags {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(tag.key)
		buf.WriteByte(':')
		buf.WriteString(tag.value)
	}
}
