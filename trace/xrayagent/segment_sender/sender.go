package segment_sender

import (
	"net"
	"sync"

	"github.com/2dmdigital/xray-go-agent/trace/xrayagent/logger"
)

// daemonHeader prefixes every datagram; the collector daemon uses it to
// detect the document format.
var daemonHeader = []byte(`{"format": "json", "version": 1}` + "\n")

// SegmentSender drains marshaled segment documents from a channel and
// writes one UDP datagram per document to the collector daemon. It stops
// when the channel is closed.
type SegmentSender struct {
	logger logger.Logger

	addr string
	in   chan []byte
	wg   sync.WaitGroup

	conn net.Conn
}

func NewSegmentSender(addr string, in chan []byte, l logger.Logger) *SegmentSender {
	if addr == "" {
		panic("daemon address is empty")
	}
	if l == nil {
		l = &logger.NoopLogger{}
	}
	return &SegmentSender{
		logger: l,
		addr:   addr,
		in:     in,
	}
}

func (s *SegmentSender) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.sendLoop()
	}()
}

func (s *SegmentSender) WaitStop() {
	s.wg.Wait()
}

func (s *SegmentSender) sendLoop() {
	defer s.closeConn()
	buf := make([]byte, 0, 64<<10)
	for item := range s.in {
		if len(item) == 0 {
			continue
		}
		buf = buf[:0]
		buf = append(buf, daemonHeader...)
		buf = append(buf, item...)
		if err := s.send(buf); err != nil {
			s.logger.Error("send segment failed: %v", err)
		} else {
			s.logger.Debug("sent segment, len=%d", len(item))
		}
	}
}

func (s *SegmentSender) send(data []byte) error {
	if s.conn == nil {
		conn, err := net.Dial("udp", s.addr)
		if err != nil {
			return err
		}
		s.conn = conn
	}
	if _, err := s.conn.Write(data); err != nil {
		s.closeConn()
		return err
	}
	return nil
}

func (s *SegmentSender) closeConn() {
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}
