package server

import (
	"context"
	"sort"
	"time"

	"github.com/ValentinKolb/dShop/rpc/common"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/rcrowley/go-metrics"
)

var statsLogger = logger.GetLogger("rpc/stats")

// rejectedCounter counts requests the transport dropped before decoding them
const rejectedCounter = "transport.rejected"

// requestStats keeps a timer per message type and counts failed requests.
type requestStats struct {
	registry metrics.Registry
}

func newRequestStats() *requestStats {
	return &requestStats{registry: metrics.NewRegistry()}
}

// observe records the duration of a handled request and whether it failed
func (s *requestStats) observe(msgType common.MessageType, start time.Time, failed bool) {
	metrics.GetOrRegisterTimer(msgType.String(), s.registry).UpdateSince(start)
	if failed {
		metrics.GetOrRegisterCounter(msgType.String()+".errors", s.registry).Inc(1)
	}
}

// reject counts and logs a request dropped by the transport
func (s *requestStats) reject(remote string, reason error) {
	metrics.GetOrRegisterCounter(rejectedCounter, s.registry).Inc(1)
	statsLogger.Warningf("rejected request from %s: %v", remote, reason)
}

// rejected returns the number of requests dropped by the transport
func (s *requestStats) rejected() int64 {
	if c, ok := s.registry.Get(rejectedCounter).(metrics.Counter); ok {
		return c.Count()
	}
	return 0
}

// timer returns the timer of a message type (nil if no request of that type was handled)
func (s *requestStats) timer(msgType common.MessageType) metrics.Timer {
	t, _ := s.registry.Get(msgType.String()).(metrics.Timer)
	return t
}

// errors returns the number of failed requests of a message type
func (s *requestStats) errors(msgType common.MessageType) int64 {
	if c, ok := s.registry.Get(msgType.String() + ".errors").(metrics.Counter); ok {
		return c.Count()
	}
	return 0
}

// log writes one line per message type that was handled at least once
func (s *requestStats) log() {
	var names []string
	s.registry.Each(func(name string, i interface{}) {
		if _, ok := i.(metrics.Timer); ok {
			names = append(names, name)
		}
	})
	sort.Strings(names)

	for _, name := range names {
		t := s.registry.Get(name).(metrics.Timer).Snapshot()
		var failed int64
		if c, ok := s.registry.Get(name + ".errors").(metrics.Counter); ok {
			failed = c.Count()
		}
		statsLogger.Infof("%-18s count=%d errors=%d rate1=%.1f/s mean=%s p99=%s",
			name, t.Count(), failed, t.Rate1(),
			time.Duration(t.Mean()), time.Duration(t.Percentile(0.99)))
	}
	if n := s.rejected(); n > 0 {
		statsLogger.Infof("%-18s count=%d", rejectedCounter, n)
	}
}

// run logs the stats every interval until ctx is done
func (s *requestStats) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.log()
		}
	}
}
