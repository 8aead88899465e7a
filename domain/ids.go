package domain

import (
	"strconv"
	"sync/atomic"
	"time"
)

var (
	lastTimestamp int64
)

func nextTimestamp() int64 {
	for {
		now := time.Now().UnixNano()
		last := atomic.LoadInt64(&lastTimestamp)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastTimestamp, last, now) {
			return now
		}
	}
}

// NextID returns a unique activity id. Ids are base-36 encoded strictly
// increasing timestamps, so they sort by creation time when equal in length.
func NextID() string {
	return strconv.FormatInt(nextTimestamp(), 36)
}
