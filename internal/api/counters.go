package api

import "sync/atomic"

type requestCounters struct {
	total  atomic.Uint64
	failed atomic.Uint64
}
