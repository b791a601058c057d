// Package resync provides a sync.Once that can be reset.
//
// Singletons (configuration, logger) are lazy-loaded once per process
// but tests need to recreate them between runs.
package resync

import (
	"sync"
	"sync/atomic"
)

// Once is like sync.Once but supports Reset.
type Once struct {
	m    sync.Mutex
	done uint32
}

// Do calls the function f if and only if Do has not been invoked since the last Reset.
func (o *Once) Do(f func()) {
	if atomic.LoadUint32(&o.done) == 1 {
		return
	}
	o.m.Lock()
	defer o.m.Unlock()
	if o.done == 0 {
		defer atomic.StoreUint32(&o.done, 1)
		f()
	}
}

// Reset allows the next call to Do to invoke its function again.
func (o *Once) Reset() {
	o.m.Lock()
	defer o.m.Unlock()
	atomic.StoreUint32(&o.done, 0)
}
