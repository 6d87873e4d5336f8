package vkres

import "sync/atomic"

// resource provides the shared lifetime tracking embedded by images and
// image views. A resource starts with a single reference held by its creator;
// dependent objects take additional references. The teardown function runs
// when the last reference is released.
//
// The resource layer never decides when a reference should be released, it
// only defers native teardown until nothing refers to the object anymore.
type resource struct {
	refs     int64
	teardown func()
}

func (r *resource) initResource(teardown func()) {
	r.refs = 1
	r.teardown = teardown
}

func (r *resource) incRef() {
	atomic.AddInt64(&r.refs, 1)
}

func (r *resource) decRef() {
	if atomic.AddInt64(&r.refs, -1) == 0 && r.teardown != nil {
		r.teardown()
	}
}
