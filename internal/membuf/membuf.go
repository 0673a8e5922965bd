// Package membuf provides the pooled scratch-buffer allocator the framework
// publishes as a singleton interface. Message payloads at the plugin boundary
// are short-lived byte slices; recycling them keeps steady-state traffic from
// churning the garbage collector.
package membuf

import (
	"sync"
	"sync/atomic"
)

const (
	minClassBytes = 1 << 10 // 1 KiB
	maxClassBytes = 1 << 20 // 1 MiB
	numClasses    = 11
)

// Pool hands out byte slices from power-of-two size classes. Requests above
// the largest class are allocated directly and never recycled.
type Pool struct {
	classes [numClasses]sync.Pool
	hits    atomic.Uint64
	misses  atomic.Uint64
}

func New() *Pool {
	p := &Pool{}
	for i := range p.classes {
		size := minClassBytes << i
		p.classes[i].New = func() any {
			b := make([]byte, size)
			return &b
		}
	}
	return p
}

// classFor returns the smallest class index fitting n, or -1 when n is too
// large to pool.
func classFor(n int) int {
	if n > maxClassBytes {
		return -1
	}
	for i := 0; i < numClasses; i++ {
		if minClassBytes<<i >= n {
			return i
		}
	}
	return -1
}

// Get returns a slice of length n backed by pooled capacity.
func (p *Pool) Get(n int) []byte {
	if n < 0 {
		n = 0
	}
	c := classFor(n)
	if c < 0 {
		p.misses.Add(1)
		return make([]byte, n)
	}
	p.hits.Add(1)
	buf := *p.classes[c].Get().(*[]byte)
	return buf[:n]
}

// Put recycles a slice obtained from Get. Slices that never came from the
// pool are dropped on the floor.
func (p *Pool) Put(buf []byte) {
	c := cap(buf)
	if c < minClassBytes || c > maxClassBytes || c&(c-1) != 0 {
		return
	}
	full := buf[:c]
	for i := 0; i < numClasses; i++ {
		if minClassBytes<<i == c {
			p.classes[i].Put(&full)
			return
		}
	}
}

// Stats reports pooled and direct allocation counts since creation.
func (p *Pool) Stats() (pooled, direct uint64) {
	return p.hits.Load(), p.misses.Load()
}
