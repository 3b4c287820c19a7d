package session

import (
	"sync"
	"sync/atomic"

	"github.com/rcarmo/go-opcua/internal/codec"
)

// pendingSlot is the completion channel one in-flight request waits on.
// The receive pump decodes the response body, matches it to a slot by
// RequestHandle, and sends exactly once.
type pendingSlot struct {
	resultCh chan pendingResult
}

type pendingResult struct {
	body codec.Encodable
	err  error
}

// pendingTable tracks in-flight requests by RequestHandle (spec.md §5's
// sync.Map of pending requests). Handle 0 is never issued, so a zero handle
// in a response reliably means "no corresponding pending request."
type pendingTable struct {
	handleCounter uint32
	slots         sync.Map // uint32 -> *pendingSlot
}

// nextHandle returns the next request handle, skipping zero on wraparound.
func (t *pendingTable) nextHandle() uint32 {
	for {
		h := atomic.AddUint32(&t.handleCounter, 1)
		if h != 0 {
			return h
		}
	}
}

func (t *pendingTable) register(handle uint32) *pendingSlot {
	slot := &pendingSlot{resultCh: make(chan pendingResult, 1)}
	t.slots.Store(handle, slot)
	return slot
}

func (t *pendingTable) complete(handle uint32, body codec.Encodable, err error) bool {
	v, ok := t.slots.LoadAndDelete(handle)
	if !ok {
		return false
	}
	v.(*pendingSlot).resultCh <- pendingResult{body: body, err: err}
	return true
}

func (t *pendingTable) cancel(handle uint32) {
	t.slots.Delete(handle)
}

// failAll delivers err to every outstanding slot, used when the channel
// faults and no further responses will ever arrive (spec.md §5's
// cancellation-token propagation).
func (t *pendingTable) failAll(err error) {
	t.slots.Range(func(key, value interface{}) bool {
		t.slots.Delete(key)
		value.(*pendingSlot).resultCh <- pendingResult{err: err}
		return true
	})
}

func (t *pendingTable) count() int {
	n := 0
	t.slots.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}
