package rpctest

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kvdb-io/kvdb-go/rpc/common"
)

// subscriberBuffer is the per-subscriber event queue capacity. Slow
// subscribers drop events instead of blocking writers.
const subscriberBuffer = 64

// store is the in-memory database behind all protocol frontends. It keeps
// keys sorted on demand so scans return deterministic results.
type store struct {
	mu        sync.Mutex
	data      map[string]string
	snapshots map[uint64]map[string]string
	nextSnap  uint64

	subscribers map[uint64]*subscriber
	nextSub     uint64

	flushes     int
	compactions int

	delay    time.Duration
	failNext string
}

type subscriber struct {
	pattern        string
	includeDeletes bool
	events         chan common.SubscriptionEvent
}

func newStore() *store {
	return &store{
		data:        make(map[string]string),
		snapshots:   make(map[uint64]map[string]string),
		subscribers: make(map[uint64]*subscriber),
	}
}

// begin applies the injected delay and consumes a pending injected failure.
// Returns the failure message, or "" for a normal operation.
func (s *store) begin() string {
	s.mu.Lock()
	delay := s.delay
	msg := s.failNext
	s.failNext = ""
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	return msg
}

func (s *store) put(key, value string) {
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()
	s.publish(common.SubscriptionEvent{
		Key:       key,
		Value:     value,
		Operation: common.OpPut,
		Timestamp: uint64(time.Now().UnixNano()),
	})
}

func (s *store) get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, found := s.data[key]
	return value, found
}

func (s *store) delete(key string) {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	s.publish(common.SubscriptionEvent{
		Key:       key,
		Operation: common.OpDelete,
		Timestamp: uint64(time.Now().UnixNano()),
	})
}

func (s *store) batchPut(pairs []common.KeyValue) {
	for _, pair := range pairs {
		s.put(pair.Key, pair.Value)
	}
}

func (s *store) batchGet(keys []string) []common.KeyValue {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pairs []common.KeyValue
	for _, key := range keys {
		if value, found := s.data[key]; found {
			pairs = append(pairs, common.KeyValue{Key: key, Value: value})
		}
	}
	return pairs
}

// scan returns pairs in [start, end] (inclusive bounds, "" means unbounded)
// in ascending key order, at most limit pairs
func (s *store) scan(start, end string, limit int32) []common.KeyValue {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pairs []common.KeyValue
	for _, key := range s.sortedKeys() {
		if start != "" && key < start {
			continue
		}
		if end != "" && key > end {
			break
		}
		pairs = append(pairs, common.KeyValue{Key: key, Value: s.data[key]})
		if limit > 0 && int32(len(pairs)) >= limit {
			break
		}
	}
	return pairs
}

func (s *store) prefixScan(prefix string, limit int32) []common.KeyValue {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pairs []common.KeyValue
	for _, key := range s.sortedKeys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		pairs = append(pairs, common.KeyValue{Key: key, Value: s.data[key]})
		if limit > 0 && int32(len(pairs)) >= limit {
			break
		}
	}
	return pairs
}

func (s *store) createSnapshot() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSnap++
	frozen := make(map[string]string, len(s.data))
	for key, value := range s.data {
		frozen[key] = value
	}
	s.snapshots[s.nextSnap] = frozen
	return s.nextSnap
}

func (s *store) releaseSnapshot(id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.snapshots[id]; !found {
		return fmt.Errorf("unknown snapshot id %d", id)
	}
	delete(s.snapshots, id)
	return nil
}

func (s *store) getAtSnapshot(key string, id uint64) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frozen, found := s.snapshots[id]
	if !found {
		return "", false, fmt.Errorf("unknown snapshot id %d", id)
	}
	value, found := frozen[key]
	return value, found, nil
}

func (s *store) flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes++
}

func (s *store) compact() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.compactions++
}

func (s *store) stats() common.DatabaseStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var size uint64
	for key, value := range s.data {
		size += uint64(len(key) + len(value))
	}
	return common.DatabaseStats{
		MemtableSize:    size,
		WALSize:         size,
		CacheHitRate:    0.5,
		ActiveSnapshots: int32(len(s.snapshots)),
	}
}

func (s *store) sortedKeys() []string {
	keys := make([]string, 0, len(s.data))
	for key := range s.data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// --------------------------------------------------------------------------
// Subscriptions
// --------------------------------------------------------------------------

func (s *store) subscribe(pattern string, includeDeletes bool) (uint64, <-chan common.SubscriptionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSub++
	sub := &subscriber{
		pattern:        pattern,
		includeDeletes: includeDeletes,
		events:         make(chan common.SubscriptionEvent, subscriberBuffer),
	}
	s.subscribers[s.nextSub] = sub
	return s.nextSub, sub.events
}

func (s *store) unsubscribe(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub, found := s.subscribers[id]; found {
		delete(s.subscribers, id)
		close(sub.events)
	}
}

func (s *store) publish(ev common.SubscriptionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.subscribers {
		if ev.Operation == common.OpDelete && !sub.includeDeletes {
			continue
		}
		if !matchPattern(sub.pattern, ev.Key) {
			continue
		}
		select {
		case sub.events <- ev:
		default:
		}
	}
}

// matchPattern matches a key against a subscription pattern. An empty
// pattern or "*" matches everything, a trailing "*" matches by prefix and
// anything else matches exactly.
func matchPattern(pattern, key string) bool {
	switch {
	case pattern == "" || pattern == "*":
		return true
	case strings.HasSuffix(pattern, "*"):
		return strings.HasPrefix(key, strings.TrimSuffix(pattern, "*"))
	default:
		return pattern == key
	}
}
