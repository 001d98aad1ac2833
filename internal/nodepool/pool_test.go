// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package nodepool

import (
	"sync"
	"testing"
)

type node struct {
	v int
}

func TestAllocateDeallocateRoundTrip(t *testing.T) {
	p := New[node](func() *node { return &node{} })
	a := p.Allocate()
	a.v = 7
	p.Deallocate(a)
	b := p.Allocate()
	if b != a {
		t.Fatalf("expected Deallocate/Allocate to reuse the freed node, got a new one")
	}
}

// TestWarmCacheBoundsRawAllocs verifies that once the pool's shards and
// global overflow stack have been primed by an initial churn of
// allocate/deallocate pairs, further churn of the same size is served
// without falling through to newFn.
func TestWarmCacheBoundsRawAllocs(t *testing.T) {
	p := New[node](func() *node { return &node{} }, WithShardCount[node](4), WithBatch[node](8))

	const warmup = 4096
	held := make([]*node, 0, warmup)
	for range warmup {
		held = append(held, p.Allocate())
	}
	for _, n := range held {
		p.Deallocate(n)
	}

	before := p.RawAllocs()
	held = held[:0]
	for range warmup {
		held = append(held, p.Allocate())
	}
	for _, n := range held {
		p.Deallocate(n)
	}
	after := p.RawAllocs()

	if after != before {
		t.Fatalf("expected warm-cache churn to avoid raw allocation, got %d new raw allocs", after-before)
	}
}

func TestConcurrentAllocateDeallocateIsRaceFree(t *testing.T) {
	p := New[node](func() *node { return &node{} })

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 2000 {
				n := p.Allocate()
				n.v++
				p.Deallocate(n)
			}
		}()
	}
	wg.Wait()
}

func TestPoisonHookRunsOnAllocateAndDeallocate(t *testing.T) {
	var poisoned, unpoisoned int
	p := New[node](func() *node { return &node{} }, WithPoison[node](func(n *node, isPoisoned bool) {
		if isPoisoned {
			poisoned++
		} else {
			unpoisoned++
		}
	}))

	n := p.Allocate()
	p.Deallocate(n)
	_ = p.Allocate()

	if poisoned != 1 {
		t.Fatalf("poisoned calls: got %d, want 1", poisoned)
	}
	if unpoisoned != 1 {
		t.Fatalf("unpoisoned calls: got %d, want 1", unpoisoned)
	}
}
