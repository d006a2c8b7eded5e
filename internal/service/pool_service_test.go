package service

import (
	"fmt"
	"sync"
	"testing"

	"lpool/internal/domain"
	"lpool/pkg/fixed"
)

func snapshot(name string, seq uint64, token string) domain.PoolSnapshot {
	s := fixed.MustScale(2)
	return domain.PoolSnapshot{
		Name: name,
		Seq:  seq,
		Reserves: domain.Reserves{
			Token:    s.MustParse(token),
			Staked:   s.Zero(),
			LPTokens: s.Zero(),
		},
	}
}

func TestPoolService_Observe(t *testing.T) {
	svc := NewPoolService()

	svc.Observe(snapshot("beta", 1, "10"))
	svc.Observe(snapshot("alpha", 1, "20"))
	svc.Observe(snapshot("alpha", 3, "30"))

	alpha, ok := svc.GetSnapshot("alpha")
	if !ok {
		t.Fatal("alpha snapshot should exist")
	}
	if alpha.Token.String() != "30" {
		t.Errorf("Expected 30, got %s", alpha.Token)
	}

	all := svc.GetAll()
	if len(all) != 2 {
		t.Fatalf("Expected 2 pools, got %d", len(all))
	}
	if all[0].Name != "alpha" || all[1].Name != "beta" {
		t.Errorf("Expected sorted names, got %s, %s", all[0].Name, all[1].Name)
	}
}

func TestPoolService_IgnoresStale(t *testing.T) {
	svc := NewPoolService()

	svc.Observe(snapshot("alpha", 5, "50"))
	svc.Observe(snapshot("alpha", 4, "40"))

	alpha, _ := svc.GetSnapshot("alpha")
	if alpha.Seq != 5 {
		t.Errorf("Stale snapshot replaced newer one: seq %d", alpha.Seq)
	}

	if _, ok := svc.GetSnapshot("missing"); ok {
		t.Error("missing pool should not be found")
	}
}

func TestPoolService_ConcurrentObservers(t *testing.T) {
	svc := NewPoolService()

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			for seq := uint64(1); seq <= 100; seq++ {
				svc.Observe(snapshot(name, seq, fmt.Sprintf("%d", seq)))
			}
		}(fmt.Sprintf("pool-%d", p))
	}
	wg.Wait()

	all := svc.GetAll()
	if len(all) != 4 {
		t.Fatalf("Expected 4 pools, got %d", len(all))
	}
	for _, snap := range all {
		if snap.Seq != 100 || snap.Token.String() != "100" {
			t.Errorf("%s: expected seq 100 / token 100, got %d / %s", snap.Name, snap.Seq, snap.Token)
		}
	}
}
