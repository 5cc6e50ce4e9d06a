package compliance

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"clearance/internal/domain"
)

func TestNewRuleStoreCanonicalizes(t *testing.T) {
	s := NewRuleStore(domain.RuleConfig{RestrictedCodes: []string{" 7371", "3579", "", "7371"}, RuleEnabled: true})
	got := s.Snapshot()
	want := domain.RuleConfig{RestrictedCodes: []string{"3579", "7371"}, RuleEnabled: true, Generation: 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("snapshot (-want +got):\n%s", diff)
	}
}

func TestUpdateLeavesOmittedFieldsAlone(t *testing.T) {
	s := DefaultRuleStore()
	off := false
	got := s.Update(domain.RuleConfigPatch{RuleEnabled: &off})
	want := domain.RuleConfig{RestrictedCodes: []string{"3579", "6531", "7371"}, RuleEnabled: false, Generation: 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("after disable (-want +got):\n%s", diff)
	}

	empty := []string{}
	got = s.Update(domain.RuleConfigPatch{RestrictedCodes: &empty})
	if len(got.RestrictedCodes) != 0 || got.RuleEnabled || got.Generation != 3 {
		t.Fatalf("after clearing codes: %+v", got)
	}
}

func TestSwapReturnsTheReplacedGeneration(t *testing.T) {
	s := DefaultRuleStore()
	off, on := false, true
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			flag := &off
			if i%2 == 0 {
				flag = &on
			}
			prev, next := s.Swap(domain.RuleConfigPatch{RuleEnabled: flag})
			if prev.Generation+1 != next.Generation {
				t.Errorf("prev generation %d, next %d", prev.Generation, next.Generation)
			}
		}(i)
	}
	wg.Wait()
	if got := s.Snapshot().Generation; got != 51 {
		t.Fatalf("generation = %d, want 51", got)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := DefaultRuleStore()
	snap := s.Snapshot()
	snap.RestrictedCodes[0] = "0000"
	if s.Snapshot().RestrictedCodes[0] != "3579" {
		t.Fatalf("mutating a snapshot leaked into the store")
	}
}

// Writers alternate between two internally consistent configs; readers must
// only ever see one of them whole.
func TestConcurrentReadersNeverSeeMixedGenerations(t *testing.T) {
	s := DefaultRuleStore()
	on, off := true, false
	a := []string{"1111"}
	b := []string{"2222", "3333"}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for w := 0; w < 2; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				if (i+w)%2 == 0 {
					s.Update(domain.RuleConfigPatch{RestrictedCodes: &a, RuleEnabled: &on})
				} else {
					s.Update(domain.RuleConfigPatch{RestrictedCodes: &b, RuleEnabled: &off})
				}
			}
		}(w)
	}

	var readers sync.WaitGroup
	errs := make(chan string, 8)
	for r := 0; r < 4; r++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			var last uint64
			for {
				select {
				case <-stop:
					return
				default:
				}
				cfg := s.Snapshot()
				if cfg.Generation < last {
					errs <- "generation went backwards"
					return
				}
				last = cfg.Generation
				if cfg.Generation == 1 {
					continue
				}
				switch {
				case cfg.RuleEnabled && len(cfg.RestrictedCodes) == 1 && cfg.RestrictedCodes[0] == "1111":
				case !cfg.RuleEnabled && len(cfg.RestrictedCodes) == 2 && cfg.RestrictedCodes[0] == "2222":
				default:
					errs <- "mixed config observed"
					return
				}
			}
		}()
	}

	wg.Wait()
	close(stop)
	readers.Wait()
	close(errs)
	for e := range errs {
		t.Fatal(e)
	}
	if got := s.Snapshot().Generation; got != 1001 {
		t.Fatalf("generation = %d, want 1001", got)
	}
}
