package rulesfile

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"clearance/internal/domain"
)

func TestParse(t *testing.T) {
	patch, err := Parse([]byte("restrictedCodes:\n  - \"0123\"\n  - 6531\n  - 1.5\nruleEnabled: false\n"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"0123", "6531"}, *patch.RestrictedCodes); diff != "" {
		t.Fatalf("codes (-want +got):\n%s", diff)
	}
	if patch.RuleEnabled == nil || *patch.RuleEnabled {
		t.Fatalf("ruleEnabled = %v", patch.RuleEnabled)
	}
}

func TestParseIgnoresWrongTypes(t *testing.T) {
	patch, err := Parse([]byte(`{"restrictedCodes": "6531", "ruleEnabled": true}`))
	if err != nil {
		t.Fatal(err)
	}
	if patch.RestrictedCodes != nil || patch.RuleEnabled == nil {
		t.Fatalf("unexpected patch %+v", patch)
	}
	if p, err := Parse(nil); err != nil || !p.Empty() {
		t.Fatalf("empty file: %+v %v", p, err)
	}
	if _, err := Parse([]byte("restrictedCodes: [unterminated")); err == nil {
		t.Fatalf("expected syntax error")
	}
}

func TestWatcherAppliesChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(path, []byte("ruleEnabled: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var got []domain.RuleConfigPatch
	w := NewWatcher(path, func(p domain.RuleConfigPatch) {
		mu.Lock()
		got = append(got, p)
		mu.Unlock()
	}, nil)
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("restrictedCodes: [\"9999\"]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) == 0 {
		t.Fatalf("change was not applied")
	}
	last := got[len(got)-1]
	if last.RestrictedCodes == nil || (*last.RestrictedCodes)[0] != "9999" {
		t.Fatalf("unexpected patch %+v", last)
	}
}
