package rulesfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"clearance/internal/domain"
	"clearance/internal/rawtree"
	"clearance/internal/services/rules"
)

// Parse reads a YAML (or JSON) rules document of the form
//
//	restrictedCodes: ["3579", "6531"]
//	ruleEnabled: true
//
// Fields with the wrong type are ignored, as for HTTP updates.
func Parse(data []byte) (domain.RuleConfigPatch, error) {
	var doc any
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return domain.RuleConfigPatch{}, fmt.Errorf("decode rules file: %w", err)
	}
	return rules.PatchFromTree(rawtree.FromAny(doc)), nil
}

func Load(path string) (domain.RuleConfigPatch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.RuleConfigPatch{}, fmt.Errorf("read rules file: %w", err)
	}
	return Parse(data)
}

// Watcher re-applies a rules file whenever it changes on disk.
type Watcher struct {
	path     string
	apply    func(domain.RuleConfigPatch)
	log      *zap.Logger
	debounce time.Duration
}

func NewWatcher(path string, apply func(domain.RuleConfigPatch), log *zap.Logger) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{path: filepath.Clean(path), apply: apply, log: log.Named("rulesfile"), debounce: 300 * time.Millisecond}
}

// Run watches the file's directory so editors that replace the file are
// picked up. It returns when ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch init: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.reload)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	patch, err := Load(w.path)
	if err != nil {
		w.log.Warn("rules file not applied", zap.String("path", w.path), zap.Error(err))
		return
	}
	if patch.Empty() {
		w.log.Warn("rules file has no usable fields", zap.String("path", w.path))
		return
	}
	w.apply(patch)
}
