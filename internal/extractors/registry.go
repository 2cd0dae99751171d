package extractors

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-desk/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-desk/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry maps file extensions to extractors.
// When several extractors claim an extension the highest priority
// available one wins.
type Registry struct {
	mu         sync.RWMutex
	extractors []driven.Extractor
	byExt      map[string][]driven.Extractor
	disabled   map[string]bool
	logger     *logger.Logger
}

// NewRegistry creates an empty registry. Extensions listed in disabled
// are never dispatched, whatever is registered for them.
func NewRegistry(log *logger.Logger, disabled []string) *Registry {
	d := make(map[string]bool, len(disabled))
	for _, ext := range disabled {
		d[normaliseExt(ext)] = true
	}
	return &Registry{
		byExt:    make(map[string][]driven.Extractor),
		disabled: d,
		logger:   log,
	}
}

// Register adds an extractor to the registry.
func (r *Registry) Register(extractor driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.extractors = append(r.extractors, extractor)
	for _, ext := range extractor.Extensions() {
		ext = normaliseExt(ext)
		list := append(r.byExt[ext], extractor)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority() > list[j].Priority()
		})
		r.byExt[ext] = list
	}
}

// lookup returns the extractor for name, or nil.
func (r *Registry) lookup(name string) driven.Extractor {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.disabled[ext] {
		return nil
	}
	for _, e := range r.byExt[ext] {
		if e.Available() {
			return e
		}
	}
	return nil
}

// Supports reports whether name has an extractor that can run.
func (r *Registry) Supports(name string) bool {
	return r.lookup(name) != nil
}

// Extract returns the text of data, or "" when no extractor handles the
// type or the extractor fails. Panics inside an extractor are recovered.
func (r *Registry) Extract(ctx context.Context, data []byte, name string) (text string) {
	extractor := r.lookup(name)
	if extractor == nil {
		return ""
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Debug("extractor %s panicked on %s: %v", extractor.Name(), name, rec)
			text = ""
		}
	}()

	out, err := extractor.Extract(ctx, bytes.NewReader(data), int64(len(data)), name)
	if err != nil {
		r.logger.Debug("extractor %s failed on %s: %v", extractor.Name(), name, err)
		return ""
	}
	return out
}

// SupportedExtensions returns every extension that will be dispatched, sorted.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.byExt))
	for ext, list := range r.byExt {
		if r.disabled[ext] {
			continue
		}
		for _, e := range list {
			if e.Available() {
				exts = append(exts, ext)
				break
			}
		}
	}
	sort.Strings(exts)
	return exts
}

// Capabilities lists every registered extractor in registration order.
func (r *Registry) Capabilities() []driven.ExtractorCapability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps := make([]driven.ExtractorCapability, 0, len(r.extractors))
	for _, e := range r.extractors {
		exts := make([]string, 0, len(e.Extensions()))
		disabled := true
		for _, ext := range e.Extensions() {
			ext = normaliseExt(ext)
			exts = append(exts, ext)
			if !r.disabled[ext] {
				disabled = false
			}
		}
		caps = append(caps, driven.ExtractorCapability{
			Name:       e.Name(),
			Extensions: exts,
			Available:  e.Available(),
			Disabled:   disabled,
		})
	}
	return caps
}

// normaliseExt lower-cases ext and ensures a leading dot.
func normaliseExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// String is used in debug output.
func (r *Registry) String() string {
	return fmt.Sprintf("extractors(%s)", strings.Join(r.SupportedExtensions(), " "))
}
