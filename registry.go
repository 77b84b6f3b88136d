// registry.go: named-queue defaults, hot-reloaded from a registry file
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package shmq

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/agilira/argus"
	goerrors "github.com/agilira/go-errors"
)

// RegistryEntry describes the fixed shape of a named queue: the
// elementSize/capacity pair a creator would otherwise have to hardcode.
type RegistryEntry struct {
	ElementSize int `json:"elementSize"`
	Capacity    int `json:"capacity"`
}

// Directory is additive sugar over Create/Open (spec.md §4.5's primitive
// API is unchanged and still the one every Queue is built on): it lets a
// process Create or Open a named queue by looking up elementSize/capacity
// from a shared JSON registry file instead of hardcoding them, which
// matters when the creating process and the opening process are separate
// binaries deployed independently. The registry is hot-reloaded with
// argus, the teacher org's dynamic-configuration file watcher — a
// dependency the teacher's own go.mod carries but never exercises from its
// own core (only from its examples/hot_reload module).
type Directory struct {
	mu      sync.RWMutex
	entries map[string]RegistryEntry
	path    string
	watcher *argus.Watcher
}

// OpenDirectory loads path (a JSON object of name -> {elementSize,
// capacity}) and watches it for changes.
func OpenDirectory(path string) (*Directory, error) {
	d := &Directory{entries: make(map[string]RegistryEntry), path: path}
	if err := d.reload(); err != nil {
		return nil, err
	}

	watcher := argus.New(argus.Config{PollInterval: time.Second})
	if err := watcher.Watch(path, func(event argus.ChangeEvent) {
		_ = d.reload()
	}); err != nil {
		return nil, goerrors.Wrap(err, "watch queue registry")
	}
	if err := watcher.Start(); err != nil {
		return nil, goerrors.Wrap(err, "start queue registry watcher")
	}
	d.watcher = watcher

	return d, nil
}

func (d *Directory) reload() error {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return goerrors.Wrap(err, "read queue registry")
	}

	var entries map[string]RegistryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return goerrors.Wrap(err, "parse queue registry")
	}

	d.mu.Lock()
	d.entries = entries
	d.mu.Unlock()
	return nil
}

// Lookup returns the registered elementSize/capacity for name, if any.
func (d *Directory) Lookup(name string) (RegistryEntry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.entries[name]
	return e, ok
}

// Create creates name using the registry's recorded elementSize/capacity.
func (d *Directory) Create(name string, opts ...Option) (*Queue, error) {
	entry, ok := d.Lookup(name)
	if !ok {
		return nil, notFoundf("queue %q is not registered", name)
	}
	return Create(name, entry.ElementSize, entry.Capacity, opts...)
}

// Open attaches to an existing named queue. The registry has nothing to
// add here — elementSize/capacity are read from the segment's own header,
// just as in the package-level Open — so this exists purely so callers
// that build around a Directory don't need to fall back to the
// package-level function for the other half of the lifecycle.
func (d *Directory) Open(name string, opts ...Option) (*Queue, error) {
	return Open(name, opts...)
}

// Close stops watching the registry file. It does not affect any Queue
// created or opened through this Directory.
func (d *Directory) Close() error {
	if d.watcher == nil {
		return nil
	}
	return d.watcher.Stop()
}
