package shmq

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeRegistry(t *testing.T, entries map[string]RegistryEntry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "queues.json")
	data, err := json.Marshal(entries)
	if err != nil {
		t.Fatalf("marshal registry: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write registry: %v", err)
	}
	return path
}

func TestDirectoryLookup(t *testing.T) {
	path := writeRegistry(t, map[string]RegistryEntry{
		"orders": {ElementSize: 64, Capacity: 1024},
	})

	dir, err := OpenDirectory(path)
	if err != nil {
		t.Fatalf("OpenDirectory: %v", err)
	}
	defer dir.Close()

	entry, ok := dir.Lookup("orders")
	if !ok {
		t.Fatal("Lookup(\"orders\") not found")
	}
	if entry.ElementSize != 64 || entry.Capacity != 1024 {
		t.Fatalf("entry = %+v, want {64 1024}", entry)
	}

	if _, ok := dir.Lookup("missing"); ok {
		t.Fatal("Lookup(\"missing\") unexpectedly found")
	}
}

func TestDirectoryCreateUnregisteredNameFails(t *testing.T) {
	path := writeRegistry(t, map[string]RegistryEntry{})
	dir, err := OpenDirectory(path)
	if err != nil {
		t.Fatalf("OpenDirectory: %v", err)
	}
	defer dir.Close()

	_, err = dir.Create(uniqueName(t))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDirectoryCreateUsesRegisteredShape(t *testing.T) {
	name := uniqueName(t)
	cleanupSegment(t, name)

	path := writeRegistry(t, map[string]RegistryEntry{
		name: {ElementSize: 8, Capacity: 4},
	})
	dir, err := OpenDirectory(path)
	if err != nil {
		t.Fatalf("OpenDirectory: %v", err)
	}
	defer dir.Close()

	q, err := dir.Create(name)
	if err != nil {
		t.Fatalf("dir.Create: %v", err)
	}
	defer q.Close()

	if q.ElementSize() != 8 || q.Cap() != 4 {
		t.Fatalf("elementSize=%d cap=%d, want 8/4", q.ElementSize(), q.Cap())
	}
}
