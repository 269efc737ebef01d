package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/datakith/cleanse/internal/model"
)

func TestLookupKey(t *testing.T) {
	a := LookupKey("john@example.com")
	b := LookupKey("john@example.com")
	c := LookupKey("jane@example.com")

	if a != b {
		t.Error("same email must produce the same key")
	}
	if a == c {
		t.Error("different emails must produce different keys")
	}
	if !strings.HasPrefix(a, "cleanse:v1:") {
		t.Errorf("key missing version prefix: %q", a)
	}
	if strings.Contains(a, "john") || strings.Contains(a, "example") {
		t.Errorf("key leaks the address: %q", a)
	}
}

func TestNew_Disabled(t *testing.T) {
	if got := New(model.CacheConfig{Enabled: false}); got != nil {
		t.Error("expected nil cache when disabled")
	}
}

func TestNew_MemoryByDefault(t *testing.T) {
	got := New(model.CacheConfig{Enabled: true, TTL: time.Minute})
	if _, ok := got.(*MemoryCache); !ok {
		t.Errorf("expected MemoryCache, got %T", got)
	}
}

func TestNew_LayeredWithDir(t *testing.T) {
	got := New(model.CacheConfig{Enabled: true, TTL: time.Minute, Dir: t.TempDir()})
	if _, ok := got.(*LayeredCache); !ok {
		t.Errorf("expected LayeredCache, got %T", got)
	}
}

func TestMemoryCache_RoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}

	if err := c.Set("k", []byte("Acme"), 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if v, ok := c.Get("k"); !ok || string(v) != "Acme" {
		t.Errorf("expected Acme, got %q (hit=%v)", v, ok)
	}

	if err := c.Delete("k"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after delete")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	if err := c.Set("k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestDiskCache_RoundTrip(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	key := LookupKey("john@example.com")
	if err := c.Set(key, []byte("Acme"), 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if v, ok := c.Get(key); !ok || string(v) != "Acme" {
		t.Errorf("expected Acme, got %q (hit=%v)", v, ok)
	}

	if err := c.Delete(key); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok := c.Get(key); ok {
		t.Error("expected miss after delete")
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)
	key := LookupKey("john@example.com")
	if err := c.Set(key, []byte("Acme"), 10*time.Millisecond); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get(key); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestDiskCache_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	key := LookupKey("john@example.com")

	first := NewDiskCache(dir, time.Minute)
	if err := first.Set(key, []byte("Acme"), 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	second := NewDiskCache(dir, time.Minute)
	if v, ok := second.Get(key); !ok || string(v) != "Acme" {
		t.Errorf("expected persisted entry, got %q (hit=%v)", v, ok)
	}
}

func TestLayeredCache_PromotesDiskHit(t *testing.T) {
	dir := t.TempDir()
	key := LookupKey("john@example.com")

	// Seed the disk layer only, as a previous run would have.
	disk := NewDiskCache(dir, time.Minute)
	if err := disk.Set(key, []byte("Acme"), 0); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	layered := NewLayeredCache(time.Minute, dir, time.Minute)
	if v, ok := layered.Get(key); !ok || string(v) != "Acme" {
		t.Fatalf("expected disk hit, got %q (hit=%v)", v, ok)
	}

	// The hit must now be served from memory even if the file vanishes.
	if err := disk.Delete(key); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if v, ok := layered.Get(key); !ok || string(v) != "Acme" {
		t.Errorf("expected promoted memory hit, got %q (hit=%v)", v, ok)
	}
}

func TestLayeredCache_SetWritesBothLayers(t *testing.T) {
	dir := t.TempDir()
	key := LookupKey("jane@example.com")

	layered := NewLayeredCache(time.Minute, dir, time.Minute)
	if err := layered.Set(key, []byte("Globex"), 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	disk := NewDiskCache(dir, time.Minute)
	if v, ok := disk.Get(key); !ok || string(v) != "Globex" {
		t.Errorf("expected disk layer write, got %q (hit=%v)", v, ok)
	}
}

func TestLayeredCache_Clear(t *testing.T) {
	layered := NewLayeredCache(time.Minute, t.TempDir(), time.Minute)
	key := LookupKey("john@example.com")
	if err := layered.Set(key, []byte("Acme"), 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := layered.Clear(); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if _, ok := layered.Get(key); ok {
		t.Error("expected miss after clear")
	}
}
