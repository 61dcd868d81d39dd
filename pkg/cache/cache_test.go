package cache

import (
	"context"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	// Miss before Set
	if _, hit, _ := c.Get(ctx, "grid:abc"); hit {
		t.Error("Get before Set should miss")
	}

	// Round trip
	if err := c.Set(ctx, "grid:abc", []byte("payload"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "grid:abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !hit {
		t.Fatal("Get after Set should hit")
	}
	if string(data) != "payload" {
		t.Errorf("data = %q", data)
	}

	// Delete
	if err := c.Delete(ctx, "grid:abc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "grid:abc"); hit {
		t.Error("Get after Delete should miss")
	}

	// Deleting a missing key is not an error
	if err := c.Delete(ctx, "never-set"); err != nil {
		t.Errorf("Delete missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	// Already-expired entry reads as a miss.
	if err := c.Set(ctx, "key", []byte("stale"), -time.Second); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("expired entry should miss")
	}

	// Zero TTL means no expiry.
	if err := c.Set(ctx, "forever", []byte("fresh"), 0); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("zero-TTL entry should hit")
	}
}

func TestHash(t *testing.T) {
	// Determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// SHA-256 produces 64 hex chars
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	// GridKey includes options in the hash
	gk1 := k.GridKey("imghash", "height", GridKeyOpts{Resolution: 64, MaxHeight: 32})
	gk2 := k.GridKey("imghash", "height", GridKeyOpts{Resolution: 32, MaxHeight: 32})
	if gk1 == gk2 {
		t.Error("Different GridKeyOpts should produce different keys")
	}

	// Method is part of the key
	gk3 := k.GridKey("imghash", "color", GridKeyOpts{Resolution: 64, MaxHeight: 32})
	if gk1 == gk3 {
		t.Error("Different methods should produce different keys")
	}

	// Deterministic
	if gk1 != k.GridKey("imghash", "height", GridKeyOpts{Resolution: 64, MaxHeight: 32}) {
		t.Error("GridKey should be deterministic")
	}

	// ArtifactKey
	ak1 := k.ArtifactKey("gridhash", ArtifactKeyOpts{Format: "html"})
	ak2 := k.ArtifactKey("gridhash", ArtifactKeyOpts{Format: "png"})
	if ak1 == ak2 {
		t.Error("Different formats should produce different keys")
	}
}
