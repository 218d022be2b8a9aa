package driver_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/Zenthial/ctrl/internal/driver"
	"github.com/Zenthial/ctrl/internal/pipeline"
)

func TestObjectCacheRoundTrip(t *testing.T) {
	cache, err := driver.NewObjectCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	key := driver.Key([]byte("program bytes"), testTarget, pipeline.BackendNative)

	var miss driver.CachedObject
	ok, err := cache.Get(key, &miss)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected a miss on an empty cache")
	}

	put := &driver.CachedObject{Name: "tester", Ext: ".o", Object: []byte{0x7f, 0x45, 0x4c, 0x46}}
	if err := cache.Put(key, put); err != nil {
		t.Fatalf("put: %v", err)
	}

	var hit driver.CachedObject
	ok, err = cache.Get(key, &hit)
	if err != nil {
		t.Fatalf("get after put: %v", err)
	}
	if !ok {
		t.Fatal("expected a hit after put")
	}
	if hit.Name != "tester" || hit.Ext != ".o" || !bytes.Equal(hit.Object, put.Object) {
		t.Errorf("expected the stored envelope back, got %+v", hit)
	}
	if hit.Schema == 0 {
		t.Error("expected Put to stamp a schema version")
	}
}

func TestObjectCacheDrop(t *testing.T) {
	cache, err := driver.NewObjectCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	key := driver.Key([]byte("x"), testTarget, pipeline.BackendQBE)
	if err := cache.Put(key, &driver.CachedObject{Name: "x", Ext: ".s", Object: []byte("asm")}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := cache.Drop(); err != nil {
		t.Fatalf("drop: %v", err)
	}
	var out driver.CachedObject
	if ok, _ := cache.Get(key, &out); ok {
		t.Fatal("expected the dropped cache to miss")
	}
	if err := cache.Drop(); err != nil {
		t.Fatalf("second drop: %v", err)
	}
}
