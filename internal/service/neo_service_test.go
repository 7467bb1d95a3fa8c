package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"neowatch/internal/filters"
)

// fakeCache is an in-memory CacheRepository so the service tests run
// without redis.
type fakeCache struct {
	entries map[string]string
	hits    int
	writes  int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	return f.entries[key], nil
}

func (f *fakeCache) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	f.entries[key] = value
	return nil
}

func (f *fakeCache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	val, ok := f.entries[key]
	if !ok {
		return false, nil
	}
	f.hits++
	return true, json.Unmarshal([]byte(val), dest)
}

func (f *fakeCache) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.entries[key] = string(data)
	f.writes++
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.entries, key)
	}
	return nil
}

func (f *fakeCache) Keys(ctx context.Context, pattern string) ([]string, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for key := range f.entries {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func writeDatasets(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()

	neoPath := filepath.Join(dir, "neos.csv")
	neoCSV := "pdes,name,diameter,pha\n433,Eros,16.84,N\n99942,Apophis,0.34,Y\n"
	if err := os.WriteFile(neoPath, []byte(neoCSV), 0644); err != nil {
		t.Fatalf("write neo csv: %v", err)
	}

	cadPath := filepath.Join(dir, "cad.json")
	cadJSON := `{
	  "fields": ["des", "cd", "dist", "v_rel"],
	  "data": [
	    ["433", "2020-Dec-31 12:00", "0.3", "5.5"],
	    ["99942", "2029-Apr-13 21:46", "0.00025", "7.4"]
	  ]
	}`
	if err := os.WriteFile(cadPath, []byte(cadJSON), 0644); err != nil {
		t.Fatalf("write cad json: %v", err)
	}

	return neoPath, cadPath
}

func loadedService(t *testing.T) (NEOService, *fakeCache) {
	t.Helper()
	neoPath, cadPath := writeDatasets(t)
	cache := newFakeCache()
	svc := NewNEOService(cache, nil, DataConfig{NEOPath: neoPath, CADPath: cadPath})

	if err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	return svc, cache
}

func TestServiceBeforeReload(t *testing.T) {
	svc := NewNEOService(newFakeCache(), nil, DataConfig{})

	if _, ok := svc.LookupDesignation("433"); ok {
		t.Error("lookup before the first reload should miss")
	}
	if _, err := svc.QueryApproaches(filters.Criteria{}, 0); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("query before reload: got %v, want ErrNotLoaded", err)
	}
}

func TestServiceReloadMissingFile(t *testing.T) {
	svc := NewNEOService(newFakeCache(), nil, DataConfig{NEOPath: "/does/not/exist.csv"})
	if err := svc.Reload(context.Background()); err == nil {
		t.Error("reload with a missing dataset should fail")
	}
}

func TestServiceLookups(t *testing.T) {
	svc, _ := loadedService(t)

	neo, ok := svc.LookupDesignation("433")
	if !ok || neo.Name != "Eros" {
		t.Error("LookupDesignation(433) should find Eros")
	}
	if _, ok := svc.LookupName("Apophis"); !ok {
		t.Error("LookupName(Apophis) should hit")
	}
	if _, ok := svc.LookupName(""); ok {
		t.Error("empty name should never match")
	}
}

func TestServiceQueryApproaches(t *testing.T) {
	svc, _ := loadedService(t)

	all, err := svc.QueryApproaches(filters.Criteria{}, 0)
	if err != nil {
		t.Fatalf("QueryApproaches: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("unfiltered query: got %d, want 2", len(all))
	}

	hazardous := true
	matched, err := svc.QueryApproaches(filters.Criteria{Hazardous: &hazardous}, 0)
	if err != nil {
		t.Fatalf("QueryApproaches: %v", err)
	}
	if len(matched) != 1 || matched[0].Designation != "99942" {
		t.Errorf("hazardous=true: got %v", matched)
	}

	capped, err := svc.QueryApproaches(filters.Criteria{}, 1)
	if err != nil {
		t.Fatalf("QueryApproaches: %v", err)
	}
	if len(capped) != 1 || capped[0].Designation != "433" {
		t.Errorf("limit 1 should keep the first approach, got %v", capped)
	}
}

func TestServiceQuerySerializedCaches(t *testing.T) {
	svc, cache := loadedService(t)
	ctx := context.Background()

	first, err := svc.QuerySerialized(ctx, filters.Criteria{}, 0)
	if err != nil {
		t.Fatalf("QuerySerialized: %v", err)
	}
	if len(first) != 2 || cache.writes != 1 {
		t.Fatalf("first query should compute and cache: len %d, writes %d", len(first), cache.writes)
	}

	second, err := svc.QuerySerialized(ctx, filters.Criteria{}, 0)
	if err != nil {
		t.Fatalf("QuerySerialized: %v", err)
	}
	if cache.hits != 1 {
		t.Errorf("second identical query should hit the cache, hits %d", cache.hits)
	}
	if len(second) != len(first) {
		t.Errorf("cached result mismatch: %d vs %d", len(second), len(first))
	}

	// Different criteria use a different cache key.
	hazardous := false
	if _, err := svc.QuerySerialized(ctx, filters.Criteria{Hazardous: &hazardous}, 0); err != nil {
		t.Fatalf("QuerySerialized: %v", err)
	}
	if cache.writes != 2 {
		t.Errorf("distinct criteria should write a second entry, writes %d", cache.writes)
	}
}

func TestServiceReloadFlushesQueryCache(t *testing.T) {
	svc, cache := loadedService(t)
	ctx := context.Background()

	if _, err := svc.QuerySerialized(ctx, filters.Criteria{}, 0); err != nil {
		t.Fatalf("QuerySerialized: %v", err)
	}
	if len(cache.entries) == 0 {
		t.Fatal("query should populate the cache")
	}

	if err := svc.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if len(cache.entries) != 0 {
		t.Errorf("reload should flush cached query results, %d left", len(cache.entries))
	}
}

func TestServiceStats(t *testing.T) {
	svc, _ := loadedService(t)

	stats := svc.Stats()
	if stats.NEOs != 2 || stats.Approaches != 2 {
		t.Errorf("stats counts: got %+v", stats)
	}
	if stats.Source != "file" {
		t.Errorf("stats source: got %q, want file", stats.Source)
	}
	if stats.LoadedAt.IsZero() {
		t.Error("stats should carry the load timestamp")
	}
}
