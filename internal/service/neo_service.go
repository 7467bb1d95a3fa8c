package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"neowatch/internal/clients"
	"neowatch/internal/filters"
	"neowatch/internal/loader"
	"neowatch/internal/models"
	"neowatch/internal/neodb"
	"neowatch/internal/repository"
)

// ErrNotLoaded is returned for lookups and queries before the first
// successful Reload.
var ErrNotLoaded = errors.New("dataset not loaded")

type NEOService interface {
	Reload(ctx context.Context) error
	LookupDesignation(designation string) (*models.NearEarthObject, bool)
	LookupName(name string) (*models.NearEarthObject, bool)
	QueryApproaches(criteria filters.Criteria, limit int) ([]*models.CloseApproach, error)
	QuerySerialized(ctx context.Context, criteria filters.Criteria, limit int) ([]map[string]any, error)
	Stats() Stats
}

type Stats struct {
	NEOs       int       `json:"neos"`
	Approaches int       `json:"approaches"`
	LoadedAt   time.Time `json:"loaded_at"`
	Source     string    `json:"source"`
}

type DataConfig struct {
	NEOPath  string
	CADPath  string
	QueryTTL time.Duration
}

type neoService struct {
	cacheRepo repository.CacheRepository
	client    clients.SBDBClient // nil when no CAD URL is configured
	config    DataConfig

	mu       sync.RWMutex
	db       *neodb.Database
	loadedAt time.Time
}

func NewNEOService(
	cacheRepo repository.CacheRepository,
	client clients.SBDBClient,
	config DataConfig,
) NEOService {
	if config.QueryTTL == 0 {
		config.QueryTTL = 10 * time.Minute
	}
	return &neoService{
		cacheRepo: cacheRepo,
		client:    client,
		config:    config,
	}
}

// Reload loads both datasets, builds a fresh database, and swaps it in
// atomically. Readers keep the old snapshot until the swap; the new
// database is immutable from here on.
func (s *neoService) Reload(ctx context.Context) error {
	log.Println("Loading NEO dataset...")

	neos, err := loader.LoadNEOFile(s.config.NEOPath)
	if err != nil {
		return fmt.Errorf("load NEOs: %w", err)
	}

	var approaches []*models.CloseApproach
	if s.client != nil {
		approaches, err = s.client.FetchCloseApproaches(ctx)
	} else {
		approaches, err = loader.LoadApproachFile(s.config.CADPath)
	}
	if err != nil {
		return fmt.Errorf("load close approaches: %w", err)
	}

	db := neodb.New(neos, approaches)

	s.mu.Lock()
	s.db = db
	s.loadedAt = time.Now().UTC()
	s.mu.Unlock()

	s.invalidateQueryCache(ctx)

	log.Printf("Database loaded: %d NEOs, %d close approaches", db.NEOCount(), db.ApproachCount())
	return nil
}

func (s *neoService) snapshot() *neodb.Database {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db
}

func (s *neoService) LookupDesignation(designation string) (*models.NearEarthObject, bool) {
	db := s.snapshot()
	if db == nil {
		return nil, false
	}
	return db.GetNEOByDesignation(designation)
}

func (s *neoService) LookupName(name string) (*models.NearEarthObject, bool) {
	db := s.snapshot()
	if db == nil {
		return nil, false
	}
	return db.GetNEOByName(name)
}

// QueryApproaches runs the filter set over the current snapshot and
// materializes at most limit matches (all of them when limit <= 0).
func (s *neoService) QueryApproaches(criteria filters.Criteria, limit int) ([]*models.CloseApproach, error) {
	db := s.snapshot()
	if db == nil {
		return nil, ErrNotLoaded
	}

	results := make([]*models.CloseApproach, 0)
	for approach := range filters.Limit(db.Query(filters.CreateFilters(criteria)), limit) {
		results = append(results, approach)
	}
	return results, nil
}

// QuerySerialized is QueryApproaches for the HTTP surface: results are
// the downstream writer maps, cached in redis keyed by the criteria.
func (s *neoService) QuerySerialized(ctx context.Context, criteria filters.Criteria, limit int) ([]map[string]any, error) {
	db := s.snapshot()
	if db == nil {
		return nil, ErrNotLoaded
	}

	key := queryCacheKey(criteria, limit)
	var cached []map[string]any
	if found, err := s.cacheRepo.GetJSON(ctx, key, &cached); err == nil && found {
		return cached, nil
	} else if err != nil {
		log.Printf("Query cache read failed: %v", err)
	}

	approaches, err := s.QueryApproaches(criteria, limit)
	if err != nil {
		return nil, err
	}

	results := make([]map[string]any, 0, len(approaches))
	for _, approach := range approaches {
		results = append(results, approach.Serialize())
	}

	if err := s.cacheRepo.SetJSON(ctx, key, results, s.config.QueryTTL); err != nil {
		log.Printf("Query cache write failed: %v", err)
	}

	return results, nil
}

func (s *neoService) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{LoadedAt: s.loadedAt, Source: "file"}
	if s.client != nil {
		stats.Source = "sbdb-api"
	}
	if s.db != nil {
		stats.NEOs = s.db.NEOCount()
		stats.Approaches = s.db.ApproachCount()
	}
	return stats
}

func (s *neoService) invalidateQueryCache(ctx context.Context) {
	keys, err := s.cacheRepo.Keys(ctx, "neo:query:*")
	if err != nil {
		log.Printf("Query cache scan failed: %v", err)
		return
	}
	if err := s.cacheRepo.Delete(ctx, keys...); err != nil {
		log.Printf("Query cache flush failed: %v", err)
	}
}

func queryCacheKey(c filters.Criteria, limit int) string {
	parts := []string{
		dateKey(c.Date), dateKey(c.StartDate), dateKey(c.EndDate),
		floatKey(c.DistanceMin), floatKey(c.DistanceMax),
		floatKey(c.VelocityMin), floatKey(c.VelocityMax),
		floatKey(c.DiameterMin), floatKey(c.DiameterMax),
		boolKey(c.Hazardous),
		strconv.Itoa(limit),
	}
	return "neo:query:" + strings.Join(parts, ":")
}

func dateKey(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

func floatKey(f *float64) string {
	if f == nil {
		return "-"
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func boolKey(b *bool) string {
	if b == nil {
		return "-"
	}
	return strconv.FormatBool(*b)
}
