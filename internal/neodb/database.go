package neodb

import (
	"iter"
	"log"

	"neowatch/internal/filters"
	"neowatch/internal/models"
)

// Database owns the full NEO and close-approach collections and the
// designation and name indices over them. It is fully populated by New
// and read-only afterward, so concurrent readers need no locking.
type Database struct {
	neos       []*models.NearEarthObject
	approaches []*models.CloseApproach

	byDesignation map[string]*models.NearEarthObject
	byName        map[string]*models.NearEarthObject
}

// New builds the database from the two already-loaded collections.
// Every approach whose designation matches a known NEO is linked both
// ways; approaches with no match are kept unlinked — a data-quality gap
// in the source, not an error.
func New(neos []*models.NearEarthObject, approaches []*models.CloseApproach) *Database {
	db := &Database{
		neos:          neos,
		approaches:    approaches,
		byDesignation: make(map[string]*models.NearEarthObject, len(neos)),
		byName:        make(map[string]*models.NearEarthObject),
	}

	for _, neo := range neos {
		db.byDesignation[neo.Designation] = neo
		if neo.Name != "" {
			db.byName[neo.Name] = neo
		}
	}

	unlinked := 0
	for _, approach := range approaches {
		neo, ok := db.byDesignation[approach.Designation]
		if !ok {
			unlinked++
			continue
		}
		approach.NEO = neo
		neo.Approaches = append(neo.Approaches, approach)
	}
	if unlinked > 0 {
		log.Printf("neodb: %d of %d close approaches have no matching NEO", unlinked, len(approaches))
	}

	return db
}

// GetNEOByDesignation looks up an NEO by its primary designation.
func (db *Database) GetNEOByDesignation(designation string) (*models.NearEarthObject, bool) {
	neo, ok := db.byDesignation[designation]
	return neo, ok
}

// GetNEOByName looks up an NEO by its IAU name, case-sensitively. An
// empty name never matches anything.
func (db *Database) GetNEOByName(name string) (*models.NearEarthObject, bool) {
	if name == "" {
		return nil, false
	}
	neo, ok := db.byName[name]
	return neo, ok
}

func (db *Database) NEOCount() int {
	return len(db.neos)
}

func (db *Database) ApproachCount() int {
	return len(db.approaches)
}

// Query streams the close approaches that satisfy every supplied
// filter, preserving the input collection's order. The sequence is
// lazy and single-consumer: the caller may stop pulling at any point,
// and restarts it by calling Query again.
func (db *Database) Query(fs []filters.AttributeFilter) iter.Seq[*models.CloseApproach] {
	return func(yield func(*models.CloseApproach) bool) {
		for _, approach := range db.approaches {
			matched := true
			for _, f := range fs {
				if !f.Matches(approach) {
					matched = false
					break
				}
			}
			if matched && !yield(approach) {
				return
			}
		}
	}
}
