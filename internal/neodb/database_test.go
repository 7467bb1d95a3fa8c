package neodb

import (
	"testing"
	"time"

	"neowatch/internal/filters"
	"neowatch/internal/models"
)

func buildNEO(t *testing.T, record map[string]string) *models.NearEarthObject {
	t.Helper()
	neo, err := models.NewNearEarthObject(record)
	if err != nil {
		t.Fatalf("NewNearEarthObject: %v", err)
	}
	return neo
}

func buildApproach(t *testing.T, record map[string]string) *models.CloseApproach {
	t.Helper()
	a, err := models.NewCloseApproach(record)
	if err != nil {
		t.Fatalf("NewCloseApproach: %v", err)
	}
	return a
}

func sampleDatabase(t *testing.T) (*Database, []*models.NearEarthObject, []*models.CloseApproach) {
	t.Helper()
	neos := []*models.NearEarthObject{
		buildNEO(t, map[string]string{"pdes": "433", "name": "Eros", "diameter": "16.84", "pha": "N"}),
		buildNEO(t, map[string]string{"pdes": "99942", "name": "Apophis", "diameter": "0.34", "pha": "Y"}),
		buildNEO(t, map[string]string{"pdes": "2020 AB"}),
	}
	approaches := []*models.CloseApproach{
		buildApproach(t, map[string]string{"des": "433", "cd": "2020-Dec-31 12:00", "dist": "0.3", "v_rel": "5.5"}),
		buildApproach(t, map[string]string{"des": "99942", "cd": "2029-Apr-13 21:46", "dist": "0.00025", "v_rel": "7.4"}),
		buildApproach(t, map[string]string{"des": "433", "cd": "2024-Jan-01 00:00", "dist": "0.15", "v_rel": "4.2"}),
		buildApproach(t, map[string]string{"des": "missing", "cd": "2021-Jun-01 06:30", "dist": "0.9", "v_rel": "12.0"}),
	}
	return New(neos, approaches), neos, approaches
}

func TestLookupByDesignation(t *testing.T) {
	db, neos, _ := sampleDatabase(t)

	for _, neo := range neos {
		got, ok := db.GetNEOByDesignation(neo.Designation)
		if !ok {
			t.Errorf("GetNEOByDesignation(%q): not found", neo.Designation)
			continue
		}
		if got != neo {
			t.Errorf("GetNEOByDesignation(%q): returned a different object", neo.Designation)
		}
	}

	if _, ok := db.GetNEOByDesignation("nope"); ok {
		t.Error("unknown designation should not be found")
	}
}

func TestLookupByName(t *testing.T) {
	db, neos, _ := sampleDatabase(t)

	got, ok := db.GetNEOByName("Eros")
	if !ok || got != neos[0] {
		t.Error("GetNEOByName(Eros) should return the Eros NEO")
	}

	if _, ok := db.GetNEOByName("eros"); ok {
		t.Error("name lookup is case-sensitive; lowercase should miss")
	}
	if _, ok := db.GetNEOByName(""); ok {
		t.Error("empty name should never match")
	}
}

func TestLinking(t *testing.T) {
	_, neos, approaches := sampleDatabase(t)

	eros := neos[0]
	if approaches[0].NEO != eros || approaches[2].NEO != eros {
		t.Error("both Eros approaches should link to the Eros NEO")
	}
	if len(eros.Approaches) != 2 {
		t.Fatalf("Eros should own 2 approaches, got %d", len(eros.Approaches))
	}
	if eros.Approaches[0] != approaches[0] || eros.Approaches[1] != approaches[2] {
		t.Error("Eros approaches should appear in input order")
	}

	if approaches[1].NEO != neos[1] {
		t.Error("Apophis approach should link to Apophis")
	}
}

func TestUnlinkedApproachTolerated(t *testing.T) {
	db, _, approaches := sampleDatabase(t)

	orphan := approaches[3]
	if orphan.NEO != nil {
		t.Error("approach with unknown designation should stay unlinked")
	}
	if db.ApproachCount() != 4 {
		t.Errorf("unlinked approach should still be retained, count %d", db.ApproachCount())
	}
}

func TestQueryNoFiltersPreservesOrder(t *testing.T) {
	db, _, approaches := sampleDatabase(t)

	var got []*models.CloseApproach
	for a := range db.Query(nil) {
		got = append(got, a)
	}

	if len(got) != len(approaches) {
		t.Fatalf("query with no filters: got %d, want %d", len(got), len(approaches))
	}
	for i := range got {
		if got[i] != approaches[i] {
			t.Errorf("result %d out of order", i)
		}
	}
}

func TestQueryEmptyFilterSetPreservesOrder(t *testing.T) {
	db, _, approaches := sampleDatabase(t)

	count := 0
	for a := range db.Query(filters.CreateFilters(filters.Criteria{})) {
		if a != approaches[count] {
			t.Errorf("result %d out of order", count)
		}
		count++
	}
	if count != len(approaches) {
		t.Errorf("all-unset filters: got %d results, want %d", count, len(approaches))
	}
}

func TestQueryHazardous(t *testing.T) {
	db, _, approaches := sampleDatabase(t)

	hazardous := false
	var got []*models.CloseApproach
	for a := range db.Query(filters.CreateFilters(filters.Criteria{Hazardous: &hazardous})) {
		got = append(got, a)
	}
	// The two Eros approaches; the orphan is skipped because its NEO is
	// absent.
	if len(got) != 2 {
		t.Fatalf("hazardous=false: got %d results, want 2", len(got))
	}
	if got[0] != approaches[0] || got[1] != approaches[2] {
		t.Error("hazardous=false should return the Eros approaches in order")
	}

	hazardous = true
	count := 0
	for range db.Query(filters.CreateFilters(filters.Criteria{Hazardous: &hazardous})) {
		count++
	}
	if count != 1 {
		t.Errorf("hazardous=true: got %d results, want 1 (Apophis)", count)
	}
}

func TestQueryDateWindow(t *testing.T) {
	db, _, approaches := sampleDatabase(t)

	start := time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)

	var got []*models.CloseApproach
	for a := range db.Query(filters.CreateFilters(filters.Criteria{StartDate: &start, EndDate: &end})) {
		got = append(got, a)
	}
	// 2024 Eros approach and the 2021 orphan (date filters don't need
	// the NEO).
	if len(got) != 2 {
		t.Fatalf("date window: got %d results, want 2", len(got))
	}
	if got[0] != approaches[2] || got[1] != approaches[3] {
		t.Error("date window results out of order")
	}
}

func TestQueryEarlyStopAndRestart(t *testing.T) {
	db, _, _ := sampleDatabase(t)

	first := 0
	for range db.Query(nil) {
		first++
		if first == 1 {
			break
		}
	}

	// A stopped sequence is not resumable; calling Query again restarts
	// from the beginning.
	restarted := 0
	for range db.Query(nil) {
		restarted++
	}
	if restarted != db.ApproachCount() {
		t.Errorf("restarted query: got %d results, want %d", restarted, db.ApproachCount())
	}
}

func TestErosScenario(t *testing.T) {
	neo := buildNEO(t, map[string]string{"pdes": "433", "name": "Eros", "diameter": "16.84", "pha": "N"})
	approach := buildApproach(t, map[string]string{"des": "433", "cd": "2020-Dec-31 12:00", "dist": "0.3", "v_rel": "5.5"})

	db := New([]*models.NearEarthObject{neo}, []*models.CloseApproach{approach})

	got, ok := db.GetNEOByDesignation("433")
	if !ok || got.Name != "Eros" {
		t.Fatal("designation lookup should find Eros")
	}
	if approach.NEO != neo {
		t.Error("approach should link to the Eros NEO")
	}

	hazardous := false
	count := 0
	for a := range db.Query(filters.CreateFilters(filters.Criteria{Hazardous: &hazardous})) {
		if a != approach {
			t.Error("hazardous=false should yield the one approach")
		}
		count++
	}
	if count != 1 {
		t.Errorf("hazardous=false: got %d results, want 1", count)
	}

	hazardous = true
	for range db.Query(filters.CreateFilters(filters.Criteria{Hazardous: &hazardous})) {
		t.Error("hazardous=true should yield nothing")
	}
}

func TestUnknownDiameterScenario(t *testing.T) {
	neo := buildNEO(t, map[string]string{"pdes": "1", "diameter": ""})
	approach := buildApproach(t, map[string]string{"des": "1", "cd": "2020-Jan-01 00:00"})
	db := New([]*models.NearEarthObject{neo}, []*models.CloseApproach{approach})

	if neo.Serialize()["diameter_km"] != "unknown" {
		t.Error("empty diameter field should serialize as unknown")
	}

	minDiameter := 1.0
	for range db.Query(filters.CreateFilters(filters.Criteria{DiameterMin: &minDiameter})) {
		t.Error("diameter_min should exclude an NEO with unknown diameter")
	}
}
