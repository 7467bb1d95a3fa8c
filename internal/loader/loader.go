package loader

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"neowatch/internal/models"
)

// LoadNEOs reads NEO records from the SBDB CSV export: a header row of
// field names followed by one row per object.
func LoadNEOs(r io.Reader) ([]*models.NearEarthObject, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read neo csv header: %w", err)
	}

	var neos []*models.NearEarthObject
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read neo csv row: %w", err)
		}

		record := make(map[string]string, len(header))
		for i, field := range header {
			if i < len(row) {
				record[field] = row[i]
			}
		}

		neo, err := models.NewNearEarthObject(record)
		if err != nil {
			return nil, err
		}
		neos = append(neos, neo)
	}

	return neos, nil
}

// cadEnvelope is the JSON shape of the close-approach dataset: a list
// of field names and rows of positional values (string or null).
type cadEnvelope struct {
	Fields []string `json:"fields"`
	Data   [][]any  `json:"data"`
}

// LoadApproaches reads close-approach records from the CAD JSON
// envelope, zipping each data row with the field-name list.
func LoadApproaches(r io.Reader) ([]*models.CloseApproach, error) {
	var envelope cadEnvelope
	if err := json.NewDecoder(r).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode close-approach json: %w", err)
	}

	var approaches []*models.CloseApproach
	for _, row := range envelope.Data {
		record := make(map[string]string, len(envelope.Fields))
		for i, field := range envelope.Fields {
			if i < len(row) {
				record[field] = stringField(row[i])
			}
		}

		approach, err := models.NewCloseApproach(record)
		if err != nil {
			return nil, err
		}
		approaches = append(approaches, approach)
	}

	return approaches, nil
}

func stringField(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// LoadNEOFile reads the NEO dataset from a CSV file on disk.
func LoadNEOFile(path string) ([]*models.NearEarthObject, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open neo dataset: %w", err)
	}
	defer f.Close()
	return LoadNEOs(f)
}

// LoadApproachFile reads the close-approach dataset from a JSON file on
// disk.
func LoadApproachFile(path string) ([]*models.CloseApproach, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open close-approach dataset: %w", err)
	}
	defer f.Close()
	return LoadApproaches(f)
}
