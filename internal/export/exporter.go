package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"neowatch/internal/models"
)

// Column order of the flattened close-approach row, shared by the CSV
// and XLSX writers.
var columns = []string{
	"datetime_utc", "distance_au", "velocity_km_s",
	"designation", "name", "diameter_km", "potentially_hazardous",
}

// Exporter writes query results to files in the output directory.
type Exporter struct {
	outputDir string
}

func NewExporter(outputDir string) *Exporter {
	if outputDir == "" {
		outputDir = "./data/exports"
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		log.Printf("Failed to create export directory: %v", err)
	}
	return &Exporter{outputDir: outputDir}
}

// Export writes the approaches in the requested format (csv, json or
// xlsx) and returns the path of the created file.
func (e *Exporter) Export(format string, approaches []*models.CloseApproach) (string, error) {
	name := fmt.Sprintf("approaches_%s.%s", uuid.New().String(), format)
	path := filepath.Join(e.outputDir, name)

	switch format {
	case "csv":
		f, err := os.Create(path)
		if err != nil {
			return "", fmt.Errorf("create export file: %w", err)
		}
		defer f.Close()
		if err := WriteCSV(f, approaches); err != nil {
			return "", err
		}
	case "json":
		f, err := os.Create(path)
		if err != nil {
			return "", fmt.Errorf("create export file: %w", err)
		}
		defer f.Close()
		if err := WriteJSON(f, approaches); err != nil {
			return "", err
		}
	case "xlsx":
		if err := writeXLSX(path, approaches); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}

	log.Printf("Exported %d close approaches to %s", len(approaches), path)
	return path, nil
}

// WriteCSV writes a header row followed by one flattened row per
// approach. Unlinked approaches leave the NEO columns empty.
func WriteCSV(w io.Writer, approaches []*models.CloseApproach) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, approach := range approaches {
		if err := writer.Write(flatten(approach)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteJSON writes the serialized maps as a JSON array, NEO nested.
func WriteJSON(w io.Writer, approaches []*models.CloseApproach) error {
	rows := make([]map[string]any, 0, len(approaches))
	for _, approach := range approaches {
		rows = append(rows, approach.Serialize())
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(rows); err != nil {
		return fmt.Errorf("write json export: %w", err)
	}
	return nil
}

func flatten(a *models.CloseApproach) []string {
	row := []string{
		a.TimeStr(),
		strconv.FormatFloat(a.Distance, 'f', -1, 64),
		strconv.FormatFloat(a.Velocity, 'f', -1, 64),
		a.Designation,
		"", "", "False",
	}
	if a.NEO == nil {
		return row
	}

	row[3] = a.NEO.Designation
	row[4] = a.NEO.Name
	if a.NEO.DiameterKnown() {
		row[5] = strconv.FormatFloat(a.NEO.Diameter, 'f', -1, 64)
	} else {
		row[5] = "unknown"
	}
	if a.NEO.Hazardous {
		row[6] = "True"
	}
	return row
}

func writeXLSX(path string, approaches []*models.CloseApproach) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Approaches"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}

	for i, header := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for rowIdx, approach := range approaches {
		rowNum := rowIdx + 2
		values := flatten(approach)
		for colIdx, value := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowNum)
			// Numeric columns as numbers, unless unknown.
			if num, err := strconv.ParseFloat(value, 64); err == nil && !math.IsNaN(num) && isNumericColumn(colIdx) {
				f.SetCellValue(sheet, cell, num)
				continue
			}
			f.SetCellValue(sheet, cell, value)
		}
	}

	for i := 1; i <= len(columns); i++ {
		colName, _ := excelize.ColumnNumberToName(i)
		f.SetColWidth(sheet, colName, colName, 18)
	}

	writeInfoSheet(f, len(approaches))
	f.SetActiveSheet(index)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx export: %w", err)
	}
	return nil
}

func isNumericColumn(colIdx int) bool {
	// distance_au, velocity_km_s, diameter_km
	return colIdx == 1 || colIdx == 2 || colIdx == 5
}

func writeInfoSheet(f *excelize.File, total int) {
	f.NewSheet("Info")
	f.SetCellValue("Info", "A1", "Report Generated")
	f.SetCellValue("Info", "B1", time.Now().UTC().Format("2006-01-02 15:04:05"))
	f.SetCellValue("Info", "A2", "Total Records")
	f.SetCellValue("Info", "B2", total)
}
