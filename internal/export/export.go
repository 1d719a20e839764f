// Package export writes the session log in machine readable formats
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/balkashynov/fencer/internal/models"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const sheetName = "History"

var headers = []string{"id", "started_at", "completed_at", "planned_minutes", "completed", "blocked_apps"}

// ParseFormat validates an export format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatYAML, FormatCSV, FormatXLSX:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q (use json, yaml, csv or xlsx)", s)
	}
}

// Binary reports whether the format should not be written to a terminal
func (f Format) Binary() bool {
	return f == FormatXLSX
}

// Write encodes sessions to w in the given format
func Write(w io.Writer, format Format, sessions []models.Session) error {
	if sessions == nil {
		sessions = []models.Session{}
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sessions)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(sessions); err != nil {
			return err
		}
		return enc.Close()
	case FormatCSV:
		return writeCSV(w, sessions)
	case FormatXLSX:
		return writeXLSX(w, sessions)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func row(s models.Session) []string {
	return []string{
		s.ID,
		s.StartedAt.Format(time.RFC3339),
		s.CompletedAt.Format(time.RFC3339),
		strconv.Itoa(s.PlannedMinutes()),
		strconv.FormatBool(s.WasCompleted),
		strings.Join(s.BlockedApps, ";"),
	}
}

func writeCSV(w io.Writer, sessions []models.Session) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return err
	}
	for _, s := range sessions {
		if err := cw.Write(row(s)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSX(w io.Writer, sessions []models.Session) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	// Header row
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}

	// Data rows, numbers and booleans typed so they sort and sum in a spreadsheet
	for r, s := range sessions {
		values := []any{
			s.ID,
			s.StartedAt.Format(time.RFC3339),
			s.CompletedAt.Format(time.RFC3339),
			s.PlannedMinutes(),
			s.WasCompleted,
			strings.Join(s.BlockedApps, ";"),
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}
