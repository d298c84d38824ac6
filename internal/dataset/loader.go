// Package dataset reads the typed-complaint replay corpus from a spreadsheet.
package dataset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"voice-complaint-go/internal/logger"
	"voice-complaint-go/internal/types"
)

type columns struct {
	id, text, language int
}

// detect finds columns by header heuristics. The transcript column falls
// back to the first column when no header names it.
func detect(header []string) columns {
	c := columns{id: -1, text: -1, language: -1}
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "transcript") || strings.Contains(l, "complaint") || strings.Contains(l, "text") || strings.Contains(l, "description"):
			if c.text == -1 {
				c.text = i
			}
		case strings.Contains(l, "lang"):
			if c.language == -1 {
				c.language = i
			}
		case l == "id" || strings.Contains(l, "case") || strings.HasSuffix(l, " id") || strings.HasSuffix(l, "_id"):
			if c.id == -1 {
				c.id = i
			}
		}
	}
	if c.text == -1 {
		c.text = 0
	}
	return c
}

// Load reads the first sheet. Rows without transcript text are skipped;
// rows without an id are numbered by their sheet row.
func Load(path string) ([]types.SampleCase, error) {
	log := logger.Component("dataset").WithField("path", path)
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}

	cols := detect(rows[0])
	var out []types.SampleCase
	skipped := 0
	for i, r := range rows[1:] {
		sc := types.SampleCase{
			CaseID:       cell(r, cols.id),
			Transcript:   cell(r, cols.text),
			LanguageHint: cell(r, cols.language),
		}
		if sc.Transcript == "" {
			skipped++
			continue
		}
		if sc.CaseID == "" {
			sc.CaseID = "row-" + strconv.Itoa(i+2)
		}
		out = append(out, sc)
	}
	log.WithField("cases", len(out)).WithField("skipped", skipped).Info("sample corpus loaded")
	return out, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
