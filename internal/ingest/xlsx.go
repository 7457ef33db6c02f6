// Package ingest reads lead rows out of xlsx spreadsheets and filters them
// for import relevance.
package ingest

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/vpearl/leadsync/internal/model"
)

// columnSetters maps recognized source column headers onto RawRecord
// fields. Unknown columns are ignored.
var columnSetters = map[string]func(*model.RawRecord, string){
	"Email ID":                func(r *model.RawRecord, v string) { r.EmailID = v },
	"Mobile No.":              func(r *model.RawRecord, v string) { r.MobileNo = v },
	"Date of permit":          func(r *model.RawRecord, v string) { r.DateOfPermit = v },
	"Site Address":            func(r *model.RawRecord, v string) { r.SiteAddress = v },
	"Applicant Name":          func(r *model.RawRecord, v string) { r.ApplicantName = v },
	"Nature of Development":   func(r *model.RawRecord, v string) { r.NatureOfDevelopment = v },
	"Dwelling Unit Info":      func(r *model.RawRecord, v string) { r.DwellingUnitInfo = v },
	"Area Name":               func(r *model.RawRecord, v string) { r.AreaName = v },
	"Lead_Name":               func(r *model.RawRecord, v string) { r.LeadName = v },
	"Reference":               func(r *model.RawRecord, v string) { r.Reference = v },
	"Company_Name":            func(r *model.RawRecord, v string) { r.CompanyName = v },
	"Architect Name":          func(r *model.RawRecord, v string) { r.ArchitectName = v },
	"Planning Permission No.": func(r *model.RawRecord, v string) { r.PlanningPermissionNo = v },
	"Applicant Address":       func(r *model.RawRecord, v string) { r.ApplicantAddress = v },
	"Future_Projects":         func(r *model.RawRecord, v string) { r.FutureProjects = v },
	"Creation_Time":           func(r *model.RawRecord, v string) { r.CreationTime = v },
	"Which_Brand_Looking_for": func(r *model.RawRecord, v string) { r.WhichBrandLookingFor = v },
	"How_Much_Square_Feet":    func(r *model.RawRecord, v string) { r.HowMuchSquareFeet = v },
}

// Options configures spreadsheet parsing.
type Options struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// Parse reads an xlsx file into RawRecords. The first row is the header;
// rows with no recognized content are skipped.
func Parse(path string, opts Options) ([]model.RawRecord, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open file")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, nil
	}

	// Bind each column index to its setter via the header row.
	setters := make([]func(*model.RawRecord, string), len(sheet.Rows[0].Cells))
	for i, cell := range sheet.Rows[0].Cells {
		setters[i] = columnSetters[strings.TrimSpace(cell.String())]
	}

	var records []model.RawRecord
	for i, row := range sheet.Rows[1:] {
		rec := model.RawRecord{Row: i + 2}
		empty := true
		for j, cell := range row.Cells {
			if j >= len(setters) || setters[j] == nil {
				continue
			}
			v := strings.TrimSpace(cell.String())
			if v == "" {
				continue
			}
			setters[j](&rec, v)
			empty = false
		}
		if !empty {
			records = append(records, rec)
		}
	}

	return records, nil
}

func getSheet(f *xlsx.File, opts Options) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("ingest: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("ingest: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}
