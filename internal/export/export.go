// Package export renders curated records as spreadsheets.
package export

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/colmmemedsurv/sentinelnode/internal/model"
)

// Format names accepted by Write.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// SheetName is the worksheet name used for XLSX output.
const SheetName = "Curated"

// Columns is the ordered header row.
var Columns = []string{
	"Title",
	"Journal",
	"Authors",
	"DOI",
	"Published",
	"Link",
	"Abstract",
	"Relevance",
	"Source Feed",
}

// Row maps a record to its spreadsheet cells.
func Row(r model.Record) []string {
	doiCell := r.DOIDisplay
	if doiCell == "" {
		doiCell = r.DOI
	}
	if doiCell == "" {
		doiCell = model.DOINotFound
	}
	abstract := r.Abstract
	if model.IsEmptyAbstract(abstract) {
		abstract = model.AbstractNotAvailable
	}
	return []string{
		r.Title,
		r.Journal,
		strings.Join(r.Authors, "; "),
		doiCell,
		r.Published,
		r.Link,
		abstract,
		string(r.Relevance),
		r.SourceFeed,
	}
}

// Write renders records in the named format.
func Write(w io.Writer, format string, records []model.Record) error {
	switch strings.ToLower(format) {
	case FormatCSV:
		return WriteCSV(w, records)
	case FormatXLSX:
		return WriteXLSX(w, records)
	default:
		return eris.Errorf("export: unsupported format %q", format)
	}
}

// WriteCSV writes a header row followed by one row per record.
func WriteCSV(w io.Writer, records []model.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, r := range records {
		if err := cw.Write(Row(r)); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "export: flush csv")
	}
	return nil
}

// WriteXLSX writes a single-sheet workbook with a header row.
func WriteXLSX(w io.Writer, records []model.Record) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	addRow(sheet, Columns)
	for _, r := range records {
		addRow(sheet, Row(r))
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, v := range cells {
		row.AddCell().SetString(v)
	}
}
