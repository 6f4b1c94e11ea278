package file

import (
	"context"
	stderrors "errors"
	"io"
	"slices"

	"tabprep/domain/table"
	"tabprep/internal/errors"

	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the sheet name written by Excel.Store when none is given
const DefaultSheet = "Sheet1"

// Excel is an .xlsx workbook. Reading uses Sheet, or the first sheet when empty.
type Excel struct {
	Path  string
	Sheet string
}

// Load reads the selected sheet into a table
func (x Excel) Load(ctx context.Context) (*table.Table, error) {
	f, err := open(x.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := ReadExcel(f, x.Sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", x.Path)
	}
	return t, nil
}

// Store writes the table to a new workbook with a single sheet
func (x Excel) Store(ctx context.Context, t *table.Table) error {
	out, err := create(x.Path)
	if err != nil {
		return err
	}
	if err := WriteExcel(out, t, x.Sheet); err != nil {
		out.Close()
		return errors.Wrapf(err, "writing %s", x.Path)
	}
	return out.Close()
}

// ReadExcel parses a workbook. The first row of the sheet is the header.
func ReadExcel(r io.Reader, sheet string) (*table.Table, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.ParseError("workbook", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.ParseError("workbook", stderrors.New("workbook has no sheets"))
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if !slices.Contains(sheets, sheet) {
		return nil, errors.NotFound("sheet " + sheet)
	}

	rows, err := wb.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.ParseError("sheet "+sheet, err)
	}
	if len(rows) == 0 {
		return nil, errors.ParseError("sheet "+sheet, stderrors.New("sheet is empty"))
	}

	t, err := defaultCoercer.Table(rows[0], rows[1:])
	if err != nil {
		return nil, errors.ParseError("sheet "+sheet, err)
	}
	return t, nil
}

// WriteExcel writes the table as a workbook to w
func WriteExcel(w io.Writer, t *table.Table, sheet string) error {
	wb, err := buildWorkbook(t, sheet)
	if err != nil {
		return err
	}
	defer wb.Close()
	if err := wb.Write(w); err != nil {
		return errors.Wrap(err, "failed to write workbook")
	}
	return nil
}

func buildWorkbook(t *table.Table, sheet string) (*excelize.File, error) {
	if sheet == "" {
		sheet = DefaultSheet
	}
	wb := excelize.NewFile()
	if sheet != DefaultSheet {
		if err := wb.SetSheetName(DefaultSheet, sheet); err != nil {
			wb.Close()
			return nil, errors.Wrapf(err, "invalid sheet name %q", sheet)
		}
	}

	header := make([]interface{}, t.NumCols())
	for i, name := range t.Names() {
		header[i] = name
	}
	if err := wb.SetSheetRow(sheet, "A1", &header); err != nil {
		wb.Close()
		return nil, errors.Wrap(err, "failed to write header row")
	}

	columns := t.Columns()
	for r := 0; r < t.NumRows(); r++ {
		row := make([]interface{}, len(columns))
		for c, col := range columns {
			row[c] = col.Value(r)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			wb.Close()
			return nil, errors.Wrap(err, "row out of range")
		}
		if err := wb.SetSheetRow(sheet, cell, &row); err != nil {
			wb.Close()
			return nil, errors.Wrapf(err, "failed to write row %d", r+1)
		}
	}
	return wb, nil
}
