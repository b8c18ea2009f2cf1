package payroll

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ImportRow is one line of a line-item spreadsheet.
type ImportRow struct {
	EmployeeID string `csv:"employee_id"`
	Kind       string `csv:"kind"`
	Name       string `csv:"name"`
	Type       string `csv:"type"`
	Value      string `csv:"value"`
	Class      string `csv:"class"`
	Category   string `csv:"category"`
}

// ParsedItem is a row that passed validation, with its sheet row number.
type ParsedItem struct {
	Row  int
	Item payroll.EmployeeLineItem
}

// RowError reports a row that could not be imported.
type RowError struct {
	Row int
	Err error
}

// Importer reads recurring earnings and deductions from .xlsx or .csv files.
// Untagged deductions are classified by the keyword rules at import time.
type Importer struct {
	classifier *Classifier
}

func NewImporter(classifier *Classifier) *Importer {
	return &Importer{classifier: classifier}
}

func (im *Importer) Parse(filename string, r io.Reader) ([]ParsedItem, []RowError, error) {
	var (
		rows []ImportRow
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		rows, err = readXLSX(r)
	case ".csv":
		rows, err = readCSV(r)
	default:
		return nil, nil, fmt.Errorf("%w: unsupported file type %q, use .xlsx or .csv", payroll.ErrInvalidImportFile, filepath.Ext(filename))
	}
	if err != nil {
		return nil, nil, err
	}

	var (
		items  []ParsedItem
		failed []RowError
	)
	for i, row := range rows {
		// Row 1 is the header.
		rowNum := i + 2
		item, err := im.parseRow(row)
		if err != nil {
			failed = append(failed, RowError{Row: rowNum, Err: err})
			continue
		}
		items = append(items, ParsedItem{Row: rowNum, Item: item})
	}
	return items, failed, nil
}

func (im *Importer) parseRow(row ImportRow) (payroll.EmployeeLineItem, error) {
	employeeID := strings.TrimSpace(row.EmployeeID)
	fail := func(reason string, err error) (payroll.EmployeeLineItem, error) {
		return payroll.EmployeeLineItem{}, &payroll.ComputationError{EmployeeID: employeeID, Reason: reason, Err: err}
	}

	if employeeID == "" {
		return fail("employee_id is empty", nil)
	}
	kind := payroll.ItemKind(strings.ToLower(strings.TrimSpace(row.Kind)))
	if !kind.IsValid() {
		return fail(fmt.Sprintf("kind %q must be earning or deduction", row.Kind), nil)
	}
	name := strings.TrimSpace(row.Name)
	if name == "" {
		return fail("name is empty", nil)
	}
	itemType := payroll.ItemType(strings.ToLower(strings.TrimSpace(row.Type)))
	if !itemType.IsValid() {
		return fail(fmt.Sprintf("type %q must be fixed or percent", row.Type), nil)
	}
	value, err := decimal.NewFromString(strings.TrimSpace(row.Value))
	if err != nil {
		return fail(fmt.Sprintf("value %q is not numeric", row.Value), payroll.ErrInvalidLineItem)
	}
	if value.IsNegative() {
		return fail(fmt.Sprintf("value %s is negative", value), payroll.ErrInvalidLineItem)
	}

	item := payroll.LineItem{Name: name, Type: itemType, Value: value}
	class := payroll.DeductionClass(strings.ToLower(strings.TrimSpace(row.Class)))
	category := strings.TrimSpace(row.Category)

	if kind == payroll.KindEarning {
		if class != "" || category != "" {
			return fail("earnings cannot carry a deduction class", nil)
		}
	} else {
		if class != "" && !class.IsValid() {
			return fail(fmt.Sprintf("class %q must be legal or special", row.Class), nil)
		}
		item.Class = class
		item.LegalCategory = category
		item = im.classifier.Tag(item)
	}

	return payroll.EmployeeLineItem{EmployeeID: employeeID, Kind: kind, Item: item}, nil
}

func readCSV(r io.Reader) ([]ImportRow, error) {
	var rows []ImportRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("%w: %w", payroll.ErrInvalidImportFile, err)
	}
	return rows, nil
}

func readXLSX(r io.Reader) ([]ImportRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", payroll.ErrInvalidImportFile, err)
	}
	defer file.Close()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", payroll.ErrInvalidImportFile)
	}
	sheetRows, err := file.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", payroll.ErrInvalidImportFile, err)
	}
	if len(sheetRows) == 0 {
		return nil, nil
	}

	index := make(map[string]int, len(sheetRows[0]))
	for i, h := range sheetRows[0] {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"employee_id", "kind", "name", "type", "value"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", payroll.ErrInvalidImportFile, required)
		}
	}

	cell := func(row []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	rows := make([]ImportRow, 0, len(sheetRows)-1)
	for _, row := range sheetRows[1:] {
		rows = append(rows, ImportRow{
			EmployeeID: cell(row, "employee_id"),
			Kind:       cell(row, "kind"),
			Name:       cell(row, "name"),
			Type:       cell(row, "type"),
			Value:      cell(row, "value"),
			Class:      cell(row, "class"),
			Category:   cell(row, "category"),
		})
	}
	return rows, nil
}
