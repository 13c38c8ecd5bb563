package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/rgra/examiner-check/internal/examiner/domain"
	apperrors "github.com/rgra/examiner-check/pkg/errors"
)

const (
	linesSheet   = "Lines"
	summarySheet = "Summary"
)

// Row returns a record's cells in LineRecordHeader order.
func Row(l domain.LineRecord) []string {
	return []string{
		l.ApplicationNumber,
		l.DocumentNumber,
		l.FileName,
		strconv.Itoa(l.LineNumber),
		l.Text,
		strconv.Itoa(l.LineRatio),
		strconv.FormatBool(l.IsExaminerName),
		l.OCRExaminer,
		l.RegistryExaminer,
		strconv.Itoa(l.Ratio),
	}
}

// WriteCSV writes a header row followed by one row per record.
func WriteCSV(w io.Writer, lines []domain.LineRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(domain.LineRecordHeader); err != nil {
		return err
	}
	for _, l := range lines {
		if err := cw.Write(Row(l)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX saves the records to a workbook at path with a Lines sheet and a
// Summary sheet.
func WriteXLSX(path string, r *domain.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", linesSheet); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(linesSheet)
	if err != nil {
		return err
	}

	header := make([]interface{}, len(domain.LineRecordHeader))
	for i, h := range domain.LineRecordHeader {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}
	for i, l := range r.Lines {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			l.ApplicationNumber,
			l.DocumentNumber,
			l.FileName,
			l.LineNumber,
			l.Text,
			l.LineRatio,
			l.IsExaminerName,
			l.OCRExaminer,
			l.RegistryExaminer,
			l.Ratio,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	s := r.Summary
	summary := [][2]interface{}{
		{"run_id", r.RunID},
		{"root", r.Root},
		{"applications", s.Applications},
		{"documents", s.Documents},
		{"ocr_found", s.OCRFound},
		{"registry_found", s.RegistryFound},
		{"exact_matches", s.ExactMatches},
		{"name_in_text", s.NameInText},
	}
	for i, kv := range summary {
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &[]interface{}{kv[0], kv[1]}); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}

// CSVFile writes the line table to a CSV file when the run completes.
type CSVFile struct {
	Path string
}

func (s *CSVFile) Name() string { return "csv" }

func (s *CSVFile) DocumentDone(context.Context, string, domain.DocumentEntry, []domain.LineRecord) error {
	return nil
}

func (s *CSVFile) RunDone(_ context.Context, r *domain.Report) error {
	f, err := os.Create(s.Path)
	if err != nil {
		return apperrors.IO("csv create", err)
	}
	if err := WriteCSV(f, r.Lines); err != nil {
		f.Close()
		return apperrors.IO("csv write", err)
	}
	if err := f.Close(); err != nil {
		return apperrors.IO("csv close", err)
	}
	return nil
}

// XLSXFile writes the line table to a workbook when the run completes.
type XLSXFile struct {
	Path string
}

func (s *XLSXFile) Name() string { return "xlsx" }

func (s *XLSXFile) DocumentDone(context.Context, string, domain.DocumentEntry, []domain.LineRecord) error {
	return nil
}

func (s *XLSXFile) RunDone(_ context.Context, r *domain.Report) error {
	if err := WriteXLSX(s.Path, r); err != nil {
		return apperrors.IO("xlsx write", err)
	}
	return nil
}
