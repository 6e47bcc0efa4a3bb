package cards

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row is one card assignment read from an import workbook.
type Row struct {
	Line      int    `json:"line"`
	Code      string `json:"code"`
	StudentID int64  `json:"student_id"`
}

var (
	codeHeaders    = []string{"codigo", "código", "code", "tarjeta", "rfid"}
	studentHeaders = []string{"alumno_id", "student_id", "alumno"}
)

// ParseWorkbook reads the first sheet of an .xlsx file. The first row is a
// header naming the card code and student id columns; blank rows are skipped.
func ParseWorkbook(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheets[0])
	}

	codeCol, studentCol := -1, -1
	for i, h := range rows[0] {
		h = strings.ToLower(strings.TrimSpace(h))
		switch {
		case codeCol < 0 && contains(codeHeaders, h):
			codeCol = i
		case studentCol < 0 && contains(studentHeaders, h):
			studentCol = i
		}
	}
	if codeCol < 0 || studentCol < 0 {
		return nil, fmt.Errorf("header must name a card code column and a student id column")
	}

	out := make([]Row, 0, len(rows)-1)
	for i, cols := range rows[1:] {
		line := i + 2
		code := cell(cols, codeCol)
		student := cell(cols, studentCol)
		if code == "" && student == "" {
			continue
		}
		if code == "" {
			return nil, fmt.Errorf("row %d: card code is empty", line)
		}
		id, err := strconv.ParseInt(student, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("row %d: invalid student id %q", line, student)
		}
		out = append(out, Row{Line: line, Code: code, StudentID: id})
	}
	return out, nil
}

func cell(cols []string, i int) string {
	if i >= len(cols) {
		return ""
	}
	return strings.TrimSpace(cols[i])
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
