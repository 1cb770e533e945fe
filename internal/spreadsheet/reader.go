package spreadsheet

import (
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/parikshasetu/exam-platform/internal/models"
	appErrors "github.com/parikshasetu/exam-platform/pkg/errors"
)

// firstSheetRows returns the data rows of the first sheet, header excluded.
func firstSheetRows(r io.Reader) ([][]string, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidWorkbook.Code, appErrors.ErrInvalidWorkbook.Status, appErrors.ErrInvalidWorkbook.Message)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidWorkbook, "workbook has no sheets")
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidWorkbook.Code, appErrors.ErrInvalidWorkbook.Status, "failed to read rows")
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[1:], nil
}

// ReadStudents reads student rows. Rows with no values at all are dropped;
// rows missing an email are returned so the caller can count them as skipped.
func ReadStudents(r io.Reader, layout StudentLayout) ([]models.StudentRow, error) {
	rows, err := firstSheetRows(r)
	if err != nil {
		return nil, err
	}

	students := make([]models.StudentRow, 0, len(rows))
	for i, row := range rows {
		student := models.StudentRow{
			Row:      i + 2,
			FullName: strings.TrimSpace(cell(row, layout.Name)),
			Email:    strings.TrimSpace(cell(row, layout.Email)),
			Password: strings.TrimSpace(cell(row, layout.Password)),
		}
		if student.FullName == "" && student.Email == "" && student.Password == "" {
			continue
		}
		students = append(students, student)
	}
	return students, nil
}

// ParseQuestions reads question rows. Rows with empty text are skipped, an
// unknown correct letter falls back to A and marks that are not a positive
// number are left unset.
func ParseQuestions(r io.Reader, layout QuestionLayout) ([]models.QuestionInput, error) {
	rows, err := firstSheetRows(r)
	if err != nil {
		return nil, err
	}

	questions := make([]models.QuestionInput, 0, len(rows))
	for _, row := range rows {
		text := strings.TrimSpace(cell(row, layout.Text))
		if text == "" {
			continue
		}
		questions = append(questions, models.QuestionInput{
			Text:          text,
			OptionA:       cell(row, layout.OptionA),
			OptionB:       cell(row, layout.OptionB),
			OptionC:       cell(row, layout.OptionC),
			OptionD:       cell(row, layout.OptionD),
			CorrectOption: NormalizeOption(cell(row, layout.Correct)),
			Marks:         ParseMarks(cell(row, layout.Marks)),
		})
	}
	return questions, nil
}

// NormalizeOption upper-cases a correct-option letter, defaulting to A.
func NormalizeOption(raw string) string {
	opt := strings.ToUpper(strings.TrimSpace(raw))
	if models.ValidOption(opt) {
		return opt
	}
	return models.OptionA
}

// ParseMarks accepts integer or decimal text ("5", "5.0") and truncates it.
// Empty, unparsable or non-positive values yield nil.
func ParseMarks(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	marks := int(f)
	if marks <= 0 {
		return nil
	}
	return &marks
}
