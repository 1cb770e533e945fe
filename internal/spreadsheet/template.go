package spreadsheet

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// StudentTemplate builds the student import workbook. The password column is
// only included for direct account registration.
func StudentTemplate(withPassword bool) ([]byte, error) {
	header := []interface{}{"Full Name", "Email"}
	sample := []interface{}{"John Doe", "student@example.com"}
	if withPassword {
		header = append(header, "Password")
		sample = append(sample, "password123")
	}
	return buildTemplate("Students", header, sample)
}

// QuestionTemplate builds the question import workbook.
func QuestionTemplate() ([]byte, error) {
	header := []interface{}{"Question Text", "Option A", "Option B", "Option C", "Option D",
		"Correct Option (A/B/C/D)", "Marks (Optional)"}
	sample := []interface{}{"What is 2 + 2?", "3", "4", "5", "6", "B", 5}
	return buildTemplate("Questions", header, sample)
}

func buildTemplate(sheet string, header, sample []interface{}) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := file.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if err := file.SetSheetRow(sheet, "A2", &sample); err != nil {
		return nil, fmt.Errorf("write sample row: %w", err)
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
