package spreadsheet

// StudentLayout maps student import fields to zero-based column indexes.
// A negative index means the column is absent.
type StudentLayout struct {
	Name     int
	Email    int
	Password int
}

// QuestionLayout maps question import fields to zero-based column indexes.
type QuestionLayout struct {
	Text    int
	OptionA int
	OptionB int
	OptionC int
	OptionD int
	Correct int
	Marks   int
}

// DefaultStudentLayout is name, email, then an optional password.
var DefaultStudentLayout = StudentLayout{Name: 0, Email: 1, Password: 2}

// DefaultQuestionLayout is text, four options, correct letter, optional marks.
var DefaultQuestionLayout = QuestionLayout{Text: 0, OptionA: 1, OptionB: 2, OptionC: 3, OptionD: 4, Correct: 5, Marks: 6}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
