package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestGradeCommand(t *testing.T) {
	out, err := execute(t, "grade", "45", "50")
	require.NoError(t, err)
	assert.Equal(t, "A\n", out)

	_, err = execute(t, "grade", "1", "0")
	assert.Error(t, err)

	_, err = execute(t, "grade", "x", "10")
	assert.Error(t, err)
}

func TestTemplateThenParseQuestions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.xlsx")

	out, err := execute(t, "template", "questions", "-o", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "wrote "))

	out, err = execute(t, "parse", "questions", path)
	require.NoError(t, err)

	var questions []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &questions))
	require.Len(t, questions, 1)
	assert.Equal(t, "What is 2 + 2?", questions[0]["text"])
	assert.Equal(t, "B", questions[0]["correct_option"])
}

func TestTemplateThenParseStudents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "students.xlsx")

	_, err := execute(t, "template", "students", "-o", path)
	require.NoError(t, err)

	out, err := execute(t, "parse", "students", path)
	require.NoError(t, err)
	assert.Contains(t, out, "student@example.com")
}

func TestUnknownTemplate(t *testing.T) {
	_, err := execute(t, "template", "teachers", "-o", filepath.Join(t.TempDir(), "x.xlsx"))
	assert.Error(t, err)
}
