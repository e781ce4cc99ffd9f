package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "owid.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRun_Fixture(t *testing.T) {
	var out bytes.Buffer

	code := run(&out, filepath.Join("..", "..", "data", "mock", "owid_covid_sample.csv"))

	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "Records: 69 rows, 7 locations")
	assert.Contains(t, out.String(), "All validations passed.")
}

func TestRun_Duplicates(t *testing.T) {
	path := writeCSV(t, "location,date,total_cases,new_cases,total_deaths,new_deaths\n"+
		"India,2021-03-01,100,10,1,0\n"+
		"India,2021-03-01,100,10,1,0\n")
	var out bytes.Buffer

	assert.Equal(t, 1, run(&out, path))
	assert.Contains(t, out.String(), "row 2 duplicates row 1: India on 2021-03-01")
}

func TestRun_BadDate(t *testing.T) {
	path := writeCSV(t, "location,date,total_cases,new_cases,total_deaths,new_deaths\n"+
		"India,03/01/2021,100,10,1,0\n")
	var out bytes.Buffer

	assert.Equal(t, 1, run(&out, path))
	assert.Contains(t, out.String(), "Date parsing")
	assert.NotContains(t, out.String(), "Cleaning invariants")
}

func TestRun_MissingFile(t *testing.T) {
	var out bytes.Buffer

	assert.Equal(t, 1, run(&out, filepath.Join(t.TempDir(), "nope.csv")))
	assert.Contains(t, out.String(), "FATAL: open CSV")
}
