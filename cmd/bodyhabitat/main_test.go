package main

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/carbocation/microbiogeo/habitat"
)

const sampleMap = "#SampleID\tENV_MATTER\tDescription\n" +
	"S1\tENVO:feces\tstool\n" +
	"S2\tENVO:saliva\tspit\n" +
	"S3\tENVO:sebum\tforehead\n"

func writeInput(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "map.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestRunInsertsColumnBeforeLast(t *testing.T) {
	input := writeInput(t, sampleMap)
	output := filepath.Join(t.TempDir(), "annotated.txt")

	if err := run(input, output, habitat.SourceColumn, habitat.TargetColumn); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}

	expected := "#SampleID\tENV_MATTER\tbody_habitat_basic\tDescription\n" +
		"S1\tENVO:feces\tgut\tstool\n" +
		"S2\tENVO:saliva\toral\tspit\n" +
		"S3\tENVO:sebum\tskin/other\tforehead\n"
	if string(got) != expected {
		t.Errorf("Expected\n%s\ngot\n%s", expected, got)
	}
}

func TestRunUnknownTermWritesNothing(t *testing.T) {
	input := writeInput(t, sampleMap+"S4\tENVO:soil\tdirt\n")
	output := filepath.Join(t.TempDir(), "annotated.txt")

	err := run(input, output, habitat.SourceColumn, habitat.TargetColumn)
	var unknown *habitat.UnknownTermError
	if !errors.As(err, &unknown) {
		t.Fatalf("Expected an UnknownTermError, got %v", err)
	}

	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Errorf("Expected no output file, got %v", err)
	}
}

func TestRunRejectsExistingTarget(t *testing.T) {
	input := writeInput(t, sampleMap)
	output := filepath.Join(t.TempDir(), "annotated.txt")

	if err := run(input, output, habitat.SourceColumn, "Description"); err == nil {
		t.Errorf("Expected an error when the target column already exists")
	}
}

func TestRunKeepsQuotedCommaValues(t *testing.T) {
	input := filepath.Join(t.TempDir(), "map.csv")
	content := "#SampleID,ENV_MATTER,Description\n" +
		"S1,feces,\"stool, day 1\"\n" +
		"S2,saliva,spit\n"
	if err := os.WriteFile(input, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(t.TempDir(), "annotated.csv")

	if err := run(input, output, habitat.SourceColumn, habitat.TargetColumn); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(output)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	expected := [][]string{
		{"#SampleID", "ENV_MATTER", "body_habitat_basic", "Description"},
		{"S1", "feces", "gut", "stool, day 1"},
		{"S2", "saliva", "oral", "spit"},
	}
	if !reflect.DeepEqual(records, expected) {
		t.Errorf("Expected %q, got %q", expected, records)
	}
}
