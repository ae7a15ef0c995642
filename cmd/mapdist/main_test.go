package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/carbocation/microbiogeo"
	"github.com/carbocation/microbiogeo/distmat"
	"github.com/carbocation/microbiogeo/mapping"
)

const datedMap = "#SampleID\tpH\tCollected\tDescription\n" +
	"A\t6.5\t2008-01-16\tfirst\n" +
	"B\t7.0\t2008-01-18\tsecond\n" +
	"C\tNA\t2008-01-20\tthird\n" +
	"D\t8.0\t\tfourth\n"

func parseMap(t *testing.T, s string) *mapping.Map {
	t.Helper()

	records, _, err := microbiogeo.ParseRecords([]byte(s))
	if err != nil {
		t.Fatal(err)
	}
	m, err := mapping.Parse(records)
	if err != nil {
		t.Fatal(err)
	}

	return m
}

func TestFromNumericColumn(t *testing.T) {
	dm, err := fromColumn(parseMap(t, datedMap), "pH", false)
	if err != nil {
		t.Fatal(err)
	}

	if dm.Size() != 3 {
		t.Fatalf("Expected C to be dropped, got %v", dm.IDs())
	}
	if d, _ := dm.Distance("A", "D"); math.Abs(d-1.5) > 1e-12 {
		t.Errorf("Expected 1.5, got %v", d)
	}
}

func TestFromDateColumn(t *testing.T) {
	dm, err := fromColumn(parseMap(t, datedMap), "Collected", false)
	if err != nil {
		t.Fatal(err)
	}

	if dm.Size() != 3 {
		t.Fatalf("Expected D to be dropped, got %v", dm.IDs())
	}
	if d, _ := dm.Distance("A", "C"); math.Abs(d-4) > 1e-9 {
		t.Errorf("Expected 4 days, got %v", d)
	}
}

func TestDatesFlagParsesCompactDates(t *testing.T) {
	a, err := parseValue("20061218", true)
	if err != nil {
		t.Fatal(err)
	}
	b, err := parseValue("20061126", true)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs((a-b)-22) > 1e-9 {
		t.Errorf("Expected 22 days, got %v", a-b)
	}

	if v, err := parseValue("20061218", false); err != nil || v != 20061218 {
		t.Errorf("Expected a plain number, got %v (%v)", v, err)
	}
}

func TestFromColumnErrors(t *testing.T) {
	m := parseMap(t, datedMap)

	if _, err := fromColumn(m, "Description", false); err == nil {
		t.Errorf("Expected an error for a text column")
	}
	if _, err := fromColumn(m, "Missing", false); err == nil {
		t.Errorf("Expected an error for an absent column")
	}
}

func TestRunWritesMatrix(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "map.txt")
	output := filepath.Join(dir, "ph_dm.txt")
	if err := os.WriteFile(input, []byte(datedMap), 0644); err != nil {
		t.Fatal(err)
	}

	if err := run(input, "pH", output, false); err != nil {
		t.Fatal(err)
	}

	dm, err := distmat.Read(output, nil)
	if err != nil {
		t.Fatal(err)
	}
	if d, _ := dm.Distance("A", "B"); math.Abs(d-0.5) > 1e-12 {
		t.Errorf("Expected 0.5, got %v", d)
	}
}
