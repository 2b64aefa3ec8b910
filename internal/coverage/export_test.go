package coverage

import (
	"bytes"
	"encoding/csv"
	"reflect"
	"testing"
)

func TestWriteGapCSV(t *testing.T) {
	activities, team, rows := gapFixture()
	res := AnalyzeGap(activities, team, rows)

	var buf bytes.Buffer
	if err := WriteGapCSV(&buf, res); err != nil {
		t.Fatalf("write: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}

	want := [][]string{
		{GapTitleHeader, "Registered Nurse", "Licensed Practical Nurse", "Health Care Assistant"},
		{"Assessment", "", "", ""},
		{"Vital signs", "Y", "LC", "N"},
		{"Wound assessment", "N", "N", "N"},
		{"", "", "", ""},
		{"Medication", "", "", ""},
		{"IV push", "Y", "N", "N"},
		{"Oral medication", "Y", "Y", "LC"},
		{"", "", "", ""},
	}
	if !reflect.DeepEqual(records, want) {
		t.Fatalf("unexpected csv:\n%v", records)
	}
}

func TestWriteGapCSVNil(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteGapCSV(&buf, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected empty output, got %q", buf.String())
	}
}
