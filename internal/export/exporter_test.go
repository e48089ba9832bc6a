package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rebeliceyang/lazyfilter/internal/models"
)

func testConditions() []models.FilterCondition {
	return []models.FilterCondition{
		{RecordType: "public.task", Field: "subject", Operator: models.OpLike, Value: "%needs, review%"},
		{RecordType: "public.task", Field: "status", Operator: models.OpIn, Value: []string{"Open", "Closed"}, Hidden: true},
		{RecordType: "public.task", Field: "due_date", Operator: models.OpBetween, Value: []any{"2024-01-01", "2024-01-31"}},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, testConditions()); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("Expected 4 rows (header + 3 filters), got %d", len(records))
	}

	if records[0][0] != "Doctype" || records[0][4] != "Hidden" {
		t.Errorf("Unexpected header %v", records[0])
	}
	if records[1][3] != "%needs, review%" {
		t.Errorf("Expected value with comma to survive quoting, got %q", records[1][3])
	}
	if records[2][3] != "Open,Closed" || records[2][4] != "true" {
		t.Errorf("Unexpected membership row %v", records[2])
	}
	if records[3][3] != "2024-01-01,2024-01-31" {
		t.Errorf("Unexpected range row %v", records[3])
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, testConditions()); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"public.task"`) {
		t.Errorf("Expected tuples in output, got %s", buf.String())
	}

	conds, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if len(conds) != 3 {
		t.Fatalf("Expected 3 filters, got %d", len(conds))
	}
	if conds[1].Operator != models.OpIn || !conds[1].Hidden {
		t.Errorf("Unexpected second filter %+v", conds[1])
	}
	list, ok := conds[1].Value.([]any)
	if !ok || len(list) != 2 || list[0] != "Open" {
		t.Errorf("Expected list value, got %#v", conds[1].Value)
	}
}

func TestReadJSONFourElementTuples(t *testing.T) {
	conds, err := ReadJSON(strings.NewReader(`[["public.task", "docstatus", "=", 1]]`))
	if err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if len(conds) != 1 || conds[0].Hidden || conds[0].Value != float64(1) {
		t.Errorf("Unexpected filters %+v", conds)
	}
}

func TestReadJSONRejectsBadTuples(t *testing.T) {
	cases := []string{
		`{"doctype": "x"}`,
		`[["public.task", "subject"]]`,
		`[["public.task", "", "=", 1]]`,
	}
	for _, input := range cases {
		if _, err := ReadJSON(strings.NewReader(input)); err == nil {
			t.Errorf("Expected error for %s", input)
		}
	}
}

func TestExportToFile(t *testing.T) {
	tmpDir := t.TempDir()

	yamlPath := filepath.Join(tmpDir, "filters.yaml")
	if err := ExportToFile(testConditions(), yamlPath); err != nil {
		t.Fatalf("ExportToFile failed: %v", err)
	}
	data, err := os.ReadFile(yamlPath)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if !strings.Contains(string(data), "- - public.task") {
		t.Errorf("Expected YAML tuples, got:\n%s", data)
	}

	jsonPath := filepath.Join(tmpDir, "filters.json")
	if err := ExportToFile(testConditions(), jsonPath); err != nil {
		t.Fatalf("ExportToFile failed: %v", err)
	}
	conds, err := LoadFile(jsonPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if len(conds) != 3 {
		t.Errorf("Expected 3 filters, got %d", len(conds))
	}
}

func TestParseFormat(t *testing.T) {
	if f, _ := ParseFormat("YML"); f != FormatYAML {
		t.Errorf("Expected yaml, got %s", f)
	}
	if f, _ := ParseFormat(""); f != FormatJSON {
		t.Errorf("Expected json default, got %s", f)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("Expected error for xml")
	}
	if FormatForPath("out.csv") != FormatCSV {
		t.Error("Expected csv from extension")
	}
}
