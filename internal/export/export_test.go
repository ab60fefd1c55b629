package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dmaher/rentleads/internal/types"
)

func writeFile(path, data string) error {
	return os.WriteFile(path, []byte(data), 0o644)
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.csv")

	in := []types.PhoneRecord{
		{
			Phone:        "4043342532",
			AgentName:    "John Smith",
			BusinessName: "Acme Realty",
			Addresses:    []string{"123 Main ST", "456 Oak AVE"},
			Units:        2,
		},
		{
			Phone: "7705551234",
			Units: 0,
		},
	}

	if err := WriteCSV(path, in); err != nil {
		t.Fatal(err)
	}
	out, err := ReadCSV(path)
	if err != nil {
		t.Fatal(err)
	}

	if len(out) != len(in) {
		t.Fatalf("got %d records, want %d", len(out), len(in))
	}
	if out[0].Phone != "4043342532" || out[0].AgentName != "John Smith" {
		t.Errorf("first record = %+v", out[0])
	}
	if out[0].Units != 2 || len(out[0].Addresses) != 2 {
		t.Errorf("addresses lost: %+v", out[0])
	}
	if out[1].Phone != "7705551234" || out[1].Units != 0 {
		t.Errorf("second record = %+v", out[1])
	}
}

func TestWriteCSVOverwritesCompletely(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.csv")

	if err := WriteCSV(path, []types.PhoneRecord{
		{Phone: "4043342532"}, {Phone: "7705551234"},
	}); err != nil {
		t.Fatal(err)
	}
	if err := WriteCSV(path, []types.PhoneRecord{{Phone: "4043342532"}}); err != nil {
		t.Fatal(err)
	}

	out, err := ReadCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Errorf("stale rows survived rewrite: %+v", out)
	}
}

func TestReadCSVLegacyManagerColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.csv")
	data := "phone,manager_name,addresses,units\n4043342532,Old Manager,123 Main ST,1\n"
	if err := writeFile(path, data); err != nil {
		t.Fatal(err)
	}

	out, err := ReadCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].AgentName != "Old Manager" {
		t.Errorf("legacy column not mapped: %+v", out)
	}
}

func TestCombineSources(t *testing.T) {
	apartments := []types.PhoneRecord{
		{Phone: "1111111111", BusinessName: "Acme Realty", Addresses: []string{"123 Main ST"}, Units: 1},
		{Phone: "3333333333", AgentName: "Shared Lead", Addresses: []string{"1 Shared WAY"}, Units: 1},
	}
	zillow := []types.PhoneRecord{
		{Phone: "2222222222", AgentName: "Jane Doe", Units: 0},
		{Phone: "3333333333", AgentName: "Other Name", BusinessName: "Zillow Side Co", Addresses: []string{"1 Shared WAY", "2 Extra CT"}, Units: 2},
	}

	out := Combine(apartments, zillow)
	if len(out) != 3 {
		t.Fatalf("got %d records, want 3", len(out))
	}

	byPhone := make(map[string]types.CombinedRecord)
	for _, rec := range out {
		byPhone[rec.Phone] = rec
	}

	if rec := byPhone["1111111111"]; rec.Source != types.SourceApartments {
		t.Errorf("apartments-only source = %q", rec.Source)
	}
	if rec := byPhone["2222222222"]; rec.Source != types.SourceZillow {
		t.Errorf("zillow-only source = %q", rec.Source)
	}

	shared := byPhone["3333333333"]
	if shared.Source != types.SourceBoth {
		t.Errorf("shared source = %q, want both", shared.Source)
	}
	if shared.AgentName != "Shared Lead" {
		t.Errorf("agent = %q, want first non-empty from apartments", shared.AgentName)
	}
	if shared.BusinessName != "Zillow Side Co" {
		t.Errorf("business = %q, want filled from zillow", shared.BusinessName)
	}
	if shared.Units != 2 || len(shared.Addresses) != 2 {
		t.Errorf("union not recomputed: %+v", shared)
	}

	// Output is sorted by phone.
	for i := 1; i < len(out); i++ {
		if out[i-1].Phone > out[i].Phone {
			t.Errorf("output out of order at %d", i)
		}
	}
}

func TestCombineEmptyInputs(t *testing.T) {
	if out := Combine(nil, nil); len(out) != 0 {
		t.Errorf("expected empty combine, got %+v", out)
	}
	out := Combine(nil, []types.PhoneRecord{{Phone: "2222222222"}})
	if len(out) != 1 || out[0].Source != types.SourceZillow {
		t.Errorf("zillow-only combine = %+v", out)
	}
}
