package model_test

import (
	"encoding/json"
	"testing"

	"github.com/derickschaefer/eqviz/internal/model"
)

func TestTypeDistributionKeepsReceivedOrder(t *testing.T) {
	var d model.TypeDistribution
	in := `{"Valve": 7, "Pump": 3, "Compressor": 1, "Heat Exchanger": 4}`
	if err := json.Unmarshal([]byte(in), &d); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := []string{"Valve", "Pump", "Compressor", "Heat Exchanger"}
	if len(d) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(d))
	}
	for i, name := range want {
		if d[i].Name != name {
			t.Errorf("entry %d: got %q want %q", i, d[i].Name, name)
		}
	}
	if n, ok := d.Get("Pump"); !ok || n != 3 {
		t.Errorf("Get(Pump) = %d %v", n, ok)
	}
	if d.Total() != 15 {
		t.Errorf("Total = %d", d.Total())
	}

	out, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != `{"Valve":7,"Pump":3,"Compressor":1,"Heat Exchanger":4}` {
		t.Errorf("re-encoded order changed: %s", out)
	}
}

func TestTypeDistributionNullAndEmpty(t *testing.T) {
	var rec model.DatasetRecord
	if err := json.Unmarshal([]byte(`{"type_distribution": null}`), &rec); err != nil {
		t.Fatalf("null: %v", err)
	}
	if len(rec.TypeDistribution) != 0 {
		t.Errorf("null should decode empty, got %+v", rec.TypeDistribution)
	}
	if err := json.Unmarshal([]byte(`{"type_distribution": {}}`), &rec); err != nil {
		t.Fatalf("empty: %v", err)
	}
	if len(rec.TypeDistribution) != 0 {
		t.Errorf("{} should decode empty, got %+v", rec.TypeDistribution)
	}
}

func TestTypeDistributionRejectsNonObject(t *testing.T) {
	var d model.TypeDistribution
	if err := json.Unmarshal([]byte(`[1,2]`), &d); err == nil {
		t.Error("expected error for array input")
	}
	if err := json.Unmarshal([]byte(`{"Pump":"many"}`), &d); err == nil {
		t.Error("expected error for non-numeric count")
	}
}

func TestRecordIDAcceptsStringAndNumber(t *testing.T) {
	var recs []model.DatasetRecord
	in := `[{"id": 42}, {"id": "b3c1b5b2-8d0e-4c4f-9f39-2f4f8c0c1a11"}, {"id": null}]`
	if err := json.Unmarshal([]byte(in), &recs); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if recs[0].ID != "42" {
		t.Errorf("numeric id: %q", recs[0].ID)
	}
	if _, ok := recs[0].ID.UUID(); ok {
		t.Error("numeric id should not parse as UUID")
	}
	if u, ok := recs[1].ID.UUID(); !ok || u.String() != "b3c1b5b2-8d0e-4c4f-9f39-2f4f8c0c1a11" {
		t.Errorf("uuid id: %v %v", u, ok)
	}
	if recs[2].ID != "" {
		t.Errorf("null id: %q", recs[2].ID)
	}
}

func TestHistoryLatest(t *testing.T) {
	var empty model.HistoryCollection
	if empty.Latest() != nil {
		t.Error("Latest of empty history should be nil")
	}
	h := model.HistoryCollection{{ID: "2"}, {ID: "1"}}
	if got := h.Latest(); got == nil || got.ID != "2" {
		t.Errorf("Latest = %+v", got)
	}
}

func TestReportLink(t *testing.T) {
	host := "http://127.0.0.1:8000"
	if got := model.ReportLink(host, model.DatasetRecord{}); got != "" {
		t.Errorf("no report should give empty link, got %q", got)
	}
	if got := model.ReportLink(host, model.DatasetRecord{SummaryPDF: "/media/r.pdf"}); got != host+"/media/r.pdf" {
		t.Errorf("relative link: %q", got)
	}
	if got := model.ReportLink(host, model.DatasetRecord{SummaryPDF: "https://cdn.example/r.pdf"}); got != "https://cdn.example/r.pdf" {
		t.Errorf("absolute link: %q", got)
	}
}
