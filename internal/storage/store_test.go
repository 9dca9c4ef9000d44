package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testMeta() RunMetadata {
	return RunMetadata{
		Model:       "ising",
		Seed:        42,
		Width:       64,
		Height:      64,
		Temperature: 2.269,
		Steps:       123456,
		Duration:    1.5,
		Observables: map[string]float64{
			"magnetization": 0.82,
			"energy":        -1.71,
		},
	}
}

func testSeries() []SeriesPoint {
	return []SeriesPoint{
		{Frame: 0, StepsPerFrame: 1000, Magnetization: 0.5, Energy: -1.0},
		{Frame: 1, StepsPerFrame: 1200, Magnetization: 0.6, Energy: -1.2},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(testMeta(), testSeries())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Model != "ising" {
		t.Errorf("expected model 'ising', got '%s'", meta.Model)
	}
	if meta.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Seed)
	}
	if meta.Observables["magnetization"] != 0.82 {
		t.Errorf("expected magnetization 0.82, got %f", meta.Observables["magnetization"])
	}

	series, err := st.LoadSeries(runID)
	if err != nil {
		t.Fatalf("load series failed: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("expected 2 points, got %d", len(series))
	}
	if series[1].StepsPerFrame != 1200 {
		t.Errorf("expected 1200 steps/frame, got %f", series[1].StepsPerFrame)
	}
	if series[1].Magnetization != 0.6 {
		t.Errorf("expected magnetization 0.6, got %f", series[1].Magnetization)
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if _, err := st.Save(testMeta(), nil); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestStoreFileStructure(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(testMeta(), testSeries())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(dir, runID)
	if _, err := os.Stat(filepath.Join(runDir, "metadata.json")); os.IsNotExist(err) {
		t.Error("metadata.json not created")
	}
	if _, err := os.Stat(filepath.Join(runDir, "series.csv")); os.IsNotExist(err) {
		t.Error("series.csv not created")
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	meta := testMeta()
	meta.ID = "ising_1"
	if err := ExportJSON(&buf, &meta, testSeries()); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"id": "ising_1"`, `"series"`, `"steps_per_frame": 1200`} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %q", want)
		}
	}
}

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportCSV(&buf, testSeries()); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "frame,steps_per_frame,magnetization,energy") {
		t.Error("export missing header")
	}
	if !strings.Contains(out, "1,1200.00,0.600000,-1.200000") {
		t.Errorf("export missing data row, got:\n%s", out)
	}
}
