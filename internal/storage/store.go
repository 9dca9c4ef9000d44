// Package storage persists recorded runs as per-run directories and
// archives sweep results in a SQLite database.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Dir returns the store's base directory.
func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID          string             `json:"id"`
	Model       string             `json:"model"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Width       int                `json:"width"`
	Height      int                `json:"height"`
	Temperature float64            `json:"temperature"`
	Weighted    bool               `json:"weighted"`
	Defects     int                `json:"defects"`
	Steps       int64              `json:"steps"`
	Duration    float64            `json:"duration_seconds"`
	Observables map[string]float64 `json:"observables"`
}

// SeriesPoint is one frame's worth of recorded observables.
type SeriesPoint struct {
	Frame         int
	StepsPerFrame float64
	Magnetization float64
	Energy        float64
}

var seriesHeader = []string{"frame", "steps_per_frame", "magnetization", "energy"}

// Save writes one run directory: metadata.json plus series.csv.
func (s *Store) Save(meta RunMetadata, series []SeriesPoint) (string, error) {
	runID := fmt.Sprintf("%s_%d", meta.Model, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "series.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write(seriesHeader); err != nil {
		return "", err
	}
	for _, p := range series {
		row := []string{
			strconv.Itoa(p.Frame),
			strconv.FormatFloat(p.StepsPerFrame, 'f', 2, 64),
			strconv.FormatFloat(p.Magnetization, 'f', 6, 64),
			strconv.FormatFloat(p.Energy, 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadSeries(runID string) ([]SeriesPoint, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "series.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	series := make([]SeriesPoint, 0, len(records))
	for i, record := range records {
		if i == 0 || len(record) < 4 {
			continue // header or short row
		}
		frame, err := strconv.Atoi(record[0])
		if err != nil {
			continue
		}
		spf, _ := strconv.ParseFloat(record[1], 64)
		mag, _ := strconv.ParseFloat(record[2], 64)
		energy, _ := strconv.ParseFloat(record[3], 64)
		series = append(series, SeriesPoint{
			Frame:         frame,
			StepsPerFrame: spf,
			Magnetization: mag,
			Energy:        energy,
		})
	}

	return series, nil
}
