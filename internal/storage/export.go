package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// ExportData is the JSON export shape for a stored run.
type ExportData struct {
	RunMetadata
	Series []exportPoint `json:"series"`
}

type exportPoint struct {
	Frame         int     `json:"frame"`
	StepsPerFrame float64 `json:"steps_per_frame"`
	Magnetization float64 `json:"magnetization"`
	Energy        float64 `json:"energy"`
}

// ExportJSON writes a run's metadata and series as indented JSON.
func ExportJSON(w io.Writer, meta *RunMetadata, series []SeriesPoint) error {
	data := ExportData{
		RunMetadata: *meta,
		Series:      make([]exportPoint, len(series)),
	}
	for i, p := range series {
		data.Series[i] = exportPoint{
			Frame:         p.Frame,
			StepsPerFrame: p.StepsPerFrame,
			Magnetization: p.Magnetization,
			Energy:        p.Energy,
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// ExportCSV writes a run's series as CSV.
func ExportCSV(w io.Writer, series []SeriesPoint) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(seriesHeader); err != nil {
		return err
	}
	for _, p := range series {
		row := []string{
			strconv.Itoa(p.Frame),
			strconv.FormatFloat(p.StepsPerFrame, 'f', 2, 64),
			strconv.FormatFloat(p.Magnetization, 'f', 6, 64),
			strconv.FormatFloat(p.Energy, 'f', 6, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// ExportSweepCSV writes archived sweep points as CSV, one row per
// temperature with the correlation curve flattened into corr_<d>
// columns.
func ExportSweepCSV(w io.Writer, points []SweepPointRecord) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	maxCorr := 0
	for _, p := range points {
		if len(p.Corr) > maxCorr {
			maxCorr = len(p.Corr)
		}
	}
	header := []string{"temperature", "magnetization", "variance", "susceptibility", "binder"}
	for d := 1; d <= maxCorr; d++ {
		header = append(header, fmt.Sprintf("corr_%d", d))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, p := range points {
		row := []string{
			strconv.FormatFloat(p.Temp, 'f', 4, 64),
			strconv.FormatFloat(p.Mag, 'f', 6, 64),
			strconv.FormatFloat(p.MagVar, 'f', 6, 64),
			strconv.FormatFloat(p.Chi, 'f', 6, 64),
			strconv.FormatFloat(p.Binder, 'f', 6, 64),
		}
		for d := 0; d < maxCorr; d++ {
			if d < len(p.Corr) {
				row = append(row, strconv.FormatFloat(p.Corr[d], 'f', 6, 64))
			} else {
				row = append(row, "")
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return nil
}
