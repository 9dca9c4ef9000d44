package render

import (
	"fmt"
	"image"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// snapshotScale is the pixel size of one lattice site in persisted
// images; terminal lattices are small, so blow them up.
const snapshotScale = 4

// PNGSink persists frames as PNG files in a directory, created on first
// use.
type PNGSink struct {
	Dir string
}

func (s PNGSink) Persist(f *Frame, label string) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	name := fmt.Sprintf("snap_%s_%d.png", sanitizeLabel(label), time.Now().UnixNano())
	file, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return err
	}
	defer file.Close()
	return png.Encode(file, f.Image(snapshotScale))
}

func sanitizeLabel(label string) string {
	if label == "" {
		return "frame"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		}
		return '-'
	}, label)
}

// Recorder assembles live frames into an animated GIF.
type Recorder struct {
	frames []*image.Paletted
	delays []int
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Add appends a frame at the given delay in hundredths of a second.
func (r *Recorder) Add(f *Frame, delay int) {
	if delay < 1 {
		delay = 1
	}
	r.frames = append(r.frames, f.Paletted(snapshotScale))
	r.delays = append(r.delays, delay)
}

func (r *Recorder) Len() int { return len(r.frames) }

// Save writes the recording and resets the recorder. Saving an empty
// recording is a no-op.
func (r *Recorder) Save(path string) error {
	if len(r.frames) == 0 {
		return nil
	}
	anim := gif.GIF{LoopCount: 0, Image: r.frames, Delay: r.delays}
	r.frames = nil
	r.delays = nil

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gif.EncodeAll(f, &anim)
}
