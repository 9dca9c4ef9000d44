package engine_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spinlab-sim/spinlab/internal/engine"
	"github.com/spinlab-sim/spinlab/internal/lattice"
	"github.com/spinlab-sim/spinlab/internal/render"
)

// countingSink records sweep snapshot labels and can be told to fail.
type countingSink struct {
	mu     sync.Mutex
	labels []string
	fail   error
}

func (s *countingSink) Persist(f *render.Frame, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.labels = append(s.labels, label)
	return nil
}

var _ = Describe("RunSweep", func() {
	var (
		ses  *engine.Session
		sink *countingSink
	)

	newSession := func() {
		lat, err := lattice.New(lattice.Spec{Model: lattice.ModelIsing, Width: 8, Height: 8, Seed: 42})
		Expect(err).NotTo(HaveOccurred())
		sink = &countingSink{}
		ses, err = engine.NewSession(lat, engine.Options{
			Temperature: 1,
			Snapshots:   sink,
			Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		})
		Expect(err).NotTo(HaveOccurred())
	}

	BeforeEach(newSession)

	It("visits the configured temperatures in ascending order", func() {
		points, err := ses.RunSweep(context.Background(), engine.SweepConfig{
			Start: 1, End: 2, Step: 1, Samples: 1,
		})
		Expect(err).NotTo(HaveOccurred())

		temps := make([]float64, len(points))
		for i, p := range points {
			temps[i] = p.Temp
		}
		Expect(temps).To(Equal([]float64{1, 2}))
		Expect(ses.State().Temperature()).To(Equal(2.0))
		Expect(ses.State().AnalysisRunning()).To(BeFalse())
	})

	It("includes an end temperature reached through float accumulation", func() {
		points, err := ses.RunSweep(context.Background(), engine.SweepConfig{
			Start: 0.1, End: 0.3, Step: 0.1, Samples: 1,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(points).To(HaveLen(3))
	})

	It("fails fast on invalid configuration without touching state", func() {
		before := ses.State().Temperature()
		bad := []engine.SweepConfig{
			{Start: 1, End: 2, Step: 0, Samples: 1},
			{Start: 1, End: 2, Step: -1, Samples: 1},
			{Start: 3, End: 2, Step: 1, Samples: 1},
			{Start: -1, End: 2, Step: 1, Samples: 1},
			{Start: 1, End: 2, Step: 1, Samples: 0},
			{Start: 1, End: 2, Step: 1, Samples: 1, Dwell: -time.Second},
		}
		for _, cfg := range bad {
			_, err := ses.RunSweep(context.Background(), cfg)
			Expect(err).To(HaveOccurred())
		}
		Expect(ses.State().Temperature()).To(Equal(before))
		Expect(ses.State().AnalysisRunning()).To(BeFalse())
	})

	It("clears the analysis flag even when a snapshot step fails", func() {
		sink.fail = errors.New("sink exploded")
		points, err := ses.RunSweep(context.Background(), engine.SweepConfig{
			Start: 1, End: 2, Step: 1, Samples: 1, Snapshots: true,
		})
		Expect(err).To(MatchError(ContainSubstring("sink exploded")))
		Expect(points).To(BeEmpty())
		Expect(ses.State().AnalysisRunning()).To(BeFalse())
	})

	It("persists one tagged snapshot per temperature when asked", func() {
		_, err := ses.RunSweep(context.Background(), engine.SweepConfig{
			Start: 1, End: 3, Step: 1, Samples: 1, Snapshots: true,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(sink.labels).To(Equal([]string{"T1.000", "T2.000", "T3.000"}))
	})

	It("refuses a second concurrent sweep", func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		done := make(chan error, 1)
		go func() {
			_, err := ses.RunSweep(ctx, engine.SweepConfig{
				Start: 1, End: 2, Step: 1, Samples: 1,
				Dwell: time.Minute,
			})
			done <- err
		}()
		Eventually(ses.State().AnalysisRunning).Should(BeTrue())

		_, err := ses.RunSweep(context.Background(), engine.SweepConfig{
			Start: 1, End: 2, Step: 1, Samples: 1,
		})
		Expect(err).To(MatchError(engine.ErrSweepActive))

		cancel()
		Eventually(done).Should(Receive(MatchError(context.Canceled)))
		Eventually(ses.State().AnalysisRunning).Should(BeFalse())
	})

	It("honors cancellation at every wait boundary", func() {
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan struct{})
		var points []engine.SweepPoint
		var err error
		go func() {
			defer close(done)
			points, err = ses.RunSweep(ctx, engine.SweepConfig{
				Start: 1, End: 5, Step: 1, Samples: 3,
				Gap: time.Minute,
			})
		}()
		Eventually(ses.State().AnalysisRunning).Should(BeTrue())

		cancel()
		Eventually(done, 5*time.Second).Should(BeClosed())
		Expect(err).To(MatchError(context.Canceled))
		Expect(len(points)).To(BeNumerically("<", 5))
		Expect(ses.State().AnalysisRunning()).To(BeFalse())
	})

	It("computes per-point statistics from the sample stream", func() {
		// An all-up lattice so every sample is exactly m = 1.
		var err error
		ses, err = engine.NewSession(lattice.NewIsing(8, 8, 1), engine.Options{
			Temperature: 1,
			Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		})
		Expect(err).NotTo(HaveOccurred())

		points, err := ses.RunSweep(context.Background(), engine.SweepConfig{
			Start: 1, End: 1, Step: 1, Samples: 4,
			Distances: []int{1, 2},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(points).To(HaveLen(1))

		// The hot loop is not running, so every sample sees the same
		// frozen lattice: zero variance, zero susceptibility.
		p := points[0]
		Expect(p.Mag).To(Equal(1.0))
		Expect(p.MagVar).To(BeZero())
		Expect(p.Chi).To(BeZero())
		Expect(p.Corr).To(Equal([]float64{1, 1}))
		Expect(p.Binder).To(BeNumerically("~", 2.0/3.0, 1e-9))
	})
})
