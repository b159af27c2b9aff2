package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ivlev/shotmaker/internal/capture"
	"github.com/ivlev/shotmaker/internal/logging"
)

// Options is everything a run needs, resolved to scene handles.
type Options struct {
	Templates   []string
	LightGroups [][]Toggler
	Lights      []Toggler

	Cameras              []CameraSpec
	UseOnlyPrimaryCamera bool
	AllLookAtTarget      bool

	Target Target

	Scale int
	// Settle is waited after each capture is acknowledged, before the
	// scene changes again.
	Settle  time.Duration
	Retries int

	// Only restricts the run to jobs with these file names, keeping their
	// original indexes. Empty means every job.
	Only map[string]bool
}

// Sequencer walks subjects × light configurations × cameras and captures
// every combination with exactly that combination switched on.
type Sequencer struct {
	host     Host
	capturer Capturer
	opts     Options
	log      *logging.Logger

	state    *ActivationState
	subjects []Subject
	lights   []LightConfiguration
	cameras  []CameraConfiguration

	ready bool
	ran   bool
}

func New(host Host, capturer Capturer, opts Options, log *logging.Logger) *Sequencer {
	return &Sequencer{
		host:     host,
		capturer: capturer,
		opts:     opts,
		log:      log.With("component", "sequencer"),
		state:    NewActivationState(),
	}
}

// Setup builds the subject pool, the light and camera configurations and
// orients tracking cameras. All configuration errors are found before the
// first instance is created.
func (s *Sequencer) Setup() error {
	if s.ready {
		return nil
	}
	if s.opts.Scale < 1 {
		return fmt.Errorf("%w: scale %d", ErrBadOptions, s.opts.Scale)
	}
	if s.opts.Settle < 0 || s.opts.Retries < 0 {
		return fmt.Errorf("%w: settle %s, retries %d", ErrBadOptions, s.opts.Settle, s.opts.Retries)
	}
	if err := validateTemplates(s.host, s.opts.Templates); err != nil {
		return err
	}
	lights, needPlaceholder, err := resolveLights(s.opts.LightGroups, s.opts.Lights)
	if err != nil {
		return err
	}
	cams, err := resolveCameras(s.opts.Cameras, s.host, s.opts.UseOnlyPrimaryCamera, s.opts.AllLookAtTarget, s.opts.Target)
	if err != nil {
		return err
	}

	s.subjects, err = buildPool(s.host, s.opts.Templates, s.opts.Target.Position, s.state)
	if err != nil {
		return err
	}

	if needPlaceholder {
		ph := s.host.PlaceholderLight()
		lights = []LightConfiguration{{Name: "", Lights: []Toggler{ph}}}
	}
	for _, lc := range lights {
		s.state.DeactivateAll(lc.Lights)
	}
	s.lights = lights

	applyCameras(cams, s.state)
	s.cameras = cams.configs
	orient(s.cameras)

	s.ready = true
	s.log.Info("setup complete",
		"subjects", len(s.subjects),
		"light_configurations", len(s.lights),
		"cameras", len(s.cameras),
		"jobs", len(s.Jobs()),
		"target", s.opts.Target.Position.String(),
	)
	return nil
}

// Jobs lists every job of the run in capture order without touching the scene.
// Setup must have succeeded.
func (s *Sequencer) Jobs() []Job {
	jobs := make([]Job, 0, len(s.subjects)*len(s.lights)*len(s.cameras))
	index := 0
	for _, subj := range s.subjects {
		for _, lc := range s.lights {
			for _, cc := range s.cameras {
				job := Job{Index: index, Subject: subj, Light: lc, Camera: cc}
				index++
				if s.selected(job) {
					jobs = append(jobs, job)
				}
			}
		}
	}
	return jobs
}

func (s *Sequencer) selected(job Job) bool {
	return len(s.opts.Only) == 0 || s.opts.Only[job.FileName()]
}

func (s *Sequencer) State() *ActivationState { return s.state }

// Run captures every job once, in order. Capture failures are recorded in
// the report and do not stop the run. A cancelled ctx stops the run at the
// next suspension point with everything it switched on switched off again,
// except a single camera, which is left on.
func (s *Sequencer) Run(ctx context.Context) (*Report, error) {
	if s.ran {
		return nil, ErrAlreadyRan
	}
	if err := s.Setup(); err != nil {
		return nil, err
	}
	s.ran = true

	report := &Report{Started: time.Now()}
	defer func() { report.Finished = time.Now() }()

	multi := len(s.cameras) > 1
	index := 0

	for _, subj := range s.subjects {
		s.state.Activate(subj.Handle)

		for _, lc := range s.lights {
			s.state.ActivateAll(lc.Lights)

			for _, cc := range s.cameras {
				job := Job{Index: index, Subject: subj, Light: lc, Camera: cc}
				index++
				if !s.selected(job) {
					continue
				}

				if multi {
					s.state.Activate(cc.Camera)
				}
				res, err := s.shoot(ctx, job)
				if err == nil {
					report.Results = append(report.Results, res)
					err = sleep(ctx, s.opts.Settle)
				}
				if multi {
					s.state.Deactivate(cc.Camera)
				}

				if err != nil {
					s.state.DeactivateAll(lc.Lights)
					s.state.Deactivate(subj.Handle)
					s.log.Warn("run interrupted", "job", job.FileName(), "done", len(report.Results), "error", err)
					return report, err
				}
			}

			s.state.DeactivateAll(lc.Lights)
		}

		s.state.Deactivate(subj.Handle)
	}

	s.log.Info("run complete", "jobs", len(report.Results), "failed", len(report.Failed()))
	return report, nil
}

// shoot captures one job, retrying I/O failures up to Retries times. The
// error is non-nil only when ctx ended.
func (s *Sequencer) shoot(ctx context.Context, job Job) (JobResult, error) {
	name := job.FileName()
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return JobResult{}, err
		}
		s.log.Debug("capture", "job", job.Index, "file", name, "attempt", attempt)

		res, err := s.capturer.Capture(ctx, name, s.opts.Scale).Wait(ctx)
		if err != nil {
			return JobResult{}, err
		}
		if res.Err == nil {
			return JobResult{Job: job, Path: res.Path, Visible: res.Visible, Attempts: attempt}, nil
		}

		if errors.Is(res.Err, capture.ErrIOFailure) && attempt <= s.opts.Retries {
			s.log.Warn("capture failed, retrying", "file", name, "attempt", attempt, "error", res.Err)
			if err := sleep(ctx, s.opts.Settle); err != nil {
				return JobResult{}, err
			}
			continue
		}

		cerr := newCaptureError(name, attempt, res.Err)
		s.log.Error("capture failed", "file", name, "kind", cerr.KindName(), "attempts", attempt, "error", res.Err)
		return JobResult{Job: job, Path: res.Path, Attempts: attempt, Err: cerr}, nil
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// JobResult is the outcome of one job.
type JobResult struct {
	Job      Job
	Path     string
	Visible  bool
	Attempts int
	Err      *CaptureError
}

type Report struct {
	Results  []JobResult
	Started  time.Time
	Finished time.Time
}

func (r *Report) Failed() []JobResult {
	var failed []JobResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

func (r *Report) Duration() time.Duration { return r.Finished.Sub(r.Started) }

// Files returns the artifact names in capture order.
func (r *Report) Files() []string {
	names := make([]string, len(r.Results))
	for i, res := range r.Results {
		names[i] = res.Job.FileName()
	}
	return names
}
