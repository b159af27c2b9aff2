package manifest

import (
	"time"

	"github.com/google/uuid"

	"github.com/ivlev/shotmaker/internal/engine"
)

const Version = "1"

type Status string

const (
	StatusPlanned Status = "planned"
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
)

// Manifest records a run: every planned or produced artifact in capture order
type Manifest struct {
	Version   string     `yaml:"version"`
	RunID     string     `yaml:"run_id"`
	Started   time.Time  `yaml:"started"`
	Finished  time.Time  `yaml:"finished,omitempty"`
	Scale     int        `yaml:"scale"`
	OutputDir string     `yaml:"output_dir"`
	Artifacts []Artifact `yaml:"artifacts"`
}

// Artifact is one job and, after a run, what came of it
type Artifact struct {
	Index     int    `yaml:"index"`
	Subject   string `yaml:"subject"`
	Light     string `yaml:"light"`
	Camera    string `yaml:"camera"`
	Tracking  string `yaml:"tracking"`
	File      string `yaml:"file"`
	Status    Status `yaml:"status"`
	ErrorKind string `yaml:"error_kind,omitempty"`
	Error     string `yaml:"error,omitempty"`
	Attempts  int    `yaml:"attempts,omitempty"`
	Visible   *bool  `yaml:"visible,omitempty"`
}

func newManifest(scale int, outputDir string) *Manifest {
	return &Manifest{
		Version:   Version,
		RunID:     uuid.NewString(),
		Started:   time.Now(),
		Scale:     scale,
		OutputDir: outputDir,
	}
}

func fromJob(j engine.Job) Artifact {
	return Artifact{
		Index:    j.Index,
		Subject:  j.Subject.Name,
		Light:    j.Light.Name,
		Camera:   j.Camera.Camera.Name(),
		Tracking: j.Camera.Tracking.String(),
		File:     j.FileName(),
	}
}

// FromPlan lists the jobs a run would capture, without running it.
func FromPlan(jobs []engine.Job, scale int, outputDir string) *Manifest {
	m := newManifest(scale, outputDir)
	for _, j := range jobs {
		a := fromJob(j)
		a.Status = StatusPlanned
		m.Artifacts = append(m.Artifacts, a)
	}
	return m
}

// FromReport records the outcome of a finished or interrupted run.
func FromReport(r *engine.Report, scale int, outputDir string) *Manifest {
	m := newManifest(scale, outputDir)
	m.Started = r.Started
	m.Finished = r.Finished
	for _, res := range r.Results {
		a := fromJob(res.Job)
		a.Attempts = res.Attempts
		if res.Err != nil {
			a.Status = StatusFailed
			a.ErrorKind = res.Err.KindName()
			a.Error = res.Err.Err.Error()
		} else {
			a.Status = StatusOK
			visible := res.Visible
			a.Visible = &visible
		}
		m.Artifacts = append(m.Artifacts, a)
	}
	return m
}

// Files lists the artifact file names with the given status, in capture order.
func (m *Manifest) Files(s Status) []string {
	var files []string
	for _, a := range m.Artifacts {
		if a.Status == s {
			files = append(files, a.File)
		}
	}
	return files
}

// Count returns how many artifacts have the given status.
func (m *Manifest) Count(s Status) int {
	n := 0
	for _, a := range m.Artifacts {
		if a.Status == s {
			n++
		}
	}
	return n
}
