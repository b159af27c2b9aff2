package engine

import (
	"context"
	"fmt"

	"github.com/ivlev/shotmaker/internal/capture"
	"github.com/ivlev/shotmaker/internal/scene"
)

// Toggler is a scene object the sequencer switches on and off.
type Toggler interface {
	Name() string
	SetActive(active bool)
}

// Camera is a toggler that can also be pointed at a position.
type Camera interface {
	Toggler
	LookAt(p scene.Vec3)
}

// Host is the scene the sequencer drives.
type Host interface {
	// Instantiate places a copy of the named template at pos, parented the
	// same way as the target. The returned instance may start active.
	Instantiate(template string, pos scene.Vec3) (Toggler, error)
	// HasTemplate reports an error for a template Instantiate would reject.
	HasTemplate(template string) error
	PrimaryCamera() (Camera, error)
	// Cameras lists every camera in the scene, listed in the run or not.
	Cameras() []Camera
	// PlaceholderLight creates a light that adds nothing to the frame.
	PlaceholderLight() Toggler
}

// Capturer is the capture primitive.
type Capturer interface {
	Capture(ctx context.Context, name string, scale int) *capture.Pending
}

// Subject is one pooled template instance.
type Subject struct {
	Name   string
	Handle Toggler
}

// LightConfiguration is a set of lights switched together. Name is the
// first light's name, or empty.
type LightConfiguration struct {
	Name   string
	Lights []Toggler
}

// TrackMode says how a camera is oriented before the run.
type TrackMode int

const (
	TrackOff   TrackMode = iota // keep the camera's own orientation
	TrackPoint                  // look at Tracking.Point
)

// Tracking says whether a camera is pointed at a fixed position before the run.
type Tracking struct {
	Mode  TrackMode
	Point scene.Vec3
}

func (t Tracking) String() string {
	if t.Mode == TrackPoint {
		return "track " + t.Point.String()
	}
	return "off"
}

// CameraConfiguration is a camera taking part in the run.
type CameraConfiguration struct {
	Camera   Camera
	Tracking Tracking
}

// CameraSpec is a camera as listed by the operator.
type CameraSpec struct {
	Camera       Camera
	LookAtTarget bool
}

// Target is where subjects are placed; tracking cameras look at
// Position+Offset.
type Target struct {
	Position scene.Vec3
	Offset   scene.Vec3
}

func (t Target) LookPoint() scene.Vec3 { return t.Position.Add(t.Offset) }

// Job is one (subject, light configuration, camera) combination.
type Job struct {
	Index   int
	Subject Subject
	Light   LightConfiguration
	Camera  CameraConfiguration
}

// FileName is {subject}_{light}_{camera}.png.
func (j Job) FileName() string {
	return fmt.Sprintf("%s_%s_%s.png", j.Subject.Name, j.Light.Name, j.Camera.Camera.Name())
}
