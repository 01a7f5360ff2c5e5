package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/flip/fluid"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the complete simulation state for replay.
type Snapshot struct {
	Version int   `json:"version"`
	Tick    int32 `json:"tick"`

	NumX     int     `json:"num_x"`
	NumY     int     `json:"num_y"`
	CellSize float32 `json:"cell_size"`

	Container ContainerState `json:"container"`
	Params    fluid.Params   `json:"params"`

	Particles []ParticleState  `json:"particles"`
	Obstacles []fluid.Obstacle `json:"obstacles,omitempty"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// ContainerState is the serialized form of fluid.Container.
type ContainerState struct {
	Shape   string  `json:"shape"`
	CenterX float32 `json:"center_x,omitempty"`
	CenterY float32 `json:"center_y,omitempty"`
	Radius  float32 `json:"radius,omitempty"`
}

// ParticleState holds one particle's position and velocity.
type ParticleState struct {
	X  float32 `json:"x"`
	Y  float32 `json:"y"`
	VX float32 `json:"vx"`
	VY float32 `json:"vy"`
}

// CaptureSnapshot copies the solver state at tick.
func CaptureSnapshot(s *fluid.Solver, tick int32) *Snapshot {
	g := s.Grid()
	c := s.Container()
	p := s.Particles()

	snap := &Snapshot{
		Version:   SnapshotVersion,
		Tick:      tick,
		NumX:      g.NumX,
		NumY:      g.NumY,
		CellSize:  g.H,
		Container: ContainerState{Shape: c.Shape.String(), CenterX: c.CenterX, CenterY: c.CenterY, Radius: c.Radius},
		Params:    s.Params(),
		Particles: make([]ParticleState, p.Len()),
		Obstacles: append([]fluid.Obstacle(nil), s.Obstacles()...),
	}
	for k := range snap.Particles {
		snap.Particles[k] = ParticleState{X: p.X[k], Y: p.Y[k], VX: p.VX[k], VY: p.VY[k]}
	}
	return snap
}

// Restore loads the snapshot into s. The grid is reconfigured when its
// dimensions differ.
func (snap *Snapshot) Restore(s *fluid.Solver) error {
	if snap.Version != SnapshotVersion {
		return fmt.Errorf("snapshot version %d, want %d", snap.Version, SnapshotVersion)
	}

	container, err := snap.Container.container()
	if err != nil {
		return err
	}
	g := s.Grid()
	if g.NumX != snap.NumX || g.NumY != snap.NumY || g.H != snap.CellSize {
		// Box first so a circle sized for the new grid validates.
		if err := s.SetContainer(fluid.BoxContainer()); err != nil {
			return err
		}
		if err := s.Reconfigure(snap.NumX, snap.NumY, snap.CellSize); err != nil {
			return fmt.Errorf("restore grid: %w", err)
		}
	}
	if err := s.SetContainer(container); err != nil {
		return fmt.Errorf("restore container: %w", err)
	}
	if err := s.SetParams(snap.Params); err != nil {
		return fmt.Errorf("restore params: %w", err)
	}
	s.SetObstacles(snap.Obstacles)

	n := len(snap.Particles)
	x, y := make([]float32, n), make([]float32, n)
	vx, vy := make([]float32, n), make([]float32, n)
	for k, ps := range snap.Particles {
		x[k], y[k], vx[k], vy[k] = ps.X, ps.Y, ps.VX, ps.VY
	}
	if err := s.SetParticles(x, y, vx, vy); err != nil {
		return fmt.Errorf("restore particles: %w", err)
	}
	return nil
}

func (cs ContainerState) container() (fluid.Container, error) {
	switch cs.Shape {
	case "", fluid.ContainerBox.String():
		return fluid.BoxContainer(), nil
	case fluid.ContainerCircle.String():
		return fluid.CircleContainer(cs.CenterX, cs.CenterY, cs.Radius), nil
	default:
		return fluid.Container{}, fmt.Errorf("unknown container shape %q", cs.Shape)
	}
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	// Build filename
	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		// Sanitize bookmark type for filename
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}
