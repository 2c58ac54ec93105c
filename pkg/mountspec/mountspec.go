// Package mountspec loads a declarative mount plan — a YAML document
// naming passthrough roots, an overlay with an ordered mount table, a
// multiplexer with tagged slots, and/or archive files — and builds the
// corresponding *vfs.VFS tree from it, so that the harha CLI doesn't
// require callers to write Go.
package mountspec

import (
	"github.com/pkg/errors"

	"github.com/sorvi-platform/harha/internal/hostfs"
	"github.com/sorvi-platform/harha/pkg/encoding"
	"github.com/sorvi-platform/harha/pkg/logging"
	"github.com/sorvi-platform/harha/pkg/vfs"
	"github.com/sorvi-platform/harha/pkg/vfs/archive"
	"github.com/sorvi-platform/harha/pkg/vfs/multiplex"
	"github.com/sorvi-platform/harha/pkg/vfs/overlay"
	"github.com/sorvi-platform/harha/pkg/vfs/passthrough"
)

// Mount names one entry of an overlay's ordered mount table.
type Mount struct {
	// Path is the absolute mount point within the overlay.
	Path string `yaml:"path"`
	// Plan describes the VFS mounted at Path.
	Plan Plan `yaml:"plan"`
}

// Slot names one tagged entry of a multiplexer.
type Slot struct {
	// Tag is the multiplexer slot index this entry occupies.
	Tag int `yaml:"tag"`
	// Plan describes the VFS mounted at Tag.
	Plan Plan `yaml:"plan"`
}

// Plan is one node of a mount plan. Exactly one of its fields should be
// set, per its Kind; Build reports an error for an unrecognized or
// ambiguous Kind.
type Plan struct {
	// Kind selects which of the fields below this node uses:
	// "passthrough", "overlay", "multiplex", or "archive".
	Kind string `yaml:"kind"`

	// Path is the host directory (passthrough) or archive file (archive)
	// this node exposes.
	Path string `yaml:"path,omitempty"`

	// Mounts is the overlay's ordered mount table, used when Kind is
	// "overlay".
	Mounts []Mount `yaml:"mounts,omitempty"`

	// Slots is the multiplexer's tagged slot table, used when Kind is
	// "multiplex".
	Slots []Slot `yaml:"slots,omitempty"`
}

// Load reads and strictly decodes the mount plan at path.
func Load(path string) (*Plan, error) {
	var plan Plan
	if err := encoding.LoadAndUnmarshalYAML(path, &plan); err != nil {
		return nil, errors.Wrap(err, "unable to load mount plan")
	}
	return &plan, nil
}

// Build constructs a *vfs.VFS tree from the plan, relative to root (the
// host directory against which any relative Path in the plan is
// resolved). logger, if non-nil, is attached (as a per-kind sublogger) to
// every backend the plan constructs; the VFS facades themselves get no
// logger.
func (p *Plan) Build(root *hostfs.Handle, logger *logging.Logger) (*vfs.VFS, error) {
	switch p.Kind {
	case "passthrough":
		return p.buildPassthrough(root, logger)
	case "archive":
		return p.buildArchive(root, logger)
	case "overlay":
		return p.buildOverlay(root, logger)
	case "multiplex":
		return p.buildMultiplex(root, logger)
	default:
		return nil, errors.Errorf("mountspec: unrecognized plan kind %q", p.Kind)
	}
}

func (p *Plan) buildPassthrough(root *hostfs.Handle, logger *logging.Logger) (*vfs.VFS, error) {
	if p.Path == "" {
		return nil, errors.New("mountspec: passthrough plan requires path")
	}
	backend, err := passthrough.NewPath(root, p.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to mount passthrough root %q", p.Path)
	}
	backend.WithLogger(logger.Sublogger("passthrough"))
	return vfs.NewAuto(backend), nil
}

func (p *Plan) buildArchive(root *hostfs.Handle, logger *logging.Logger) (*vfs.VFS, error) {
	if p.Path == "" {
		return nil, errors.New("mountspec: archive plan requires path")
	}
	backend, err := archive.NewPath(root, p.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open archive %q", p.Path)
	}
	backend.WithLogger(logger.Sublogger("archive"))
	return vfs.NewAuto(backend), nil
}

func (p *Plan) buildOverlay(root *hostfs.Handle, logger *logging.Logger) (*vfs.VFS, error) {
	backend := overlay.New()
	backend.WithLogger(logger.Sublogger("overlay"))
	for _, m := range p.Mounts {
		child, err := m.Plan.Build(root, logger)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to build mount %q", m.Path)
		}
		if err := backend.Mount(child, m.Path); err != nil {
			return nil, errors.Wrapf(err, "unable to mount %q", m.Path)
		}
	}
	return vfs.NewAuto(backend), nil
}

func (p *Plan) buildMultiplex(root *hostfs.Handle, logger *logging.Logger) (*vfs.VFS, error) {
	n := 0
	for _, s := range p.Slots {
		if s.Tag+1 > n {
			n = s.Tag + 1
		}
	}
	backend := multiplex.New(n)
	backend.WithLogger(logger.Sublogger("multiplex"))
	for _, s := range p.Slots {
		child, err := s.Plan.Build(root, logger)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to build slot %d", s.Tag)
		}
		if err := backend.Mount(s.Tag, child); err != nil {
			return nil, errors.Wrapf(err, "unable to mount slot %d", s.Tag)
		}
	}
	return vfs.NewAuto(backend), nil
}
