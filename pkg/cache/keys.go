package cache

// Artifact kinds used in cache keys.
const (
	KindRender  = "render"
	KindPreview = "preview"
)

// ArtifactKeyOpts are the render settings that change an artifact's bytes
// without being part of its inputs.
type ArtifactKeyOpts struct {
	Kind         string  `json:"kind"`
	MaxSize      int     `json:"max_size,omitempty"`
	CameraFactor float64 `json:"camera_factor,omitempty"`
}

// Keyer generates cache keys.
type Keyer interface {
	// ArtifactKey returns the key for an artifact rendered from inputs whose
	// combined hash is inputHash.
	ArtifactKey(inputHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer builds keys of the form "<kind>:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer creates a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ArtifactKey hashes inputHash together with opts.
func (DefaultKeyer) ArtifactKey(inputHash string, opts ArtifactKeyOpts) string {
	if opts.Kind == "" {
		opts.Kind = KindRender
	}
	return hashKey(opts.Kind, inputHash, opts)
}

// ScopedKeyer prefixes another keyer's keys so deployments sharing one
// Redis do not see each other's artifacts.
type ScopedKeyer struct {
	Inner  Keyer
	Prefix string
}

// NewScopedKeyer prefixes inner's keys; a nil inner means DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = DefaultKeyer{}
	}
	return ScopedKeyer{Inner: inner, Prefix: prefix}
}

func (k ScopedKeyer) ArtifactKey(inputHash string, opts ArtifactKeyOpts) string {
	return k.Prefix + k.Inner.ArtifactKey(inputHash, opts)
}
