package cache

// Keyer builds cache keys for the two cached pipeline stages.
// Implementations must be deterministic: identical inputs, identical keys.
type Keyer interface {
	// GridKey generates a key for a converted voxel grid.
	// imageHash is the content hash of the source image bytes.
	GridKey(imageHash, method string, opts GridKeyOpts) string

	// ArtifactKey generates a key for a rendered artifact.
	// gridHash is the content hash of the serialized grid.
	ArtifactKey(gridHash string, opts ArtifactKeyOpts) string
}

// GridKeyOpts are the conversion options that affect grid contents.
type GridKeyOpts struct {
	Resolution    int
	MaxHeight     int
	Layers        int
	DepthLevels   int
	EdgeThreshold int
	Shell         bool
}

// ArtifactKeyOpts are the render options that affect artifact contents.
type ArtifactKeyOpts struct {
	Format    string
	MaxPoints int
}

// DefaultKeyer is the standard key scheme.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// GridKey generates a key for a converted voxel grid.
func (k *DefaultKeyer) GridKey(imageHash, method string, opts GridKeyOpts) string {
	return hashKey("grid", imageHash, method, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(gridHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", gridHash, opts)
}
