// Package modelstore resolves the named model artifacts to files, loading an
// existing artifact or synthesizing and persisting a placeholder.
package modelstore

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/water-leak-service/internal/domain"
	"github.com/couchcryptid/water-leak-service/internal/model"
	"github.com/couchcryptid/water-leak-service/internal/observability"
)

// Name is a logical model identifier.
type Name string

const (
	LeakModel   Name = "leak_model"
	DemandModel Name = "demand_model"
)

// kinds is the artifact kind each name must hold.
var kinds = map[Name]model.Kind{
	LeakModel:   model.KindLogisticRegression,
	DemandModel: model.KindMeanRegressor,
}

var (
	// ErrStorage wraps directory and file IO failures.
	ErrStorage = errors.New("model storage")
	// ErrCorrupt wraps artifacts that cannot be decoded or fail validation.
	ErrCorrupt = errors.New("corrupt model artifact")
	// ErrUnknownModel is returned for names other than LeakModel and DemandModel.
	ErrUnknownModel = errors.New("unknown model")
)

// Models is the immutable result of the startup initialization phase.
type Models struct {
	Leak   *model.Artifact
	Demand *model.Artifact
}

// Store maps model names to artifact files under a directory.
type Store struct {
	dir     string
	schema  domain.Schema
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics

	mu  sync.Mutex
	rng *rand.Rand
}

// Option customizes a Store.
type Option func(*Store)

// WithRand sets the random source used for placeholder synthesis.
func WithRand(rng *rand.Rand) Option {
	return func(s *Store) { s.rng = rng }
}

// WithClock sets the clock that stamps new artifacts.
func WithClock(c clockwork.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// New creates a Store rooted at dir. Nothing is touched on disk until Resolve.
func New(dir string, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Store {
	s := &Store{
		dir:     dir,
		schema:  domain.FeatureSchema,
		clock:   clockwork.NewRealClock(),
		logger:  logger,
		metrics: metrics,
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the artifact file location for a model name.
func (s *Store) Path(name Name) string {
	return filepath.Join(s.dir, string(name)+".json")
}

// Resolve loads the artifact for name, or creates and persists a placeholder
// when no file exists yet. Once the file exists, Resolve is a pure load.
func (s *Store) Resolve(name Name) (*model.Artifact, error) {
	if _, ok := kinds[name]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create model dir: %w", ErrStorage, err)
	}

	path := s.Path(name)
	a, err := s.load(name, path)
	switch {
	case err == nil:
		s.logger.Info("model loaded", "model", name, "path", path)
		s.metrics.ModelResolutions.WithLabelValues(string(name), "loaded").Inc()
		return a, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	s.logger.Info("model not found, creating placeholder", "model", name, "path", path)
	a, err = s.synthesize(name)
	if err != nil {
		return nil, err
	}
	if err := s.write(path, a); err != nil {
		return nil, err
	}
	s.logger.Info("model saved", "model", name, "path", path)
	s.metrics.ModelResolutions.WithLabelValues(string(name), "created").Inc()
	return a, nil
}

// ResolveModels resolves both artifacts, leak model first.
func (s *Store) ResolveModels() (Models, error) {
	leak, err := s.Resolve(LeakModel)
	if err != nil {
		return Models{}, err
	}
	demand, err := s.Resolve(DemandModel)
	if err != nil {
		return Models{}, err
	}
	return Models{Leak: leak, Demand: demand}, nil
}

func (s *Store) load(name Name, path string) (*model.Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: open %s: %w", ErrStorage, path, err)
	}
	defer f.Close()

	a, err := model.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, path, err)
	}
	if err := a.Validate(s.schema); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, path, err)
	}
	if a.Name != string(name) || a.Kind != kinds[name] {
		return nil, fmt.Errorf("%w: %s: holds %s artifact %q, want %s artifact %q",
			ErrCorrupt, path, a.Kind, a.Name, kinds[name], name)
	}
	return a, nil
}

func (s *Store) synthesize(name Name) (*model.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if name == LeakModel {
		return model.NewPlaceholderClassifier(string(name), s.schema, s.rng, now)
	}
	return model.NewPlaceholderRegressor(string(name), s.schema, s.rng, now)
}

// write persists through a temp file and rename; a partially written
// artifact is never visible at path.
func (s *Store) write(path string, a *model.Artifact) error {
	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", ErrStorage, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if err := model.Encode(tmp, a); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %s: %w", ErrStorage, path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrStorage, tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: rename to %s: %w", ErrStorage, path, err)
	}
	return nil
}
