package storage

import (
	"appero/internal/models"
	"appero/internal/providers"
	"appero/internal/structures"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
)

var ErrCorruptState = errors.New("state file is corrupt")

const corruptSuffix = ".corrupt"

// StateStore keeps the engine document in one JSON file, written atomically
// through a temp file. Compression is applied on write when enabled and
// detected on read, so toggling the setting never strands existing state.
type StateStore struct {
	path       string
	compress   bool
	compressor CompressorInterface
	logger     providers.Logger
	metrics    providers.MetricsProviderInterface
}

func NewStateStore(conf *structures.Config, compressor CompressorInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) StateStoreInterface {
	return &StateStore{
		path:       conf.Persistence.FilePath,
		compress:   conf.Persistence.Compress,
		compressor: compressor,
		logger:     logger,
		metrics:    metrics,
	}
}

// Load returns the stored document. A missing file yields defaults and no
// error. A damaged file is moved aside and defaults are returned together
// with an error wrapping ErrCorruptState.
func (s *StateStore) Load() (*models.PersistedState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.NewPersistedState(), nil
		}
		return models.NewPersistedState(), fmt.Errorf("read state: %w", err)
	}

	state, err := s.decode(data)
	if err != nil {
		s.quarantine()
		return models.NewPersistedState(), fmt.Errorf("%w: %s", ErrCorruptState, err)
	}
	return state, nil
}

func (s *StateStore) decode(data []byte) (*models.PersistedState, error) {
	if IsCompressed(data) {
		raw, err := s.compressor.Decompress(data)
		if err != nil {
			return nil, err
		}
		data = raw
	}

	var state models.PersistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if state.Version > models.StateVersion {
		return nil, fmt.Errorf("unsupported state version %d", state.Version)
	}
	state.Normalize()
	return &state, nil
}

func (s *StateStore) quarantine() {
	target := s.path + corruptSuffix
	if err := os.Rename(s.path, target); err != nil {
		s.logger.Errorf(providers.TypeApp, "Failed to move corrupt state file aside: %s", err)
		return
	}
	s.logger.Warnf(providers.TypeApp, "Corrupt state file moved to %s", target)
}

func (s *StateStore) Save(state *models.PersistedState) error {
	start := time.Now()
	defer func() {
		s.metrics.ObservePersistenceDuration(time.Since(start))
	}()

	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if s.compress {
		data, err = s.compressor.Compress(data)
		if err != nil {
			return err
		}
	}

	if err = os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}

	tmpFile := s.path + ".tmp"
	file, err := os.OpenFile(tmpFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, s.path)
}

func (s *StateStore) Delete() error {
	_ = os.Remove(s.path + ".tmp")
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
