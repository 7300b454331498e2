package alerts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cloudcost-guard/internal/domain"
	"github.com/cloudcost-guard/internal/logging"
)

// Store persists alert settings as a JSON file. Invalid or missing data
// loads as the defaults; invalid updates are rejected and never written.
type Store struct {
	mu       sync.RWMutex
	path     string
	settings domain.AlertSettings
	logger   *logging.Logger
}

// NewStore creates a store for path and loads it
func NewStore(path string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Store{path: path, logger: logger}
	s.Load()
	return s
}

// Load (re)reads the file, reverting to defaults when it is missing,
// unreadable or fails validation.
func (s *Store) Load() domain.AlertSettings {
	settings := s.read()

	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
	return settings
}

func (s *Store) read() domain.AlertSettings {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Failed to read alert settings %s: %v", s.path, err)
		}
		return domain.DefaultAlertSettings()
	}

	var settings domain.AlertSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		s.logger.Warn("Ignoring malformed alert settings %s: %v", s.path, err)
		return domain.DefaultAlertSettings()
	}
	if verr := Validate(settings); verr != nil {
		s.logger.Warn("Ignoring invalid alert settings %s: %s", s.path, verr.Message)
		return domain.DefaultAlertSettings()
	}
	return settings
}

// Get returns the current settings
func (s *Store) Get() domain.AlertSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Update validates and persists new settings. It returns the settings in
// effect afterwards; on rejection those are the previous settings and the
// file is untouched. Unchanged settings are not rewritten.
func (s *Store) Update(next domain.AlertSettings) (domain.AlertSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if verr := Validate(next); verr != nil {
		return s.settings, verr
	}
	if next == s.settings {
		return s.settings, nil
	}
	if err := s.write(next); err != nil {
		return s.settings, err
	}

	s.logger.WithFields(logging.Fields{
		"budget":   next.Budget,
		"warning":  next.WarningThreshold,
		"critical": next.CriticalThreshold,
	}).Info("Alert settings updated")
	s.settings = next
	return next, nil
}

// UpdateInput is Update for raw form values
func (s *Store) UpdateInput(budget, warning, critical string) (domain.AlertSettings, error) {
	next, verr := ValidateInput(budget, warning, critical)
	if verr != nil {
		return s.Get(), verr
	}
	return s.Update(next)
}

// Status evaluates spend against the current settings
func (s *Store) Status(spend float64) domain.AlertStatus {
	return Evaluate(spend, s.Get())
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.path
}

func (s *Store) write(settings domain.AlertSettings) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create settings directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}
