// Package storage keeps orbit runs on disk. Each run is a directory with
// metadata.json, the config that produced it and the sampled states.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/galdyn/internal/config"
	"github.com/san-kum/galdyn/internal/dynamo"
)

const (
	metadataFile = "metadata.json"
	configFile   = "config.yaml"
	statesFile   = "states.csv"
)

var stateColumns = []string{"x", "y", "z", "vx", "vy", "vz"}

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name,omitempty"`
	Timestamp   time.Time                `json:"timestamp"`
	Integrator  string                   `json:"integrator"`
	Dt          float64                  `json:"dt"`
	Duration    float64                  `json:"duration"`
	Potentials  []config.PotentialConfig `json:"potentials"`
	Friction    bool                     `json:"friction"`
	Steps       int                      `json:"steps"`
	Samples     int                      `json:"samples"`
	EnergyDrift Metric                   `json:"energy_drift"`
	Metrics     Metrics                  `json:"metrics"`
	Errors      []string                 `json:"errors,omitempty"`
}

// Save writes a run and returns its ID.
func (s *Store) Save(cfg *config.Config, result *dynamo.Result) (string, error) {
	now := s.now()
	prefix := cfg.Name
	if prefix == "" {
		prefix = "run"
	}
	runID := fmt.Sprintf("%s_%s", prefix, now.UTC().Format("20060102T150405.000000"))
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := NewMetadata(runID, cfg, result)
	meta.Timestamp = now

	if err := writeFile(filepath.Join(runDir, metadataFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return "", err
	}

	if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
		return "", err
	}

	if err := writeFile(filepath.Join(runDir, statesFile), func(w io.Writer) error {
		return WriteCSV(w, result)
	}); err != nil {
		return "", err
	}

	return runID, nil
}

// NewMetadata summarises a run without touching the disk.
func NewMetadata(id string, cfg *config.Config, result *dynamo.Result) RunMetadata {
	meta := RunMetadata{
		ID:          id,
		Name:        cfg.Name,
		Integrator:  cfg.Integrator,
		Dt:          cfg.Dt,
		Duration:    cfg.Duration,
		Potentials:  cfg.Potentials,
		Friction:    cfg.Friction != nil,
		Steps:       result.StepsTaken,
		Samples:     len(result.States),
		EnergyDrift: Metric(result.EnergyDrift),
		Metrics:     Metrics(result.Metrics),
	}
	for _, err := range result.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}
	return meta
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteCSV writes one row per sample: time followed by the state.
func WriteCSV(w io.Writer, result *dynamo.Result) error {
	cw := csv.NewWriter(w)

	if len(result.States) > 0 {
		header := []string{"time"}
		for i := range result.States[0] {
			if i < len(stateColumns) {
				header = append(header, stateColumns[i])
			} else {
				header = append(header, fmt.Sprintf("x%d", i))
			}
		}
		if err := cw.Write(header); err != nil {
			return err
		}
	}

	row := make([]string, 0, 7)
	for i, st := range result.States {
		row = append(row[:0], strconv.FormatFloat(result.Times[i], 'g', -1, 64))
		for _, v := range st {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// List returns stored runs, oldest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadConfig returns the config a run was produced from.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, configFile))
}

func (s *Store) LoadStates(runID string) ([]dynamo.State, []float64, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses the output of WriteCSV.
func ReadCSV(r io.Reader) ([]dynamo.State, []float64, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return []dynamo.State{}, []float64{}, nil
	}

	states := make([]dynamo.State, 0, len(records)-1)
	times := make([]float64, 0, len(records)-1)
	for i, rec := range records[1:] {
		vals := make([]float64, len(rec))
		for j, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("storage: row %d column %d: %w", i+1, j, err)
			}
			vals[j] = v
		}
		times = append(times, vals[0])
		states = append(states, dynamo.State(vals[1:]))
	}
	return states, times, nil
}
