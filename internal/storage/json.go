package storage

import (
	"encoding/json"
	"io"
	"math"

	"github.com/san-kum/galdyn/internal/config"
	"github.com/san-kum/galdyn/internal/dynamo"
)

// Metric is a float64 that encodes NaN and Inf as JSON null.
type Metric float64

func (m Metric) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(m)) || math.IsInf(float64(m), 0) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(m))
}

func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Metric(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Metric(v)
	return nil
}

// Metrics is a metric map with the same null convention.
type Metrics map[string]float64

func (m Metrics) MarshalJSON() ([]byte, error) {
	out := make(map[string]Metric, len(m))
	for k, v := range m {
		out[k] = Metric(v)
	}
	return json.Marshal(out)
}

func (m *Metrics) UnmarshalJSON(data []byte) error {
	var in map[string]Metric
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*m = make(Metrics, len(in))
	for k, v := range in {
		(*m)[k] = float64(v)
	}
	return nil
}

// Export is the single-document JSON form of a run.
type Export struct {
	RunMetadata
	Times  []float64      `json:"times"`
	States []dynamo.State `json:"states"`
}

// WriteJSON writes a run as one indented JSON document.
func WriteJSON(w io.Writer, id string, cfg *config.Config, result *dynamo.Result) error {
	data := Export{
		RunMetadata: NewMetadata(id, cfg, result),
		Times:       result.Times,
		States:      result.States,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// Export writes a stored run in the WriteJSON format.
func (s *Store) Export(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	states, times, err := s.LoadStates(runID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Export{RunMetadata: *meta, Times: times, States: states})
}
