package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gilchrisn/leiden-runner/pkg/evaluation"
)

// Report describes one clustering run
type Report struct {
	RunID      string             `json:"run_id" yaml:"run_id"`
	Dataset    string             `json:"dataset,omitempty" yaml:"dataset,omitempty"`
	Input      string             `json:"input,omitempty" yaml:"input,omitempty"`
	Output     string             `json:"output,omitempty" yaml:"output,omitempty"`
	Engine     string             `json:"engine" yaml:"engine"`
	Objective  string             `json:"objective" yaml:"objective"`
	Resolution float64            `json:"resolution" yaml:"resolution"`
	Seed       int64              `json:"seed" yaml:"seed"`
	Policy     string             `json:"policy" yaml:"policy"`
	Directed   bool               `json:"directed" yaml:"directed"`
	Rounds     int                `json:"rounds" yaml:"rounds"`
	Converged  bool               `json:"converged" yaml:"converged"`
	Quality    float64            `json:"quality" yaml:"quality"`
	Vertices   int                `json:"vertices" yaml:"vertices"`
	Edges      int                `json:"edges" yaml:"edges"`
	Clusters   int                `json:"clusters" yaml:"clusters"`
	StartedAt  time.Time          `json:"started_at" yaml:"started_at"`
	Duration   time.Duration      `json:"duration_ns" yaml:"duration"`
	Evaluation *evaluation.Report `json:"evaluation,omitempty" yaml:"evaluation,omitempty"`
}

// WriteReport writes r as YAML when path ends in .yaml or .yml and as
// indented JSON otherwise
func (fw *FileWriter) WriteReport(path string, r *Report) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(r)
	default:
		data, err = json.MarshalIndent(r, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	err = WriteAtomic(path, func(w *bufio.Writer) error {
		_, err := w.Write(data)
		return err
	})
	if err != nil {
		return err
	}
	fw.logger.Info().Str("path", path).Str("run_id", r.RunID).Msg("Run report written")
	return nil
}
