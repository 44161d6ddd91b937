package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/leiden-runner/pkg/driver"
	"github.com/gilchrisn/leiden-runner/pkg/evaluation"
	"github.com/gilchrisn/leiden-runner/pkg/ingest"
	"github.com/gilchrisn/leiden-runner/pkg/models"
	"github.com/gilchrisn/leiden-runner/pkg/objective"
	"github.com/gilchrisn/leiden-runner/pkg/pipeline"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Defaults fill in request fields that the client leaves out
type Defaults struct {
	Objective    string
	Resolution   float64
	Seed         int64
	Iterations   int
	MaxRounds    int
	Engine       string
	OneIndexed   bool
	MaxBodyBytes int64
}

// Handlers contains HTTP request handlers
type Handlers struct {
	pipeline *pipeline.Pipeline
	defaults Defaults
}

// NewHandlers creates new API handlers
func NewHandlers(p *pipeline.Pipeline, defaults Defaults) *Handlers {
	return &Handlers{pipeline: p, defaults: defaults}
}

// ClusterRequest is the body of POST /cluster. Omitted parameters take the
// server defaults.
type ClusterRequest struct {
	Edges       []models.RawEdge[int64] `json:"edges"`
	IDs         []int64                 `json:"ids,omitempty"`
	Weights     []float64               `json:"weights,omitempty"`
	Objective   string                  `json:"objective,omitempty"`
	Resolution  *float64                `json:"resolution,omitempty"`
	Seed        *int64                  `json:"seed,omitempty"`
	Iterations  *int                    `json:"iterations,omitempty"`
	MaxRounds   *int                    `json:"max_rounds,omitempty"`
	Directed    bool                    `json:"directed,omitempty"`
	Engine      string                  `json:"engine,omitempty"`
	ZeroIndexed *bool                   `json:"zero_indexed,omitempty"`
	// Truth holds ground-truth labels in row order
	Truth []int64 `json:"truth,omitempty"`
}

// ClusterResponse is the data of a successful POST /cluster
type ClusterResponse struct {
	RunID      string                    `json:"run_id"`
	Engine     string                    `json:"engine"`
	Objective  string                    `json:"objective"`
	Rows       []models.ResultRow[int64] `json:"rows"`
	Vertices   int                       `json:"vertices"`
	Edges      int                       `json:"edges"`
	Clusters   int                       `json:"clusters"`
	Rounds     int                       `json:"rounds"`
	Converged  bool                      `json:"converged"`
	Quality    float64                   `json:"quality"`
	DurationMS int64                     `json:"duration_ms"`
	Evaluation *evaluation.Report        `json:"evaluation,omitempty"`
}

// EvaluateRequest is the body of POST /evaluate
type EvaluateRequest struct {
	Truth     []int64 `json:"truth"`
	Predicted []int64 `json:"predicted"`
}

// HealthCheck reports service status
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   Version,
	}
	WriteSuccessResponse(w, r, "Service is healthy", health)
}

// EngineInfo describes what one engine can optimise
type EngineInfo struct {
	Name       string   `json:"name"`
	Objectives []string `json:"objectives"`
	Directed   []string `json:"directed"`
}

// ListObjectives lists the objectives and what each engine supports
func (h *Handlers) ListObjectives(w http.ResponseWriter, r *http.Request) {
	engines := h.pipeline.Engines()
	var infos []EngineInfo
	for _, name := range engines.Names() {
		eng, _ := engines.Get(name)
		info := EngineInfo{Name: name, Objectives: []string{}, Directed: []string{}}
		for _, objName := range objective.Names {
			o, _ := objective.Parse(objName, 1)
			if eng.Supports(o, false) == nil {
				info.Objectives = append(info.Objectives, objName)
			}
			if eng.Supports(o, true) == nil {
				info.Directed = append(info.Directed, objName)
			}
		}
		infos = append(infos, info)
	}

	WriteSuccessResponse(w, r, "Objectives retrieved", map[string]interface{}{
		"objectives":     objective.Names,
		"engines":        infos,
		"default_engine": h.defaults.Engine,
	})
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if h.defaults.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.defaults.MaxBodyBytes)
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// options resolves the run options of a request against the defaults
func (h *Handlers) options(req *ClusterRequest) (pipeline.Options, error) {
	name := req.Objective
	if name == "" {
		name = h.defaults.Objective
	}
	resolution := h.defaults.Resolution
	if req.Resolution != nil {
		resolution = *req.Resolution
	}
	o, err := objective.Parse(name, resolution)
	if err != nil {
		return pipeline.Options{}, err
	}

	opts := pipeline.Options{
		Objective:  o,
		Engine:     h.defaults.Engine,
		Seed:       h.defaults.Seed,
		Policy:     driver.Policy{Iterations: h.defaults.Iterations, MaxRounds: h.defaults.MaxRounds},
		Directed:   req.Directed,
		OneIndexed: h.defaults.OneIndexed,
	}
	if req.Engine != "" {
		opts.Engine = req.Engine
	}
	if req.Seed != nil {
		opts.Seed = *req.Seed
	}
	if req.Iterations != nil {
		opts.Policy.Iterations = *req.Iterations
	}
	if req.MaxRounds != nil {
		opts.Policy.MaxRounds = *req.MaxRounds
	}
	if req.ZeroIndexed != nil {
		opts.OneIndexed = !*req.ZeroIndexed
	}
	return opts, nil
}

// Cluster runs a clustering job synchronously
func (h *Handlers) Cluster(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	var req ClusterRequest
	if err := h.decode(w, r, &req); err != nil {
		WriteErrorResponse(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Edges) == 0 {
		WriteErrorResponse(w, r, http.StatusBadRequest, "Invalid request body", errors.New("no edges supplied"))
		return
	}

	opts, err := h.options(&req)
	if err != nil {
		WriteErrorResponse(w, r, http.StatusBadRequest, "Invalid objective", err)
		return
	}

	pr := pipeline.Request{Edges: req.Edges, IDs: req.IDs, Weights: req.Weights}
	if req.Truth != nil {
		pr.Truth = &ingest.Labels{Values: req.Truth}
	}

	res, err := h.pipeline.Cluster(r.Context(), pr, opts)
	if err != nil {
		logger.Error().Err(err).Str("kind", pipeline.Classify(err).String()).Msg("Clustering failed")
		WriteErrorResponse(w, r, statusFor(err), "Clustering failed", err)
		return
	}

	WriteSuccessResponse(w, r, fmt.Sprintf("Found %d clusters", res.Clusters), ClusterResponse{
		RunID:      res.RunID,
		Engine:     res.Engine,
		Objective:  res.Objective,
		Rows:       res.Rows,
		Vertices:   res.Vertices,
		Edges:      res.Edges,
		Clusters:   res.Clusters,
		Rounds:     res.Rounds,
		Converged:  res.Converged,
		Quality:    res.Quality,
		DurationMS: res.Duration.Milliseconds(),
		Evaluation: res.Evaluation,
	})
}

// Evaluate compares two labellings
func (h *Handlers) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := h.decode(w, r, &req); err != nil {
		WriteErrorResponse(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	report, err := evaluation.Compare(req.Truth, req.Predicted)
	if err != nil {
		WriteErrorResponse(w, r, http.StatusBadRequest, "Evaluation failed", err)
		return
	}
	WriteSuccessResponse(w, r, "Evaluation completed", report)
}

// statusFor maps input errors to 400 and algorithm errors to 422
func statusFor(err error) int {
	if pipeline.Classify(err) == pipeline.KindInput {
		return http.StatusBadRequest
	}
	return http.StatusUnprocessableEntity
}
