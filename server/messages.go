package server

import (
	"github.com/chazu/stackvm/manifest"
	"github.com/chazu/stackvm/pkg/trace"
)

// Procedure paths.
const (
	AssembleProcedure = "/stackvm.v1.AssemblerService/Assemble"
	ExecuteProcedure  = "/stackvm.v1.VMService/Execute"
	ListRunsProcedure = "/stackvm.v1.VMService/ListRuns"
)

// AssembleRequest carries assembly source.
type AssembleRequest struct {
	Name   string `json:"name,omitempty"`
	Source string `json:"source"`
}

// AssembleResponse is the assembled program, or every error found in the
// source when Success is false.
type AssembleResponse struct {
	Success     bool              `json:"success"`
	Binary      []byte            `json:"binary,omitempty"`
	Log         []trace.LogRecord `json:"log,omitempty"`
	Listing     string            `json:"listing,omitempty"`
	Diagnostics []Diagnostic      `json:"diagnostics,omitempty"`
}

// Diagnostic is one assembly error.
type Diagnostic struct {
	Line    int    `json:"line"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ExecuteRequest runs either source or a binary program. Exactly one of
// Source and Binary must be set.
type ExecuteRequest struct {
	Source   string             `json:"source,omitempty"`
	Binary   []byte             `json:"binary,omitempty"`
	Memory   []manifest.Segment `json:"memory,omitempty"`
	Lo       int64              `json:"lo"`
	Hi       int64              `json:"hi"`
	MaxSteps int                `json:"maxSteps,omitempty"`
}

// ExecuteResponse is the outcome of a successful run.
type ExecuteResponse struct {
	Cells []trace.CellRecord `json:"cells"`
	Stack []int64            `json:"stack"`
	Steps int                `json:"steps"`
	RunID string             `json:"runId,omitempty"`
}

// ListRunsRequest selects recent runs.
type ListRunsRequest struct {
	Limit int `json:"limit,omitempty"`
}

// RunSummary describes one recorded run.
type RunSummary struct {
	ID            string `json:"id"`
	CreatedAt     string `json:"createdAt"`
	ProgramSHA256 string `json:"programSha256"`
	Instructions  int    `json:"instructions"`
	Steps         int    `json:"steps"`
	Error         string `json:"error,omitempty"`
}

// ListRunsResponse lists recorded runs, newest first.
type ListRunsResponse struct {
	Runs []RunSummary `json:"runs"`
}
