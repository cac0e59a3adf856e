package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"connectrpc.com/connect"

	"github.com/chazu/stackvm/pkg/asm"
	"github.com/chazu/stackvm/pkg/bytecode"
	"github.com/chazu/stackvm/pkg/runstore"
	"github.com/chazu/stackvm/pkg/trace"
	"github.com/chazu/stackvm/vm"
)

// runOutcome is what a worker hands back for one execution.
type runOutcome struct {
	res *vm.Result
	err error
}

// Execute runs a program against the supplied initial memory and reports
// the cells in [Lo, Hi].
func (s *Server) Execute(
	ctx context.Context,
	req *connect.Request[ExecuteRequest],
) (*connect.Response[ExecuteResponse], error) {
	msg := req.Msg

	instrs, err := decodeProgram(msg)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if msg.MaxSteps < 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("maxSteps must not be negative"))
	}

	initial := vm.Memory{}
	for _, seg := range msg.Memory {
		initial.WriteRange(seg.Address, seg.Values...)
	}

	limit := s.maxSteps
	if msg.MaxSteps > 0 {
		limit = msg.MaxSteps
	}

	value, err := s.pool.Do(ctx, func(in *vm.Interpreter) any {
		in.Apply(vm.WithStepLimit(limit))
		res, err := in.Execute(instrs, initial)
		return runOutcome{res: res, err: err}
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	out := value.(runOutcome)

	var cells []vm.Cell
	if out.err == nil {
		cells = out.res.Snapshot(msg.Lo, msg.Hi)
	}
	runID := s.record(ctx, instrs, out.res, cells, out.err)

	if out.err != nil {
		return nil, connect.NewError(connect.CodeFailedPrecondition, out.err)
	}

	stack := out.res.Stack
	if stack == nil {
		stack = []int64{}
	}
	return connect.NewResponse(&ExecuteResponse{
		Cells: trace.CellRecords(cells),
		Stack: stack,
		Steps: out.res.Steps,
		RunID: runID,
	}), nil
}

// ListRuns returns recorded executions, newest first.
func (s *Server) ListRuns(
	ctx context.Context,
	req *connect.Request[ListRunsRequest],
) (*connect.Response[ListRunsResponse], error) {
	if s.store == nil {
		return nil, connect.NewError(connect.CodeUnimplemented, fmt.Errorf("run history is not enabled"))
	}

	runs, err := s.store.List(ctx, req.Msg.Limit)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	resp := &ListRunsResponse{Runs: make([]RunSummary, len(runs))}
	for i, r := range runs {
		resp.Runs[i] = RunSummary{
			ID:            r.ID,
			CreatedAt:     r.CreatedAt.UTC().Format(time.RFC3339Nano),
			ProgramSHA256: r.ProgramSHA256,
			Instructions:  r.Instructions,
			Steps:         r.Steps,
			Error:         r.Error,
		}
	}
	return connect.NewResponse(resp), nil
}

func decodeProgram(msg *ExecuteRequest) ([]bytecode.Instruction, error) {
	switch {
	case msg.Source != "" && len(msg.Binary) > 0:
		return nil, errors.New("source and binary are mutually exclusive")
	case msg.Source != "":
		p, err := asm.Assemble(msg.Source)
		if err != nil {
			return nil, err
		}
		return p.Instructions, nil
	case len(msg.Binary) > 0:
		return bytecode.Deserialize(msg.Binary)
	default:
		return nil, errors.New("source or binary is required")
	}
}

// record stores the run when a store is configured. Storage failures are
// logged and do not fail the request.
func (s *Server) record(ctx context.Context, instrs []bytecode.Instruction, res *vm.Result, cells []vm.Cell, runErr error) string {
	if s.store == nil {
		return ""
	}
	id, err := s.store.Record(ctx, runstore.NewRecord(instrs, res, cells, runErr))
	if err != nil {
		log.Errorf("recording run: %v", err)
		return ""
	}
	return id
}
