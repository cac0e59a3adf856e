package server

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"

	"github.com/chazu/stackvm/pkg/asm"
	"github.com/chazu/stackvm/pkg/bytecode"
	"github.com/chazu/stackvm/pkg/trace"
)

// Assemble translates source into a binary program. Assembly errors are
// reported in the response, not as an RPC error, so that every bad line is
// returned at once.
func (s *Server) Assemble(
	ctx context.Context,
	req *connect.Request[AssembleRequest],
) (*connect.Response[AssembleResponse], error) {
	source := req.Msg.Source
	if source == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("source is required"))
	}

	if errs := asm.Check(req.Msg.Name, source); len(errs) > 0 {
		return connect.NewResponse(&AssembleResponse{
			Success:     false,
			Diagnostics: diagnostics(errs),
		}), nil
	}

	p, err := asm.Assemble(source)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(&AssembleResponse{
		Success: true,
		Binary:  p.Bytes(),
		Log:     trace.Records(p.Log),
		Listing: bytecode.DisassembleWithName(p.Instructions, req.Msg.Name),
	}), nil
}

func diagnostics(errs []*asm.Error) []Diagnostic {
	out := make([]Diagnostic, len(errs))
	for i, e := range errs {
		out[i] = Diagnostic{Line: e.Line, Kind: errorKind(e), Message: e.Error()}
	}
	return out
}

func errorKind(e *asm.Error) string {
	switch {
	case errors.Is(e, asm.ErrUnknownOpcode):
		return "UnknownOpcode"
	case errors.Is(e, asm.ErrArgumentCount):
		return "ArgumentCount"
	case errors.Is(e, asm.ErrArgumentType):
		return "ArgumentType"
	default:
		return "Unknown"
	}
}
