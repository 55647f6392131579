package trace

import (
	"context"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"evmlens/internal/convert"
	"evmlens/internal/decoder"
)

// TracerName is the node-side tracer whose output CallFrame mirrors.
const TracerName = "callTracer"

// CallFrame is one frame of a callTracer result.
type CallFrame struct {
	Type         string          `json:"type"`
	From         common.Address  `json:"from"`
	To           *common.Address `json:"to,omitempty"`
	Value        *hexutil.Big    `json:"value,omitempty"`
	Gas          hexutil.Uint64  `json:"gas"`
	GasUsed      hexutil.Uint64  `json:"gasUsed"`
	Input        hexutil.Bytes   `json:"input"`
	Output       hexutil.Bytes   `json:"output,omitempty"`
	Error        string          `json:"error,omitempty"`
	RevertReason string          `json:"revertReason,omitempty"`
	Calls        []CallFrame     `json:"calls,omitempty"`
}

// CallDecoder decodes the calldata of a frame.
type CallDecoder interface {
	DecodeCall(ctx context.Context, calldata []byte) (*decoder.DecodedCall, error)
}

// Frame is a flattened, decoded call frame. TraceAddress is the path of child
// indexes from the root frame.
type Frame struct {
	TraceAddress []int                 `json:"trace_address"`
	Depth        int                   `json:"depth"`
	Type         string                `json:"type"`
	From         string                `json:"from"`
	To           string                `json:"to,omitempty"`
	Value        string                `json:"value,omitempty"`
	Gas          uint64                `json:"gas"`
	GasUsed      uint64                `json:"gas_used"`
	Selector     string                `json:"selector,omitempty"`
	Function     string                `json:"function,omitempty"`
	Signature    string                `json:"signature,omitempty"`
	Args         []decoder.RenderedArg `json:"args,omitempty"`
	DecodeError  string                `json:"decode_error,omitempty"`
	Error        string                `json:"error,omitempty"`
	RevertReason string                `json:"revert_reason,omitempty"`
}

// Label is a one-line summary of the frame for text output.
func (f Frame) Label() string {
	switch {
	case f.Signature != "":
		return f.Signature
	case f.Selector != "":
		return "unknown(" + f.Selector + ")"
	case f.Type == "CREATE" || f.Type == "CREATE2":
		return f.Type
	}
	return "transfer"
}

// Flatten walks root depth first and decodes every frame's input. Decode
// failures are recorded on the frame; only a cancelled ctx stops the walk.
func Flatten(ctx context.Context, root CallFrame, dec CallDecoder, opts decoder.RenderOptions) ([]Frame, error) {
	var out []Frame
	var walk func(frame CallFrame, path []int) error
	walk = func(frame CallFrame, path []int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		out = append(out, decodeFrame(ctx, frame, path, dec, opts))
		for i, child := range frame.Calls {
			childPath := append(append(make([]int, 0, len(path)+1), path...), i)
			if err := walk(child, childPath); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root, []int{}); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeFrame(ctx context.Context, frame CallFrame, path []int, dec CallDecoder, opts decoder.RenderOptions) Frame {
	out := Frame{
		TraceAddress: path,
		Depth:        len(path),
		Type:         frame.Type,
		From:         frame.From.Hex(),
		Gas:          uint64(frame.Gas),
		GasUsed:      uint64(frame.GasUsed),
		Error:        frame.Error,
		RevertReason: frame.RevertReason,
	}
	if frame.To != nil {
		out.To = frame.To.Hex()
	}
	if frame.Value != nil && frame.Value.ToInt().Sign() > 0 {
		out.Value = convert.FormatInt(frame.Value.ToInt(), opts.IntBase)
	}

	// Creation frames carry init code, not calldata.
	if frame.Type == "CREATE" || frame.Type == "CREATE2" || len(frame.Input) < 4 {
		return out
	}
	out.Selector = hexutil.Encode(frame.Input[:4])
	if dec == nil {
		return out
	}

	call, err := dec.DecodeCall(ctx, frame.Input)
	if err != nil {
		out.DecodeError = err.Error()
		return out
	}
	out.Function = call.Fragment.Name
	out.Signature = call.Fragment.Signature()
	out.Args = decoder.RenderArgs(call.Args, opts)
	return out
}

// FormatAddress renders a trace address the way block explorers do, for
// example "0.2.1". The root frame is empty.
func FormatAddress(path []int) string {
	s := ""
	for i, p := range path {
		if i > 0 {
			s += "."
		}
		s += strconv.Itoa(p)
	}
	return s
}
