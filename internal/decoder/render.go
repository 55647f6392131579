package decoder

import (
	"github.com/ethereum/go-ethereum/common/hexutil"

	"evmlens/internal/convert"
)

// RenderOptions controls how values are turned into display forms.
type RenderOptions struct {
	IntBase convert.Base
}

// RenderedField is an ordered tuple member in display form.
type RenderedField struct {
	Name  string      `json:"name,omitempty"`
	Value interface{} `json:"value"`
}

// RenderedArg is a decoded argument in display form.
type RenderedArg struct {
	Name    string      `json:"name"`
	Type    string      `json:"type"`
	Indexed bool        `json:"indexed,omitempty"`
	Value   interface{} `json:"value"`
}

// Render converts a value into a JSON-friendly form: integers as decimal
// strings, byte values as 0x-hex, addresses as checksummed hex.
func Render(v Value) interface{} {
	return RenderWith(v, RenderOptions{})
}

// RenderWith converts a value using the given options.
func RenderWith(v Value, opts RenderOptions) interface{} {
	switch v := v.(type) {
	case UintValue:
		return convert.FormatInt(v.Value, opts.IntBase)
	case IntValue:
		return convert.FormatInt(v.Value, opts.IntBase)
	case BoolValue:
		return v.Value
	case AddressValue:
		return v.Value.Hex()
	case FixedBytesValue:
		return hexutil.Encode(v.Value)
	case BytesValue:
		return hexutil.Encode(v.Value)
	case StringValue:
		return v.Value
	case ArrayValue:
		out := make([]interface{}, 0, len(v.Elems))
		for _, elem := range v.Elems {
			out = append(out, RenderWith(elem, opts))
		}
		return out
	case TupleValue:
		out := make([]RenderedField, 0, len(v.Fields))
		for _, f := range v.Fields {
			out = append(out, RenderedField{Name: f.Name, Value: RenderWith(f.Value, opts)})
		}
		return out
	case HashedValue:
		return map[string]string{"hash": v.Hash.Hex()}
	}
	return nil
}

// RenderArgs converts decoded arguments into display form.
func RenderArgs(args []Arg, opts RenderOptions) []RenderedArg {
	out := make([]RenderedArg, 0, len(args))
	for _, a := range args {
		out = append(out, RenderedArg{
			Name:    a.Param.Name,
			Type:    a.Param.Type.String(),
			Indexed: a.Param.Indexed,
			Value:   RenderWith(a.Value, opts),
		})
	}
	return out
}
