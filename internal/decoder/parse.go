package decoder

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

type jsonParam struct {
	Name         string      `json:"name"`
	Type         string      `json:"type"`
	InternalType string      `json:"internalType,omitempty"`
	Indexed      bool        `json:"indexed,omitempty"`
	Components   []jsonParam `json:"components,omitempty"`
}

type jsonEntry struct {
	Type      string      `json:"type"`
	Name      string      `json:"name"`
	Inputs    []jsonParam `json:"inputs"`
	Anonymous bool        `json:"anonymous"`
}

// ParseInterface parses a JSON ABI description into function and event fragments.
// Constructor, fallback, receive and error entries are skipped.
func ParseInterface(description []byte) ([]Fragment, error) {
	var entries []jsonEntry
	if err := json.Unmarshal(description, &entries); err != nil {
		return nil, malformed("parse json: %v", err)
	}

	fragments := make([]Fragment, 0, len(entries))
	for i, entry := range entries {
		kind := Kind(strings.TrimSpace(entry.Type))
		if kind == "" {
			kind = KindFunction
		}
		if kind != KindFunction && kind != KindEvent {
			continue
		}
		if strings.TrimSpace(entry.Name) == "" {
			return nil, malformed("entry %d: %s without a name", i, kind)
		}

		params := make([]Param, 0, len(entry.Inputs))
		for j, input := range entry.Inputs {
			param, err := buildParam(toMarshaling(input), kind)
			if err != nil {
				return nil, malformed("%s %s: input %d: %v", kind, entry.Name, j, err)
			}
			params = append(params, param)
		}

		fragments = append(fragments, Fragment{
			Kind:      kind,
			Name:      entry.Name,
			Params:    params,
			Anonymous: kind == KindEvent && entry.Anonymous,
		})
	}

	sortFragments(fragments)
	return fragments, nil
}

// ParseSignature parses a human-readable signature such as
// "transfer(address to, uint256 amount)" or
// "Transfer(address indexed from, address indexed to, uint256 value)".
// A leading "function" or "event" keyword is accepted.
func ParseSignature(kind Kind, text string) (Fragment, error) {
	text = strings.TrimSpace(text)
	for _, keyword := range []string{"function ", "event "} {
		text = strings.TrimSpace(strings.TrimPrefix(text, keyword))
	}

	open := strings.IndexByte(text, '(')
	if open <= 0 || !strings.HasSuffix(text, ")") {
		return Fragment{}, malformed("signature %q: expected name(params)", text)
	}
	name := strings.TrimSpace(text[:open])
	if !isIdentifier(name) {
		return Fragment{}, malformed("signature %q: invalid name", text)
	}

	inner := text[open+1 : len(text)-1]
	if depth := parenBalance(inner); depth != 0 {
		return Fragment{}, malformed("signature %q: unbalanced parentheses", text)
	}

	args, err := parseParamList(inner)
	if err != nil {
		return Fragment{}, malformed("signature %q: %v", text, err)
	}

	params := make([]Param, 0, len(args))
	for i, arg := range args {
		if kind != KindEvent && arg.Indexed {
			return Fragment{}, malformed("signature %q: indexed parameter in %s", text, kind)
		}
		param, err := buildParam(arg, kind)
		if err != nil {
			return Fragment{}, malformed("signature %q: param %d: %v", text, i, err)
		}
		params = append(params, param)
	}

	return Fragment{Kind: kind, Name: name, Params: params}, nil
}

// ParseSignatures parses several human-readable signatures of the same kind.
func ParseSignatures(kind Kind, texts []string) ([]Fragment, error) {
	fragments := make([]Fragment, 0, len(texts))
	for _, text := range texts {
		f, err := ParseSignature(kind, text)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, f)
	}
	return fragments, nil
}

func toMarshaling(p jsonParam) abi.ArgumentMarshaling {
	components := make([]abi.ArgumentMarshaling, 0, len(p.Components))
	for _, c := range p.Components {
		components = append(components, toMarshaling(c))
	}
	return abi.ArgumentMarshaling{
		Name:         p.Name,
		Type:         p.Type,
		InternalType: p.InternalType,
		Components:   components,
		Indexed:      p.Indexed,
	}
}

func buildParam(arg abi.ArgumentMarshaling, kind Kind) (Param, error) {
	if strings.TrimSpace(arg.Type) == "" {
		return Param{}, fmt.Errorf("empty type")
	}
	typ, err := newType(arg)
	if err != nil {
		return Param{}, err
	}
	return Param{
		Name:    arg.Name,
		Type:    typ,
		Indexed: kind == KindEvent && arg.Indexed,
	}, nil
}

// newType builds an abi.Type through the go-ethereum type grammar after
// normalising shorthand aliases and naming anonymous tuple components.
func newType(arg abi.ArgumentMarshaling) (abi.Type, error) {
	arg = canonicalMarshaling(arg)
	typ, err := abi.NewType(arg.Type, arg.InternalType, arg.Components)
	if err != nil {
		return abi.Type{}, err
	}
	if err := validateType(typ); err != nil {
		return abi.Type{}, err
	}
	return typ, nil
}

func canonicalMarshaling(arg abi.ArgumentMarshaling) abi.ArgumentMarshaling {
	arg.Type = canonicalTypeName(arg.Type)
	if len(arg.Components) == 0 {
		return arg
	}
	components := make([]abi.ArgumentMarshaling, len(arg.Components))
	for i, c := range arg.Components {
		c = canonicalMarshaling(c)
		if strings.Trim(c.Name, "_") == "" {
			c.Name = fmt.Sprintf("field%d", i)
		}
		components[i] = c
	}
	arg.Components = components
	return arg
}

func canonicalTypeName(t string) string {
	t = strings.TrimSpace(t)
	base, suffix := t, ""
	if i := strings.IndexByte(t, '['); i >= 0 {
		base, suffix = t[:i], t[i:]
	}
	switch base {
	case "uint":
		base = "uint256"
	case "int":
		base = "int256"
	case "byte":
		base = "bytes1"
	}
	return base + suffix
}

func validateType(t abi.Type) error {
	switch t.T {
	case abi.IntTy, abi.UintTy:
		if t.Size < 8 || t.Size > 256 || t.Size%8 != 0 {
			return fmt.Errorf("invalid integer size in %s", t.String())
		}
	case abi.FixedBytesTy:
		if t.Size < 1 || t.Size > 32 {
			return fmt.Errorf("invalid fixed bytes size in %s", t.String())
		}
	case abi.ArrayTy:
		if t.Size <= 0 {
			return fmt.Errorf("zero-length array %s", t.String())
		}
		return validateType(*t.Elem)
	case abi.SliceTy:
		return validateType(*t.Elem)
	case abi.TupleTy:
		if len(t.TupleElems) == 0 {
			return fmt.Errorf("empty tuple %s", t.String())
		}
		for _, elem := range t.TupleElems {
			if err := validateType(*elem); err != nil {
				return err
			}
		}
	case abi.FixedPointTy:
		return fmt.Errorf("fixed point type %s is not supported", t.String())
	}
	return nil
}

func parseParamList(inner string) ([]abi.ArgumentMarshaling, error) {
	if strings.TrimSpace(inner) == "" {
		return nil, nil
	}
	parts := splitTopLevel(inner)
	args := make([]abi.ArgumentMarshaling, 0, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("empty parameter at position %d", i)
		}
		arg, err := parseParam(part)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

func parseParam(part string) (abi.ArgumentMarshaling, error) {
	var arg abi.ArgumentMarshaling
	if strings.HasPrefix(part, "tuple(") {
		part = strings.TrimPrefix(part, "tuple")
	}
	rest := part

	if strings.HasPrefix(part, "(") {
		closeIdx := matchingParen(part)
		if closeIdx < 0 {
			return arg, fmt.Errorf("unbalanced tuple in %q", part)
		}
		components, err := parseParamList(part[1:closeIdx])
		if err != nil {
			return arg, err
		}
		rest = part[closeIdx+1:]
		suffix := rest
		if i := strings.IndexAny(rest, " \t"); i >= 0 {
			suffix = rest[:i]
		}
		arg.Type = "tuple" + suffix
		arg.Components = components
		rest = strings.TrimSpace(rest[len(suffix):])
	} else {
		fields := strings.Fields(part)
		arg.Type = fields[0]
		rest = strings.Join(fields[1:], " ")
	}

	for _, word := range strings.Fields(rest) {
		switch word {
		case "indexed":
			arg.Indexed = true
		case "memory", "calldata", "storage", "payable":
		default:
			if arg.Name != "" || !isIdentifier(word) {
				return arg, fmt.Errorf("unexpected token %q in %q", word, part)
			}
			arg.Name = word
		}
	}
	return arg, nil
}

func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func matchingParen(s string) int {
	depth := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func parenBalance(s string) int {
	depth := 0
	for _, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return depth
			}
		}
	}
	return depth
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func sortFragments(fragments []Fragment) {
	sort.SliceStable(fragments, func(i, j int) bool {
		if fragments[i].Kind != fragments[j].Kind {
			return fragments[i].Kind == KindFunction
		}
		return fragments[i].Signature() < fragments[j].Signature()
	})
}
