package decoder

import (
	"bytes"
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const wordSize = 32

// maxHeadSize caps computed head sizes so nested fixed arrays cannot
// overflow int. No buffer comes close to it.
const maxHeadSize = math.MaxInt32

var (
	twoTo256  = new(big.Int).Lsh(big.NewInt(1), 256)
	zeroWord  = make([]byte, wordSize)
	maxOffset = big.NewInt(int64(^uint(0) >> 1))
)

// reader decodes ABI tuple encodings out of a single buffer. All offsets are
// absolute positions in buf.
//
// budget is the number of words the buffer holds. A well-formed encoding
// reads each word at most once, so sibling offsets that alias the same tail
// run out of budget instead of multiplying the work.
type reader struct {
	buf    []byte
	budget int
}

func newReader(buf []byte) *reader {
	return &reader{buf: buf, budget: (len(buf) + wordSize - 1) / wordSize}
}

// decodeTuple decodes a sequence of types whose head starts at start. Dynamic
// members are located through offsets relative to start and must point into
// the tail, past the end of this head. Every nested tail therefore lies
// strictly after the cursor that referenced it, which bounds recursion depth
// by the buffer size; the word budget bounds the total work.
func (r *reader) decodeTuple(types []*abi.Type, start int) ([]Value, error) {
	size := 0
	for _, t := range types {
		size = addHead(size, headSize(t))
	}
	headEnd := start + size

	values := make([]Value, 0, len(types))
	cursor := start
	for _, t := range types {
		v, err := r.decodeMember(t, start, cursor, headEnd)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		cursor += headSize(t)
	}
	return values, nil
}

// decodeRepeated decodes n members of the same element type.
func (r *reader) decodeRepeated(elem *abi.Type, n int, start int) ([]Value, error) {
	size := headSize(elem)
	if size > 0 && n > (len(r.buf)-start)/size {
		have := len(r.buf) - start
		if have < 0 {
			have = 0
		}
		return nil, &Error{
			Kind:     ErrTruncatedData,
			Offset:   start,
			Type:     elem.String(),
			Expected: fmt.Sprintf("%d x %d bytes", n, size),
			Found:    fmt.Sprintf("%d bytes", have),
		}
	}
	headEnd := start + n*size

	values := make([]Value, 0, n)
	cursor := start
	for i := 0; i < n; i++ {
		v, err := r.decodeMember(elem, start, cursor, headEnd)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		cursor += size
	}
	return values, nil
}

func (r *reader) decodeMember(t *abi.Type, start, cursor, headEnd int) (Value, error) {
	if !isDynamic(t) {
		return r.decodeStatic(t, cursor)
	}

	word, err := r.word(cursor, t)
	if err != nil {
		return nil, err
	}
	off := new(big.Int).SetBytes(word)
	if off.Cmp(maxOffset) > 0 || off.Int64() >= int64(len(r.buf)-start) {
		return nil, &Error{
			Kind:     ErrTypeMismatch,
			Offset:   cursor,
			Type:     t.String(),
			Detail:   "offset points outside the buffer",
			Expected: fmt.Sprintf("< %d", len(r.buf)-start),
			Found:    off.String(),
		}
	}
	pos := start + int(off.Int64())
	if pos < headEnd {
		return nil, &Error{
			Kind:     ErrTypeMismatch,
			Offset:   cursor,
			Type:     t.String(),
			Detail:   "offset points back into the head region",
			Expected: fmt.Sprintf(">= %d", headEnd-start),
			Found:    off.String(),
		}
	}
	return r.decodeDynamic(t, pos)
}

func (r *reader) decodeDynamic(t *abi.Type, pos int) (Value, error) {
	switch t.T {
	case abi.StringTy, abi.BytesTy:
		n, err := r.length(pos, t, 1)
		if err != nil {
			return nil, err
		}
		if err := r.consume((n+wordSize-1)/wordSize, pos, t); err != nil {
			return nil, err
		}
		data := make([]byte, n)
		copy(data, r.buf[pos+wordSize:pos+wordSize+n])
		if t.T == abi.StringTy {
			return StringValue{typed{t.String()}, string(data)}, nil
		}
		return BytesValue{typed{t.String()}, data}, nil

	case abi.SliceTy:
		n, err := r.length(pos, t, headSize(t.Elem))
		if err != nil {
			return nil, err
		}
		elems, err := r.decodeRepeated(t.Elem, n, pos+wordSize)
		if err != nil {
			return nil, err
		}
		return ArrayValue{typed{t.String()}, elems}, nil

	case abi.ArrayTy:
		elems, err := r.decodeRepeated(t.Elem, t.Size, pos)
		if err != nil {
			return nil, err
		}
		return ArrayValue{typed{t.String()}, elems}, nil

	case abi.TupleTy:
		values, err := r.decodeTuple(t.TupleElems, pos)
		if err != nil {
			return nil, err
		}
		return tupleValue(t, values), nil
	}
	return nil, mismatch(pos, t.String(), "unsupported dynamic type")
}

func (r *reader) decodeStatic(t *abi.Type, pos int) (Value, error) {
	switch t.T {
	case abi.ArrayTy:
		elems, err := r.decodeRepeated(t.Elem, t.Size, pos)
		if err != nil {
			return nil, err
		}
		return ArrayValue{typed{t.String()}, elems}, nil
	case abi.TupleTy:
		values, err := r.decodeTuple(t.TupleElems, pos)
		if err != nil {
			return nil, err
		}
		return tupleValue(t, values), nil
	}

	word, err := r.word(pos, t)
	if err != nil {
		return nil, err
	}
	return decodeWord(t, word, pos)
}

// length reads a length prefix at pos and checks that n items of itemSize
// bytes fit in the remaining buffer before anything is allocated.
func (r *reader) length(pos int, t *abi.Type, itemSize int) (int, error) {
	word, err := r.word(pos, t)
	if err != nil {
		return 0, err
	}
	remaining := len(r.buf) - pos - wordSize
	n := new(big.Int).SetBytes(word)

	limit := remaining
	if itemSize > 0 {
		limit = remaining / itemSize
	}
	if !n.IsInt64() || n.Int64() > int64(limit) {
		need := n.String()
		if itemSize > 1 {
			need = fmt.Sprintf("%s x %d", n.String(), itemSize)
		}
		return 0, &Error{
			Kind:     ErrTruncatedData,
			Offset:   pos,
			Type:     t.String(),
			Expected: need + " bytes",
			Found:    fmt.Sprintf("%d bytes", remaining),
		}
	}
	return int(n.Int64()), nil
}

func (r *reader) word(pos int, t *abi.Type) ([]byte, error) {
	if pos < 0 || pos+wordSize > len(r.buf) {
		return nil, truncated(pos, t.String(), wordSize, len(r.buf)-pos)
	}
	if err := r.consume(1, pos, t); err != nil {
		return nil, err
	}
	return r.buf[pos : pos+wordSize], nil
}

func (r *reader) consume(words, pos int, t *abi.Type) error {
	if words > r.budget {
		return &Error{
			Kind:   ErrTypeMismatch,
			Offset: pos,
			Type:   t.String(),
			Detail: "offsets alias data that was already decoded",
		}
	}
	r.budget -= words
	return nil
}

// decodeWord interprets a single 32-byte word as an elementary type.
func decodeWord(t *abi.Type, word []byte, pos int) (Value, error) {
	name := t.String()
	switch t.T {
	case abi.UintTy:
		v := new(big.Int).SetBytes(word)
		if v.BitLen() > t.Size {
			return nil, mismatch(pos, name, fmt.Sprintf("value %s overflows %d bits", v, t.Size))
		}
		return UintValue{typed{name}, v}, nil

	case abi.IntTy:
		v := new(big.Int).SetBytes(word)
		if word[0]&0x80 != 0 {
			v.Sub(v, twoTo256)
		}
		magnitude := new(big.Int).Set(v)
		if v.Sign() < 0 {
			magnitude.Neg(magnitude).Sub(magnitude, big.NewInt(1))
		}
		if magnitude.BitLen() > t.Size-1 {
			return nil, mismatch(pos, name, fmt.Sprintf("value %s is not a sign-extended %d-bit integer", v, t.Size))
		}
		return IntValue{typed{name}, v}, nil

	case abi.BoolTy:
		if !bytes.Equal(word[:wordSize-1], zeroWord[:wordSize-1]) || word[wordSize-1] > 1 {
			return nil, mismatch(pos, name, fmt.Sprintf("improperly encoded boolean 0x%x", word))
		}
		return BoolValue{typed{name}, word[wordSize-1] == 1}, nil

	case abi.AddressTy:
		if !bytes.Equal(word[:12], zeroWord[:12]) {
			return nil, mismatch(pos, name, fmt.Sprintf("dirty high bytes 0x%x", word[:12]))
		}
		return AddressValue{typed{name}, common.BytesToAddress(word[12:])}, nil

	case abi.FixedBytesTy, abi.FunctionTy, abi.HashTy:
		size := t.Size
		if t.T == abi.HashTy {
			size = wordSize
		}
		if !bytes.Equal(word[size:], zeroWord[size:]) {
			return nil, mismatch(pos, name, fmt.Sprintf("dirty padding 0x%x", word[size:]))
		}
		data := make([]byte, size)
		copy(data, word[:size])
		return FixedBytesValue{typed{name}, data}, nil
	}
	return nil, mismatch(pos, name, "unsupported elementary type")
}

func tupleValue(t *abi.Type, values []Value) TupleValue {
	fields := make([]Field, len(values))
	for i, v := range values {
		name := ""
		if i < len(t.TupleRawNames) {
			name = t.TupleRawNames[i]
		}
		fields[i] = Field{Name: name, Value: v}
	}
	return TupleValue{typed{t.String()}, fields}
}

func isDynamic(t *abi.Type) bool {
	switch t.T {
	case abi.StringTy, abi.BytesTy, abi.SliceTy:
		return true
	case abi.ArrayTy:
		return isDynamic(t.Elem)
	case abi.TupleTy:
		for _, elem := range t.TupleElems {
			if isDynamic(elem) {
				return true
			}
		}
	}
	return false
}

// headSize is the number of bytes a type occupies in its enclosing head.
func headSize(t *abi.Type) int {
	if isDynamic(t) {
		return wordSize
	}
	switch t.T {
	case abi.ArrayTy:
		elem := headSize(t.Elem)
		if elem > 0 && t.Size > maxHeadSize/elem {
			return maxHeadSize
		}
		return t.Size * elem
	case abi.TupleTy:
		size := 0
		for _, elem := range t.TupleElems {
			size = addHead(size, headSize(elem))
		}
		return size
	}
	return wordSize
}

func addHead(a, b int) int {
	if a > maxHeadSize-b {
		return maxHeadSize
	}
	return a + b
}

func paramTypes(params []Param) []*abi.Type {
	types := make([]*abi.Type, 0, len(params))
	for i := range params {
		types = append(types, &params[i].Type)
	}
	return types
}
