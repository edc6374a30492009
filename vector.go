package duckdb

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"unsafe"
)

// vectorView is a non-owning view of one column vector within a chunk: the
// raw data pointer, the validity bitmap and the vector handle for child
// access. It never outlives the chunk it was read from.
type vectorView struct {
	vec      uintptr
	data     uintptr
	validity uintptr
}

func viewOf(vec uintptr) vectorView {
	return vectorView{
		vec:      vec,
		data:     duckdbVectorGetData(vec),
		validity: duckdbVectorGetValidity(vec),
	}
}

// rowValid reads the validity bitmap. A nil bitmap means all rows valid.
func (v vectorView) rowValid(row uint64) bool {
	if v.validity == 0 {
		return true
	}
	word := *(*uint64)(unsafe.Pointer(v.validity + uintptr(row/64)*8))
	return word&(1<<(row%64)) != 0
}

// Fixed-width reads off the data pointer.

func (v vectorView) int8At(row uint64) int8 {
	return *(*int8)(unsafe.Pointer(v.data + uintptr(row)))
}

func (v vectorView) int16At(row uint64) int16 {
	return *(*int16)(unsafe.Pointer(v.data + uintptr(row)*2))
}

func (v vectorView) int32At(row uint64) int32 {
	return *(*int32)(unsafe.Pointer(v.data + uintptr(row)*4))
}

func (v vectorView) int64At(row uint64) int64 {
	return *(*int64)(unsafe.Pointer(v.data + uintptr(row)*8))
}

func (v vectorView) uint8At(row uint64) uint8 {
	return *(*uint8)(unsafe.Pointer(v.data + uintptr(row)))
}

func (v vectorView) uint16At(row uint64) uint16 {
	return *(*uint16)(unsafe.Pointer(v.data + uintptr(row)*2))
}

func (v vectorView) uint32At(row uint64) uint32 {
	return *(*uint32)(unsafe.Pointer(v.data + uintptr(row)*4))
}

func (v vectorView) uint64At(row uint64) uint64 {
	return *(*uint64)(unsafe.Pointer(v.data + uintptr(row)*8))
}

func (v vectorView) float32At(row uint64) float32 {
	return *(*float32)(unsafe.Pointer(v.data + uintptr(row)*4))
}

func (v vectorView) float64At(row uint64) float64 {
	return *(*float64)(unsafe.Pointer(v.data + uintptr(row)*8))
}

// hugeintAt reads the two words of a 128-bit slot.
func (v vectorView) hugeintAt(row uint64) (lower uint64, upper int64) {
	p := v.data + uintptr(row)*16
	lower = *(*uint64)(unsafe.Pointer(p))
	upper = *(*int64)(unsafe.Pointer(p + 8))
	return lower, upper
}

// stringAt copies one duckdb_string_t slot: a 16-byte descriptor holding the
// length, then either up to 12 inline bytes or a pointer to out-of-line
// storage. The copy is sized exactly to the length so embedded NUL bytes
// survive.
func (v vectorView) stringAt(row uint64) []byte {
	p := v.data + uintptr(row)*16
	length := *(*uint32)(unsafe.Pointer(p))
	if length <= 12 {
		return goBytesFromPtr(p+4, uint64(length))
	}
	ptr := *(*uintptr)(unsafe.Pointer(p + 8))
	return goBytesFromPtr(ptr, uint64(length))
}

// listEntryAt reads the (offset, length) pair of a list slot.
func (v vectorView) listEntryAt(row uint64) (offset, length uint64) {
	p := v.data + uintptr(row)*16
	return *(*uint64)(unsafe.Pointer(p)), *(*uint64)(unsafe.Pointer(p + 8))
}

// intervalAt reads the engine's 16-byte interval slot.
func (v vectorView) intervalAt(row uint64) Interval {
	p := v.data + uintptr(row)*16
	return Interval{
		Months: *(*int32)(unsafe.Pointer(p)),
		Days:   *(*int32)(unsafe.Pointer(p + 4)),
		Micros: *(*int64)(unsafe.Pointer(p + 8)),
	}
}

// extractValue produces the host value for one (vector, row) cell,
// dispatching on the vector's logical type and recursing through child
// vectors for nested types. lt is borrowed; the caller owns its lifetime.
func extractValue(view vectorView, lt uintptr, row uint64) (Value, error) {
	if !view.rowValid(row) {
		return nil, nil
	}

	t := nativeType(duckdbGetTypeID(lt))
	switch t {
	case typeBoolean:
		return view.uint8At(row) != 0, nil
	case typeTinyInt:
		return view.int8At(row), nil
	case typeSmallInt:
		return view.int16At(row), nil
	case typeInteger:
		return view.int32At(row), nil
	case typeBigInt:
		return view.int64At(row), nil
	case typeUTinyInt:
		return view.uint8At(row), nil
	case typeUSmallInt:
		return view.uint16At(row), nil
	case typeUInteger:
		return view.uint32At(row), nil
	case typeUBigInt:
		return view.uint64At(row), nil

	case typeHugeInt:
		lower, upper := view.hugeintAt(row)
		return hugeintValue(lower, upper), nil
	case typeUHugeInt:
		lower, upper := view.hugeintAt(row)
		return uhugeintValue(lower, uint64(upper)), nil

	case typeFloat:
		return view.float32At(row), nil
	case typeDouble:
		return view.float64At(row), nil

	case typeDecimal:
		return extractDecimal(view, lt, row)

	case typeDate:
		return formatDate(view.int32At(row)), nil
	case typeTime:
		return formatClock(view.int64At(row)), nil
	case typeTimestamp:
		return formatTimestamp(view.int64At(row)), nil
	case typeTimestampS, typeTimestampMS, typeTimestampNS:
		// No calendar decomposition at these storage widths; the raw tick
		// count is reported as text.
		return strconv.FormatInt(view.int64At(row), 10), nil
	case typeTimeTZ:
		return decodeTimeTZ(view.uint64At(row)), nil
	case typeTimestampTZ:
		return SentinelTimestampTZ, nil
	case typeInterval:
		return view.intervalAt(row), nil

	case typeUUID:
		// The engine stores UUIDs as a hugeint with the top bit flipped so
		// numeric order matches textual order; undo the flip before
		// formatting so parse(format(x)) round-trips.
		lower, upper := view.hugeintAt(row)
		return uuidString(lower, upper^math.MinInt64), nil

	case typeEnum:
		return extractEnum(view, lt, row)

	case typeVarchar:
		return string(view.stringAt(row)), nil
	case typeBlob, typeBit:
		return view.stringAt(row), nil

	case typeList:
		return extractList(view, lt, row)
	case typeArray:
		return extractArray(view, lt, row)
	case typeStruct:
		return extractStruct(view, lt, row)
	case typeMap:
		return extractMap(view, lt, row)
	case typeUnion:
		return SentinelUnion, nil

	default:
		return SentinelUnsupported, nil
	}
}

// extractDecimal reads the raw fixed-point integer at the width the type
// declares, then applies the scale.
func extractDecimal(view vectorView, lt uintptr, row uint64) (Value, error) {
	scale := duckdbDecimalScale(lt)

	var unscaled *big.Int
	switch internal := nativeType(duckdbDecimalInternalType(lt)); internal {
	case typeSmallInt:
		unscaled = big.NewInt(int64(view.int16At(row)))
	case typeInteger:
		unscaled = big.NewInt(int64(view.int32At(row)))
	case typeBigInt:
		unscaled = big.NewInt(view.int64At(row))
	case typeHugeInt:
		lower, upper := view.hugeintAt(row)
		unscaled = hugeintToBig(lower, upper)
	default:
		return nil, NewError(ErrType, fmt.Sprintf("unexpected decimal storage type %d", internal))
	}
	return decimalValue(unscaled, scale), nil
}

// extractEnum resolves the stored index through the type's dictionary. An
// index outside the dictionary is reported as a sentinel, not a crash.
func extractEnum(view vectorView, lt uintptr, row uint64) (Value, error) {
	var idx uint64
	switch internal := nativeType(duckdbEnumInternalType(lt)); internal {
	case typeUTinyInt:
		idx = uint64(view.uint8At(row))
	case typeUSmallInt:
		idx = uint64(view.uint16At(row))
	case typeUInteger:
		idx = uint64(view.uint32At(row))
	default:
		return nil, NewError(ErrType, fmt.Sprintf("unexpected enum storage type %d", internal))
	}

	if idx >= uint64(duckdbEnumDictionarySize(lt)) {
		return SentinelInvalidEnum, nil
	}
	return takeCString(duckdbEnumDictionaryValue(lt, idx)), nil
}

// extractList recurses into the child vector over the row's offset/length
// window. A zero-length list yields an empty slice, distinct from nil.
func extractList(view vectorView, lt uintptr, row uint64) (Value, error) {
	offset, length := view.listEntryAt(row)

	childLT := duckdbListTypeChildType(lt)
	defer duckdbDestroyLogicalType(&childLT)
	child := viewOf(duckdbListVectorGetChild(view.vec))

	out := make([]Value, 0, length)
	for i := uint64(0); i < length; i++ {
		v, err := extractValue(child, childLT, offset+i)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// extractArray is extractList with a type-level fixed size instead of a
// per-row entry; the child index is row*size+i.
func extractArray(view vectorView, lt uintptr, row uint64) (Value, error) {
	size := duckdbArrayTypeArraySize(lt)

	childLT := duckdbArrayTypeChildType(lt)
	defer duckdbDestroyLogicalType(&childLT)
	child := viewOf(duckdbArrayVectorGetChild(view.vec))

	out := make([]Value, 0, size)
	for i := uint64(0); i < size; i++ {
		v, err := extractValue(child, childLT, row*size+i)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// extractStruct recurses into each declared field's child vector at the
// same row index. Structs use no offset indirection.
func extractStruct(view vectorView, lt uintptr, row uint64) (Value, error) {
	n := duckdbStructTypeChildCount(lt)

	out := make(map[string]Value, n)
	for i := uint64(0); i < n; i++ {
		name := takeCString(duckdbStructTypeChildName(lt, i))

		childLT := duckdbStructTypeChildType(lt, i)
		child := viewOf(duckdbStructVectorGetChild(view.vec, i))
		v, err := extractValue(child, childLT, row)
		duckdbDestroyLogicalType(&childLT)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

// extractMap reads the underlying list of key/value struct pairs and zips
// them into a Go map. Duplicate keys resolve last-write-wins.
func extractMap(view vectorView, lt uintptr, row uint64) (Value, error) {
	offset, length := view.listEntryAt(row)

	keyLT := duckdbMapTypeKeyType(lt)
	defer duckdbDestroyLogicalType(&keyLT)
	valLT := duckdbMapTypeValueType(lt)
	defer duckdbDestroyLogicalType(&valLT)

	pairs := duckdbListVectorGetChild(view.vec)
	keys := viewOf(duckdbStructVectorGetChild(pairs, 0))
	vals := viewOf(duckdbStructVectorGetChild(pairs, 1))

	out := make(map[string]Value, length)
	for i := uint64(0); i < length; i++ {
		k, err := extractValue(keys, keyLT, offset+i)
		if err != nil {
			return nil, err
		}
		v, err := extractValue(vals, valLT, offset+i)
		if err != nil {
			return nil, err
		}
		out[mapKey(k)] = v
	}
	return out, nil
}

// mapKey renders an extracted key as the Go map key. String keys pass
// through; everything else uses its default formatting.
func mapKey(k Value) string {
	switch s := k.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(k)
	}
}
