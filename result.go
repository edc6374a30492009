package duckdb

import (
	"math"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"unsafe"
)

// Column describes one result column.
type Column struct {
	Name string
	Type TypeTag
}

// Result owns one engine-allocated result set. It is destroyed exactly
// once; Destroy is safe to call on a result that was never read.
type Result struct {
	res    cResult
	closed int32
}

// Destroy releases the result's engine resources. Idempotent.
func (r *Result) Destroy() {
	if !atomic.CompareAndSwapInt32(&r.closed, 0, 1) {
		return
	}
	duckdbDestroyResult(unsafe.Pointer(&r.res))
	runtime.SetFinalizer(r, nil)
}

func (r *Result) ptr() unsafe.Pointer {
	return unsafe.Pointer(&r.res)
}

// ColumnCount returns the number of columns in the result.
func (r *Result) ColumnCount() uint64 {
	if atomic.LoadInt32(&r.closed) != 0 {
		return 0
	}
	return duckdbColumnCount(r.ptr())
}

// RowCount returns the number of rows in the result.
func (r *Result) RowCount() uint64 {
	if atomic.LoadInt32(&r.closed) != 0 {
		return 0
	}
	return duckdbRowCount(r.ptr())
}

// RowsChanged returns the number of rows modified by an INSERT, UPDATE or
// DELETE statement.
func (r *Result) RowsChanged() uint64 {
	if atomic.LoadInt32(&r.closed) != 0 {
		return 0
	}
	return duckdbRowsChanged(r.ptr())
}

// Columns returns the result's column descriptors in declaration order.
// Names are reported as the engine emits them and are not necessarily
// unique.
func (r *Result) Columns() ([]Column, error) {
	if atomic.LoadInt32(&r.closed) != 0 {
		return nil, errClosed("result")
	}

	n := duckdbColumnCount(r.ptr())
	cols := make([]Column, n)
	for i := uint64(0); i < n; i++ {
		cols[i] = Column{
			Name: duckdbColumnName(r.ptr(), i),
			Type: tagOf(nativeType(duckdbColumnType(r.ptr(), i))),
		}
	}
	return cols, nil
}

// Rows materializes the whole result through the engine's per-cell string
// accessor API and returns it as row tuples.
//
// Known engine defect workaround: extracting a UUID cell's string form in a
// multi-column row corrupts extraction of the columns after it. When any
// column is UUID-typed and the result has more than one column, every cell
// of every row is therefore returned as nil instead of risking corrupted
// reads. Single-column UUID results extract normally. Use the chunked path
// (ChunkCount/GetChunk) when UUID columns coexist with others; it has no
// such restriction.
func (r *Result) Rows() ([][]Value, error) {
	if atomic.LoadInt32(&r.closed) != 0 {
		return nil, errClosed("result")
	}

	colCount := duckdbColumnCount(r.ptr())
	rowCount := duckdbRowCount(r.ptr())

	types := make([]nativeType, colCount)
	hasUUID := false
	for c := uint64(0); c < colCount; c++ {
		types[c] = nativeType(duckdbColumnType(r.ptr(), c))
		if types[c] == typeUUID {
			hasUUID = true
		}
	}
	uuidBlocked := hasUUID && colCount > 1

	rows := make([][]Value, rowCount)
	for row := uint64(0); row < rowCount; row++ {
		tuple := make([]Value, colCount)
		if !uuidBlocked {
			for col := uint64(0); col < colCount; col++ {
				v, err := r.cellValue(types[col], col, row)
				if err != nil {
					return nil, err
				}
				tuple[col] = v
			}
		}
		rows[row] = tuple
	}
	return rows, nil
}

// cellValue extracts one cell through the string-conversion API. The API
// renders most types as text, so non-string types are parsed back out of
// the varchar form.
func (r *Result) cellValue(t nativeType, col, row uint64) (Value, error) {
	if duckdbValueIsNull(r.ptr(), col, row) {
		return nil, nil
	}

	switch t {
	case typeBlob:
		blob := duckdbValueBlob(r.ptr(), col, row)
		out := goBytesFromPtr(blob.data, blob.size)
		if blob.data != 0 {
			duckdbFree(blob.data)
		}
		return out, nil

	case typeBoolean:
		s := takeCString(duckdbValueVarchar(r.ptr(), col, row))
		return s == "true", nil

	case typeTinyInt, typeSmallInt, typeInteger, typeBigInt:
		s := takeCString(duckdbValueVarchar(r.ptr(), col, row))
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, NewError(ErrType, "invalid integer value: "+s)
		}
		return v, nil

	case typeUTinyInt, typeUSmallInt, typeUInteger, typeUBigInt:
		s := takeCString(duckdbValueVarchar(r.ptr(), col, row))
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, NewError(ErrType, "invalid unsigned value: "+s)
		}
		return v, nil

	case typeHugeInt:
		s := takeCString(duckdbValueVarchar(r.ptr(), col, row))
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			return v, nil
		}
		return s, nil

	case typeUHugeInt:
		s := takeCString(duckdbValueVarchar(r.ptr(), col, row))
		if v, err := strconv.ParseUint(s, 10, 64); err == nil {
			return v, nil
		}
		return s, nil

	case typeFloat, typeDouble:
		s := takeCString(duckdbValueVarchar(r.ptr(), col, row))
		return parseFloatText(s)

	default:
		// decimal, temporal, interval, uuid, nested and enum types arrive
		// in the engine's own textual rendering.
		return takeCString(duckdbValueVarchar(r.ptr(), col, row)), nil
	}
}

// parseFloatText parses the engine's textual float rendering, keeping NaN
// and the infinities distinguishable.
func parseFloatText(s string) (Value, error) {
	switch strings.ToLower(s) {
	case "nan", "-nan":
		return math.NaN(), nil
	case "inf", "infinity":
		return math.Inf(1), nil
	case "-inf", "-infinity":
		return math.Inf(-1), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, NewError(ErrType, "invalid float value: "+s)
	}
	return v, nil
}
