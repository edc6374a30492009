package duckdb

import (
	"fmt"
	"runtime"
	"sync/atomic"
)

// DataChunk owns one vectorized batch of rows retrieved from a result. Its
// lifetime is independent of the result after retrieval; it is destroyed
// exactly once.
type DataChunk struct {
	chunk  uintptr
	closed int32
}

// ChunkCount returns the number of data chunks in the result.
func (r *Result) ChunkCount() (uint64, error) {
	if atomic.LoadInt32(&r.closed) != 0 {
		return 0, errClosed("result")
	}
	return duckdbResultChunkCount(r.res), nil
}

// GetChunk retrieves the chunk at the given 0-based index. An out-of-range
// index is rejected without touching the engine.
func (r *Result) GetChunk(idx uint64) (*DataChunk, error) {
	if atomic.LoadInt32(&r.closed) != 0 {
		return nil, errClosed("result")
	}
	if idx >= duckdbResultChunkCount(r.res) {
		return nil, NewError(ErrIndex, fmt.Sprintf("chunk index %d out of range", idx))
	}

	chunk := duckdbResultGetChunk(r.res, idx)
	if chunk == 0 {
		return nil, NewError(ErrQuery, fmt.Sprintf("failed to retrieve chunk %d", idx))
	}

	dc := &DataChunk{chunk: chunk}
	runtime.SetFinalizer(dc, (*DataChunk).Destroy)
	return dc, nil
}

// Destroy releases the chunk. Idempotent.
func (dc *DataChunk) Destroy() {
	if !atomic.CompareAndSwapInt32(&dc.closed, 0, 1) {
		return
	}
	duckdbDestroyDataChunk(&dc.chunk)
	runtime.SetFinalizer(dc, nil)
}

// Size returns the number of rows in the chunk.
func (dc *DataChunk) Size() uint64 {
	if atomic.LoadInt32(&dc.closed) != 0 {
		return 0
	}
	return duckdbDataChunkGetSize(dc.chunk)
}

// ColumnCount returns the number of column vectors in the chunk.
func (dc *DataChunk) ColumnCount() uint64 {
	if atomic.LoadInt32(&dc.closed) != 0 {
		return 0
	}
	return duckdbDataChunkColumnCount(dc.chunk)
}

// Rows materializes the chunk as row tuples through the vectorized
// extraction path. This is the authoritative path: it decodes every scalar
// and nested type, including UUID columns alongside other columns. On
// failure no partial rows are returned.
func (dc *DataChunk) Rows() ([][]Value, error) {
	if atomic.LoadInt32(&dc.closed) != 0 {
		return nil, errClosed("data chunk")
	}

	rowCount := duckdbDataChunkGetSize(dc.chunk)
	colCount := duckdbDataChunkColumnCount(dc.chunk)

	// Columnar extraction: walk each vector once, filling its column of
	// the output tuples, so per-column type setup happens once.
	rows := make([][]Value, rowCount)
	for i := range rows {
		rows[i] = make([]Value, colCount)
	}

	for col := uint64(0); col < colCount; col++ {
		vec := duckdbDataChunkGetVector(dc.chunk, col)
		lt := duckdbVectorGetColumnType(vec)
		view := viewOf(vec)

		var err error
		for row := uint64(0); row < rowCount; row++ {
			rows[row][col], err = extractValue(view, lt, row)
			if err != nil {
				break
			}
		}
		duckdbDestroyLogicalType(&lt)
		if err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// AllRows materializes every chunk of the result through the vectorized
// path and concatenates the row tuples in chunk order.
func (r *Result) AllRows() ([][]Value, error) {
	count, err := r.ChunkCount()
	if err != nil {
		return nil, err
	}

	var rows [][]Value
	for i := uint64(0); i < count; i++ {
		chunk, err := r.GetChunk(i)
		if err != nil {
			return nil, err
		}
		chunkRows, err := chunk.Rows()
		chunk.Destroy()
		if err != nil {
			return nil, err
		}
		rows = append(rows, chunkRows...)
	}
	return rows, nil
}
