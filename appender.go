package duckdb

import (
	"fmt"
	"math"
	"math/big"
	"runtime"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/google/uuid"
)

// Appender is a bulk-insert cursor bound to one target table. Values are
// appended in declared column order, one row at a time; EndRow commits the
// buffered row. The integer append methods take the widest Go type and
// range-check locally, so an out-of-range value never reaches the engine.
type Appender struct {
	app    uintptr
	closed int32
}

// NewAppender opens a bulk-insert cursor on conn for schema.table. An empty
// schema means the connection's default schema.
func NewAppender(conn *Connection, schema, table string) (*Appender, error) {
	if atomic.LoadInt32(&conn.closed) != 0 {
		return nil, errClosed("connection")
	}

	tableC := cString(table)
	var schemaPtr unsafe.Pointer
	var schemaC []byte
	if schema != "" {
		schemaC = cString(schema)
		schemaPtr = unsafe.Pointer(&schemaC[0])
	}

	var app uintptr
	state := duckdbAppenderCreate(conn.conn, schemaPtr, unsafe.Pointer(&tableC[0]), &app)
	runtime.KeepAlive(schemaC)
	runtime.KeepAlive(tableC)
	if state == duckdbError {
		msg := duckdbAppenderError(app)
		if app != 0 {
			duckdbAppenderDestroy(&app)
		}
		if msg == "" {
			msg = "failed to create appender for table " + table
		}
		return nil, NewError(ErrAppender, msg)
	}

	a := &Appender{app: app}
	runtime.SetFinalizer(a, func(a *Appender) { _ = a.Destroy() })
	return a, nil
}

// NewAppenderExt opens a bulk-insert cursor addressing the table through an
// explicit catalog. Empty catalog or schema fall back to the connection's
// defaults.
func NewAppenderExt(conn *Connection, catalog, schema, table string) (*Appender, error) {
	if atomic.LoadInt32(&conn.closed) != 0 {
		return nil, errClosed("connection")
	}

	tableC := cString(table)
	var catalogPtr, schemaPtr unsafe.Pointer
	var catalogC, schemaC []byte
	if catalog != "" {
		catalogC = cString(catalog)
		catalogPtr = unsafe.Pointer(&catalogC[0])
	}
	if schema != "" {
		schemaC = cString(schema)
		schemaPtr = unsafe.Pointer(&schemaC[0])
	}

	var app uintptr
	state := duckdbAppenderCreateExt(conn.conn, catalogPtr, schemaPtr, unsafe.Pointer(&tableC[0]), &app)
	runtime.KeepAlive(catalogC)
	runtime.KeepAlive(schemaC)
	runtime.KeepAlive(tableC)
	if state == duckdbError {
		msg := duckdbAppenderError(app)
		if app != 0 {
			duckdbAppenderDestroy(&app)
		}
		if msg == "" {
			msg = "failed to create appender for table " + table
		}
		return nil, NewError(ErrAppender, msg)
	}

	a := &Appender{app: app}
	runtime.SetFinalizer(a, func(a *Appender) { _ = a.Destroy() })
	return a, nil
}

// ColumnCount returns the number of columns the target table declares.
func (a *Appender) ColumnCount() uint64 {
	if atomic.LoadInt32(&a.closed) != 0 {
		return 0
	}
	return duckdbAppenderColumnCount(a.app)
}

func (a *Appender) live() error {
	if atomic.LoadInt32(&a.closed) != 0 {
		return errClosed("appender")
	}
	return nil
}

// engineErr surfaces the appender's own diagnostic text unchanged.
func (a *Appender) engineErr(fallback string) error {
	msg := duckdbAppenderError(a.app)
	if msg == "" {
		msg = fallback
	}
	return NewError(ErrAppender, msg)
}

func rangeErr(typ string) error {
	return NewError(ErrRange, "Value out of range for "+typ)
}

// AppendBool appends a boolean cell.
func (a *Appender) AppendBool(v bool) error {
	if err := a.live(); err != nil {
		return err
	}
	if duckdbAppendBool(a.app, v) == duckdbError {
		return a.engineErr("failed to append bool")
	}
	return nil
}

// AppendInt8 appends a tinyint cell. Values outside [-128, 127] are
// rejected locally.
func (a *Appender) AppendInt8(v int64) error {
	if err := a.live(); err != nil {
		return err
	}
	if v < math.MinInt8 || v > math.MaxInt8 {
		return rangeErr("int8")
	}
	if duckdbAppendInt8(a.app, int8(v)) == duckdbError {
		return a.engineErr("failed to append int8")
	}
	return nil
}

// AppendInt16 appends a smallint cell with a local range check.
func (a *Appender) AppendInt16(v int64) error {
	if err := a.live(); err != nil {
		return err
	}
	if v < math.MinInt16 || v > math.MaxInt16 {
		return rangeErr("int16")
	}
	if duckdbAppendInt16(a.app, int16(v)) == duckdbError {
		return a.engineErr("failed to append int16")
	}
	return nil
}

// AppendInt32 appends an integer cell with a local range check.
func (a *Appender) AppendInt32(v int64) error {
	if err := a.live(); err != nil {
		return err
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return rangeErr("int32")
	}
	if duckdbAppendInt32(a.app, int32(v)) == duckdbError {
		return a.engineErr("failed to append int32")
	}
	return nil
}

// AppendInt64 appends a bigint cell.
func (a *Appender) AppendInt64(v int64) error {
	if err := a.live(); err != nil {
		return err
	}
	if duckdbAppendInt64(a.app, v) == duckdbError {
		return a.engineErr("failed to append int64")
	}
	return nil
}

// AppendUint8 appends a utinyint cell. Values above 255 are rejected
// locally.
func (a *Appender) AppendUint8(v uint64) error {
	if err := a.live(); err != nil {
		return err
	}
	if v > math.MaxUint8 {
		return rangeErr("uint8")
	}
	if duckdbAppendUint8(a.app, uint8(v)) == duckdbError {
		return a.engineErr("failed to append uint8")
	}
	return nil
}

// AppendUint16 appends a usmallint cell with a local range check.
func (a *Appender) AppendUint16(v uint64) error {
	if err := a.live(); err != nil {
		return err
	}
	if v > math.MaxUint16 {
		return rangeErr("uint16")
	}
	if duckdbAppendUint16(a.app, uint16(v)) == duckdbError {
		return a.engineErr("failed to append uint16")
	}
	return nil
}

// AppendUint32 appends a uinteger cell with a local range check.
func (a *Appender) AppendUint32(v uint64) error {
	if err := a.live(); err != nil {
		return err
	}
	if v > math.MaxUint32 {
		return rangeErr("uint32")
	}
	if duckdbAppendUint32(a.app, uint32(v)) == duckdbError {
		return a.engineErr("failed to append uint32")
	}
	return nil
}

// AppendUint64 appends a ubigint cell.
func (a *Appender) AppendUint64(v uint64) error {
	if err := a.live(); err != nil {
		return err
	}
	if duckdbAppendUint64(a.app, v) == duckdbError {
		return a.engineErr("failed to append uint64")
	}
	return nil
}

// AppendFloat32 appends a float cell.
func (a *Appender) AppendFloat32(v float32) error {
	if err := a.live(); err != nil {
		return err
	}
	if duckdbAppendFloat(a.app, v) == duckdbError {
		return a.engineErr("failed to append float")
	}
	return nil
}

// AppendFloat64 appends a double cell.
func (a *Appender) AppendFloat64(v float64) error {
	if err := a.live(); err != nil {
		return err
	}
	if duckdbAppendDouble(a.app, v) == duckdbError {
		return a.engineErr("failed to append double")
	}
	return nil
}

// AppendVarchar appends a string cell.
func (a *Appender) AppendVarchar(v string) error {
	if err := a.live(); err != nil {
		return err
	}
	if duckdbAppendVarchar(a.app, v) == duckdbError {
		return a.engineErr("failed to append varchar")
	}
	return nil
}

// AppendBlob appends a blob cell.
func (a *Appender) AppendBlob(v []byte) error {
	if err := a.live(); err != nil {
		return err
	}
	var state int32
	if len(v) == 0 {
		state = duckdbAppendBlob(a.app, nil, 0)
	} else {
		state = duckdbAppendBlob(a.app, unsafe.Pointer(&v[0]), uint64(len(v)))
	}
	runtime.KeepAlive(v)
	if state == duckdbError {
		return a.engineErr("failed to append blob")
	}
	return nil
}

// AppendNull appends a SQL NULL cell.
func (a *Appender) AppendNull() error {
	if err := a.live(); err != nil {
		return err
	}
	if duckdbAppendNull(a.app) == duckdbError {
		return a.engineErr("failed to append null")
	}
	return nil
}

// AppendTimestamp appends a timestamp cell from a Go time.Time, converted
// to microseconds since the Unix epoch in UTC.
func (a *Appender) AppendTimestamp(t time.Time) error {
	if err := a.live(); err != nil {
		return err
	}
	if duckdbAppendTimestamp(a.app, TimestampFromTime(t)) == duckdbError {
		return a.engineErr("failed to append timestamp")
	}
	return nil
}

// AppendHugeint appends a 128-bit integer cell from a big.Int. Values
// outside the hugeint range are rejected locally.
func (a *Appender) AppendHugeint(v *big.Int) error {
	if err := a.live(); err != nil {
		return err
	}
	lower, upper, ok := bigToHugeint(v)
	if !ok {
		return rangeErr("hugeint")
	}
	if duckdbAppendHugeint(a.app, lower, upper) == duckdbError {
		return a.engineErr("failed to append hugeint")
	}
	return nil
}

// AppendUUID appends a UUID cell. The value goes through the engine's own
// varchar-to-uuid cast, so appended values round-trip textually with the
// extractor.
func (a *Appender) AppendUUID(u uuid.UUID) error {
	if err := a.live(); err != nil {
		return err
	}
	if duckdbAppendVarchar(a.app, u.String()) == duckdbError {
		return a.engineErr("failed to append uuid")
	}
	return nil
}

// AppendValue classifies a Go value and appends it through the matching
// typed method. Unsupported types are rejected before any engine call.
func (a *Appender) AppendValue(v any) error {
	switch val := v.(type) {
	case nil:
		return a.AppendNull()
	case bool:
		return a.AppendBool(val)
	case int:
		return a.AppendInt64(int64(val))
	case int8:
		return a.AppendInt8(int64(val))
	case int16:
		return a.AppendInt16(int64(val))
	case int32:
		return a.AppendInt32(int64(val))
	case int64:
		return a.AppendInt64(val)
	case uint8:
		return a.AppendUint8(uint64(val))
	case uint16:
		return a.AppendUint16(uint64(val))
	case uint32:
		return a.AppendUint32(uint64(val))
	case uint64:
		return a.AppendUint64(val)
	case float32:
		return a.AppendFloat32(val)
	case float64:
		return a.AppendFloat64(val)
	case string:
		return a.AppendVarchar(val)
	case []byte:
		return a.AppendBlob(val)
	case time.Time:
		return a.AppendTimestamp(val)
	case uuid.UUID:
		return a.AppendUUID(val)
	default:
		return NewError(ErrBadArgument, fmt.Sprintf("unsupported append type %T", v))
	}
}

// AppendRow appends one complete row and commits it.
func (a *Appender) AppendRow(values ...any) error {
	for _, v := range values {
		if err := a.AppendValue(v); err != nil {
			return err
		}
	}
	return a.EndRow()
}

// EndRow commits the currently buffered row. The engine reports incomplete
// or type-mismatched rows here.
func (a *Appender) EndRow() error {
	if err := a.live(); err != nil {
		return err
	}
	if duckdbAppenderEndRow(a.app) == duckdbError {
		return a.engineErr("failed to end row")
	}
	return nil
}

// Flush forces buffered rows to the table without closing the cursor.
func (a *Appender) Flush() error {
	if err := a.live(); err != nil {
		return err
	}
	if duckdbAppenderFlush(a.app) == duckdbError {
		return a.engineErr("failed to flush appender")
	}
	return nil
}

// Close flushes remaining rows and finalizes the cursor, then releases it.
// The appender is unusable afterward.
func (a *Appender) Close() error {
	if err := a.live(); err != nil {
		return err
	}
	if duckdbAppenderClose(a.app) == duckdbError {
		err := a.engineErr("failed to close appender")
		_ = a.Destroy()
		return err
	}
	return a.Destroy()
}

// Destroy releases all appender resources. Destroying twice, or after
// Close, is a no-op.
func (a *Appender) Destroy() error {
	if !atomic.CompareAndSwapInt32(&a.closed, 0, 1) {
		return nil
	}
	if a.app != 0 {
		duckdbAppenderDestroy(&a.app)
		a.app = 0
	}
	runtime.SetFinalizer(a, nil)
	return nil
}
