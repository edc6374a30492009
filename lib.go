// Package duckdb bridges DuckDB's native columnar value representation to Go
// without CGO, loading the engine's shared library at runtime.
package duckdb

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

// duckdb_state values.
const (
	duckdbSuccess = 0
	duckdbError   = 1
)

// Library loader
var (
	libOnce    sync.Once
	libLoaded  bool
	libError   error
	libPath    string
	libHandler uintptr
)

// cResult mirrors the C duckdb_result struct. The deprecated fields are never
// read; the struct exists so the engine can write into caller-owned storage
// and so the chunk API (which takes duckdb_result by value) can be called.
type cResult struct {
	deprecatedColumnCount  uint64
	deprecatedRowCount     uint64
	deprecatedRowsChanged  uint64
	deprecatedColumns      uintptr
	deprecatedErrorMessage uintptr
	internalData           uintptr
}

// cBlob mirrors the C duckdb_blob struct returned by value from
// duckdb_value_blob. The data pointer is owned by the caller and must be
// released with duckdb_free after copying.
type cBlob struct {
	data uintptr
	size uint64
}

// Dynamically registered engine entry points. Every call into the engine goes
// through one of these; registration happens once in loadLibrary.
var (
	// Database / connection / config lifecycle
	duckdbOpen          func(path string, outDB *uintptr) int32
	duckdbOpenExt       func(path string, outDB *uintptr, config uintptr, outError *uintptr) int32
	duckdbClose         func(db *uintptr)
	duckdbConnect       func(db uintptr, outConn *uintptr) int32
	duckdbDisconnect    func(conn *uintptr)
	duckdbCreateConfig  func(outConfig *uintptr) int32
	duckdbSetConfig     func(config uintptr, name string, option string) int32
	duckdbDestroyConfig func(config *uintptr)
	duckdbLibVersion    func() string
	duckdbFree          func(ptr uintptr)

	// Query execution and the row-oriented (materialized) result API
	duckdbQuery         func(conn uintptr, query string, outResult unsafe.Pointer) int32
	duckdbDestroyResult func(result unsafe.Pointer)
	duckdbResultError   func(result unsafe.Pointer) string
	duckdbColumnName    func(result unsafe.Pointer, col uint64) string
	duckdbColumnType    func(result unsafe.Pointer, col uint64) uint32
	duckdbColumnCount   func(result unsafe.Pointer) uint64
	duckdbRowCount      func(result unsafe.Pointer) uint64
	duckdbRowsChanged   func(result unsafe.Pointer) uint64
	duckdbValueVarchar  func(result unsafe.Pointer, col uint64, row uint64) uintptr
	duckdbValueIsNull   func(result unsafe.Pointer, col uint64, row uint64) bool
	duckdbValueBlob     func(result unsafe.Pointer, col uint64, row uint64) cBlob

	// Prepared statements
	duckdbPrepare         func(conn uintptr, query string, outStmt *uintptr) int32
	duckdbPrepareError    func(stmt uintptr) string
	duckdbDestroyPrepare  func(stmt *uintptr)
	duckdbNParams         func(stmt uintptr) uint64
	duckdbBindNull        func(stmt uintptr, idx uint64) int32
	duckdbBindBoolean     func(stmt uintptr, idx uint64, val bool) int32
	duckdbBindInt64       func(stmt uintptr, idx uint64, val int64) int32
	duckdbBindUint64      func(stmt uintptr, idx uint64, val uint64) int32
	duckdbBindDouble      func(stmt uintptr, idx uint64, val float64) int32
	duckdbBindVarchar     func(stmt uintptr, idx uint64, val string) int32
	duckdbBindBlob        func(stmt uintptr, idx uint64, data unsafe.Pointer, length uint64) int32
	duckdbExecutePrepared func(stmt uintptr, outResult unsafe.Pointer) int32

	// Chunked (vectorized) result API
	duckdbResultChunkCount     func(result cResult) uint64
	duckdbResultGetChunk       func(result cResult, idx uint64) uintptr
	duckdbDestroyDataChunk     func(chunk *uintptr)
	duckdbDataChunkGetSize     func(chunk uintptr) uint64
	duckdbDataChunkColumnCount func(chunk uintptr) uint64
	duckdbDataChunkGetVector   func(chunk uintptr, col uint64) uintptr
	duckdbVectorGetColumnType  func(vector uintptr) uintptr
	duckdbVectorGetData        func(vector uintptr) uintptr
	duckdbVectorGetValidity    func(vector uintptr) uintptr
	duckdbListVectorGetChild   func(vector uintptr) uintptr
	duckdbStructVectorGetChild func(vector uintptr, idx uint64) uintptr
	duckdbArrayVectorGetChild  func(vector uintptr) uintptr

	// Logical type introspection
	duckdbGetTypeID            func(lt uintptr) uint32
	duckdbDestroyLogicalType   func(lt *uintptr)
	duckdbDecimalWidth         func(lt uintptr) uint8
	duckdbDecimalScale         func(lt uintptr) uint8
	duckdbDecimalInternalType  func(lt uintptr) uint32
	duckdbEnumInternalType     func(lt uintptr) uint32
	duckdbEnumDictionarySize   func(lt uintptr) uint32
	duckdbEnumDictionaryValue  func(lt uintptr, idx uint64) uintptr
	duckdbListTypeChildType    func(lt uintptr) uintptr
	duckdbArrayTypeChildType   func(lt uintptr) uintptr
	duckdbArrayTypeArraySize   func(lt uintptr) uint64
	duckdbStructTypeChildCount func(lt uintptr) uint64
	duckdbStructTypeChildName  func(lt uintptr, idx uint64) uintptr
	duckdbStructTypeChildType  func(lt uintptr, idx uint64) uintptr
	duckdbMapTypeKeyType       func(lt uintptr) uintptr
	duckdbMapTypeValueType     func(lt uintptr) uintptr

	// Appender
	duckdbAppenderCreate      func(conn uintptr, schema unsafe.Pointer, table unsafe.Pointer, outAppender *uintptr) int32
	duckdbAppenderCreateExt   func(conn uintptr, catalog unsafe.Pointer, schema unsafe.Pointer, table unsafe.Pointer, outAppender *uintptr) int32
	duckdbAppenderError       func(appender uintptr) string
	duckdbAppenderColumnCount func(appender uintptr) uint64
	duckdbAppenderFlush       func(appender uintptr) int32
	duckdbAppenderClose       func(appender uintptr) int32
	duckdbAppenderDestroy     func(appender *uintptr) int32
	duckdbAppenderEndRow      func(appender uintptr) int32
	duckdbAppendBool          func(appender uintptr, val bool) int32
	duckdbAppendInt8          func(appender uintptr, val int8) int32
	duckdbAppendInt16         func(appender uintptr, val int16) int32
	duckdbAppendInt32         func(appender uintptr, val int32) int32
	duckdbAppendInt64         func(appender uintptr, val int64) int32
	duckdbAppendUint8         func(appender uintptr, val uint8) int32
	duckdbAppendUint16        func(appender uintptr, val uint16) int32
	duckdbAppendUint32        func(appender uintptr, val uint32) int32
	duckdbAppendUint64        func(appender uintptr, val uint64) int32
	duckdbAppendFloat         func(appender uintptr, val float32) int32
	duckdbAppendDouble        func(appender uintptr, val float64) int32
	duckdbAppendVarchar       func(appender uintptr, val string) int32
	duckdbAppendBlob          func(appender uintptr, data unsafe.Pointer, length uint64) int32
	duckdbAppendNull          func(appender uintptr) int32
	// duckdb_timestamp and duckdb_hugeint are single- and two-word structs;
	// they pass by value in integer registers, so plain integer parameters
	// match the ABI exactly.
	duckdbAppendTimestamp func(appender uintptr, micros int64) int32
	duckdbAppendHugeint   func(appender uintptr, lower uint64, upper int64) int32
)

// LibraryAvailable reports whether the DuckDB shared library could be loaded.
func LibraryAvailable() bool {
	loadLibrary()
	return libLoaded
}

// LibraryError returns the error that occurred while loading the DuckDB
// shared library, if any.
func LibraryError() error {
	loadLibrary()
	return libError
}

// LibraryPath returns the path the DuckDB shared library was loaded from.
func LibraryPath() string {
	loadLibrary()
	return libPath
}

// ensureLib loads the shared library on first use. Every public entry point
// that reaches the engine calls this first.
func ensureLib() error {
	loadLibrary()
	if !libLoaded {
		return NewError(ErrConnection, fmt.Sprintf("duckdb shared library not available: %v", libError))
	}
	return nil
}

func loadLibrary() {
	libOnce.Do(func() {
		path, handle, err := openFirstCandidate()
		if err != nil {
			libError = err
			return
		}
		libPath = path
		libHandler = handle

		registerFunctions(handle)
		libLoaded = true
	})
}

// openFirstCandidate probes the library search locations in order and opens
// the first one that both loads and exposes the duckdb API. A candidate
// that loads but is not a duckdb library is released again and skipped.
func openFirstCandidate() (string, uintptr, error) {
	var lastErr error
	for _, candidate := range libraryCandidates() {
		handle, err := openLibrary(candidate)
		if err != nil {
			lastErr = err
			continue
		}
		if err := probeLibrary(handle); err != nil {
			closeLibrary(handle)
			lastErr = fmt.Errorf("%s: %w", candidate, err)
			continue
		}
		return candidate, handle, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no duckdb library candidates to try")
	}
	return "", 0, fmt.Errorf("failed to load duckdb library: %w", lastErr)
}

// probeLibrary checks that the handle exposes the duckdb API before the
// full symbol set is registered. Registration panics on a missing symbol,
// so a foreign library has to be rejected here, while its handle can still
// be closed.
func probeLibrary(handle uintptr) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("not a duckdb library: %v", r)
		}
	}()
	var version func() string
	purego.RegisterLibFunc(&version, handle, "duckdb_library_version")
	return nil
}

// libraryCandidates builds the ordered list of paths to try. An explicit
// DUCKDB_LIBRARY_PATH wins; otherwise the platform soname is probed next to
// the executable, in the working directory, and finally through the system
// loader's own search path.
func libraryCandidates() []string {
	if explicit := os.Getenv("DUCKDB_LIBRARY_PATH"); explicit != "" {
		return []string{explicit}
	}

	var libName string
	switch runtime.GOOS {
	case "windows":
		libName = "duckdb.dll"
	case "darwin":
		libName = "libduckdb.dylib"
	default:
		libName = "libduckdb.so"
	}

	candidates := []string{}
	if dir := os.Getenv("DUCKDB_LIB_DIR"); dir != "" {
		candidates = append(candidates, filepath.Join(dir, libName))
	}
	if execPath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(execPath), libName))
	}
	candidates = append(candidates,
		// Explicit "./" so the loader checks the working directory instead
		// of treating this as a plain soname.
		"./"+libName,
		// Bare soname: let the dynamic loader search its configured paths.
		libName,
	)
	return candidates
}

// registerFunctions binds every engine entry point the package uses. A
// missing symbol panics inside purego; the symbol set below is stable across
// the DuckDB 1.x C API.
func registerFunctions(handle uintptr) {
	purego.RegisterLibFunc(&duckdbOpen, handle, "duckdb_open")
	purego.RegisterLibFunc(&duckdbOpenExt, handle, "duckdb_open_ext")
	purego.RegisterLibFunc(&duckdbClose, handle, "duckdb_close")
	purego.RegisterLibFunc(&duckdbConnect, handle, "duckdb_connect")
	purego.RegisterLibFunc(&duckdbDisconnect, handle, "duckdb_disconnect")
	purego.RegisterLibFunc(&duckdbCreateConfig, handle, "duckdb_create_config")
	purego.RegisterLibFunc(&duckdbSetConfig, handle, "duckdb_set_config")
	purego.RegisterLibFunc(&duckdbDestroyConfig, handle, "duckdb_destroy_config")
	purego.RegisterLibFunc(&duckdbLibVersion, handle, "duckdb_library_version")
	purego.RegisterLibFunc(&duckdbFree, handle, "duckdb_free")

	purego.RegisterLibFunc(&duckdbQuery, handle, "duckdb_query")
	purego.RegisterLibFunc(&duckdbDestroyResult, handle, "duckdb_destroy_result")
	purego.RegisterLibFunc(&duckdbResultError, handle, "duckdb_result_error")
	purego.RegisterLibFunc(&duckdbColumnName, handle, "duckdb_column_name")
	purego.RegisterLibFunc(&duckdbColumnType, handle, "duckdb_column_type")
	purego.RegisterLibFunc(&duckdbColumnCount, handle, "duckdb_column_count")
	purego.RegisterLibFunc(&duckdbRowCount, handle, "duckdb_row_count")
	purego.RegisterLibFunc(&duckdbRowsChanged, handle, "duckdb_rows_changed")
	purego.RegisterLibFunc(&duckdbValueVarchar, handle, "duckdb_value_varchar")
	purego.RegisterLibFunc(&duckdbValueIsNull, handle, "duckdb_value_is_null")
	purego.RegisterLibFunc(&duckdbValueBlob, handle, "duckdb_value_blob")

	purego.RegisterLibFunc(&duckdbPrepare, handle, "duckdb_prepare")
	purego.RegisterLibFunc(&duckdbPrepareError, handle, "duckdb_prepare_error")
	purego.RegisterLibFunc(&duckdbDestroyPrepare, handle, "duckdb_destroy_prepare")
	purego.RegisterLibFunc(&duckdbNParams, handle, "duckdb_nparams")
	purego.RegisterLibFunc(&duckdbBindNull, handle, "duckdb_bind_null")
	purego.RegisterLibFunc(&duckdbBindBoolean, handle, "duckdb_bind_boolean")
	purego.RegisterLibFunc(&duckdbBindInt64, handle, "duckdb_bind_int64")
	purego.RegisterLibFunc(&duckdbBindUint64, handle, "duckdb_bind_uint64")
	purego.RegisterLibFunc(&duckdbBindDouble, handle, "duckdb_bind_double")
	purego.RegisterLibFunc(&duckdbBindVarchar, handle, "duckdb_bind_varchar")
	purego.RegisterLibFunc(&duckdbBindBlob, handle, "duckdb_bind_blob")
	purego.RegisterLibFunc(&duckdbExecutePrepared, handle, "duckdb_execute_prepared")

	purego.RegisterLibFunc(&duckdbResultChunkCount, handle, "duckdb_result_chunk_count")
	purego.RegisterLibFunc(&duckdbResultGetChunk, handle, "duckdb_result_get_chunk")
	purego.RegisterLibFunc(&duckdbDestroyDataChunk, handle, "duckdb_destroy_data_chunk")
	purego.RegisterLibFunc(&duckdbDataChunkGetSize, handle, "duckdb_data_chunk_get_size")
	purego.RegisterLibFunc(&duckdbDataChunkColumnCount, handle, "duckdb_data_chunk_get_column_count")
	purego.RegisterLibFunc(&duckdbDataChunkGetVector, handle, "duckdb_data_chunk_get_vector")
	purego.RegisterLibFunc(&duckdbVectorGetColumnType, handle, "duckdb_vector_get_column_type")
	purego.RegisterLibFunc(&duckdbVectorGetData, handle, "duckdb_vector_get_data")
	purego.RegisterLibFunc(&duckdbVectorGetValidity, handle, "duckdb_vector_get_validity")
	purego.RegisterLibFunc(&duckdbListVectorGetChild, handle, "duckdb_list_vector_get_child")
	purego.RegisterLibFunc(&duckdbStructVectorGetChild, handle, "duckdb_struct_vector_get_child")
	purego.RegisterLibFunc(&duckdbArrayVectorGetChild, handle, "duckdb_array_vector_get_child")

	purego.RegisterLibFunc(&duckdbGetTypeID, handle, "duckdb_get_type_id")
	purego.RegisterLibFunc(&duckdbDestroyLogicalType, handle, "duckdb_destroy_logical_type")
	purego.RegisterLibFunc(&duckdbDecimalWidth, handle, "duckdb_decimal_width")
	purego.RegisterLibFunc(&duckdbDecimalScale, handle, "duckdb_decimal_scale")
	purego.RegisterLibFunc(&duckdbDecimalInternalType, handle, "duckdb_decimal_internal_type")
	purego.RegisterLibFunc(&duckdbEnumInternalType, handle, "duckdb_enum_internal_type")
	purego.RegisterLibFunc(&duckdbEnumDictionarySize, handle, "duckdb_enum_dictionary_size")
	purego.RegisterLibFunc(&duckdbEnumDictionaryValue, handle, "duckdb_enum_dictionary_value")
	purego.RegisterLibFunc(&duckdbListTypeChildType, handle, "duckdb_list_type_child_type")
	purego.RegisterLibFunc(&duckdbArrayTypeChildType, handle, "duckdb_array_type_child_type")
	purego.RegisterLibFunc(&duckdbArrayTypeArraySize, handle, "duckdb_array_type_array_size")
	purego.RegisterLibFunc(&duckdbStructTypeChildCount, handle, "duckdb_struct_type_child_count")
	purego.RegisterLibFunc(&duckdbStructTypeChildName, handle, "duckdb_struct_type_child_name")
	purego.RegisterLibFunc(&duckdbStructTypeChildType, handle, "duckdb_struct_type_child_type")
	purego.RegisterLibFunc(&duckdbMapTypeKeyType, handle, "duckdb_map_type_key_type")
	purego.RegisterLibFunc(&duckdbMapTypeValueType, handle, "duckdb_map_type_value_type")

	purego.RegisterLibFunc(&duckdbAppenderCreate, handle, "duckdb_appender_create")
	purego.RegisterLibFunc(&duckdbAppenderCreateExt, handle, "duckdb_appender_create_ext")
	purego.RegisterLibFunc(&duckdbAppenderError, handle, "duckdb_appender_error")
	purego.RegisterLibFunc(&duckdbAppenderColumnCount, handle, "duckdb_appender_column_count")
	purego.RegisterLibFunc(&duckdbAppenderFlush, handle, "duckdb_appender_flush")
	purego.RegisterLibFunc(&duckdbAppenderClose, handle, "duckdb_appender_close")
	purego.RegisterLibFunc(&duckdbAppenderDestroy, handle, "duckdb_appender_destroy")
	purego.RegisterLibFunc(&duckdbAppenderEndRow, handle, "duckdb_appender_end_row")
	purego.RegisterLibFunc(&duckdbAppendBool, handle, "duckdb_append_bool")
	purego.RegisterLibFunc(&duckdbAppendInt8, handle, "duckdb_append_int8")
	purego.RegisterLibFunc(&duckdbAppendInt16, handle, "duckdb_append_int16")
	purego.RegisterLibFunc(&duckdbAppendInt32, handle, "duckdb_append_int32")
	purego.RegisterLibFunc(&duckdbAppendInt64, handle, "duckdb_append_int64")
	purego.RegisterLibFunc(&duckdbAppendUint8, handle, "duckdb_append_uint8")
	purego.RegisterLibFunc(&duckdbAppendUint16, handle, "duckdb_append_uint16")
	purego.RegisterLibFunc(&duckdbAppendUint32, handle, "duckdb_append_uint32")
	purego.RegisterLibFunc(&duckdbAppendUint64, handle, "duckdb_append_uint64")
	purego.RegisterLibFunc(&duckdbAppendFloat, handle, "duckdb_append_float")
	purego.RegisterLibFunc(&duckdbAppendDouble, handle, "duckdb_append_double")
	purego.RegisterLibFunc(&duckdbAppendVarchar, handle, "duckdb_append_varchar")
	purego.RegisterLibFunc(&duckdbAppendBlob, handle, "duckdb_append_blob")
	purego.RegisterLibFunc(&duckdbAppendNull, handle, "duckdb_append_null")
	purego.RegisterLibFunc(&duckdbAppendTimestamp, handle, "duckdb_append_timestamp")
	purego.RegisterLibFunc(&duckdbAppendHugeint, handle, "duckdb_append_hugeint")
}

// goStringFromPtr copies a NUL-terminated C string into Go memory. It does
// not free the C pointer.
func goStringFromPtr(p uintptr) string {
	if p == 0 {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Pointer(p + uintptr(n))) != 0 {
		n++
	}
	if n == 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
}

// goBytesFromPtr copies exactly n bytes from C memory, preserving embedded
// NUL bytes. It does not free the C pointer.
func goBytesFromPtr(p uintptr, n uint64) []byte {
	out := make([]byte, n)
	if p == 0 || n == 0 {
		return out
	}
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
	return out
}

// takeCString copies a duckdb-allocated C string and releases the original.
func takeCString(p uintptr) string {
	if p == 0 {
		return ""
	}
	s := goStringFromPtr(p)
	duckdbFree(p)
	return s
}

// cString builds a NUL-terminated byte buffer for C consumption. Callers
// pass the address of the first byte and must keep the slice alive across
// the call.
func cString(s string) []byte {
	buf := make([]byte, len(s)+1)
	copy(buf, s)
	return buf
}
