/*
Package duckdb marshals DuckDB's native columnar values to and from plain Go
values without CGO. The engine's shared library is loaded at runtime, so the
package builds anywhere Go builds; the first call that reaches the engine
loads libduckdb from DUCKDB_LIBRARY_PATH, the executable's directory or the
system loader's search path.

# Opening and querying

	conn, err := duckdb.NewConnection(":memory:")
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	res, err := conn.Query(`SELECT range, range * 2 FROM range(5)`)
	if err != nil {
		log.Fatal(err)
	}
	defer res.Destroy()

	rows, err := res.AllRows()

# Two extraction paths

Rows() materializes through the engine's per-cell string accessor. It is
simple but string-round-trips every value and inherits an engine defect
around UUID columns in multi-column results (see Result.Rows).

ChunkCount/GetChunk plus DataChunk.Rows (or the AllRows/AllRowsParallel
helpers) decode the columnar vectors directly: every scalar type at its
native width, 128-bit integers losslessly, and the nested list, array,
struct and map types recursively. This is the authoritative path.

# Values

Cells arrive as Go values: nil for SQL NULL, native bools, sized integers
and floats, string, []byte, TimeTZ, Interval, []Value for lists and arrays,
map[string]Value for structs and maps. Hugeint values outside the int64
range arrive as exact decimal strings.

# Bulk loading

Appender buffers rows into a table through the engine's bulk-insert cursor:

	app, _ := duckdb.NewAppender(conn, "", "users")
	app.AppendRow(int32(1), "alice")
	app.Close()

The integer append methods range-check locally before touching the engine.
*/
package duckdb
