package duckdb

import (
	"context"
	"math"
	"math/big"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestConn opens an in-memory database, skipping the test when the
// DuckDB shared library is not installed on the machine running the tests.
func openTestConn(t *testing.T) *Connection {
	t.Helper()
	if !LibraryAvailable() {
		t.Skipf("duckdb shared library not available: %v", LibraryError())
	}
	conn, err := NewConnection("")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func queryAllRows(t *testing.T, conn *Connection, sql string) [][]Value {
	t.Helper()
	res, err := conn.Query(sql)
	require.NoError(t, err)
	defer res.Destroy()
	rows, err := res.AllRows()
	require.NoError(t, err)
	return rows
}

func TestQueryError(t *testing.T) {
	conn := openTestConn(t)

	_, err := conn.Query("SELEC 1")
	require.Error(t, err)
	assert.True(t, IsError(err, ErrQuery))
	assert.NotEmpty(t, err.(*Error).Message)
}

func TestChunkedScalarExtraction(t *testing.T) {
	conn := openTestConn(t)

	rows := queryAllRows(t, conn, `SELECT
		true,
		(-128)::TINYINT, 32767::SMALLINT, (-2147483648)::INTEGER, 9223372036854775807::BIGINT,
		255::UTINYINT, 65535::USMALLINT, 4294967295::UINTEGER, 18446744073709551615::UBIGINT,
		1.5::FLOAT, -2.25::DOUBLE,
		'hello', ''::VARCHAR,
		NULL`)
	require.Len(t, rows, 1)
	row := rows[0]

	assert.Equal(t, true, row[0])
	assert.Equal(t, int8(-128), row[1])
	assert.Equal(t, int16(32767), row[2])
	assert.Equal(t, int32(-2147483648), row[3])
	assert.Equal(t, int64(9223372036854775807), row[4])
	assert.Equal(t, uint8(255), row[5])
	assert.Equal(t, uint16(65535), row[6])
	assert.Equal(t, uint32(4294967295), row[7])
	assert.Equal(t, uint64(18446744073709551615), row[8])
	assert.Equal(t, float32(1.5), row[9])
	assert.Equal(t, -2.25, row[10])
	assert.Equal(t, "hello", row[11])
	assert.Equal(t, "", row[12])
	assert.Nil(t, row[13])
}

func TestChunkedFloatSpecialValues(t *testing.T) {
	conn := openTestConn(t)

	rows := queryAllRows(t, conn, `SELECT 'nan'::DOUBLE, 'inf'::DOUBLE, '-inf'::DOUBLE`)
	require.Len(t, rows, 1)

	assert.True(t, math.IsNaN(rows[0][0].(float64)))
	assert.True(t, math.IsInf(rows[0][1].(float64), 1))
	assert.True(t, math.IsInf(rows[0][2].(float64), -1))
}

func TestChunkedTemporalExtraction(t *testing.T) {
	conn := openTestConn(t)

	rows := queryAllRows(t, conn, `SELECT
		DATE '2000-01-01',
		TIME '12:34:56.789012',
		TIMESTAMP '2000-01-01 12:30:45.123456',
		INTERVAL 2 MONTH + INTERVAL 3 DAY + INTERVAL 5 SECOND`)
	require.Len(t, rows, 1)
	row := rows[0]

	assert.Equal(t, "2000-01-01", row[0])
	assert.Equal(t, "12:34:56.789012", row[1])
	assert.Equal(t, "2000-01-01 12:30:45.123456", row[2])
	assert.Equal(t, Interval{Months: 2, Days: 3, Micros: 5 * microsPerSecond}, row[3])
}

func TestHugeintExtractionSplit(t *testing.T) {
	conn := openTestConn(t)

	rows := queryAllRows(t, conn, `SELECT
		42::HUGEINT,
		(-9223372036854775808)::HUGEINT,
		170141183460469231731687303715884105727::HUGEINT,
		(-170141183460469231731687303715884105728)::HUGEINT`)
	require.Len(t, rows, 1)
	row := rows[0]

	// Within int64 range: native integers.
	assert.Equal(t, int64(42), row[0])
	assert.Equal(t, int64(math.MinInt64), row[1])
	// Beyond: exact decimal strings.
	assert.Equal(t, "170141183460469231731687303715884105727", row[2])
	assert.Equal(t, "-170141183460469231731687303715884105728", row[3])
}

func TestDecimalExtraction(t *testing.T) {
	conn := openTestConn(t)

	rows := queryAllRows(t, conn, `SELECT
		123::DECIMAL(4,0),
		123.45::DECIMAL(5,2),
		12345678901234567890.5::DECIMAL(25,1)`)
	require.Len(t, rows, 1)
	row := rows[0]

	assert.Equal(t, int64(123), row[0])
	assert.InDelta(t, 123.45, row[1], 1e-9)
	assert.InDelta(t, 12345678901234567890.5, row[2], 1e4)
}

func TestEnumExtraction(t *testing.T) {
	conn := openTestConn(t)

	_, err := conn.Exec(`CREATE TYPE mood AS ENUM ('sad', 'ok', 'happy')`)
	require.NoError(t, err)

	rows := queryAllRows(t, conn, `SELECT 'happy'::mood, 'sad'::mood`)
	require.Len(t, rows, 1)
	assert.Equal(t, "happy", rows[0][0])
	assert.Equal(t, "sad", rows[0][1])
}

func TestBlobEmbeddedNulRoundTrip(t *testing.T) {
	conn := openTestConn(t)

	rows := queryAllRows(t, conn, `SELECT '\x00\x61\x00\x62'::BLOB`)
	require.Len(t, rows, 1)
	assert.Equal(t, []byte{0, 'a', 0, 'b'}, rows[0][0])
}

func TestUUIDChunkedRoundTrip(t *testing.T) {
	conn := openTestConn(t)

	for _, text := range []string{
		"00000000-0000-0000-0000-000000000000",
		"ffffffff-ffff-ffff-ffff-ffffffffffff",
		"a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11",
	} {
		rows := queryAllRows(t, conn, "SELECT '"+text+"'::UUID")
		require.Len(t, rows, 1)

		got, ok := rows[0][0].(string)
		require.True(t, ok)
		assert.Equal(t, text, got)

		parsed, err := uuid.Parse(got)
		require.NoError(t, err)
		assert.Equal(t, uuid.MustParse(text), parsed)
	}
}

func TestRowMaterializerUUIDWorkaround(t *testing.T) {
	conn := openTestConn(t)

	const sql = `SELECT 'a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11'::UUID AS u, 7 AS a, 'x' AS b`

	// Row path: any UUID column in a multi-column result blanks every cell.
	res, err := conn.Query(sql)
	require.NoError(t, err)
	rows, err := res.Rows()
	res.Destroy()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	for i, cell := range rows[0] {
		assert.Nil(t, cell, "column %d", i)
	}

	// Chunked path: the same result decodes fully.
	res, err = conn.Query(sql)
	require.NoError(t, err)
	defer res.Destroy()
	chunked, err := res.AllRows()
	require.NoError(t, err)
	require.Len(t, chunked, 1)
	assert.Equal(t, "a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11", chunked[0][0])
	assert.Equal(t, int32(7), chunked[0][1])
	assert.Equal(t, "x", chunked[0][2])
}

func TestRowMaterializerSingleUUIDColumn(t *testing.T) {
	conn := openTestConn(t)

	res, err := conn.Query(`SELECT 'a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11'::UUID`)
	require.NoError(t, err)
	defer res.Destroy()

	rows, err := res.Rows()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11", rows[0][0])
}

func TestRowMaterializerScalars(t *testing.T) {
	conn := openTestConn(t)

	res, err := conn.Query(`SELECT 42, -7::TINYINT, 3.5::DOUBLE, 'text', true, NULL`)
	require.NoError(t, err)
	defer res.Destroy()

	rows, err := res.Rows()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	row := rows[0]

	// The row path string-round-trips, so integers come back at full width.
	assert.Equal(t, int64(42), row[0])
	assert.Equal(t, int64(-7), row[1])
	assert.Equal(t, 3.5, row[2])
	assert.Equal(t, "text", row[3])
	assert.Equal(t, true, row[4])
	assert.Nil(t, row[5])
}

func TestNestedListRoundTrip(t *testing.T) {
	conn := openTestConn(t)

	rows := queryAllRows(t, conn,
		`SELECT l FROM (VALUES ([]::INTEGER[]), ([1]), ([1, 2, 3])) t(l)`)
	require.Len(t, rows, 3)

	assert.Equal(t, []Value{}, rows[0][0], "empty list is not null")
	assert.Equal(t, []Value{int32(1)}, rows[1][0])
	assert.Equal(t, []Value{int32(1), int32(2), int32(3)}, rows[2][0])
}

func TestNestedStructRoundTrip(t *testing.T) {
	conn := openTestConn(t)

	rows := queryAllRows(t, conn, `SELECT {'a': 5, 'b': 'x'}`)
	require.Len(t, rows, 1)

	assert.Equal(t, map[string]Value{"a": int32(5), "b": "x"}, rows[0][0])
}

func TestNestedMapRoundTrip(t *testing.T) {
	conn := openTestConn(t)

	rows := queryAllRows(t, conn, `SELECT MAP {'k1': 1, 'k2': 2}`)
	require.Len(t, rows, 1)

	assert.Equal(t, map[string]Value{"k1": int32(1), "k2": int32(2)}, rows[0][0])
}

func TestFixedSizeArrayRoundTrip(t *testing.T) {
	conn := openTestConn(t)

	// Multiple rows so the row*size child stride is exercised, not just
	// the first array.
	rows := queryAllRows(t, conn,
		`SELECT a FROM (VALUES ([1, 2, 3]::INTEGER[3]), ([4, 5, 6]::INTEGER[3])) t(a)`)
	require.Len(t, rows, 2)

	assert.Equal(t, []Value{int32(1), int32(2), int32(3)}, rows[0][0])
	assert.Equal(t, []Value{int32(4), int32(5), int32(6)}, rows[1][0])
}

func TestFixedSizeArrayWithNullElements(t *testing.T) {
	conn := openTestConn(t)

	rows := queryAllRows(t, conn, `SELECT [1, NULL, 3]::INTEGER[3]`)
	require.Len(t, rows, 1)

	assert.Equal(t, []Value{int32(1), nil, int32(3)}, rows[0][0])
}

func TestDeeplyNestedExtraction(t *testing.T) {
	conn := openTestConn(t)

	rows := queryAllRows(t, conn, `SELECT [{'n': 1}, {'n': 2}]`)
	require.Len(t, rows, 1)

	assert.Equal(t, []Value{
		map[string]Value{"n": int32(1)},
		map[string]Value{"n": int32(2)},
	}, rows[0][0])
}

func TestTimestampTZExtractsSentinel(t *testing.T) {
	conn := openTestConn(t)

	rows := queryAllRows(t, conn, `SELECT TIMESTAMPTZ '2000-01-01 00:00:00+00'`)
	require.Len(t, rows, 1)
	assert.Equal(t, SentinelTimestampTZ, rows[0][0])
}

func TestUnionExtractsSentinel(t *testing.T) {
	conn := openTestConn(t)

	rows := queryAllRows(t, conn, `SELECT union_value(num := 2)`)
	require.Len(t, rows, 1)
	assert.Equal(t, SentinelUnion, rows[0][0])
}

func TestColumnsMetadata(t *testing.T) {
	conn := openTestConn(t)

	res, err := conn.Query(`SELECT 1 AS id, 'x' AS name, '00000000-0000-0000-0000-000000000000'::UUID AS tag`)
	require.NoError(t, err)
	defer res.Destroy()

	cols, err := res.Columns()
	require.NoError(t, err)
	require.Len(t, cols, 3)
	assert.Equal(t, Column{Name: "id", Type: TagInteger}, cols[0])
	assert.Equal(t, Column{Name: "name", Type: TagVarchar}, cols[1])
	assert.Equal(t, Column{Name: "tag", Type: TagUUID}, cols[2])

	assert.Equal(t, uint64(3), res.ColumnCount())
	assert.Equal(t, uint64(1), res.RowCount())
}

func TestGetChunkIndexOutOfRange(t *testing.T) {
	conn := openTestConn(t)

	res, err := conn.Query(`SELECT 1`)
	require.NoError(t, err)
	defer res.Destroy()

	count, err := res.ChunkCount()
	require.NoError(t, err)

	_, err = res.GetChunk(count)
	require.Error(t, err)
	assert.True(t, IsError(err, ErrIndex))
}

func TestResultDestroyWithoutExtraction(t *testing.T) {
	conn := openTestConn(t)

	res, err := conn.Query(`SELECT range FROM range(1000)`)
	require.NoError(t, err)

	// Destroying a result that was never read, twice, must not fault.
	res.Destroy()
	res.Destroy()

	_, err = res.Rows()
	require.Error(t, err)
	assert.True(t, IsError(err, ErrResource))
}

func TestAppenderEndToEnd(t *testing.T) {
	conn := openTestConn(t)

	_, err := conn.Exec(`CREATE TABLE items (id TINYINT, name VARCHAR, score DOUBLE)`)
	require.NoError(t, err)

	app, err := NewAppender(conn, "", "items")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), app.ColumnCount())

	require.NoError(t, app.AppendInt8(100))
	require.NoError(t, app.AppendVarchar("first"))
	require.NoError(t, app.AppendFloat64(0.5))
	require.NoError(t, app.EndRow())

	require.NoError(t, app.AppendRow(int8(-5), nil, 1.25))
	require.NoError(t, app.Close())

	rows := queryAllRows(t, conn, `SELECT id, name, score FROM items ORDER BY id`)
	require.Len(t, rows, 2)
	assert.Equal(t, []Value{int8(-5), nil, 1.25}, rows[0])
	assert.Equal(t, []Value{int8(100), "first", 0.5}, rows[1])
}

func TestAppenderRangeFailureLeavesTableUntouched(t *testing.T) {
	conn := openTestConn(t)

	_, err := conn.Exec(`CREATE TABLE narrow (v TINYINT)`)
	require.NoError(t, err)

	app, err := NewAppender(conn, "", "narrow")
	require.NoError(t, err)
	defer app.Destroy()

	err = app.AppendInt8(200)
	require.Error(t, err)
	assert.True(t, IsError(err, ErrRange))

	require.NoError(t, app.AppendInt8(100))
	require.NoError(t, app.EndRow())
	require.NoError(t, app.Close())

	rows := queryAllRows(t, conn, `SELECT v FROM narrow`)
	require.Len(t, rows, 1)
	assert.Equal(t, int8(100), rows[0][0])
}

func TestAppenderCreateUnknownTable(t *testing.T) {
	conn := openTestConn(t)

	_, err := NewAppender(conn, "", "no_such_table")
	require.Error(t, err)
	assert.True(t, IsError(err, ErrAppender))
}

func TestAppenderDestroyAfterClose(t *testing.T) {
	conn := openTestConn(t)

	_, err := conn.Exec(`CREATE TABLE once (v INTEGER)`)
	require.NoError(t, err)

	app, err := NewAppender(conn, "", "once")
	require.NoError(t, err)
	require.NoError(t, app.AppendRow(int32(1)))
	require.NoError(t, app.Close())

	require.NoError(t, app.Destroy())
	require.NoError(t, app.Destroy())
}

func TestAppendTimestampAndUUID(t *testing.T) {
	conn := openTestConn(t)

	_, err := conn.Exec(`CREATE TABLE events (id UUID, at TIMESTAMP)`)
	require.NoError(t, err)

	id := uuid.MustParse("a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11")

	app, err := NewAppender(conn, "", "events")
	require.NoError(t, err)
	require.NoError(t, app.AppendUUID(id))
	require.NoError(t, app.AppendTimestamp(TimeFromTimestamp(946_730_096_000_000)))
	require.NoError(t, app.EndRow())
	require.NoError(t, app.Close())

	rows := queryAllRows(t, conn, `SELECT id, at FROM events`)
	require.Len(t, rows, 1)
	assert.Equal(t, id.String(), rows[0][0])
	assert.Equal(t, formatTimestamp(946_730_096_000_000), rows[0][1])
}

func TestAppendHugeintEndToEnd(t *testing.T) {
	conn := openTestConn(t)

	_, err := conn.Exec(`CREATE TABLE wide (v HUGEINT)`)
	require.NoError(t, err)

	big128, ok := new(big.Int).SetString("170141183460469231731687303715884105727", 10)
	require.True(t, ok)

	app, err := NewAppender(conn, "", "wide")
	require.NoError(t, err)
	require.NoError(t, app.AppendHugeint(big.NewInt(42)))
	require.NoError(t, app.EndRow())
	require.NoError(t, app.AppendHugeint(big128))
	require.NoError(t, app.EndRow())
	require.NoError(t, app.Close())

	rows := queryAllRows(t, conn, `SELECT v FROM wide ORDER BY v`)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(42), rows[0][0])
	assert.Equal(t, big128.String(), rows[1][0])
}

func TestPreparedStatement(t *testing.T) {
	conn := openTestConn(t)

	_, err := conn.Exec(`CREATE TABLE kv (k VARCHAR, v INTEGER)`)
	require.NoError(t, err)

	stmt, err := conn.Prepare(`INSERT INTO kv VALUES (?, ?)`)
	require.NoError(t, err)
	defer stmt.Destroy()
	assert.Equal(t, uint64(2), stmt.ParameterCount())

	res, err := stmt.Execute("a", 1)
	require.NoError(t, err)
	res.Destroy()

	res, err = stmt.Execute("b", nil)
	require.NoError(t, err)
	res.Destroy()

	rows := queryAllRows(t, conn, `SELECT k, v FROM kv ORDER BY k`)
	require.Len(t, rows, 2)
	assert.Equal(t, []Value{"a", int32(1)}, rows[0])
	assert.Equal(t, []Value{"b", nil}, rows[1])
}

func TestPreparedStatementUnsignedBindKeepsFullRange(t *testing.T) {
	conn := openTestConn(t)

	stmt, err := conn.Prepare(`SELECT ?::UBIGINT`)
	require.NoError(t, err)
	defer stmt.Destroy()

	// A value above MaxInt64 must arrive unchanged, not sign-flipped.
	res, err := stmt.Execute(uint64(math.MaxUint64))
	require.NoError(t, err)
	rows, err := res.AllRows()
	res.Destroy()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, uint64(math.MaxUint64), rows[0][0])

	res, err = stmt.Execute(uint(math.MaxInt64) + 1)
	require.NoError(t, err)
	rows, err = res.AllRows()
	res.Destroy()
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxInt64)+1, rows[0][0])
}

func TestPreparedStatementParameterMismatch(t *testing.T) {
	conn := openTestConn(t)

	stmt, err := conn.Prepare(`SELECT ? + ?`)
	require.NoError(t, err)
	defer stmt.Destroy()

	_, err = stmt.Execute(1)
	require.Error(t, err)
	assert.True(t, IsError(err, ErrBadArgument))

	_, err = stmt.Execute(1, 2, 3)
	require.Error(t, err)
	assert.True(t, IsError(err, ErrBadArgument))
}

func TestPreparedStatementSyntaxError(t *testing.T) {
	conn := openTestConn(t)

	_, err := conn.Prepare(`SELEC ?`)
	require.Error(t, err)
	assert.True(t, IsError(err, ErrPrepare))
	assert.NotEmpty(t, err.(*Error).Message)
}

func TestTransactionRollback(t *testing.T) {
	conn := openTestConn(t)

	_, err := conn.Exec(`CREATE TABLE tx_test (v INTEGER)`)
	require.NoError(t, err)

	require.NoError(t, conn.Begin())
	_, err = conn.Exec(`INSERT INTO tx_test VALUES (1)`)
	require.NoError(t, err)
	require.NoError(t, conn.Rollback())

	rows := queryAllRows(t, conn, `SELECT count(*) FROM tx_test`)
	assert.Equal(t, int64(0), rows[0][0])

	require.NoError(t, conn.Begin())
	_, err = conn.Exec(`INSERT INTO tx_test VALUES (2)`)
	require.NoError(t, err)
	require.NoError(t, conn.Commit())

	rows = queryAllRows(t, conn, `SELECT count(*) FROM tx_test`)
	assert.Equal(t, int64(1), rows[0][0])
}

func TestConfigOptions(t *testing.T) {
	if !LibraryAvailable() {
		t.Skipf("duckdb shared library not available: %v", LibraryError())
	}

	cfg, err := NewConfig()
	require.NoError(t, err)
	defer cfg.Destroy()

	require.NoError(t, cfg.Set("max_memory", "1GB"))

	err = cfg.Set("definitely_not_an_option", "1")
	require.Error(t, err)

	db, err := OpenWithConfig("", cfg)
	require.NoError(t, err)
	defer db.Close()

	conn, err := db.Connect()
	require.NoError(t, err)
	defer conn.Close()

	rows := queryAllRows(t, conn, `SELECT 1`)
	assert.Equal(t, int32(1), rows[0][0])
}

func TestConnectionCloseIsIdempotent(t *testing.T) {
	conn := openTestConn(t)
	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())

	_, err := conn.Query(`SELECT 1`)
	require.Error(t, err)
	assert.True(t, IsError(err, ErrResource))
}

func TestAllRowsParallelMatchesSequential(t *testing.T) {
	conn := openTestConn(t)

	const sql = `SELECT range, range * 2, 'row_' || range FROM range(10000)`

	res, err := conn.Query(sql)
	require.NoError(t, err)
	sequential, err := res.AllRows()
	res.Destroy()
	require.NoError(t, err)

	res, err = conn.Query(sql)
	require.NoError(t, err)
	defer res.Destroy()
	parallel, err := res.AllRowsParallel(context.Background())
	require.NoError(t, err)

	assert.Equal(t, sequential, parallel)
}

func TestVersionReporting(t *testing.T) {
	if !LibraryAvailable() {
		t.Skipf("duckdb shared library not available: %v", LibraryError())
	}

	v, err := GetDuckDBVersion()
	require.NoError(t, err)
	assert.NotEmpty(t, v.String())
	assert.True(t, v.AtLeast(0, 9, 0))
}
