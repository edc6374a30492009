package duckdb

// Native type identifiers as reported by the engine for columns, vectors and
// logical types. The numeric values are fixed by the DuckDB C API.
type nativeType uint32

const (
	typeInvalid     nativeType = 0
	typeBoolean     nativeType = 1
	typeTinyInt     nativeType = 2
	typeSmallInt    nativeType = 3
	typeInteger     nativeType = 4
	typeBigInt      nativeType = 5
	typeUTinyInt    nativeType = 6
	typeUSmallInt   nativeType = 7
	typeUInteger    nativeType = 8
	typeUBigInt     nativeType = 9
	typeFloat       nativeType = 10
	typeDouble      nativeType = 11
	typeTimestamp   nativeType = 12
	typeDate        nativeType = 13
	typeTime        nativeType = 14
	typeInterval    nativeType = 15
	typeHugeInt     nativeType = 16
	typeVarchar     nativeType = 17
	typeBlob        nativeType = 18
	typeDecimal     nativeType = 19
	typeTimestampS  nativeType = 20
	typeTimestampMS nativeType = 21
	typeTimestampNS nativeType = 22
	typeEnum        nativeType = 23
	typeList        nativeType = 24
	typeStruct      nativeType = 25
	typeMap         nativeType = 26
	typeUUID        nativeType = 27
	typeUnion       nativeType = 28
	typeBit         nativeType = 29
	typeTimeTZ      nativeType = 30
	typeTimestampTZ nativeType = 31
	typeUHugeInt    nativeType = 32
	typeArray       nativeType = 33
)

// TypeTag is the stable, engine-independent name of a column type. Column
// metadata reports these so callers can dispatch on type without knowing the
// engine's numeric identifiers.
type TypeTag string

const (
	TagBoolean     TypeTag = "boolean"
	TagTinyInt     TypeTag = "tinyint"
	TagSmallInt    TypeTag = "smallint"
	TagInteger     TypeTag = "integer"
	TagBigInt      TypeTag = "bigint"
	TagUTinyInt    TypeTag = "utinyint"
	TagUSmallInt   TypeTag = "usmallint"
	TagUInteger    TypeTag = "uinteger"
	TagUBigInt     TypeTag = "ubigint"
	TagFloat       TypeTag = "float"
	TagDouble      TypeTag = "double"
	TagTimestamp   TypeTag = "timestamp"
	TagDate        TypeTag = "date"
	TagTime        TypeTag = "time"
	TagInterval    TypeTag = "interval"
	TagHugeInt     TypeTag = "hugeint"
	TagUHugeInt    TypeTag = "uhugeint"
	TagVarchar     TypeTag = "varchar"
	TagBlob        TypeTag = "blob"
	TagDecimal     TypeTag = "decimal"
	TagTimestampS  TypeTag = "timestamp_s"
	TagTimestampMS TypeTag = "timestamp_ms"
	TagTimestampNS TypeTag = "timestamp_ns"
	TagEnum        TypeTag = "enum"
	TagList        TypeTag = "list"
	TagStruct      TypeTag = "struct"
	TagMap         TypeTag = "map"
	TagArray       TypeTag = "array"
	TagUUID        TypeTag = "uuid"
	TagUnion       TypeTag = "union"
	TagBit         TypeTag = "bit"
	TagTimeTZ      TypeTag = "time_tz"
	TagTimestampTZ TypeTag = "timestamp_tz"
	TagUnknown     TypeTag = "unknown"
)

var typeTags = map[nativeType]TypeTag{
	typeBoolean:     TagBoolean,
	typeTinyInt:     TagTinyInt,
	typeSmallInt:    TagSmallInt,
	typeInteger:     TagInteger,
	typeBigInt:      TagBigInt,
	typeUTinyInt:    TagUTinyInt,
	typeUSmallInt:   TagUSmallInt,
	typeUInteger:    TagUInteger,
	typeUBigInt:     TagUBigInt,
	typeFloat:       TagFloat,
	typeDouble:      TagDouble,
	typeTimestamp:   TagTimestamp,
	typeDate:        TagDate,
	typeTime:        TagTime,
	typeInterval:    TagInterval,
	typeHugeInt:     TagHugeInt,
	typeUHugeInt:    TagUHugeInt,
	typeVarchar:     TagVarchar,
	typeBlob:        TagBlob,
	typeDecimal:     TagDecimal,
	typeTimestampS:  TagTimestampS,
	typeTimestampMS: TagTimestampMS,
	typeTimestampNS: TagTimestampNS,
	typeEnum:        TagEnum,
	typeList:        TagList,
	typeStruct:      TagStruct,
	typeMap:         TagMap,
	typeArray:       TagArray,
	typeUUID:        TagUUID,
	typeUnion:       TagUnion,
	typeBit:         TagBit,
	typeTimeTZ:      TagTimeTZ,
	typeTimestampTZ: TagTimestampTZ,
}

// tagOf maps a native type identifier to its TypeTag. Identifiers this
// package does not recognize map to TagUnknown rather than failing, so newer
// engine versions degrade gracefully.
func tagOf(t nativeType) TypeTag {
	if tag, ok := typeTags[t]; ok {
		return tag
	}
	return TagUnknown
}
