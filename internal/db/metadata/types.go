package metadata

import (
	"strings"

	"github.com/rebeliceyang/lazyfilter/internal/models"
)

// FieldTypeFor maps a database column type to a field type. dataType is the
// information_schema data_type (or a declared SQLite type) and udtName the
// underlying type name.
func FieldTypeFor(dataType, udtName string) models.FieldType {
	dt := strings.ToLower(strings.TrimSpace(dataType))
	udt := strings.ToLower(strings.TrimSpace(udtName))

	switch dt {
	case "boolean", "bool":
		return models.FieldTypeCheck
	case "date":
		return models.FieldTypeDate
	case "timestamp", "timestamptz", "datetime",
		"timestamp without time zone", "timestamp with time zone":
		return models.FieldTypeDatetime
	case "time", "time without time zone", "time with time zone":
		return models.FieldTypeTime
	case "smallint", "integer", "bigint", "int", "int2", "int4", "int8", "serial", "bigserial":
		return models.FieldTypeInt
	case "real", "double precision", "float4", "float8", "double", "float":
		return models.FieldTypeFloat
	case "numeric", "decimal":
		return models.FieldTypeFloat
	case "money":
		return models.FieldTypeCurrency
	case "text":
		return models.FieldTypeText
	case "character varying", "varchar", "character", "char", "citext", "uuid", "name":
		return models.FieldTypeData
	case "json", "jsonb", "xml":
		return models.FieldTypeCode
	case "array":
		return models.FieldTypeTag
	case "tsvector":
		return models.FieldTypeReadOnly
	case "user-defined":
		// enums are turned into Select by the caller once choices are known
		return models.FieldTypeData
	}

	switch udt {
	case "bool":
		return models.FieldTypeCheck
	case "int2", "int4", "int8":
		return models.FieldTypeInt
	case "float4", "float8", "numeric":
		return models.FieldTypeFloat
	}

	return sqliteAffinity(dt)
}

// sqliteAffinity applies SQLite's column affinity rules to a declared type
func sqliteAffinity(declared string) models.FieldType {
	switch {
	case declared == "":
		return models.FieldTypeData
	case strings.Contains(declared, "int"):
		return models.FieldTypeInt
	case strings.Contains(declared, "char"), strings.Contains(declared, "clob"):
		return models.FieldTypeData
	case strings.Contains(declared, "text"):
		return models.FieldTypeText
	case strings.Contains(declared, "real"), strings.Contains(declared, "floa"), strings.Contains(declared, "doub"):
		return models.FieldTypeFloat
	case strings.Contains(declared, "date"), strings.Contains(declared, "time"):
		return models.FieldTypeDatetime
	case strings.Contains(declared, "bool"):
		return models.FieldTypeCheck
	default:
		return models.FieldTypeData
	}
}
