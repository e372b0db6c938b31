package reader

import (
	"github.com/cockroachdb/errors"
	"github.com/parquet-go/parquet-go"
)

// Unsupported is the SchemaInfo.Type of columns ReadBatch leaves out.
const Unsupported = "UNSUPPORTED"

// SchemaInfo represents metadata about a single column in a Parquet file.
type SchemaInfo struct {
	Name         string `json:"name" yaml:"name"`
	Type         string `json:"type" yaml:"type"`
	PhysicalType string `json:"physical_type" yaml:"physical_type"`
	LogicalType  string `json:"logical_type,omitempty" yaml:"logical_type,omitempty"`
	Required     bool   `json:"required" yaml:"required"`
	Optional     bool   `json:"optional" yaml:"optional"`
	Repeated     bool   `json:"repeated" yaml:"repeated"`
}

// ExtractSchemaInfo lists every leaf column of a Parquet file with the batch
// type it loads as.
//
// For nested types, field names use dot notation (e.g., "address.street").
// Nested and repeated leaves are listed with type Unsupported.
func ExtractSchemaInfo(path string) ([]SchemaInfo, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	var infos []SchemaInfo
	for _, field := range r.Schema().Fields() {
		infos = append(infos, extractFieldInfo(field, "", false)...)
	}
	if len(infos) == 0 {
		return nil, errors.Newf("%s has no columns", path)
	}
	return infos, nil
}

// extractFieldInfo recursively collects leaf fields, tracking whether any
// parent field is repeated.
func extractFieldInfo(field parquet.Field, prefix string, parentRepeated bool) []SchemaInfo {
	name := field.Name()
	if prefix != "" {
		name = prefix + "." + name
	}
	repeated := parentRepeated || field.Repeated()

	if !field.Leaf() {
		var infos []SchemaInfo
		for _, child := range field.Fields() {
			infos = append(infos, extractFieldInfo(child, name, repeated)...)
		}
		return infos
	}

	typ := Unsupported
	if prefix == "" && !repeated {
		if t, _, ok := mapLeaf(field); ok {
			typ = t.String()
		}
	}
	return []SchemaInfo{{
		Name:         name,
		Type:         typ,
		PhysicalType: physicalType(field),
		LogicalType:  logicalType(field),
		Required:     field.Required(),
		Optional:     field.Optional(),
		Repeated:     repeated,
	}}
}

// physicalType returns the physical type name of a Parquet field.
func physicalType(field parquet.Field) string {
	if field.Type() == nil {
		return "GROUP"
	}

	switch field.Type().Kind() {
	case parquet.Boolean:
		return "BOOLEAN"
	case parquet.Int32:
		return "INT32"
	case parquet.Int64:
		return "INT64"
	case parquet.Int96:
		return "INT96"
	case parquet.Float:
		return "FLOAT"
	case parquet.Double:
		return "DOUBLE"
	case parquet.ByteArray:
		return "BYTE_ARRAY"
	case parquet.FixedLenByteArray:
		return "FIXED_LEN_BYTE_ARRAY"
	default:
		return "UNKNOWN"
	}
}

// logicalType returns the logical type annotation of a Parquet field, if any.
func logicalType(field parquet.Field) string {
	if field.Type() == nil {
		return ""
	}
	lt := field.Type().LogicalType()
	if lt == nil {
		return ""
	}
	return lt.String()
}
