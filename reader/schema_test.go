package reader

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExtractSchemaInfo_PrimitiveTypes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.parquet")
	writeParquet(t, path, sales())

	infos, err := ExtractSchemaInfo(path)
	if err != nil {
		t.Fatalf("ExtractSchemaInfo() error = %v", err)
	}

	fieldMap := make(map[string]SchemaInfo)
	for _, info := range infos {
		fieldMap[info.Name] = info
	}

	tests := []struct {
		name     string
		typ      string
		physical string
		optional bool
	}{
		{"id", "INT64", "INT64", false},
		{"region", "STRING", "BYTE_ARRAY", false},
		{"units", "INT64", "INT32", false},
		{"price", "FLOAT64", "DOUBLE", false},
		{"rebate", "FLOAT64", "FLOAT", false},
		{"paid", "BOOLEAN", "BOOLEAN", false},
		{"at", "TIMESTAMP", "INT64", false},
		{"note", "STRING", "BYTE_ARRAY", true},
	}
	for _, tt := range tests {
		info, ok := fieldMap[tt.name]
		if !ok {
			t.Errorf("field %s not found in schema", tt.name)
			continue
		}
		if info.Type != tt.typ {
			t.Errorf("field %s type = %s, want %s", tt.name, info.Type, tt.typ)
		}
		if info.PhysicalType != tt.physical {
			t.Errorf("field %s physical type = %s, want %s", tt.name, info.PhysicalType, tt.physical)
		}
		if info.Optional != tt.optional {
			t.Errorf("field %s optional = %v, want %v", tt.name, info.Optional, tt.optional)
		}
	}
	if fieldMap["at"].LogicalType == "" {
		t.Errorf("timestamp column should carry a logical type")
	}
}

func TestExtractSchemaInfo_NestedAndRepeated(t *testing.T) {
	type Address struct {
		Street string `parquet:"street"`
		City   string `parquet:"city"`
	}
	type Row struct {
		ID      int64    `parquet:"id"`
		Address Address  `parquet:"address"`
		Tags    []string `parquet:"tags"`
	}
	path := filepath.Join(t.TempDir(), "nested.parquet")
	writeParquet(t, path, []Row{{ID: 1, Address: Address{Street: "1 Main St", City: "Springfield"}, Tags: []string{"x"}}})

	infos, err := ExtractSchemaInfo(path)
	if err != nil {
		t.Fatalf("ExtractSchemaInfo() error = %v", err)
	}
	fieldMap := make(map[string]SchemaInfo)
	for _, info := range infos {
		fieldMap[info.Name] = info
	}

	for _, name := range []string{"address.street", "address.city"} {
		info, ok := fieldMap[name]
		if !ok {
			t.Errorf("%s field not found in schema", name)
			continue
		}
		if info.Type != Unsupported {
			t.Errorf("%s type = %s, want %s", name, info.Type, Unsupported)
		}
	}
	if tags, ok := fieldMap["tags"]; !ok || !tags.Repeated || tags.Type != Unsupported {
		t.Errorf("tags = %+v, want a repeated unsupported field", tags)
	}
	if fieldMap["id"].Type != "INT64" {
		t.Errorf("id type = %s, want INT64", fieldMap["id"].Type)
	}
}

func TestExtractSchemaInfo_FileNotFound(t *testing.T) {
	if _, err := ExtractSchemaInfo("nonexistent.parquet"); err == nil {
		t.Errorf("ExtractSchemaInfo() expected error for non-existent file, got nil")
	}
}

func TestExtractSchemaInfo_InvalidParquetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.parquet")
	if err := os.WriteFile(path, []byte("not a parquet file"), 0644); err != nil {
		t.Fatalf("failed to create invalid file: %v", err)
	}
	if _, err := ExtractSchemaInfo(path); err == nil {
		t.Errorf("ExtractSchemaInfo() expected error for invalid parquet file, got nil")
	}
}
