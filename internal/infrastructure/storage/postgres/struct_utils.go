package postgres

import (
	"reflect"
	"sync"
)

// ExtractDBColumns lists the "db" tags of T in field order, descending into
// embedded structs. Fields tagged "-" or untagged are skipped.
//
//	cols := ExtractDBColumns[commercial.Document]()
//	// ["id", "version", "created_at", ..., "number", "kind", ...]
func ExtractDBColumns[T any]() []string {
	var zero T
	return columnsOf(reflect.TypeOf(zero))
}

func columnsOf(t reflect.Type) []string {
	meta := metadataOf(t)
	if meta == nil {
		return nil
	}

	var cols []string
	for _, f := range meta.fields {
		if f.embedded {
			cols = append(cols, columnsOf(f.typ)...)
			continue
		}
		cols = append(cols, f.column)
	}
	return cols
}

type columnField struct {
	index    int
	column   string
	embedded bool
	typ      reflect.Type
}

type structMetadata struct {
	fields []columnField
}

// metadataCache maps reflect.Type to *structMetadata.
var metadataCache sync.Map

func metadataOf(t reflect.Type) *structMetadata {
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	if cached, ok := metadataCache.Load(t); ok {
		return cached.(*structMetadata)
	}

	meta := &structMetadata{}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			meta.fields = append(meta.fields, columnField{index: i, embedded: true, typ: field.Type})
			continue
		}
		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		meta.fields = append(meta.fields, columnField{index: i, column: tag, typ: field.Type})
	}

	actual, _ := metadataCache.LoadOrStore(t, meta)
	return actual.(*structMetadata)
}

// StructToMap converts a struct (or pointer to one) into column → value
// using "db" tags. Embedded structs are flattened.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	res := make(map[string]any)
	fillMap(rv, res)
	return res
}

func fillMap(rv reflect.Value, res map[string]any) {
	meta := metadataOf(rv.Type())
	for _, f := range meta.fields {
		fv := rv.Field(f.index)
		if f.embedded {
			if fv.Kind() == reflect.Pointer {
				if fv.IsNil() {
					continue
				}
				fv = fv.Elem()
			}
			if fv.Kind() == reflect.Struct {
				fillMap(fv, res)
			}
			continue
		}
		res[f.column] = fv.Interface()
	}
}

// PickColumns keeps only the listed columns of data.
func PickColumns(data map[string]any, columns []string, skip ...string) map[string]any {
	out := make(map[string]any, len(columns))
	for _, col := range columns {
		if contains(skip, col) {
			continue
		}
		if v, ok := data[col]; ok {
			out[col] = v
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
