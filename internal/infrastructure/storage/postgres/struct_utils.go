package postgres

import (
	"reflect"
	"sync"
)

// ExtractDBColumns returns the column names declared by T's "db" tags,
// in field order. Embedded structs are flattened.
func ExtractDBColumns[T any]() []string {
	var zero T
	meta := typeMetadataOf(reflect.TypeOf(zero))
	cols := make([]string, len(meta.fields))
	for i, f := range meta.fields {
		cols[i] = f.column
	}
	return cols
}

// RowValues returns v's db-tagged field values in ExtractDBColumns order.
// Used to build COPY rows from domain structs.
func RowValues(v any) []any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	meta := typeMetadataOf(rv.Type())
	values := make([]any, len(meta.fields))
	for i, f := range meta.fields {
		values[i] = rv.FieldByIndex(f.index).Interface()
	}
	return values
}

type fieldInfo struct {
	index  []int
	column string
}

type typeMetadata struct {
	fields []fieldInfo
}

// typeCache holds *typeMetadata per reflect.Type.
var typeCache sync.Map

func typeMetadataOf(t reflect.Type) *typeMetadata {
	if t == nil {
		return &typeMetadata{}
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := typeCache.Load(t); ok {
		return cached.(*typeMetadata)
	}

	meta := &typeMetadata{}
	if t.Kind() == reflect.Struct {
		collectFields(t, nil, meta)
	}

	typeCache.Store(t, meta)
	return meta
}

func collectFields(t reflect.Type, prefix []int, meta *typeMetadata) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		index := append(append([]int{}, prefix...), i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			collectFields(field.Type, index, meta)
			continue
		}

		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		meta.fields = append(meta.fields, fieldInfo{index: index, column: tag})
	}
}
