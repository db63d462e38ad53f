package result

import (
	"fmt"
	"reflect"
	"strings"
)

// missingValue is the rendering for a missing optional field, matching
// original_source's OutputFields.generateLine().
const missingValue = "."

// Headers walks v's exported fields and returns their flattened column
// names: nested structs are recursed into and prefixed as
// <outer>_<inner>, grounded on
// original_source/output/OutputFields.java's reflection-based walk,
// reimplemented here using Go's reflect package and `col` struct tags in
// place of Java's public-field convention.
func Headers(v interface{}) []string {
	return headers(reflect.TypeOf(v), "")
}

func headers(t reflect.Type, prefix string) []string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return []string{prefix}
	}
	var out []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue // unexported
		}
		name := columnName(f)
		full := name
		if prefix != "" {
			full = prefix + "_" + name
		}
		ft := f.Type
		for ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct && ft != reflect.TypeOf(struct{}{}) && !isLeafStruct(ft) {
			out = append(out, headers(ft, full)...)
		} else {
			out = append(out, full)
		}
	}
	return out
}

// Row flattens v's field values in the same order as Headers, rendering
// missing optional values as ".".
func Row(v interface{}) []string {
	return row(reflect.ValueOf(v))
}

func row(v reflect.Value) []string {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			n := len(headers(v.Type().Elem(), ""))
			out := make([]string, n)
			for i := range out {
				out[i] = missingValue
			}
			return out
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct || isLeafStruct(v.Type()) {
		return []string{formatValue(v)}
	}
	var out []string
	for i := 0; i < v.NumField(); i++ {
		f := v.Type().Field(i)
		if f.PkgPath != "" {
			continue
		}
		fv := v.Field(i)
		switch fv.Kind() {
		case reflect.Struct:
			if isLeafStruct(fv.Type()) {
				out = append(out, formatValue(fv))
			} else {
				out = append(out, row(fv)...)
			}
		case reflect.Ptr:
			out = append(out, row(fv)...)
		case reflect.Slice, reflect.Array:
			out = append(out, formatSlice(fv))
		default:
			out = append(out, formatValue(fv))
		}
	}
	return out
}

// isLeafStruct reports whether t should be rendered as a single column
// rather than recursed into. genome.ReferencePosition embeds
// GenomePosition and has its own String(); treat any type with a String
// method as a leaf to avoid over-flattening value types that already
// render cleanly.
func isLeafStruct(t reflect.Type) bool {
	_, hasString := t.MethodByName("String")
	return hasString
}

func formatValue(v reflect.Value) string {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return missingValue
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return missingValue
	}
	if s, ok := v.Interface().(fmt.Stringer); ok {
		return s.String()
	}
	switch v.Kind() {
	case reflect.String:
		if v.String() == "" {
			return missingValue
		}
		return v.String()
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

func formatSlice(v reflect.Value) string {
	if v.Len() == 0 {
		return missingValue
	}
	parts := make([]string, v.Len())
	for i := range parts {
		parts[i] = formatValue(v.Index(i))
	}
	return strings.Join(parts, ",")
}

func columnName(f reflect.StructField) string {
	if tag := f.Tag.Get("col"); tag != "" {
		return tag
	}
	return f.Name
}
