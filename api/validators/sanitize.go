package validators

import (
	"reflect"
	"strings"
	"unicode/utf8"
)

// SanitizeString trims input and caps it at maxLen characters, cutting only
// on rune boundaries.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && utf8.RuneCountInString(trimmed) > maxLen {
		return string([]rune(trimmed)[:maxLen])
	}
	return trimmed
}

// SanitizeOptional trims input and returns "" for whitespace-only values.
func SanitizeOptional(input *string, maxLen int) string {
	if input == nil {
		return ""
	}
	return SanitizeString(*input, maxLen)
}

// TrimStrings trims surrounding whitespace from the string and *string
// fields of the struct dest points at, descending into embedded and nested
// structs. Length rules then apply to the value that gets stored.
func TrimStrings(dest any) {
	v := reflect.ValueOf(dest)
	for v.Kind() == reflect.Pointer && !v.IsNil() {
		v = v.Elem()
	}
	if v.Kind() == reflect.Struct {
		trimStruct(v)
	}
}

func trimStruct(v reflect.Value) {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		if sf := t.Field(i); !sf.IsExported() && !sf.Anonymous {
			continue
		}
		f := v.Field(i)
		switch {
		case f.Kind() == reflect.Struct:
			trimStruct(f)
		case f.Kind() == reflect.Pointer && !f.IsNil() && f.Elem().Kind() == reflect.Struct:
			trimStruct(f.Elem())
		case f.Kind() == reflect.String && f.CanSet():
			f.SetString(strings.TrimSpace(f.String()))
		case f.Kind() == reflect.Pointer && !f.IsNil() && f.Elem().Kind() == reflect.String && f.Elem().CanSet():
			f.Elem().SetString(strings.TrimSpace(f.Elem().String()))
		}
	}
}
