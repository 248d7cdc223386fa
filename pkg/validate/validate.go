// Package validate checks request structs against `validate` struct tags.
//
// Supported rules (comma-separated):
//
//	required        field must be present and non-zero (pointers: non-nil)
//	nullable        when empty, skip the remaining rules
//	email           valid email address
//	alpha_dash      letters, digits, hyphens and underscores
//	min=N / max=N   strings: length bounds; numbers: value bounds
//	gt=N / gte=N    number bounds
//	in=a|b|c        value must be one of the listed items
//
// Numbers include every Go numeric kind and any type with an
// InexactFloat64() method, such as decimal.Decimal.
//
//	type RegisterInput struct {
//	    Username string `json:"username" validate:"required,alpha_dash,max=50"`
//	    Email    string `json:"email"    validate:"required,email,max=100"`
//	    Role     string `json:"role"     validate:"nullable,in=farmer|consumer|staff"`
//	}
package validate

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// FieldError describes the first failing rule of one field.
type FieldError struct {
	Field   string
	Rule    string
	Message string
}

// Errors is the result of Struct; nil means valid.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Message
	}
	return strings.Join(parts, "; ")
}

// Map returns field → message, the shape rendered to clients.
func (e Errors) Map() map[string]string {
	out := make(map[string]string, len(e))
	for _, fe := range e {
		out[fe.Field] = fe.Message
	}
	return out
}

// Has reports whether any field failed rule.
func (e Errors) Has(rule string) bool {
	for _, fe := range e {
		if fe.Rule == rule {
			return true
		}
	}
	return false
}

var (
	emailRE     = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	alphaDashRE = regexp.MustCompile(`^[\p{L}\p{N}_-]+$`)
)

type floater interface{ InexactFloat64() float64 }

// Struct validates the exported fields of v that carry a `validate` tag,
// reporting at most one error per field.
func Struct(v any) Errors {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	var errs Errors
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" || !field.IsExported() {
			continue
		}

		name := jsonFieldName(field)
		value := rv.Field(i)
		rules := strings.Split(tag, ",")

		if contains(rules, "nullable") && isEmpty(value) {
			continue
		}
		for _, rule := range rules {
			if rule == "nullable" {
				continue
			}
			key, param, _ := strings.Cut(rule, "=")
			if msg := apply(key, param, name, value); msg != "" {
				errs = append(errs, FieldError{Field: name, Rule: key, Message: msg})
				break
			}
		}
	}
	return errs
}

func apply(rule, param, field string, v reflect.Value) string {
	if rule == "required" {
		if isEmpty(v) {
			return fmt.Sprintf("The %s field is required.", field)
		}
		return ""
	}

	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}

	switch rule {
	case "email":
		if !emailRE.MatchString(v.String()) {
			return fmt.Sprintf("The %s must be a valid email address.", field)
		}
	case "alpha_dash":
		if !alphaDashRE.MatchString(v.String()) {
			return fmt.Sprintf("The %s may only contain letters, numbers, dashes and underscores.", field)
		}
	case "in":
		raw := fmt.Sprint(v.Interface())
		for _, opt := range strings.Split(param, "|") {
			if raw == opt {
				return ""
			}
		}
		return fmt.Sprintf("The %s must be one of: %s.", field, strings.ReplaceAll(param, "|", ", "))
	case "min", "max", "gt", "gte":
		limit, err := strconv.ParseFloat(param, 64)
		if err != nil {
			return fmt.Sprintf("The %s has an invalid %s rule.", field, rule)
		}
		return bound(rule, limit, field, v)
	}
	return ""
}

func bound(rule string, limit float64, field string, v reflect.Value) string {
	if v.Kind() == reflect.String {
		n := float64(utf8.RuneCountInString(v.String()))
		switch {
		case rule == "min" && n < limit:
			return fmt.Sprintf("The %s must be at least %g characters.", field, limit)
		case rule == "max" && n > limit:
			return fmt.Sprintf("The %s may not be greater than %g characters.", field, limit)
		}
		return ""
	}

	n, ok := toFloat(v)
	if !ok {
		return ""
	}
	switch {
	case (rule == "min" || rule == "gte") && n < limit:
		return fmt.Sprintf("The %s must be at least %g.", field, limit)
	case rule == "max" && n > limit:
		return fmt.Sprintf("The %s may not be greater than %g.", field, limit)
	case rule == "gt" && n <= limit:
		return fmt.Sprintf("The %s must be greater than %g.", field, limit)
	}
	return ""
}

func toFloat(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	}
	if v.CanInterface() {
		if f, ok := v.Interface().(floater); ok {
			return f.InexactFloat64(), true
		}
	}
	return 0, false
}

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	}
	return v.IsZero()
}

func jsonFieldName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
		return name
	}
	return strings.ToLower(f.Name)
}

func contains(rules []string, target string) bool {
	for _, r := range rules {
		if r == target {
			return true
		}
	}
	return false
}
