package frozenarrow

import (
	"reflect"
	"strings"

	"frozenarrow/exec"
	"frozenarrow/farrowerr"
	"frozenarrow/sql"
	"frozenarrow/translate"
)

// ExecuteSQL parses and translates query against the collection's schema
// and executes it, returning the dyn-typed Result.
func (c *Collection) ExecuteSQL(query string) (*Result, error) {
	translated, err := c.translateSQL(query)
	if err != nil {
		return nil, err
	}
	return c.Execute(translated)
}

func (c *Collection) translateSQL(query string) (*translate.Translated, error) {
	stmt, err := sql.Parse(query)
	if err != nil {
		return nil, err
	}
	return sql.Translate(c.schema, int64(c.batch.NumRows()), stmt)
}

// ExecuteSQLAs runs query against c and maps each output row onto a
// freshly zero-valued R, matching output columns to R's exported fields
// by a `col:"name"` tag or, absent one, a case-insensitive name match —
// the same tag-then-name-fallback convention a database row mapper uses.
// R must be a struct type.
func ExecuteSQLAs[R any](c *Collection, query string) ([]R, error) {
	res, err := c.ExecuteSQL(query)
	if err != nil {
		return nil, err
	}
	rows, err := c.Rows(res)
	if err != nil {
		return nil, err
	}
	out := make([]R, len(rows))
	for i, row := range rows {
		if err := assignStruct(&out[i], row); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ExecuteSQLScalar runs query against c and converts its single scalar
// result (an aggregate, or an Any/All boolean) into R. It is an error for
// query to produce a row sequence or group set instead of a scalar.
func ExecuteSQLScalar[R any](c *Collection, query string) (R, error) {
	var zero R
	res, err := c.ExecuteSQL(query)
	if err != nil {
		return zero, err
	}
	switch res.Terminal {
	case translate.TerminalScalarAgg:
		return convertAggResult[R](res.Scalar)
	case translate.TerminalAny, translate.TerminalAll:
		v, ok := any(res.Matched).(R)
		if !ok {
			return zero, farrowerr.New(farrowerr.TypeMismatch, "frozenarrow: scalar result is bool, R is %T", zero)
		}
		return v, nil
	default:
		return zero, farrowerr.New(farrowerr.TypeMismatch, "frozenarrow: query does not produce a scalar result")
	}
}

func convertAggResult[R any](res exec.AggResult) (R, error) {
	var zero R
	target := reflect.TypeOf(zero)
	var rv reflect.Value
	if res.IsFloat {
		rv = reflect.ValueOf(res.Float64Value)
	} else {
		rv = reflect.ValueOf(res.Int64Value)
	}
	if target == nil || !rv.Type().ConvertibleTo(target) {
		return zero, farrowerr.New(farrowerr.TypeMismatch, "frozenarrow: cannot convert aggregate result into %T", zero)
	}
	converted := rv.Convert(target).Interface().(R)
	return converted, nil
}

// assignStruct copies row's values into *dst's exported fields. A field
// tagged `col:"name"` binds to that output column; an untagged field
// binds to the first output column whose name matches case-insensitively.
// Unmatched fields are left at their zero value; unmatched row columns
// are ignored, matching a permissive projection mapper rather than a
// strict schema check.
func assignStruct(dst interface{}, row map[string]interface{}) error {
	rv := reflect.ValueOf(dst).Elem()
	if rv.Kind() != reflect.Struct {
		return farrowerr.New(farrowerr.TypeMismatch, "frozenarrow: ExecuteSQLAs requires a struct type, got %s", rv.Type())
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Tag.Get("col")
		if name == "" {
			name = field.Name
		}
		value, ok := lookupColumn(row, name)
		if !ok || value == nil {
			continue
		}
		if err := setFieldValue(rv.Field(i), value); err != nil {
			return err
		}
	}
	return nil
}

func lookupColumn(row map[string]interface{}, name string) (interface{}, bool) {
	if v, ok := row[name]; ok {
		return v, true
	}
	for k, v := range row {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}

func setFieldValue(field reflect.Value, value interface{}) error {
	rv := reflect.ValueOf(value)
	if rv.Type() == field.Type() {
		field.Set(rv)
		return nil
	}
	if !rv.Type().ConvertibleTo(field.Type()) {
		return farrowerr.New(farrowerr.TypeMismatch, "frozenarrow: cannot assign %s into field of type %s", rv.Type(), field.Type())
	}
	field.Set(rv.Convert(field.Type()))
	return nil
}
