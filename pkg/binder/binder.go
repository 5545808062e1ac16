// Package binder copies request form values into tagged struct fields.
//
//	type Req struct {
//	    From  string   `form:"from"`
//	    Users []string `form:"users[]"`
//	}
//
// A key ending in "[]" also matches the same key without brackets.
// String values are trimmed of surrounding whitespace.
package binder

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeFor[time.Duration]()

var (
	ErrNotPointer      = errors.New("binder: target must be a non-nil pointer to a struct")
	ErrUnsupportedType = errors.New("binder: unsupported field type")
	ErrParse           = errors.New("binder: failed to parse value")
)

// maxMemory bounds multipart forms kept in memory.
const maxMemory = 8 << 20

// Form parses the request body (urlencoded or multipart) and query string.
func Form() func(*http.Request, any) error {
	return func(r *http.Request, v any) error {
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			if err := r.ParseMultipartForm(maxMemory); err != nil {
				return errors.Join(ErrParse, err)
			}
		} else if err := r.ParseForm(); err != nil {
			return errors.Join(ErrParse, err)
		}
		return Values(r.Form, v)
	}
}

// Values binds vals into the struct pointed to by v.
func Values(vals url.Values, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return ErrNotPointer
	}
	rv = rv.Elem()
	rt := rv.Type()

	for i := range rt.NumField() {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}

		key, _, _ := strings.Cut(sf.Tag.Get("form"), ",")
		if key == "" || key == "-" {
			continue
		}

		raw, ok := lookup(vals, key)
		if !ok {
			continue
		}

		if err := set(rv.Field(i), raw); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
	}

	return nil
}

func lookup(vals url.Values, key string) ([]string, bool) {
	if raw, ok := vals[key]; ok {
		return raw, true
	}
	if base, found := strings.CutSuffix(key, "[]"); found {
		raw, ok := vals[base]
		return raw, ok
	}
	return nil, false
}

func set(f reflect.Value, raw []string) error {
	if f.Kind() == reflect.Slice {
		out := reflect.MakeSlice(f.Type(), 0, len(raw))
		for _, s := range raw {
			elem := reflect.New(f.Type().Elem()).Elem()
			if err := setScalar(elem, s); err != nil {
				return err
			}
			out = reflect.Append(out, elem)
		}
		f.Set(out)
		return nil
	}

	if len(raw) == 0 {
		return nil
	}
	return setScalar(f, raw[0])
}

func setScalar(f reflect.Value, s string) error {
	s = strings.TrimSpace(s)

	if f.Type() == durationType {
		if s == "" {
			return nil
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return errors.Join(ErrParse, err)
		}
		f.SetInt(int64(d))
		return nil
	}

	switch f.Kind() {
	case reflect.String:
		f.SetString(s)
	case reflect.Bool:
		switch strings.ToLower(s) {
		case "", "0", "off", "no", "false":
			f.SetBool(false)
		case "1", "on", "yes", "true":
			f.SetBool(true)
		default:
			return fmt.Errorf("%w: %q is not a boolean", ErrParse, s)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if s == "" {
			return nil
		}
		n, err := strconv.ParseInt(s, 10, f.Type().Bits())
		if err != nil {
			return errors.Join(ErrParse, err)
		}
		f.SetInt(n)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, f.Type())
	}

	return nil
}
