// Package config loads configuration structs from YAML files and
// environment variables using `env`, `yaml`, `default` and `required`
// struct tags. Environment variables always win over file values, and
// defaults only fill fields nothing else has set.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Validator lets a config struct carry its own validation. When the target
// of GetConfig or GetConfigFromEnvVars implements it, Validate runs after
// loading and its error aborts the load.
type Validator interface {
	Validate() error
}

// GetConfig loads dest from a YAML file and then overlays environment
// variables. ${VAR} placeholders in the file are expanded from the
// environment before parsing; unset variables expand to "". An empty
// filepath skips the file entirely. With allowFileErrors set, unreadable
// or unparsable files fall back to environment variables instead of
// failing.
func GetConfig[T any](dest *T, filepath string, allowFileErrors bool) error {
	if filepath == "" {
		return GetConfigFromEnvVars(dest)
	}

	data, err := os.ReadFile(filepath)
	if err != nil {
		if allowFileErrors {
			return GetConfigFromEnvVars(dest)
		}
		return fmt.Errorf("failed to read file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), dest); err != nil {
		if allowFileErrors {
			return GetConfigFromEnvVars(dest)
		}
		return fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return GetConfigFromEnvVars(dest)
}

// GetConfigFromEnvVars overlays environment variables onto dest, fills
// defaults, and enforces required fields. On a required-field or default
// error dest is reset to its zero value so callers cannot use a half
// loaded config.
func GetConfigFromEnvVars[T any](dest *T) error {
	val := reflect.ValueOf(dest).Elem()

	fromEnv, err := overlayEnv(val, val.Type())
	if err != nil {
		return err
	}

	if err := fillDefaults(val, val.Type(), fromEnv); err != nil {
		var zero T
		*dest = zero
		return err
	}

	if validator, ok := any(*dest).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}

	return nil
}

// overlayEnv walks the struct and sets any field whose env tag names a
// non-empty environment variable. It returns the set of fields written,
// keyed by struct type name plus field name, so fillDefaults can tell an
// explicit zero from an untouched field.
func overlayEnv(val reflect.Value, typ reflect.Type) (map[string]bool, error) {
	fromEnv := make(map[string]bool)

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		if field.Kind() == reflect.Struct {
			nested, err := overlayEnv(field, fieldType.Type)
			if err != nil {
				return nil, err
			}
			for k := range nested {
				fromEnv[k] = true
			}
			continue
		}

		tag := fieldType.Tag.Get("env")
		if tag == "" {
			continue
		}
		raw := os.Getenv(tag)
		if raw == "" {
			continue
		}

		if err := assign(field, raw); err != nil {
			return nil, err
		}
		fromEnv[typ.Name()+"."+fieldType.Name] = true
	}

	return fromEnv, nil
}

// fillDefaults applies default tags to untouched zero fields and reports
// missing required fields. A required tag is ignored when a default is
// present. Problems are accumulated so one pass reports them all.
func fillDefaults(val reflect.Value, typ reflect.Type, fromEnv map[string]bool) error {
	var result error

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		if field.Kind() == reflect.Struct {
			if err := fillDefaults(field, fieldType.Type, fromEnv); err != nil {
				result = multierror.Append(result, err)
			}
			continue
		}

		defaultTag := fieldType.Tag.Get("default")
		requiredTag := strings.ToLower(fieldType.Tag.Get("required"))
		required := (requiredTag == "true" || requiredTag == "1") && defaultTag == ""

		if field.IsZero() && required {
			result = multierror.Append(result, fmt.Errorf("required field env:%s / yaml:%s is missing",
				fieldType.Tag.Get("env"), fieldType.Tag.Get("yaml")))
			continue
		}

		if field.IsZero() && defaultTag != "" && !fromEnv[typ.Name()+"."+fieldType.Name] {
			if err := assign(field, defaultTag); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}

	return result
}

// assign parses raw into the field according to its type. Duration fields
// are detected before the int64 kind check since time.Duration is an int64
// underneath.
func assign(field reflect.Value, raw string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("failed to convert %s to duration: %v", raw, err)
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("failed to convert %s to int: %v", raw, err)
		}
		field.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("failed to convert %s to float64: %v", raw, err)
		}
		field.SetFloat(f)
	case reflect.Float32:
		f, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return fmt.Errorf("failed to convert %s to float32: %v", raw, err)
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("failed to convert %s to bool: %v", raw, err)
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", field.Type())
		}
		parts := strings.Split(raw, ",")
		slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
		for i, part := range parts {
			slice.Index(i).SetString(strings.TrimSpace(part))
		}
		field.Set(slice)
	default:
		return fmt.Errorf("unsupported kind %s", field.Kind())
	}

	return nil
}
