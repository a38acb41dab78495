package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// loadFromEnv loads configuration values from environment variables.
// PORT, as set by most hosting platforms, fills the listen address unless
// SCOREKEEPER_SERVER_ADDR is also set.
func loadFromEnv(cfg *Config) error {
	if err := loadStruct(reflect.ValueOf(cfg)); err != nil {
		return err
	}
	if port := os.Getenv("PORT"); port != "" && os.Getenv("SCOREKEEPER_SERVER_ADDR") == "" {
		if _, err := strconv.ParseUint(port, 10, 16); err != nil {
			return fmt.Errorf("invalid PORT %q", port)
		}
		cfg.Server.Address = ":" + port
	}
	return nil
}

// loadStruct walks a struct pointer and fills every field carrying an env tag.
func loadStruct(ptr reflect.Value) error {
	if ptr.Kind() != reflect.Ptr || ptr.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("expected pointer to struct, got %s", ptr.Kind())
	}
	val := ptr.Elem()
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		sf := typ.Field(i)

		// Recurse into nested structs to honor their env tags
		if field.Kind() == reflect.Struct {
			if err := loadStruct(field.Addr()); err != nil {
				return err
			}
			continue
		}

		name := sf.Tag.Get("env")
		if name == "" {
			continue
		}
		raw := os.Getenv(name)
		if raw == "" {
			continue // Skip if not set
		}
		if err := setField(field, raw); err != nil {
			return fmt.Errorf("failed to set field %s from env var %s: %w", sf.Name, name, err)
		}
	}
	return nil
}

// setField parses raw into field according to the field's kind.
func setField(field reflect.Value, raw string) error {
	if !field.CanSet() {
		return fmt.Errorf("field is not settable")
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)

	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean value: %s", raw)
		}
		field.SetBool(b)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == durationType {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return fmt.Errorf("invalid duration value: %s", raw)
			}
			field.SetInt(int64(d))
			return nil
		}
		n, err := strconv.ParseInt(raw, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer value: %s", raw)
		}
		field.SetInt(n)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		// comma-separated
		parts := strings.Split(raw, ",")
		slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
		for i, part := range parts {
			slice.Index(i).SetString(strings.TrimSpace(part))
		}
		field.Set(slice)

	case reflect.Map:
		if field.Type().Key().Kind() != reflect.String || field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported map type: %s", field.Type())
		}
		// key=value,key2=value2
		m := reflect.MakeMap(field.Type())
		for _, pair := range strings.Split(raw, ",") {
			kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
			if len(kv) != 2 {
				return fmt.Errorf("invalid map entry format: %s", pair)
			}
			m.SetMapIndex(reflect.ValueOf(kv[0]), reflect.ValueOf(kv[1]))
		}
		field.Set(m)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}
	return nil
}
