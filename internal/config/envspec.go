package config

import (
	"reflect"
	"strings"
)

type EnvVar struct {
	Name        string // short name under the PAYLINK_ prefix (e.g., "DATADIR")
	FullName    string // e.g., "PAYLINK_DATADIR"
	Type        string // human-readable type
	Default     string // default value as a string ("" if none)
	Description string // one-liner for docs
}

// EnvSpecs lists every environment variable read by LoadConfig, in
// declaration order.
func EnvSpecs() []EnvVar {
	prefix := EnvPrefix + "_"

	t := reflect.TypeOf(Config{})
	specs := make([]EnvVar, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Tag.Get("mapstructure")
		specs = append(specs, EnvVar{
			Name:        name,
			FullName:    prefix + name,
			Type:        envType(f),
			Default:     f.Tag.Get("envDefault"),
			Description: f.Tag.Get("envInfo"),
		})
	}
	return specs
}

func envType(f reflect.StructField) string {
	name := f.Tag.Get("mapstructure")
	switch {
	case strings.HasSuffix(name, "_PORT"):
		return "uint32 (port)"
	case strings.HasSuffix(name, "_URL"):
		return "string (URL)"
	case name == "DATADIR":
		return "string (path)"
	case name == "LEDGER_TIMEOUT" || name == "PENDING_TTL" || name == "SWEEP_INTERVAL":
		return "uint32 (seconds)"
	case name == "DEFAULT_FEE_PERCENT" || name == "MATCH_TOLERANCE":
		return "decimal"
	default:
		return f.Type.Kind().String()
	}
}

//go:generate go run ../../tools/gen-env-doc/main.go
