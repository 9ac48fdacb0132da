package service

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cadenza-player/cadenza/internal/domain"
)

// Engine adapters hand property values through as `any`: the IPC adapter
// produces json.Number for all numerics, the in-process mock produces native
// Go types. These coercions absorb both.

func asFloat(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func asInt64(value any) int64 {
	switch v := value.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			f, ferr := v.Float64()
			if ferr != nil {
				return 0
			}
			return int64(f)
		}
		return i
	default:
		return 0
	}
}

func asBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v == "yes" || v == "true"
	default:
		return false
	}
}

func asString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// localFileExists reports whether a local identity resolves to an existing
// file.
func localFileExists(identity string) bool {
	info, err := os.Stat(domain.LocalPath(identity))
	return err == nil && !info.IsDir()
}

// displayName derives the history display name for an identity: the base
// filename for local media, the identity itself for streams.
func displayName(identity string) string {
	if domain.IsLocalPath(identity) {
		return filepath.Base(domain.LocalPath(identity))
	}
	return identity
}
