package backup

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/booknook/internal/common"
	"github.com/fxamacker/cbor/v2"
)

// Format names a backup encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

// ParseFormat accepts "json" or "cbor" in any case; empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCBOR:
		return FormatCBOR, nil
	}
	return "", fmt.Errorf("%w: unknown backup format %q", common.ErrorValidation, s)
}

// FormatForPath picks the format from the file extension, falling back to def.
func FormatForPath(path string, def Format) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cbor":
		return FormatCBOR
	case ".json":
		return FormatJSON
	}
	return def
}

// Extension returns the file extension, dot included.
func (f Format) Extension() string {
	return "." + string(f)
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	// RFC 3339 strings keep nanoseconds; the default encodes whole seconds.
	encMode, err = cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(err)
	}
}

// Encode writes p to w in format f. JSON output is indented.
func Encode(w io.Writer, f Format, p *Payload) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(toWire(p)); err != nil {
			return fmt.Errorf("failed to encode json backup: %w", err)
		}
		return nil
	case FormatCBOR:
		if err := encMode.NewEncoder(w).Encode(toWire(p)); err != nil {
			return fmt.Errorf("failed to encode cbor backup: %w", err)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown backup format %q", common.ErrorValidation, f)
}

// Decode reads a payload in format f. Malformed input and missing
// collections are reported as common.ErrorValidation. Records are not
// validated here; see Payload.Validate.
func Decode(r io.Reader, f Format) (*Payload, error) {
	var w wire
	switch f {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&w); err != nil {
			return nil, fmt.Errorf("%w: malformed json backup: %w", common.ErrorValidation, err)
		}
	case FormatCBOR:
		if err := decMode.NewDecoder(r).Decode(&w); err != nil {
			return nil, fmt.Errorf("%w: malformed cbor backup: %w", common.ErrorValidation, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown backup format %q", common.ErrorValidation, f)
	}
	return w.payload()
}
