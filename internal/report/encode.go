package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/newthinker/replay/internal/core"
	"gopkg.in/yaml.v3"
)

// Format is a serialization of a Document
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatText Format = "text"
)

// ParseFormat accepts json, yaml/yml and text/txt
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "text", "txt":
		return FormatText, nil
	default:
		return "", core.WrapError(core.ErrInvalidParam, fmt.Errorf("unknown report format %q", s))
	}
}

// Ext is the file extension for f
func (f Format) Ext() string {
	switch f {
	case FormatYAML:
		return ".yaml"
	case FormatText:
		return ".txt"
	default:
		return ".json"
	}
}

// ContentType is the MIME type for f
func (f Format) ContentType() string {
	switch f {
	case FormatYAML:
		return "application/yaml"
	case FormatText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Encode serializes doc
func Encode(doc *Document, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding json report: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encoding yaml report: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatText:
		var buf bytes.Buffer
		if err := WriteText(&buf, doc); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, core.WrapError(core.ErrInvalidParam, fmt.Errorf("unknown report format %q", f))
	}
}
