package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/mikills/tinkerings/chartmcp/quickchart"
	"github.com/tidwall/gjson"
)

type ConfigKind int

const (
	ConfigStructured ConfigKind = iota + 1
	ConfigRaw
)

func (k ConfigKind) String() string {
	switch k {
	case ConfigStructured:
		return "structured"
	case ConfigRaw:
		return "raw"
	default:
		return "invalid"
	}
}

// ChartConfig is a Chart.js configuration, either as a decoded JSON object or
// as a raw string (a JavaScript object literal, which may contain functions).
// The zero value is invalid.
type ChartConfig struct {
	kind       ConfigKind
	structured map[string]any
	raw        string
}

func StructuredConfig(m map[string]any) ChartConfig {
	return ChartConfig{kind: ConfigStructured, structured: m}
}

func RawConfig(s string) ChartConfig {
	return ChartConfig{kind: ConfigRaw, raw: s}
}

// ParseChartConfig turns a decoded JSON value into a ChartConfig. Strings that
// hold a JSON object are decoded so they reach the service as an object.
func ParseChartConfig(v any) (ChartConfig, error) {
	switch t := v.(type) {
	case map[string]any:
		cfg := StructuredConfig(t)
		return cfg, cfg.Validate()
	case string:
		s := strings.TrimSpace(t)
		if gjson.Valid(s) && gjson.Parse(s).IsObject() {
			v, err := decodeJSON(s)
			if err != nil {
				return ChartConfig{}, invalid("config", "decode JSON object: %v", err)
			}
			return StructuredConfig(v.(map[string]any)), nil
		}
		cfg := RawConfig(t)
		return cfg, cfg.Validate()
	default:
		return ChartConfig{}, invalid("config", "must be an object or a string, got %s", jsonKind(v))
	}
}

func (c ChartConfig) Kind() ConfigKind { return c.kind }

func (c ChartConfig) Structured() (map[string]any, bool) {
	return c.structured, c.kind == ConfigStructured
}

func (c ChartConfig) Raw() (string, bool) {
	return c.raw, c.kind == ConfigRaw
}

func (c ChartConfig) Validate() error {
	switch c.kind {
	case ConfigStructured:
		if c.structured == nil {
			return invalid("config", "object must not be null")
		}
	case ConfigRaw:
		if strings.TrimSpace(c.raw) == "" {
			return invalid("config", "string must not be empty")
		}
	default:
		return invalid("config", "missing")
	}
	return nil
}

// clone returns a copy that shares no maps or slices with c.
func (c ChartConfig) clone() ChartConfig {
	if c.kind == ConfigStructured && c.structured != nil {
		c.structured = cloneJSON(c.structured).(map[string]any)
	}
	return c
}

// cloneJSON deep-copies the maps and slices of a decoded JSON value. Other
// values are immutable and returned as is.
func cloneJSON(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneJSON(e)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneJSON(e)
		}
		return s
	default:
		return v
	}
}

// decodeJSON decodes a single JSON value, keeping numbers as json.Number so
// integers beyond float64 precision reach the service unchanged.
func decodeJSON(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}
	return v, nil
}

// value is what goes into the "chart" field of the outgoing request
func (c ChartConfig) value() any {
	if c.kind == ConfigRaw {
		return c.raw
	}
	return c.structured
}

type Format string

const (
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
	FormatJPG  Format = "jpg"
	FormatSVG  Format = "svg"
	FormatPDF  Format = "pdf"
)

// Formats lists the output formats the chart service renders.
var Formats = []Format{FormatPNG, FormatWebP, FormatJPG, FormatSVG, FormatPDF}

func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", invalid("format", "must be one of %s, got %q", formatList(), s)
}

func formatList() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// RenderOptions are optional rendering parameters. A nil field is left out
// of the request and the service default applies.
type RenderOptions struct {
	Width            *int
	Height           *int
	Format           *Format
	BackgroundColor  *string
	DevicePixelRatio *float64
	Version          *string
}

func (o RenderOptions) Validate() error {
	if o.Width != nil && *o.Width <= 0 {
		return invalid("width", "must be a positive integer, got %d", *o.Width)
	}
	if o.Height != nil && *o.Height <= 0 {
		return invalid("height", "must be a positive integer, got %d", *o.Height)
	}
	if o.Format != nil {
		if _, err := ParseFormat(string(*o.Format)); err != nil {
			return err
		}
	}
	if o.BackgroundColor != nil && strings.TrimSpace(*o.BackgroundColor) == "" {
		return invalid("backgroundColor", "must not be empty")
	}
	if o.DevicePixelRatio != nil {
		r := *o.DevicePixelRatio
		if math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 {
			return invalid("devicePixelRatio", "must be a positive number, got %v", r)
		}
	}
	if o.Version != nil && strings.TrimSpace(*o.Version) == "" {
		return invalid("version", "must not be empty")
	}
	return nil
}

func (o RenderOptions) clone() RenderOptions {
	return RenderOptions{
		Width:            clonePtr(o.Width),
		Height:           clonePtr(o.Height),
		Format:           clonePtr(o.Format),
		BackgroundColor:  clonePtr(o.BackgroundColor),
		DevicePixelRatio: clonePtr(o.DevicePixelRatio),
		Version:          clonePtr(o.Version),
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ChartRequest is a validated config plus options. Build it with
// NewChartRequest; it does not change afterwards.
type ChartRequest struct {
	config ChartConfig
	opts   RenderOptions
}

func NewChartRequest(config ChartConfig, opts RenderOptions) (ChartRequest, error) {
	if err := config.Validate(); err != nil {
		return ChartRequest{}, err
	}
	if err := opts.Validate(); err != nil {
		return ChartRequest{}, err
	}
	return ChartRequest{config: config.clone(), opts: opts.clone()}, nil
}

func (r ChartRequest) Options() RenderOptions { return r.opts.clone() }

func (r ChartRequest) payload() quickchart.Request {
	req := quickchart.Request{
		Chart:            r.config.value(),
		Width:            clonePtr(r.opts.Width),
		Height:           clonePtr(r.opts.Height),
		BackgroundColor:  clonePtr(r.opts.BackgroundColor),
		DevicePixelRatio: clonePtr(r.opts.DevicePixelRatio),
		Version:          clonePtr(r.opts.Version),
	}
	if r.opts.Format != nil {
		f := strings.ToLower(strings.TrimSpace(string(*r.opts.Format)))
		req.Format = &f
	}
	return req
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64, float32, int, int64, int32, json.Number:
		return "number"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}
