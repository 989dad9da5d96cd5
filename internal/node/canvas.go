package node

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Placement positions a presented canvas. All fields are optional.
type Placement struct {
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
}

// NavigateParams are the params of canvas.present and canvas.navigate.
type NavigateParams struct {
	URL       string     `json:"url,omitempty"`
	Placement *Placement `json:"placement,omitempty"`
}

// EvalParams are the params of canvas.eval.
type EvalParams struct {
	JavaScript string `json:"javaScript"`
}

type SnapshotFormat string

const (
	SnapshotPNG  SnapshotFormat = "png"
	SnapshotJPEG SnapshotFormat = "jpeg"
)

// ParseSnapshotFormat accepts png, jpeg and jpg, case-insensitively.
func ParseSnapshotFormat(s string) (SnapshotFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return SnapshotPNG, nil
	case "jpeg", "jpg":
		return SnapshotJPEG, nil
	default:
		return "", fmt.Errorf("invalid snapshot format: %s", s)
	}
}

// SnapshotParams are the decoded params of canvas.snapshot.
type SnapshotParams struct {
	Format   SnapshotFormat
	Quality  *float64
	MaxWidth *int
}

// ParseNavigateParams decodes present/navigate params. Empty params mean the
// default canvas page.
func ParseNavigateParams(paramsJSON string) (NavigateParams, error) {
	var p NavigateParams
	if strings.TrimSpace(paramsJSON) == "" {
		return p, nil
	}
	if err := json.Unmarshal([]byte(paramsJSON), &p); err != nil {
		return NavigateParams{}, fmt.Errorf("invalid canvas params: %w", err)
	}
	p.URL = strings.TrimSpace(p.URL)
	return p, nil
}

// ParseEvalJS returns the script to evaluate, or false if it is missing.
func ParseEvalJS(paramsJSON string) (string, bool) {
	if strings.TrimSpace(paramsJSON) == "" {
		return "", false
	}
	var p EvalParams
	if err := json.Unmarshal([]byte(paramsJSON), &p); err != nil {
		return "", false
	}
	if strings.TrimSpace(p.JavaScript) == "" {
		return "", false
	}
	return p.JavaScript, true
}

// ParseSnapshotParams decodes canvas.snapshot params, defaulting to PNG.
func ParseSnapshotParams(paramsJSON string) (SnapshotParams, error) {
	out := SnapshotParams{Format: SnapshotPNG}
	if strings.TrimSpace(paramsJSON) == "" {
		return out, nil
	}
	var raw struct {
		Format   *string  `json:"format"`
		Quality  *float64 `json:"quality"`
		MaxWidth *int     `json:"maxWidth"`
	}
	if err := json.Unmarshal([]byte(paramsJSON), &raw); err != nil {
		return SnapshotParams{}, fmt.Errorf("invalid snapshot params: %w", err)
	}
	if raw.Format != nil {
		f, err := ParseSnapshotFormat(*raw.Format)
		if err != nil {
			return SnapshotParams{}, err
		}
		out.Format = f
	}
	if raw.Quality != nil {
		q := *raw.Quality
		if q < 0 {
			q = 0
		} else if q > 1 {
			q = 1
		}
		out.Quality = &q
	}
	if raw.MaxWidth != nil && *raw.MaxWidth > 0 {
		out.MaxWidth = raw.MaxWidth
	}
	return out, nil
}

type evalPayload struct {
	Result string `json:"result"`
}

type snapshotPayload struct {
	Format SnapshotFormat `json:"format"`
	Base64 string         `json:"base64"`
}
