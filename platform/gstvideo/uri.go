// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gstvideo

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// rgbaCaps is the format the appsink negotiates.
const rgbaCaps = "video/x-raw,format=RGBA"

// toURI turns a file path or URL into a URI uridecodebin accepts.
// Strings with a scheme pass through unchanged.
func toURI(location string) (string, error) {
	if location == "" {
		return "", fmt.Errorf("%w: empty location", ErrOpen)
	}
	if u, err := url.Parse(location); err == nil && len(u.Scheme) > 1 {
		return location, nil
	}
	abs, err := filepath.Abs(location)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrOpen, location, err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	if !strings.HasPrefix(u.Path, "/") {
		// Windows drive paths.
		u.Path = "/" + u.Path
	}
	return u.String(), nil
}

// frameSize reads width and height from caps fields, which GStreamer
// reports as int.
func frameSize(width, height any) (int, int, error) {
	w, ok := asInt(width)
	if !ok {
		return 0, 0, fmt.Errorf("gstvideo: caps width %v (%T)", width, width)
	}
	h, ok := asInt(height)
	if !ok {
		return 0, 0, fmt.Errorf("gstvideo: caps height %v (%T)", height, height)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("gstvideo: caps size %dx%d", w, h)
	}
	return w, h, nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint32:
		return int(n), true
	}
	return 0, false
}
