// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging converts generated images between their wire
// representations (base64, raw bytes, data URLs) and composites brand logos
// onto finished renders.
package imaging

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrDecode marks a malformed base64 payload.
	ErrDecode = errors.New("imaging: decode failed")

	// ErrRead marks a failure reading the underlying binary source.
	ErrRead = errors.New("imaging: read failed")
)

// Binary is a byte sequence tagged with its MIME type.
type Binary struct {
	Data     []byte
	MimeType string
}

// Base64ToBinary decodes a standard (not URL-safe) base64 string into a
// Binary tagged with the given MIME type.
func Base64ToBinary(encoded, mimeType string) (*Binary, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return &Binary{Data: data, MimeType: mimeType}, nil
}

// BinaryToDataURL reads the blob from r and renders it as a data: URL.
func BinaryToDataURL(r io.Reader, mimeType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRead, err)
	}
	return DataURL(data, mimeType), nil
}

// DataURL encodes raw bytes as a displayable data: URL.
func DataURL(data []byte, mimeType string) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DataURLToBinary parses a "data:<mime>;base64,<payload>" string. The MIME
// type defaults to fallbackMime when absent. This is a deliberately lenient,
// best-effort parse for user-typed or differently-sourced data URLs: a string
// with no comma, no payload, or an undecodable payload yields nil rather than
// an error.
func DataURLToBinary(dataURL, fallbackMime string) *Binary {
	head, payload, ok := strings.Cut(dataURL, ",")
	if !ok || payload == "" {
		return nil
	}

	mimeType := fallbackMime
	if meta, found := strings.CutPrefix(head, "data:"); found {
		if mt, _, _ := strings.Cut(meta, ";"); mt != "" {
			mimeType = mt
		}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil
	}
	return &Binary{Data: data, MimeType: mimeType}
}
