// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug turns user-supplied names into safe, URL-friendly tokens.
// Upload object keys and download filenames are built from it.
package slug

import (
	"path"
	"regexp"
	"strings"
)

var (
	// nonAlphanumeric matches anything that isn't a letter, digit, or space.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
	// extension keeps only short alphanumeric file extensions.
	extension = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)
)

// maxLength bounds generated slugs so object keys stay short.
const maxLength = 80

// Generate creates a URL-friendly slug from the given string.
// Example: "Q3 Project Proposal!" → "q3-project-proposal"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = strings.Join(strings.Fields(result), "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	if len(result) > maxLength {
		result = strings.TrimRight(result[:maxLength], "-")
	}
	return result
}

// FileName slugs the base name of an uploaded file and keeps its
// extension. Directory components are discarded. An empty result falls
// back to "file".
// Example: "../Signed Contract (v2).PDF" → "signed-contract-v2.pdf"
func FileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	ext := strings.ToLower(path.Ext(name))
	if !extension.MatchString(ext) {
		ext = ""
	}
	base := Generate(strings.TrimSuffix(name, path.Ext(name)))
	if base == "" {
		base = "file"
	}
	return base + ext
}
