// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// SaveUploadedFile streams r to baseDir/subDir/filename and returns the
// written path and byte count. The target is validated to stay inside
// baseDir.
func SaveUploadedFile(r io.Reader, baseDir, subDir, filename string) (string, int64, error) {
	safeFilename := filepath.Base(filename)
	if safeFilename == "." || safeFilename == ".." || safeFilename == "" {
		return "", 0, fmt.Errorf("invalid filename")
	}

	cleanSubDir := filepath.Clean(subDir)
	if strings.Contains(cleanSubDir, "..") || filepath.IsAbs(cleanSubDir) {
		return "", 0, fmt.Errorf("invalid subdirectory path")
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", 0, fmt.Errorf("failed to resolve base directory: %w", err)
	}
	absTarget := filepath.Join(absBase, cleanSubDir)

	rel, err := filepath.Rel(absBase, absTarget)
	if err != nil || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return "", 0, fmt.Errorf("path traversal detected")
	}

	if err := os.MkdirAll(absTarget, 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create directory: %w", err)
	}

	target := filepath.Join(absTarget, safeFilename)
	out, err := os.Create(target)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create file: %w", err)
	}

	size, err := io.Copy(out, r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(target)
		return "", 0, fmt.Errorf("failed to write file: %w", err)
	}
	return target, size, nil
}
