//go:build !windows
// +build !windows

package duckdb

import (
	"github.com/ebitengine/purego"
)

// Load a dynamic library on Unix systems using purego
func openLibrary(path string) (uintptr, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return 0, err
	}
	return handle, nil
}

// Close the library
func closeLibrary(handle uintptr) {
	if handle != 0 {
		purego.Dlclose(handle)
	}
}
