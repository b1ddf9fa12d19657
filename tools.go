//go:build tools

package tools

// This file tracks versions of CLI tool dependencies.
// It is not compiled into the binary.
//
// Tools will be added as they are needed:
// - github.com/pressly/goose/v3/cmd/goose (migrations)
// - github.com/matryer/moq (interface mocks)
