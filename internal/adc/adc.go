// Package adc provides the converter front end whose result register feeds
// the transfer engine.
package adc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNoResult is returned until the converter has produced its first result.
var ErrNoResult = errors.New("adc: no conversion result yet")

// Converter exposes the converter result register.
type Converter interface {
	// Result returns the latest conversion result.
	Result() (uint16, error)

	// Close stops the converter.
	Close() error
}

// parseLine parses one result line from the converter.
// Format: decimal value 0..65535, e.g. "19910".
func parseLine(line string) (uint16, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, errors.New("empty line")
	}
	v, err := strconv.ParseUint(line, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid result %q: %w", line, err)
	}
	return uint16(v), nil
}
