//go:build !linux && !darwin && !windows

package speech

import "errors"

func newEngine() (engine, error) {
	return nil, errors.New("unsupported platform")
}
