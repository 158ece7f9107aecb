//go:build !windows

package autostart

import (
	"time"

	"github.com/pkg/errors"
)

var ErrServiceUnsupported = errors.New("service control is only supported on windows")

func IsWindowsService() (bool, error) {
	return false, nil
}

func RunService(name string, _ ServiceApp) error {
	return errors.Wrapf(ErrServiceUnsupported, "run service %q", name)
}

func Install(_ ServiceSpec) (bool, error) {
	return false, ErrServiceUnsupported
}

func Start(_ string) error {
	return ErrServiceUnsupported
}

func Stop(_ string, _ time.Duration) error {
	return ErrServiceUnsupported
}

func Status(_ string) (string, error) {
	return "", ErrServiceUnsupported
}
