//go:build windows

package autostart

import (
	"fmt"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"
)

const (
	servicePollInterval = 300 * time.Millisecond
	serviceStartTimeout = 30 * time.Second
)

// Install registers spec as an automatic service, or points an existing
// registration at spec.ExePath. It reports whether the service was created.
func Install(spec ServiceSpec) (bool, error) {
	if spec.Name == "" {
		return false, errors.New("service name is required")
	}
	if spec.ExePath == "" {
		return false, errors.New("service executable path is required")
	}

	absPath, err := filepath.Abs(spec.ExePath)
	if err != nil {
		return false, err
	}

	m, err := mgr.Connect()
	if err != nil {
		return false, err
	}
	defer m.Disconnect()

	s, err := m.OpenService(spec.Name)
	if err != nil {
		if !errors.Is(err, windows.ERROR_SERVICE_DOES_NOT_EXIST) {
			return false, err
		}

		display := spec.DisplayName
		if display == "" {
			display = spec.Name
		}
		s, err = m.CreateService(spec.Name, absPath, mgr.Config{
			StartType:   mgr.StartAutomatic,
			DisplayName: display,
			Description: spec.Description,
		})
		if err != nil {
			return false, err
		}
		defer s.Close()
		return true, nil
	}
	defer s.Close()

	binaryPath, err := syscall.UTF16PtrFromString(syscall.EscapeArg(absPath))
	if err != nil {
		return false, err
	}
	if err := windows.ChangeServiceConfig(
		s.Handle,
		windows.SERVICE_NO_CHANGE,
		mgr.StartAutomatic,
		windows.SERVICE_NO_CHANGE,
		binaryPath,
		nil,
		nil,
		nil,
		nil,
		nil,
		nil,
	); err != nil {
		return false, err
	}

	return false, nil
}

func Start(name string) error {
	s, done, err := openService(name)
	if err != nil {
		return err
	}
	defer done()

	status, err := s.Query()
	if err == nil {
		switch status.State {
		case svc.Running:
			return nil
		case svc.StartPending:
			return waitForServiceState(s, svc.Running, serviceStartTimeout)
		}
	}

	if err := s.Start(); err != nil && !errors.Is(err, windows.ERROR_SERVICE_ALREADY_RUNNING) {
		return err
	}
	return waitForServiceState(s, svc.Running, serviceStartTimeout)
}

func Stop(name string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	s, done, err := openService(name)
	if err != nil {
		return err
	}
	defer done()

	status, err := s.Query()
	if err == nil {
		switch status.State {
		case svc.Stopped:
			return nil
		case svc.StopPending:
			return waitForServiceState(s, svc.Stopped, timeout)
		}
	}

	if _, err := s.Control(svc.Stop); err != nil && !errors.Is(err, windows.ERROR_SERVICE_NOT_ACTIVE) {
		return err
	}
	return waitForServiceState(s, svc.Stopped, timeout)
}

// Status returns the service state as a word.
func Status(name string) (string, error) {
	s, done, err := openService(name)
	if err != nil {
		return "", err
	}
	defer done()

	status, err := s.Query()
	if err != nil {
		return "", err
	}
	return stateName(status.State), nil
}

func openService(name string) (*mgr.Service, func(), error) {
	if name == "" {
		return nil, nil, errors.New("service name is required")
	}
	m, err := mgr.Connect()
	if err != nil {
		return nil, nil, err
	}
	s, err := m.OpenService(name)
	if err != nil {
		_ = m.Disconnect()
		return nil, nil, err
	}
	return s, func() {
		_ = s.Close()
		_ = m.Disconnect()
	}, nil
}

func stateName(st svc.State) string {
	switch st {
	case svc.Stopped:
		return "stopped"
	case svc.StartPending:
		return "starting"
	case svc.StopPending:
		return "stopping"
	case svc.Running:
		return "running"
	case svc.Paused:
		return "paused"
	default:
		return fmt.Sprintf("state %d", st)
	}
}

func waitForServiceState(s *mgr.Service, want svc.State, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		status, err := s.Query()
		if err != nil {
			return err
		}
		if status.State == want {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.Errorf("timeout waiting for service to be %s (currently %s)", stateName(want), stateName(status.State))
		}
		time.Sleep(servicePollInterval)
	}
}
