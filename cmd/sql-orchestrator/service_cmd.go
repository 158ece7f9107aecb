package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"sql-orchestrator/internal/platform/autostart"
)

const (
	daemonServiceName = "sql-orchestratord"
	daemonDisplayName = "SQL Orchestrator"
	daemonDescription = "Executes ordered SQL command batches over HTTP"
)

func newServiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Install and control the daemon as a Windows service",
	}
	cmd.AddCommand(
		newServiceInstallCmd(),
		&cobra.Command{
			Use:   "start",
			Short: "Start the service and wait until it runs",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := autostart.Start(daemonServiceName); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Service running.")
				return nil
			},
		},
		newServiceStopCmd(),
		&cobra.Command{
			Use:   "status",
			Short: "Print the service state",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				state, err := autostart.Status(daemonServiceName)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), state)
				return nil
			},
		},
	)
	return cmd
}

func newServiceInstallCmd() *cobra.Command {
	var exePath string

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Register the daemon to start automatically",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if exePath == "" {
				p, err := defaultDaemonPath()
				if err != nil {
					return err
				}
				exePath = p
			}
			created, err := autostart.Install(autostart.ServiceSpec{
				Name:        daemonServiceName,
				DisplayName: daemonDisplayName,
				Description: daemonDescription,
				ExePath:     exePath,
			})
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintln(cmd.OutOrStdout(), "Service installed.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Service updated.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&exePath, "exe", "", "daemon executable (default: next to this binary)")
	return cmd
}

func newServiceStopCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the service and wait until it stops",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := autostart.Stop(daemonServiceName, timeout); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Service stopped.")
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 20*time.Second, "how long to wait")
	return cmd
}

func defaultDaemonPath() (string, error) {
	self, err := os.Executable()
	if err != nil {
		return "", err
	}
	name := daemonServiceName
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(filepath.Dir(self), name), nil
}
