package main

import (
	"fmt"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
)

// svcConfig describes the managed service unit. The service manager runs
// "aoe2bot run"; install/uninstall/start/stop only drive the manager.
func svcConfig() *service.Config {
	return &service.Config{
		Name:        "aoe2bot",
		DisplayName: "AoE2 Telegram sound box bot",
		Description: "Replies to Telegram commands with Age of Empires II sound clips.",
		Arguments:   []string{"run"},
	}
}

// noopProgram satisfies service.Interface for control actions. The actual
// run loop lives in the run command; the unit simply execs it.
type noopProgram struct{}

func (noopProgram) Start(service.Service) error { return nil }
func (noopProgram) Stop(service.Service) error  { return nil }

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage the OS service (systemd on Linux)",
	}

	for _, action := range []string{"install", "uninstall", "start", "stop"} {
		action := action
		cmd.AddCommand(&cobra.Command{
			Use:   action,
			Short: fmt.Sprintf("%s the aoe2bot service", action),
			RunE: func(_ *cobra.Command, _ []string) error {
				svc, err := service.New(noopProgram{}, svcConfig())
				if err != nil {
					return err
				}
				if err := service.Control(svc, action); err != nil {
					return fmt.Errorf("service %s: %w", action, err)
				}
				fmt.Printf("service %s: done\n", action)
				return nil
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Report whether the aoe2bot service is running",
		RunE: func(_ *cobra.Command, _ []string) error {
			svc, err := service.New(noopProgram{}, svcConfig())
			if err != nil {
				return err
			}
			status, err := svc.Status()
			if err != nil {
				return err
			}
			switch status {
			case service.StatusRunning:
				fmt.Println("running")
			case service.StatusStopped:
				fmt.Println("stopped")
			default:
				fmt.Println("unknown")
			}
			return nil
		},
	})

	return cmd
}
