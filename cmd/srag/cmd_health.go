package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/srag/component"
	"github.com/kbukum/srag/errors"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the LLM backend, cache and telemetry exporters",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	var unhealthy int
	out := cmd.OutOrStdout()
	for _, h := range a.components.HealthAll(ctx) {
		if h.Status != component.StatusHealthy {
			unhealthy++
			fmt.Fprintf(out, "%-8s %s: %s\n", h.Name, h.Status, h.Message)
			continue
		}
		fmt.Fprintf(out, "%-8s %s\n", h.Name, h.Status)
	}
	if unhealthy > 0 {
		return errors.New(errors.ErrCodeServiceUnavailable, fmt.Sprintf("%d component(s) unhealthy", unhealthy))
	}
	return nil
}
