package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Frontier-tech-consulting/composio-integration-frameworks/internal/workflow"
)

func newWorkflowsCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflows",
		Short: "Inspect and run workflows from the command line",
	}
	cmd.AddCommand(newWorkflowsListCommand(configPath), newWorkflowsRunCommand(configPath))
	return cmd
}

func newWorkflowsListCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the registered workflows",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *configPath, func(a *app) error {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tVERSION\tPARAMS")
				for _, def := range a.engine.Definitions() {
					fmt.Fprintf(w, "%s\t%d\t%s\n", def.ID, def.Version, strings.Join(def.Params, ","))
				}
				return w.Flush()
			})
		},
	}
}

func newWorkflowsRunCommand(configPath *string) *cobra.Command {
	var (
		subject string
		params  []string
	)
	cmd := &cobra.Command{
		Use:   "run <id>",
		Short: "Run one workflow and print its result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseParams(params)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), *configPath, func(a *app) error {
				result, err := a.engine.Execute(cmd.Context(), workflow.Request{
					ID:      args[0],
					Subject: subject,
					Params:  parsed,
				})
				if err != nil {
					return err
				}
				out, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "cli", "Subject the run is attributed to")
	cmd.Flags().StringArrayVar(&params, "param", nil, "Workflow parameter as key=value; values are parsed as YAML")
	return cmd
}

// parseParams turns key=value pairs into parameters. Values are decoded as
// YAML scalars or flow collections, so 3, true and [a, b] keep their type.
func parseParams(pairs []string) (workflow.Params, error) {
	params := workflow.Params{}
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --param %q, want key=value", pair)
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil || value == nil {
			value = raw
		}
		params[key] = value
	}
	return params, nil
}

func withApp(ctx context.Context, configPath string, fn func(*app) error) error {
	cfg, logger, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close(context.WithoutCancel(ctx))
	return fn(a)
}
