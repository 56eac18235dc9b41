package commands

import (
	"context"
	"fmt"

	"meramarket/providers"
	"meramarket/services/integrations"

	"github.com/spf13/cobra"
)

func newProvidersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "Show or change the active integration providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, svc *providers.Services) error {
				status, err := svc.Registry.Status(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string]any{
					"mockMode":   svc.Registry.MockOnly(),
					"categories": status,
				})
			})
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <category> <provider>",
		Short: "Select the provider for a category",
		Long:  "Select the provider for a category. A provider missing configuration keys is refused and the category stays on mock.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := integrations.ParseCategory(args[0])
			if err != nil {
				return err
			}
			return withServices(cmd, func(ctx context.Context, svc *providers.Services) error {
				sel, err := svc.Registry.SetProvider(ctx, category, args[1])
				if err != nil {
					return err
				}
				if sel.Warning != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), "Warning:", sel.Warning)
				}
				return printJSON(cmd, sel)
			})
		},
	})
	return cmd
}

// withServices builds the service graph for one command and releases it
// afterwards.
func withServices(cmd *cobra.Command, fn func(ctx context.Context, svc *providers.Services) error) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, err := providers.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close(context.Background())
	return fn(ctx, svc)
}
