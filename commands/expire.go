package commands

import (
	"context"

	"meramarket/cron"
	"meramarket/providers"
	"meramarket/utils"

	"github.com/spf13/cobra"
)

func newExpireCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expire",
		Short: "Run one expiry sweep over listings and requirements",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, svc *providers.Services) error {
				res, err := cron.NewExpirySweeper(svc.Listings, utils.GetLogger().Named("cron")).RunOnce(ctx)
				if perr := printJSON(cmd, map[string]int{
					"listings":     res.Listings,
					"requirements": res.Requirements,
				}); perr != nil {
					return perr
				}
				return err
			})
		},
	}
}
