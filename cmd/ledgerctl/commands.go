package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fatflowers/giveledger/pkg/types"
)

func reconcileCmd() *cobra.Command {
	var drain bool
	cmd := &cobra.Command{
		Use:   "reconcile (organization|campaign) [id]",
		Short: "Rebuild an organization's or campaign's donation counters from the ledger",
		Long: `Recomputes donation count, amount raised and distinct donors from the
completed donations of one organization or campaign, and claims those
donations so cascades still queued for them become no-ops.

Examples:
  ledgerctl reconcile organization 0190c3a2-...
  ledgerctl reconcile campaign 0190c3a2-... --drain`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(types.CascadeTargetOrganization), string(types.CascadeTargetCampaign)},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, id := types.CascadeTarget(args[0]), args[1]
			return withDeps(func(d *deps) error {
				ctx := cmd.Context()
				switch target {
				case types.CascadeTargetOrganization:
					org, err := d.Aggregate.ReconcileOrganization(ctx, id)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "organization %s: donations=%d raised=%s donors=%d\n",
						org.ID, org.TotalDonationsReceived, org.TotalAmountRaised.String(), org.TotalDonorCount)
				case types.CascadeTargetCampaign:
					c, err := d.Aggregate.ReconcileCampaign(ctx, id)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "campaign %s: raised=%s donors=%d status=%s\n",
						c.ID, c.RaisedAmount.String(), c.DonorCount, c.Status)
				default:
					return fmt.Errorf("unknown reconcile target %q", target)
				}
				if !drain {
					return nil
				}
				n, err := d.Scheduler.Drain(ctx)
				fmt.Fprintf(cmd.OutOrStdout(), "ran %d tasks\n", n)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&drain, "drain", false, "run the queued popularity recompute before exiting")
	return cmd
}

func drainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drain",
		Short: "Run due tasks until the queue is empty",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(d *deps) error {
				n, err := d.Scheduler.Drain(cmd.Context())
				fmt.Fprintf(cmd.OutOrStdout(), "ran %d tasks\n", n)
				return err
			})
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// building the graph runs the migration
			return withDeps(func(d *deps) error {
				fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
				return nil
			})
		},
	}
}
