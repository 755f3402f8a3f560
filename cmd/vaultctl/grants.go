package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/florancealade/zephyryx-storage-keep/models"
)

func printGrant(w io.Writer, g models.GrantView) {
	state := "expired"
	if g.Active {
		state = "active"
	}
	fmt.Fprintf(w, "%s\t%s\tgranted %d\texpires %d\tmodify=%t\t%s\n",
		g.Grantee, g.Tier, g.GrantedAt, g.ExpiresAt, g.CanModify, state)
}

func newDelegateCommand(opts *rootOptions) *cobra.Command {
	var req models.DelegateRequest
	var grantee, tier string
	cmd := &cobra.Command{
		Use:   "delegate <vault-id>",
		Short: "Grant time-bounded access on a record you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := authedClient(cmd, opts)
			if err != nil {
				return err
			}
			req.Grantee = models.Principal(grantee)
			req.Tier = models.Tier(tier)
			if err = c.Delegate(cmd.Context(), id, req); err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), opts, models.OKResponse{OK: true}, func(w io.Writer) {
				fmt.Fprintf(w, "granted %s %s on vault %d for %d heights\n", grantee, tier, id, req.Duration)
			})
		},
	}
	cmd.Flags().StringVar(&grantee, "to", "", "grantee principal")
	cmd.Flags().StringVar(&tier, "tier", string(models.TierObserver), "observer, contributor or administrator")
	cmd.Flags().Uint64Var(&req.Duration, "duration", 0, "grant lifetime in heights (1..52560)")
	cmd.Flags().BoolVar(&req.CanModify, "can-modify", false, "mark the grant as allowing modification")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("duration")
	return cmd
}

func newGrantCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "grant <vault-id> <grantee>",
		Short: "Show the grant a principal holds on a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := authedClient(cmd, opts)
			if err != nil {
				return err
			}
			g, err := c.Grant(cmd.Context(), id, models.Principal(args[1]))
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), opts, g, func(w io.Writer) { printGrant(w, *g) })
		},
	}
}

func newGrantsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "grants <vault-id>",
		Short: "List every grant on a record you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := authedClient(cmd, opts)
			if err != nil {
				return err
			}
			views, err := c.Grants(cmd.Context(), id)
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), opts, views, func(w io.Writer) {
				for _, g := range views {
					printGrant(w, g)
				}
			})
		},
	}
}
