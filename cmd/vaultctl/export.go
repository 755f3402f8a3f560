package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/florancealade/zephyryx-storage-keep/internal/client"
	"github.com/florancealade/zephyryx-storage-keep/internal/kdbx"
	"github.com/florancealade/zephyryx-storage-keep/models"
)

func newExportCommand(opts *rootOptions) *cobra.Command {
	var out, password string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write your records and their grants to an encrypted KeePass file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("VAULTCTL_EXPORT_PASSWORD")
			}
			if password == "" {
				return errors.New("--password or VAULTCTL_EXPORT_PASSWORD is required")
			}
			sess, err := client.NewSessionStore(opts.Session).Load()
			if err != nil {
				return err
			}
			c, err := authedClient(cmd, opts)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			height, err := c.Height(ctx)
			if err != nil {
				return err
			}
			vaults, err := c.Vaults(ctx)
			if err != nil {
				return err
			}
			records := make([]kdbx.Record, 0, len(vaults))
			for _, v := range vaults {
				grants, err := c.Grants(ctx, v.ID)
				if err != nil {
					return fmt.Errorf("grants of vault %d: %w", v.ID, err)
				}
				records = append(records, kdbx.Record{Vault: v, Grants: grants})
			}

			meta := kdbx.Meta{Server: sess.Server, Owner: models.Principal(sess.Username), Height: height}
			db, err := kdbx.NewDatabase(password, meta, records)
			if err != nil {
				return err
			}
			if err = kdbx.SaveFile(db, out, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d records to %s\n", len(records), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "vaults.kdbx", "destination file")
	cmd.Flags().StringVar(&password, "password", "", "file password (env: VAULTCTL_EXPORT_PASSWORD)")
	return cmd
}
