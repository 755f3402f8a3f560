package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newUploadCommand(opts *rootOptions) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "upload <vault-id>",
		Short: "Upload the content whose digest is the record fingerprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer f.Close()
			info, err := f.Stat()
			if err != nil {
				return fmt.Errorf("stat %s: %w", path, err)
			}

			c, err := authedClient(cmd, opts)
			if err != nil {
				return err
			}
			if err = c.UploadContent(cmd.Context(), id, f, info.Size()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %d bytes to vault %d\n", info.Size(), id)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "file to upload")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newDownloadCommand(opts *rootOptions) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "download <vault-id>",
		Short: "Download the content of a record you own or hold an active grant on",
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
			rc, _, err := c.DownloadContent(cmd.Context(), id)
			if err != nil {
				return err
			}
			defer rc.Close()

			var out io.Writer = cmd.OutOrStdout()
			if path != "" && path != "-" {
				f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
				if err != nil {
					return fmt.Errorf("create %s: %w", path, err)
				}
				defer f.Close()
				out = f
			}
			if _, err = io.Copy(out, rc); err != nil {
				return fmt.Errorf("write content: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "out", "o", "-", "destination file, - for stdout")
	return cmd
}
