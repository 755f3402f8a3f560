package main

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/florancealade/zephyryx-storage-keep/models"
)

// fingerprintOf hashes the file at path as SHA-256 hex.
func fingerprintOf(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err = io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

type contentFlags struct {
	Title       string
	Summary     string
	Labels      []string
	Fingerprint string
	File        string
}

func (f *contentFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.Title, "title", "t", "", "record title")
	cmd.Flags().StringVarP(&f.Summary, "summary", "s", "", "record summary")
	cmd.Flags().StringSliceVarP(&f.Labels, "label", "l", nil, "label, repeatable")
	cmd.Flags().StringVar(&f.Fingerprint, "fingerprint", "", "64 character content fingerprint")
	cmd.Flags().StringVarP(&f.File, "file", "f", "", "compute the fingerprint from this file")
	cmd.MarkFlagsMutuallyExclusive("fingerprint", "file")
}

func (f *contentFlags) fingerprint() (string, error) {
	if f.File != "" {
		return fingerprintOf(f.File)
	}
	if f.Fingerprint == "" {
		return "", errors.New("one of --fingerprint or --file is required")
	}
	return f.Fingerprint, nil
}

func printVault(w io.Writer, v *models.Vault) {
	fmt.Fprintf(w, "id:             %d\n", v.ID)
	fmt.Fprintf(w, "title:          %s\n", v.Title)
	fmt.Fprintf(w, "originator:     %s\n", v.Originator)
	fmt.Fprintf(w, "fingerprint:    %s\n", v.Fingerprint)
	fmt.Fprintf(w, "summary:        %s\n", v.Summary)
	fmt.Fprintf(w, "classification: %s\n", v.Classification)
	fmt.Fprintf(w, "labels:         %s\n", strings.Join(v.Labels, ", "))
	fmt.Fprintf(w, "created at:     %d\n", v.CreatedAt)
	fmt.Fprintf(w, "modified at:    %d\n", v.ModifiedAt)
}

func newHeightCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "height",
		Short: "Show the current block height",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := authedClient(cmd, opts)
			if err != nil {
				return err
			}
			h, err := c.Height(cmd.Context())
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), opts, models.HeightResponse{Height: h}, func(w io.Writer) {
				fmt.Fprintln(w, h)
			})
		},
	}
}

func newRegisterCommand(opts *rootOptions) *cobra.Command {
	flags := &contentFlags{}
	var classification string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new vault record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fp, err := flags.fingerprint()
			if err != nil {
				return err
			}
			c, err := authedClient(cmd, opts)
			if err != nil {
				return err
			}
			id, err := c.RegisterVault(cmd.Context(), models.RegisterVaultRequest{
				Title:          flags.Title,
				Fingerprint:    fp,
				Summary:        flags.Summary,
				Classification: classification,
				Labels:         flags.Labels,
			})
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), opts, models.RegisterVaultResponse{VaultID: id}, func(w io.Writer) {
				fmt.Fprintf(w, "registered vault %d\n", id)
			})
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVarP(&classification, "classification", "c", "", "record classification")
	return cmd
}

func newUpdateCommand(opts *rootOptions) *cobra.Command {
	flags := &contentFlags{}
	cmd := &cobra.Command{
		Use:   "update <vault-id>",
		Short: "Rewrite the content fields of a record you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			fp, err := flags.fingerprint()
			if err != nil {
				return err
			}
			c, err := authedClient(cmd, opts)
			if err != nil {
				return err
			}
			err = c.UpdateVault(cmd.Context(), id, models.UpdateVaultRequest{
				Title:       flags.Title,
				Fingerprint: fp,
				Summary:     flags.Summary,
				Labels:      flags.Labels,
			})
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), opts, models.OKResponse{OK: true}, func(w io.Writer) {
				fmt.Fprintf(w, "updated vault %d\n", id)
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func newShowCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <vault-id>",
		Short: "Show a vault record",
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
			v, err := c.Vault(cmd.Context(), id)
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), opts, v, func(w io.Writer) { printVault(w, v) })
		},
	}
}

func newListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the records you registered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := authedClient(cmd, opts)
			if err != nil {
				return err
			}
			list, err := c.Vaults(cmd.Context())
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), opts, list, func(w io.Writer) {
				for _, v := range list {
					fmt.Fprintf(w, "%d\t%s\t%s\n", v.ID, v.Title, v.Classification)
				}
			})
		},
	}
}
