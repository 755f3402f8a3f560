package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/florancealade/zephyryx-storage-keep/internal/client"
)

type credentials struct {
	Username string
	Password string
}

func credentialFlags(cmd *cobra.Command, c *credentials) {
	cmd.Flags().StringVarP(&c.Username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&c.Password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
}

func newSignupCommand(opts *rootOptions) *cobra.Command {
	creds := &credentials{}
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := client.NewHTTPClient(opts.Server)
			if err := c.Register(cmd.Context(), creds.Username, creds.Password); err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), opts, map[string]string{"username": creds.Username}, func(w io.Writer) {
				fmt.Fprintf(w, "account %s created\n", creds.Username)
			})
		},
	}
	credentialFlags(cmd, creds)
	return cmd
}

func newLoginCommand(opts *rootOptions) *cobra.Command {
	creds := &credentials{}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and save the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := client.NewHTTPClient(opts.Server)
			token, err := c.Login(cmd.Context(), creds.Username, creds.Password)
			if err != nil {
				return err
			}
			store := client.NewSessionStore(opts.Session)
			sess := client.Session{Server: opts.Server, Username: creds.Username, Token: token}
			if err = store.Save(sess); err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), opts, map[string]string{"username": creds.Username}, func(w io.Writer) {
				fmt.Fprintf(w, "logged in as %s\n", creds.Username)
			})
		},
	}
	credentialFlags(cmd, creds)
	return cmd
}

func newLogoutCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := client.NewSessionStore(opts.Session).Clear(); err != nil && !errors.Is(err, client.ErrNoSession) {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}
