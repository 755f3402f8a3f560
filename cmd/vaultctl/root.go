package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"

	"github.com/florancealade/zephyryx-storage-keep/internal/client"
)

var validFormats = []string{"text", "json"}

// rootOptions holds the global flags.
type rootOptions struct {
	Server  string `env:"VAULTCTL_SERVER"  envDefault:"https://localhost:8443"`
	Session string `env:"VAULTCTL_SESSION"`
	Format  string
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "vaultctl", "session.json")
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	if err := env.Parse(opts); err != nil {
		opts.Server = "https://localhost:8443"
	}
	if opts.Session == "" {
		opts.Session = defaultSessionPath()
	}

	cmd := &cobra.Command{
		Use:           "vaultctl",
		Short:         "Vault registry client",
		Long:          "Register vault records, delegate time-bounded access and move vault content.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			for _, f := range validFormats {
				if f == opts.Format {
					return nil
				}
			}
			return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Server, "server", opts.Server, "server base URL (env: VAULTCTL_SERVER)")
	cmd.PersistentFlags().StringVar(&opts.Session, "session", opts.Session, "session file (env: VAULTCTL_SESSION)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(
		newSignupCommand(opts),
		newLoginCommand(opts),
		newLogoutCommand(opts),
		newHeightCommand(opts),
		newRegisterCommand(opts),
		newUpdateCommand(opts),
		newShowCommand(opts),
		newListCommand(opts),
		newDelegateCommand(opts),
		newGrantCommand(opts),
		newGrantsCommand(opts),
		newUploadCommand(opts),
		newDownloadCommand(opts),
		newExportCommand(opts),
		newBrowseCommand(opts),
	)
	return cmd
}

// authedClient returns a client carrying the saved token. The --server flag
// wins over the server recorded at login.
func authedClient(cmd *cobra.Command, opts *rootOptions) (*client.Client, error) {
	sess, err := client.NewSessionStore(opts.Session).Load()
	if err != nil {
		return nil, err
	}
	server := sess.Server
	if cmd.Flags().Changed("server") || server == "" {
		server = opts.Server
	}
	c := client.NewHTTPClient(server)
	c.SetAuthToken(sess.Token)
	return c, nil
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid vault id %q", s)
	}
	return id, nil
}

// emit prints v as JSON, or runs text when the format is text.
func emit(w io.Writer, opts *rootOptions, v any, text func(io.Writer)) error {
	if opts.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}
