package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/florancealade/zephyryx-storage-keep/models"
)

// loadVaultsCmd fetches the caller's records and the current height.
func loadVaultsCmd(ctx context.Context, src VaultSource) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()

		height, err := src.Height(ctx)
		if err != nil {
			return errMsg{err: err}
		}
		vaults, err := src.Vaults(ctx)
		if err != nil {
			return errMsg{err: err}
		}
		return vaultsLoadedMsg{vaults: vaults, height: height}
	}
}

func loadGrantsCmd(ctx context.Context, src VaultSource, id uint64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()

		grants, err := src.Grants(ctx, id)
		if err != nil {
			return errMsg{err: err}
		}
		return grantsLoadedMsg{vaultID: id, grants: grants}
	}
}

func delegateCmd(ctx context.Context, src VaultSource, id uint64, req models.DelegateRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()

		if err := src.Delegate(ctx, id, req); err != nil {
			return errMsg{err: err}
		}
		return delegatedMsg{vaultID: id, grantee: req.Grantee}
	}
}
