package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/florancealade/zephyryx-storage-keep/models"
)

func initVaultList() list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.NormalTitle = delegate.Styles.NormalTitle.Foreground(lipgloss.Color("252"))
	delegate.Styles.NormalDesc = delegate.Styles.NormalDesc.Foreground(lipgloss.Color("245"))
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("212")).
		BorderLeftForeground(lipgloss.Color("212"))
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("240")).
		BorderLeftForeground(lipgloss.Color("212"))

	l := list.New([]list.Item{}, delegate, defaultListWidth, defaultListHeight)
	l.Title = "Vaults"
	l.SetShowHelp(false)
	return l
}

func initDelegateInputs() []textinput.Model {
	inputs := make([]textinput.Model, numDelegateFields)
	for i := range inputs {
		in := textinput.New()
		in.CharLimit = 64
		inputs[i] = in
	}
	inputs[fieldGrantee].Placeholder = "grantee"
	inputs[fieldTier].Placeholder = string(models.TierObserver)
	inputs[fieldTier].SetValue(string(models.TierObserver))
	inputs[fieldDuration].Placeholder = "duration in heights"
	inputs[fieldDuration].CharLimit = 6
	inputs[fieldGrantee].Focus()
	return inputs
}

func initModel(ctx context.Context, src VaultSource) *model {
	return &model{
		ctx:            ctx,
		src:            src,
		state:          vaultListScreen,
		vaultList:      initVaultList(),
		delegateInputs: initDelegateInputs(),
		docStyle:       lipgloss.NewStyle().Margin(1, 2),
	}
}
