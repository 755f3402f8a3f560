package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/florancealade/zephyryx-storage-keep/models"
)

var helpText = map[screenState]string{
	vaultListScreen:   "enter: details | /: filter | r: refresh | q: quit",
	vaultDetailScreen: "d: delegate | r: refresh | b: back | q: quit",
	delegateScreen:    "tab: next field | enter: grant | esc: cancel",
}

// View renders the current screen with its help line and status.
func (m *model) View() string {
	var content string
	switch m.state {
	case vaultDetailScreen:
		content = m.viewDetailScreen()
	case delegateScreen:
		content = m.viewDelegateScreen()
	default:
		content = m.vaultList.View()
	}

	var footer strings.Builder
	footer.WriteString(helpStyle.Render(helpText[m.state]))
	if m.status != "" {
		footer.WriteString("\n" + m.status)
	}
	if m.err != nil {
		footer.WriteString("\n" + errorStyle.Render("Error: "+m.err.Error()))
	}
	return fmt.Sprintf("%s\n%s", m.docStyle.Render(content), footer.String())
}

func field(b *strings.Builder, name, value string) {
	fmt.Fprintf(b, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-15s", name+":")), value)
}

func (m *model) viewDetailScreen() string {
	if m.selected == nil {
		return ""
	}
	v := m.selected.vault
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Vault #%d", v.ID)) + "\n\n")
	field(&b, "Title", v.Title)
	field(&b, "Originator", string(v.Originator))
	field(&b, "Fingerprint", v.Fingerprint)
	field(&b, "Summary", v.Summary)
	field(&b, "Classification", v.Classification)
	field(&b, "Labels", strings.Join(v.Labels, ", "))
	field(&b, "Created at", fmt.Sprint(v.CreatedAt))
	field(&b, "Modified at", fmt.Sprint(v.ModifiedAt))

	b.WriteString("\n" + titleStyle.Render("Grants") + "\n")
	switch {
	case !m.grantsReady:
		b.WriteString(labelStyle.Render("loading...") + "\n")
	case len(m.grants) == 0:
		b.WriteString(labelStyle.Render("none") + "\n")
	default:
		for _, g := range m.grants {
			b.WriteString(grantLine(g) + "\n")
		}
	}
	return b.String()
}

func grantLine(g models.GrantView) string {
	line := fmt.Sprintf("%-20s %-13s heights %d..%d", g.Grantee, g.Tier, g.GrantedAt, g.ExpiresAt)
	if g.CanModify {
		line += " modify"
	}
	if g.Active {
		return activeStyle.Render(line + " active")
	}
	return expiredStyle.Render(line + " expired")
}

func (m *model) viewDelegateScreen() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Delegate access to vault #%d", m.selected.vault.ID)) + "\n\n")
	names := [numDelegateFields]string{"Grantee", "Tier", "Duration"}
	for i, in := range m.delegateInputs {
		label := labelStyle.Render(fmt.Sprintf("%-10s", names[i]))
		if i == m.focusedField {
			label = focusedStyle.Render(fmt.Sprintf("%-10s", names[i]))
		}
		b.WriteString(label + " " + in.View() + "\n")
	}
	return b.String()
}

// Run starts the browser and blocks until the user quits or ctx is done.
func Run(ctx context.Context, src VaultSource, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(initModel(ctx, src),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	_, err := p.Run()
	return err
}
