package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/florancealade/zephyryx-storage-keep/models"
)

// Init loads the record list.
func (m *model) Init() tea.Cmd {
	return loadVaultsCmd(m.ctx, m.src)
}

// Update routes global messages first and hands keys to the current screen.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := m.docStyle.GetFrameSize()
		m.vaultList.SetSize(msg.Width-h, msg.Height-v-2)
		return m, nil

	case vaultsLoadedMsg:
		return m.handleVaultsLoaded(msg)

	case grantsLoadedMsg:
		if m.selected != nil && m.selected.vault.ID == msg.vaultID {
			m.grants = msg.grants
			m.grantsReady = true
		}
		return m, nil

	case delegatedMsg:
		m.status = fmt.Sprintf("Granted %s on vault %d", msg.grantee, msg.vaultID)
		m.err = nil
		m.state = vaultDetailScreen
		m.grantsReady = false
		return m, loadGrantsCmd(m.ctx, m.src, msg.vaultID)

	case errMsg:
		slog.Debug("[Browser] request failed", "error", msg.err)
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	switch m.state {
	case vaultDetailScreen:
		return m.updateDetailScreen(msg)
	case delegateScreen:
		return m.updateDelegateScreen(msg)
	default:
		return m.updateListScreen(msg)
	}
}

func (m *model) handleVaultsLoaded(msg vaultsLoadedMsg) (tea.Model, tea.Cmd) {
	m.height = msg.height
	m.err = nil
	items := make([]list.Item, len(msg.vaults))
	for i, v := range msg.vaults {
		items[i] = vaultItem{vault: v}
	}
	cmd := m.vaultList.SetItems(items)
	m.vaultList.Title = fmt.Sprintf("Vaults (%d) at height %d", len(items), msg.height)
	return m, cmd
}

func (m *model) updateListScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.vaultList, cmd = m.vaultList.Update(msg)
	cmds = append(cmds, cmd)

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.vaultList.FilterState() == list.Filtering {
		return m, tea.Batch(cmds...)
	}
	switch keyMsg.String() {
	case keyQuit:
		return m, tea.Quit
	case keyRefresh:
		m.status = ""
		cmds = append(cmds, loadVaultsCmd(m.ctx, m.src))
	case keyEnter:
		item, ok := m.vaultList.SelectedItem().(vaultItem)
		if !ok {
			break
		}
		m.selected = &item
		m.grants = nil
		m.grantsReady = false
		m.status = ""
		m.state = vaultDetailScreen
		cmds = append(cmds, loadGrantsCmd(m.ctx, m.src, item.vault.ID))
	}
	return m, tea.Batch(cmds...)
}

func (m *model) updateDetailScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case keyQuit:
		return m, tea.Quit
	case keyBack, keyEsc:
		m.state = vaultListScreen
		m.selected = nil
		m.err = nil
		return m, nil
	case keyRefresh:
		m.grantsReady = false
		return m, tea.Batch(loadVaultsCmd(m.ctx, m.src), loadGrantsCmd(m.ctx, m.src, m.selected.vault.ID))
	case keyDelegate:
		m.delegateInputs = initDelegateInputs()
		m.focusedField = fieldGrantee
		m.err = nil
		m.state = delegateScreen
		return m, textinput.Blink
	}
	return m, nil
}

func (m *model) updateDelegateScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case keyEsc:
			m.state = vaultDetailScreen
			m.err = nil
			return m, nil
		case keyTab, "down":
			m.focusField((m.focusedField + 1) % numDelegateFields)
			return m, nil
		case keyShiftTab, "up":
			m.focusField((m.focusedField + numDelegateFields - 1) % numDelegateFields)
			return m, nil
		case keyEnter:
			req, err := m.delegateRequest()
			if err != nil {
				m.err = err
				return m, nil
			}
			return m, delegateCmd(m.ctx, m.src, m.selected.vault.ID, req)
		}
	}

	var cmd tea.Cmd
	m.delegateInputs[m.focusedField], cmd = m.delegateInputs[m.focusedField].Update(msg)
	return m, cmd
}

func (m *model) focusField(i int) {
	m.delegateInputs[m.focusedField].Blur()
	m.focusedField = i
	m.delegateInputs[i].Focus()
}

// delegateRequest reads the form. Field rules are left to the server; only the
// duration has to parse here.
func (m *model) delegateRequest() (models.DelegateRequest, error) {
	raw := strings.TrimSpace(m.delegateInputs[fieldDuration].Value())
	if raw == "" {
		return models.DelegateRequest{}, errors.New("duration is required")
	}
	d, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return models.DelegateRequest{}, fmt.Errorf("duration %q is not a number", raw)
	}
	return models.DelegateRequest{
		Grantee:  models.Principal(strings.TrimSpace(m.delegateInputs[fieldGrantee].Value())),
		Tier:     models.Tier(strings.TrimSpace(m.delegateInputs[fieldTier].Value())),
		Duration: d,
	}, nil
}
