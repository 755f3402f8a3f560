// Package tui is an interactive terminal browser over the vault registry:
// the caller's records, their details and the grants on each of them.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/florancealade/zephyryx-storage-keep/models"
)

// VaultSource is the registry surface the browser drives. *client.Client satisfies it.
type VaultSource interface {
	Height(ctx context.Context) (uint64, error)
	Vaults(ctx context.Context) ([]models.Vault, error)
	Grants(ctx context.Context, id uint64) ([]models.GrantView, error)
	Delegate(ctx context.Context, id uint64, req models.DelegateRequest) error
}

type screenState int

const (
	vaultListScreen screenState = iota
	vaultDetailScreen
	delegateScreen
)

func (s screenState) String() string {
	switch s {
	case vaultListScreen:
		return "list"
	case vaultDetailScreen:
		return "detail"
	case delegateScreen:
		return "delegate"
	default:
		return "unknown"
	}
}

// Delegate form fields.
const (
	fieldGrantee = iota
	fieldTier
	fieldDuration
	numDelegateFields
)

const (
	defaultListWidth  = 80
	defaultListHeight = 20
	requestTimeout    = 10 * time.Second

	keyEnter    = "enter"
	keyQuit     = "q"
	keyBack     = "b"
	keyEsc      = "esc"
	keyRefresh  = "r"
	keyDelegate = "d"
	keyTab      = "tab"
	keyShiftTab = "shift+tab"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	expiredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Strikethrough(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F25D94"))
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// vaultItem is one record in the list.
type vaultItem struct {
	vault models.Vault
}

func (i vaultItem) Title() string {
	return fmt.Sprintf("#%d %s", i.vault.ID, i.vault.Title)
}

func (i vaultItem) Description() string {
	desc := i.vault.Classification
	if len(i.vault.Labels) > 0 {
		desc += " [" + strings.Join(i.vault.Labels, ", ") + "]"
	}
	return desc
}

func (i vaultItem) FilterValue() string {
	return i.vault.Title + " " + i.vault.Classification + " " + strings.Join(i.vault.Labels, " ")
}

type vaultsLoadedMsg struct {
	vaults []models.Vault
	height uint64
}

type grantsLoadedMsg struct {
	vaultID uint64
	grants  []models.GrantView
}

type delegatedMsg struct {
	vaultID uint64
	grantee models.Principal
}

type errMsg struct {
	err error
}

type model struct {
	ctx   context.Context
	src   VaultSource
	state screenState

	height      uint64
	vaultList   list.Model
	selected    *vaultItem
	grants      []models.GrantView
	grantsReady bool

	delegateInputs []textinput.Model
	focusedField   int

	status   string
	err      error
	docStyle lipgloss.Style
}
