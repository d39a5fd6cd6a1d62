package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"

	"github.com/Mohsinsiddi/milknet/internal/network"
	"github.com/Mohsinsiddi/milknet/internal/session"
	"github.com/Mohsinsiddi/milknet/internal/wallet"
)

// SessionController is the part of session.Manager the dashboard drives.
type SessionController interface {
	Snapshot() session.Snapshot
	Networks() *network.Table
	Connect(ctx context.Context) error
	Disconnect()
	SwitchNetwork(ctx context.Context, chainID uint64) error
}

// WalletSwitcher is the local wallet behind the session. Selecting or
// locking reaches the session as an accountsChanged event.
type WalletSwitcher interface {
	Wallets() []*wallet.Wallet
	SelectAccount(name string) error
	Lock()
}

type snapshotMsg session.Snapshot

type actionDoneMsg struct {
	action string
	err    error
}

type dashTickMsg time.Time

// SessionModel is the bubbletea model behind `milknet watch`.
type SessionModel struct {
	ctx     context.Context
	ctrl    SessionController
	wallets WalletSwitcher
	updates <-chan session.Snapshot

	snap    session.Snapshot
	busy    string
	lastErr string
	status  string
	frame   int
}

// NewSessionModel builds the dashboard. updates should be subscribed to the
// manager's snapshot feed by the caller.
func NewSessionModel(ctx context.Context, ctrl SessionController, updates <-chan session.Snapshot) SessionModel {
	return SessionModel{
		ctx:     ctx,
		ctrl:    ctrl,
		updates: updates,
		snap:    ctrl.Snapshot(),
	}
}

// WithWallets enables the wallet keys: a selects the next wallet, l locks.
func (m SessionModel) WithWallets(w WalletSwitcher) SessionModel {
	m.wallets = w
	return m
}

// Snapshot returns the snapshot the model last rendered.
func (m SessionModel) Snapshot() session.Snapshot { return m.snap }

func (m SessionModel) waitSnapshot() tea.Cmd {
	ch := m.updates
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(s)
	}
}

func dashTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(t time.Time) tea.Msg { return dashTickMsg(t) })
}

func (m SessionModel) Init() tea.Cmd {
	return tea.Batch(m.waitSnapshot(), dashTick())
}

func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case snapshotMsg:
		s := session.Snapshot(msg)
		// The feed is delivered in order, but the initial Snapshot() call may
		// race with the first event.
		if s.Version >= m.snap.Version {
			m.snap = s
		}
		return m, m.waitSnapshot()

	case actionDoneMsg:
		m.busy = ""
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			m.status = ""
		} else {
			m.lastErr = ""
			m.status = msg.action + " done"
		}
		if s := m.ctrl.Snapshot(); s.Version >= m.snap.Version {
			m.snap = s
		}
		return m, nil

	case dashTickMsg:
		m.frame++
		return m, dashTick()
	}
	return m, nil
}

func (m SessionModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	}
	if m.busy != "" {
		return m, nil
	}

	switch msg.String() {
	case "c":
		m.busy = "connecting"
		ctx, ctrl := m.ctx, m.ctrl
		return m, func() tea.Msg {
			return actionDoneMsg{action: "connect", err: ctrl.Connect(ctx)}
		}

	case "d":
		m.busy = "disconnecting"
		ctrl := m.ctrl
		return m, func() tea.Msg {
			ctrl.Disconnect()
			return actionDoneMsg{action: "disconnect"}
		}

	case "a":
		if m.wallets == nil {
			return m, nil
		}
		next, ok := m.nextWallet()
		if !ok {
			m.lastErr = "no other wallet to select"
			return m, nil
		}
		m.busy = "selecting " + next.Name
		wallets, name := m.wallets, next.Name
		return m, func() tea.Msg {
			return actionDoneMsg{action: "select " + name, err: wallets.SelectAccount(name)}
		}

	case "l":
		if m.wallets == nil {
			return m, nil
		}
		m.busy = "locking"
		wallets := m.wallets
		return m, func() tea.Msg {
			wallets.Lock()
			return actionDoneMsg{action: "lock"}
		}

	case "s":
		target, ok := m.nextNetwork()
		if !ok {
			m.lastErr = "no network to switch to"
			return m, nil
		}
		m.busy = "switching to " + target.Name
		ctx, ctrl, id := m.ctx, m.ctrl, target.ChainID
		return m, func() tea.Msg {
			return actionDoneMsg{action: "switch", err: ctrl.SwitchNetwork(ctx, id)}
		}
	}
	return m, nil
}

// nextNetwork cycles through the table starting after the current chain.
func (m SessionModel) nextNetwork() (*network.Descriptor, bool) {
	all := m.ctrl.Networks().All()
	if len(all) == 0 {
		return nil, false
	}
	for i, d := range all {
		if d.ChainID == m.snap.ChainID {
			next := all[(i+1)%len(all)]
			if next.ChainID == m.snap.ChainID {
				return nil, false
			}
			return next, true
		}
	}
	return all[0], true
}

// nextWallet cycles through the wallets starting after the connected one.
func (m SessionModel) nextWallet() (*wallet.Wallet, bool) {
	all := m.wallets.Wallets()
	if len(all) == 0 {
		return nil, false
	}
	if m.snap.Account == "" {
		return all[0], true
	}
	current := common.HexToAddress(m.snap.Account)
	for i, w := range all {
		if w.Addr() == current {
			next := all[(i+1)%len(all)]
			if next.Addr() == current {
				return nil, false
			}
			return next, true
		}
	}
	return all[0], true
}

func (m SessionModel) View() string {
	var sb strings.Builder
	sb.WriteString(StyleTitle.Render("MilkNet session"))
	sb.WriteString("\n")
	sb.WriteString(SessionBlock(m.snap))
	sb.WriteString("\n")

	switch {
	case m.busy != "":
		frame := StyleChain.Render(spinnerFrames[m.frame%len(spinnerFrames)])
		sb.WriteString(frame + "  " + m.busy + "…\n")
	case m.lastErr != "":
		sb.WriteString(Err(m.lastErr) + "\n")
	case m.status != "":
		sb.WriteString(Success(m.status) + "\n")
	default:
		sb.WriteString("\n")
	}

	keys := "c connect · d disconnect · s switch network"
	if m.wallets != nil {
		keys += " · a next wallet · l lock"
	}
	help := lipgloss.NewStyle().Foreground(ColorMeta).Render(keys + " · q quit")
	sb.WriteString("\n" + help + "\n")
	return sb.String()
}

// SessionBlock renders a snapshot as a key/value box.
func SessionBlock(s session.Snapshot) string {
	account := Meta("not connected")
	if s.Account != "" {
		account = Addr(s.Account)
	}
	netName := Meta("unknown")
	if s.NetworkName != "" {
		netName = ChainName(s.NetworkName)
	}
	chain := "-"
	if s.ChainID != 0 {
		chain = fmt.Sprintf("%d", s.ChainID)
	}
	contract := Meta("not bound")
	if s.Contract != nil {
		contract = Addr(s.Contract.Address().Hex())
	}
	role := string(s.Role)
	if role == "" {
		role = "none"
	}

	pairs := [][2]string{
		{"State", stateLabel(s.State())},
		{"Account", account},
		{"Network", netName},
		{"Chain ID", chain},
		{"Contract", contract},
		{"Role", role},
	}
	if s.Paused {
		pairs = append(pairs, [2]string{"Marketplace", StyleError.Render("paused")})
	}
	if s.NetworkError != "" {
		pairs = append(pairs, [2]string{"Network error", StyleError.Render(s.NetworkError)})
	}
	return KeyValueBlock("", pairs)
}

func stateLabel(st session.State) string {
	switch st {
	case session.ConnectedValidNetwork:
		return StyleSuccess.Render(st.String())
	case session.ConnectedInvalidNetwork:
		return StyleError.Render(st.String())
	case session.Connecting:
		return StyleWarning.Render(st.String())
	default:
		return StyleMeta.Render(st.String())
	}
}
