package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/Mohsinsiddi/milknet/internal/config"
	"github.com/Mohsinsiddi/milknet/internal/localstore"
	"github.com/Mohsinsiddi/milknet/internal/log"
	"github.com/Mohsinsiddi/milknet/internal/milknet"
	"github.com/Mohsinsiddi/milknet/internal/network"
	"github.com/Mohsinsiddi/milknet/internal/provider"
	"github.com/Mohsinsiddi/milknet/internal/rpc"
	"github.com/Mohsinsiddi/milknet/internal/session"
	"github.com/Mohsinsiddi/milknet/internal/ui"
	"github.com/Mohsinsiddi/milknet/internal/wallet"
)

// app is everything one command needs to talk to the marketplace.
type app struct {
	wallets  *wallet.Manager
	local    *provider.Local
	networks *network.Table
	roles    *localstore.Store
	sess     *session.Manager
}

// newWalletManager creates a Manager backed by the config-dir JSON store and
// the OS keyring.
func newWalletManager() *wallet.Manager {
	return wallet.NewManager(
		wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath())),
		wallet.WithKeystore(wallet.DefaultKeystore(cfg.Dir())),
	)
}

// approver returns the permission callback for the local wallet.
func approver() provider.Approver {
	if assumeYes || cfg.AutoApprove {
		return provider.AutoApprove
	}
	return ui.NewPrompter(false).Approve
}

func chainParams(t *network.Table) []network.AddChainParams {
	all := t.All()
	out := make([]network.AddChainParams, 0, len(all))
	for _, d := range all {
		out = append(out, d.AddChain)
	}
	return out
}

// openApp wires wallet, provider and session. It does not connect.
func openApp(ctx context.Context, approve provider.Approver) (*app, error) {
	algo, err := rpc.ParseAlgorithm(cfg.RPCAlgorithm)
	if err != nil {
		return nil, err
	}
	networks := cfg.NetworkTable()
	wallets := newWalletManager()

	local, err := provider.NewLocal(provider.LocalConfig{
		Wallets:        wallets,
		Account:        cfg.DefaultWallet,
		Chains:         chainParams(networks),
		InitialChainID: cfg.InitialChainID,
		Approve:        approve,
		Algorithm:      algo,
	})
	if err != nil {
		return nil, err
	}

	// Without any wallet there is nothing to connect; Connect then reports
	// session.ErrProviderMissing.
	var prov provider.Provider = local
	if len(wallets.List()) == 0 {
		log.L(ctx).Debug("no wallets configured")
		prov = nil
	}

	roles := localstore.Open(localstore.DefaultPath())
	sess, err := session.New(ctx, session.Config{
		Provider: prov,
		Networks: networks,
		Roles:    roles,
	})
	if err != nil {
		local.Close()
		return nil, err
	}
	return &app{
		wallets:  wallets,
		local:    local,
		networks: networks,
		roles:    roles,
		sess:     sess,
	}, nil
}

// connectApp opens the app and runs the wallet connection flow.
func connectApp(ctx context.Context) (*app, error) {
	a, err := openApp(ctx, approver())
	if err != nil {
		return nil, err
	}
	if err := a.sess.Connect(ctx); err != nil {
		a.Close()
		if errors.Is(err, session.ErrProviderMissing) {
			return nil, fmt.Errorf("%w\n  To add one: milknet wallet add <name> --key <private-key>", err)
		}
		return nil, err
	}
	return a, nil
}

// contract returns the bound contract or explains why there is none.
func (a *app) contract() (milknet.Contract, session.Snapshot, error) {
	snap := a.sess.Snapshot()
	if snap.Contract == nil {
		if snap.NetworkError != "" {
			return nil, snap, errors.New(snap.NetworkError)
		}
		return nil, snap, errors.New("not connected: run `milknet connect`")
	}
	if snap.Paused {
		fmt.Println(ui.Warn("The marketplace contract is paused; transactions may revert."))
	}
	return snap.Contract, snap, nil
}

// writable returns the bound contract for commands that send transactions.
func (a *app) writable() (milknet.Contract, session.Snapshot, error) {
	c, snap, err := a.contract()
	if err != nil {
		return nil, snap, err
	}
	if !c.CanTransact() {
		return nil, snap, fmt.Errorf("account %s is watch-only\n  To add a signing wallet: milknet wallet add <name> --key <private-key>", snap.Account)
	}
	return c, snap, nil
}

func (a *app) explorer(chainID uint64) string {
	d, err := a.networks.Lookup(chainID)
	if err != nil {
		return ""
	}
	return d.Explorer()
}

// Close releases the session and the provider.
func (a *app) Close() {
	a.sess.Close()
	a.local.Close()
}

// waitTx shows a spinner until ptx is mined or the configured timeout passes.
func (a *app) waitTx(ctx context.Context, what string, ptx *milknet.PendingTx, chainID uint64) (*types.Receipt, error) {
	hash := ptx.Hash().Hex()
	log.L(ctx).Infof("waiting for %s tx %s", what, hash)

	ctx, cancel := context.WithTimeout(ctx, cfg.TxConfirmTimeout())
	defer cancel()

	spin := ui.NewSpinner(fmt.Sprintf("Waiting for %s (%s)...", what, ui.TruncateAddr(hash)))
	spin.Start()
	receipt, err := ptx.Wait(ctx)
	if err != nil {
		spin.Stop()
	} else {
		spin.StopWithMsg(ui.Success(fmt.Sprintf("%s confirmed in block %s", what, receipt.BlockNumber)))
	}

	if explorer := a.explorer(chainID); explorer != "" {
		fmt.Println(ui.Meta(explorer + "/tx/" + hash))
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s not mined within %s (tx %s)", what, cfg.TxConfirmTimeout(), hash)
		}
		return receipt, err
	}
	return receipt, nil
}

// waitForChain blocks until the session settles on chainID.
func waitForChain(ctx context.Context, sess *session.Manager, chainID uint64) (session.Snapshot, error) {
	ch := make(chan session.Snapshot, 16)
	sub := sess.SubscribeSnapshots(ch)
	defer sub.Unsubscribe()

	settled := func(s session.Snapshot) bool {
		return s.ChainID == chainID && !s.Connecting && (s.Contract != nil || s.NetworkError != "")
	}
	if s := sess.Snapshot(); settled(s) {
		return s, nil
	}

	timer := time.NewTimer(config.SessionSettleWait)
	defer timer.Stop()
	for {
		select {
		case s := <-ch:
			if settled(s) {
				return s, nil
			}
		case <-timer.C:
			return sess.Snapshot(), fmt.Errorf("session did not settle on chain %d", chainID)
		case <-ctx.Done():
			return sess.Snapshot(), ctx.Err()
		}
	}
}

func parseUint(s, what string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("invalid %s %q: want a non-negative integer", what, s)
	}
	return n, nil
}

func errLine(err error) string {
	return ui.Err(err.Error())
}
