//go:build linux

package bypass

import (
	"fmt"
	"log/slog"

	"github.com/google/nftables"
	"github.com/google/nftables/binaryutil"
	"github.com/google/nftables/expr"
)

// tableName is the nftables table holding the exclusion chain.
const tableName = "wgsession"

// chainName is the route-type output chain that marks excluded traffic.
const chainName = "exclude"

// NftablesExcluder marks packets of excluded uids with the tunnel bypass
// mark. The chain is a route chain so that the kernel re-runs the routing
// decision after the mark is set.
type NftablesExcluder struct {
	logger *slog.Logger
}

// NewNftablesExcluder returns a new NftablesExcluder.
func NewNftablesExcluder(logger *slog.Logger) *NftablesExcluder {
	return &NftablesExcluder{logger: logger}
}

// Apply replaces the exclusion rules with one rule per resolved uid.
func (e *NftablesExcluder) Apply(apps []string, mark uint32) error {
	uids, err := ResolveUIDs(apps)
	if err != nil {
		return err
	}

	conn, err := nftables.New()
	if err != nil {
		return fmt.Errorf("bypass: nftables: apply: %w", err)
	}

	table := conn.AddTable(&nftables.Table{
		Family: nftables.TableFamilyIPv4,
		Name:   tableName,
	})
	chain := conn.AddChain(&nftables.Chain{
		Name:     chainName,
		Table:    table,
		Type:     nftables.ChainTypeRoute,
		Hooknum:  nftables.ChainHookOutput,
		Priority: nftables.ChainPriorityMangle,
	})
	conn.FlushChain(chain)

	for _, uid := range uids {
		conn.AddRule(&nftables.Rule{
			Table: table,
			Chain: chain,
			Exprs: markUIDExprs(uid, mark),
		})
	}

	if err := conn.Flush(); err != nil {
		return fmt.Errorf("bypass: nftables: apply: %w", err)
	}

	e.logger.Info("app exclusions applied",
		"component", "bypass",
		"uids", uids,
	)
	return nil
}

// Clear removes the exclusion table. It is idempotent.
func (e *NftablesExcluder) Clear() error {
	conn, err := nftables.New()
	if err != nil {
		return fmt.Errorf("bypass: nftables: clear: %w", err)
	}

	chains, err := conn.ListChainsOfTableFamily(nftables.TableFamilyIPv4)
	if err != nil {
		return fmt.Errorf("bypass: nftables: clear: list chains: %w", err)
	}

	for _, ch := range chains {
		if ch.Table.Name != tableName {
			continue
		}
		conn.DelTable(ch.Table)
		if err := conn.Flush(); err != nil {
			return fmt.Errorf("bypass: nftables: clear: %w", err)
		}
		e.logger.Debug("app exclusions cleared",
			"component", "bypass",
		)
		return nil
	}
	return nil
}

// markUIDExprs builds: meta skuid == uid counter meta mark set mark.
func markUIDExprs(uid, mark uint32) []expr.Any {
	return []expr.Any{
		&expr.Meta{Key: expr.MetaKeySKUID, Register: 1},
		&expr.Cmp{
			Op:       expr.CmpOpEq,
			Register: 1,
			Data:     binaryutil.NativeEndian.PutUint32(uid),
		},
		&expr.Counter{},
		&expr.Immediate{
			Register: 1,
			Data:     binaryutil.NativeEndian.PutUint32(mark),
		},
		&expr.Meta{Key: expr.MetaKeyMARK, SourceRegister: true, Register: 1},
	}
}
