//go:build linux

package bypass

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/google/nftables/binaryutil"
	"github.com/google/nftables/expr"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewNftablesExcluder(t *testing.T) {
	e := NewNftablesExcluder(discardLogger())
	if e == nil {
		t.Fatal("NewNftablesExcluder returned nil")
	}
	if e.logger == nil {
		t.Fatal("logger field is nil")
	}
}

func TestClearNonExistent(t *testing.T) {
	e := NewNftablesExcluder(discardLogger())

	// Clearing without a table should be idempotent.
	// This requires CAP_NET_ADMIN; skip if we get a permission error.
	if err := e.Clear(); err != nil {
		t.Skipf("skipping: requires elevated privileges: %v", err)
	}
}

func TestApplyRejectsUnknownUser(t *testing.T) {
	stubLookup(t, nil)
	e := NewNftablesExcluder(discardLogger())

	// Resolution fails before any netlink traffic.
	if err := e.Apply([]string{"ghost"}, 0xca6c); err == nil {
		t.Fatal("Apply expected error, got nil")
	}
}

func TestMarkUIDExprs(t *testing.T) {
	exprs := markUIDExprs(1001, 0xca6c)
	if len(exprs) != 5 {
		t.Fatalf("len(exprs) = %d, want 5", len(exprs))
	}

	meta, ok := exprs[0].(*expr.Meta)
	if !ok || meta.Key != expr.MetaKeySKUID {
		t.Errorf("exprs[0] = %#v, want skuid meta", exprs[0])
	}

	cmp, ok := exprs[1].(*expr.Cmp)
	if !ok {
		t.Fatalf("exprs[1] = %T, want *expr.Cmp", exprs[1])
	}
	if !bytes.Equal(cmp.Data, binaryutil.NativeEndian.PutUint32(1001)) {
		t.Errorf("cmp data = %v, want uid 1001", cmp.Data)
	}

	imm, ok := exprs[3].(*expr.Immediate)
	if !ok {
		t.Fatalf("exprs[3] = %T, want *expr.Immediate", exprs[3])
	}
	if !bytes.Equal(imm.Data, binaryutil.NativeEndian.PutUint32(0xca6c)) {
		t.Errorf("immediate data = %v, want mark", imm.Data)
	}

	set, ok := exprs[4].(*expr.Meta)
	if !ok || set.Key != expr.MetaKeyMARK || !set.SourceRegister {
		t.Errorf("exprs[4] = %#v, want mark set", exprs[4])
	}
}
