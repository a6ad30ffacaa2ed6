package wireguard

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func testNativeConfig(t *testing.T, excluded ...string) *NativeConfig {
	t.Helper()
	nc, err := NativeConfigFrom(testTunnelConfig(t), excluded)
	if err != nil {
		t.Fatalf("NativeConfigFrom: %v", err)
	}
	return nc
}

func TestManager_SetStateUp(t *testing.T) {
	ctrl := &mockController{}
	mgr := NewManager(ctrl, nil, Config{}, discardLogger())
	tun := NewTunnel("wg0")

	got, err := mgr.SetState(context.Background(), tun, StateUp, testNativeConfig(t))
	if err != nil {
		t.Fatalf("SetState(UP) error: %v", err)
	}
	if got != StateUp {
		t.Fatalf("SetState(UP) = %v, want UP", got)
	}

	want := []string{
		"DeleteInterface",
		"CreateInterface",
		"ConfigureAddress",
		"SetMTU",
		"AddPeer",
		"SetInterfaceUp",
		"AddRoutes",
		"AddPolicyRules",
	}
	if strings.Join(ctrl.methods(), ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", ctrl.methods(), want)
	}

	ci := ctrl.callsFor("CreateInterface")
	if ci[0].Args[0] != "wg0" {
		t.Errorf("CreateInterface iface = %v, want wg0", ci[0].Args[0])
	}
	if ci[0].Args[3] != FirewallMark {
		t.Errorf("CreateInterface fwmark = %v, want %#x", ci[0].Args[3], FirewallMark)
	}

	mtu := ctrl.callsFor("SetMTU")
	if mtu[0].Args[1] != 1420 {
		t.Errorf("SetMTU mtu = %v, want 1420", mtu[0].Args[1])
	}

	routes := ctrl.callsFor("AddRoutes")
	if routes[0].Args[1] != DefaultRouteTable {
		t.Errorf("AddRoutes table = %v, want %d", routes[0].Args[1], DefaultRouteTable)
	}

	rules := ctrl.callsFor("AddPolicyRules")
	if rules[0].Args[0] != DefaultRouteTable || rules[0].Args[1] != DefaultRulePriority {
		t.Errorf("AddPolicyRules args = %v", rules[0].Args)
	}
}

func TestManager_SetStateUp_RollsBackOnFailure(t *testing.T) {
	ctrl := &mockController{addPeerErr: errors.New("device busy")}
	mgr := NewManager(ctrl, nil, Config{}, discardLogger())

	got, err := mgr.SetState(context.Background(), NewTunnel("wg0"), StateUp, testNativeConfig(t))
	if err == nil {
		t.Fatal("SetState(UP) expected error, got nil")
	}
	if got != StateDown {
		t.Errorf("SetState(UP) = %v, want DOWN", got)
	}
	if !strings.Contains(err.Error(), "add peer") || !strings.Contains(err.Error(), "device busy") {
		t.Errorf("error %q does not name the failed step", err.Error())
	}

	if n := len(ctrl.callsFor("SetInterfaceUp")); n != 0 {
		t.Errorf("expected 0 SetInterfaceUp calls after AddPeer error, got %d", n)
	}
	// Stale-interface cleanup plus rollback.
	if n := len(ctrl.callsFor("DeleteInterface")); n != 2 {
		t.Errorf("expected 2 DeleteInterface calls, got %d", n)
	}
	if n := len(ctrl.callsFor("DeletePolicyRules")); n != 1 {
		t.Errorf("expected 1 DeletePolicyRules call, got %d", n)
	}
	if ctrl.exists {
		t.Error("interface survived a failed bring-up")
	}
}

func TestManager_SetStateUp_CanceledContext(t *testing.T) {
	ctrl := &mockController{}
	mgr := NewManager(ctrl, nil, Config{}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := mgr.SetState(ctx, NewTunnel("wg0"), StateUp, testNativeConfig(t))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("SetState(UP) error = %v, want context.Canceled", err)
	}
	if got != StateDown {
		t.Errorf("SetState(UP) = %v, want DOWN", got)
	}
	if n := len(ctrl.callsFor("CreateInterface")); n != 0 {
		t.Errorf("expected 0 CreateInterface calls, got %d", n)
	}
}

func TestManager_SetStateUp_RequiresConfig(t *testing.T) {
	mgr := NewManager(&mockController{}, nil, Config{}, discardLogger())

	if _, err := mgr.SetState(context.Background(), NewTunnel("wg0"), StateUp, nil); err == nil {
		t.Fatal("SetState(UP, nil) expected error, got nil")
	}
}

func TestManager_SetStateUp_ExcludedAppsWithoutExcluder(t *testing.T) {
	ctrl := &mockController{}
	mgr := NewManager(ctrl, nil, Config{}, discardLogger())

	_, err := mgr.SetState(context.Background(), NewTunnel("wg0"), StateUp, testNativeConfig(t, "backup"))
	if !errors.Is(err, ErrExclusionUnsupported) {
		t.Fatalf("error = %v, want ErrExclusionUnsupported", err)
	}
	if n := len(ctrl.callsFor("CreateInterface")); n != 0 {
		t.Errorf("expected 0 CreateInterface calls, got %d", n)
	}
}

func TestManager_SetStateUp_AppliesExclusions(t *testing.T) {
	ctrl := &mockController{}
	ex := &mockExcluder{}
	mgr := NewManager(ctrl, ex, Config{}, discardLogger())

	if _, err := mgr.SetState(context.Background(), NewTunnel("wg0"), StateUp, testNativeConfig(t, "backup", "1001")); err != nil {
		t.Fatalf("SetState(UP) error: %v", err)
	}
	if len(ex.applied) != 1 {
		t.Fatalf("expected 1 Apply call, got %d", len(ex.applied))
	}
	if strings.Join(ex.applied[0], ",") != "backup,1001" {
		t.Errorf("applied apps = %v", ex.applied[0])
	}
	if ex.marks[0] != FirewallMark {
		t.Errorf("mark = %#x, want %#x", ex.marks[0], FirewallMark)
	}
}

func TestManager_SetStateDown_Idempotent(t *testing.T) {
	ctrl := &mockController{}
	ex := &mockExcluder{}
	mgr := NewManager(ctrl, ex, Config{}, discardLogger())
	tun := NewTunnel("wg0")

	for i := 0; i < 2; i++ {
		got, err := mgr.SetState(context.Background(), tun, StateDown, nil)
		if err != nil {
			t.Fatalf("SetState(DOWN) #%d error: %v", i, err)
		}
		if got != StateDown {
			t.Fatalf("SetState(DOWN) #%d = %v, want DOWN", i, got)
		}
	}
	if ex.clears != 2 {
		t.Errorf("Clear calls = %d, want 2", ex.clears)
	}
}

func TestManager_SetStateDown_RunsAllSteps(t *testing.T) {
	ctrl := &mockController{deletePolicyRulesErr: errors.New("rule busy")}
	ex := &mockExcluder{clearErr: errors.New("nft busy")}
	mgr := NewManager(ctrl, ex, Config{}, discardLogger())
	tun := NewTunnel("wg0")

	if _, err := mgr.SetState(context.Background(), tun, StateUp, testNativeConfig(t)); err != nil {
		t.Fatalf("SetState(UP) error: %v", err)
	}

	got, err := mgr.SetState(context.Background(), tun, StateDown, nil)
	if err == nil {
		t.Fatal("SetState(DOWN) expected error, got nil")
	}
	if !strings.Contains(err.Error(), "rule busy") || !strings.Contains(err.Error(), "nft busy") {
		t.Errorf("error %q does not join all failures", err.Error())
	}
	// The interface was still deleted, so the observed state is DOWN.
	if got != StateDown {
		t.Errorf("SetState(DOWN) = %v, want DOWN", got)
	}
}

func TestManager_GetState(t *testing.T) {
	ctrl := &mockController{}
	mgr := NewManager(ctrl, nil, Config{}, discardLogger())
	tun := NewTunnel("wg0")

	if got, _ := mgr.GetState(context.Background(), tun); got != StateDown {
		t.Errorf("GetState before up = %v, want DOWN", got)
	}

	if _, err := mgr.SetState(context.Background(), tun, StateUp, testNativeConfig(t)); err != nil {
		t.Fatalf("SetState(UP) error: %v", err)
	}
	if got, _ := mgr.GetState(context.Background(), tun); got != StateUp {
		t.Errorf("GetState after up = %v, want UP", got)
	}

	// Interface exists but is administratively down.
	ctrl.up = false
	if got, _ := mgr.GetState(context.Background(), tun); got != StateDown {
		t.Errorf("GetState with link down = %v, want DOWN", got)
	}

	ctrl.interfaceStateErr = errors.New("netlink gone")
	if _, err := mgr.GetState(context.Background(), tun); err == nil {
		t.Error("GetState expected error, got nil")
	}
}

func TestManager_NilTunnel(t *testing.T) {
	mgr := NewManager(&mockController{}, nil, Config{}, discardLogger())

	if _, err := mgr.SetState(context.Background(), nil, StateDown, nil); err == nil {
		t.Error("SetState(nil tunnel) expected error")
	}
	if _, err := mgr.GetState(context.Background(), nil); err == nil {
		t.Error("GetState(nil tunnel) expected error")
	}
}

func TestTunnel(t *testing.T) {
	a, b := NewTunnel("wg0"), NewTunnel("wg0")
	if a.Name() != "wg0" {
		t.Errorf("Name() = %q, want wg0", a.Name())
	}
	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("tunnel IDs not unique: %q, %q", a.ID(), b.ID())
	}
	if StateUp.String() != "UP" || StateDown.String() != "DOWN" {
		t.Errorf("State strings = %q, %q", StateUp, StateDown)
	}
}
