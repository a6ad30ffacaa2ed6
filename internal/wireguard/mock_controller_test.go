package wireguard

import (
	"log/slog"
	"sync"
)

// mockCall records a single method invocation on a mock.
type mockCall struct {
	Method string
	Args   []interface{}
}

// mockController is a test double for WGController.
// It records all calls, tracks interface presence and supports configurable
// error returns per method.
type mockController struct {
	mu sync.Mutex

	calls []mockCall

	exists bool
	up     bool

	createInterfaceErr   error
	deleteInterfaceErr   error
	configureAddressErr  error
	setInterfaceUpErr    error
	setMTUErr            error
	addPeerErr           error
	addRoutesErr         error
	addPolicyRulesErr    error
	deletePolicyRulesErr error
	interfaceStateErr    error
}

func (m *mockController) record(method string, args ...interface{}) {
	m.calls = append(m.calls, mockCall{Method: method, Args: args})
}

func (m *mockController) CreateInterface(name string, privateKey []byte, listenPort int, fwmark int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("CreateInterface", name, privateKey, listenPort, fwmark)
	if m.createInterfaceErr != nil {
		return m.createInterfaceErr
	}
	m.exists = true
	return nil
}

func (m *mockController) DeleteInterface(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("DeleteInterface", name)
	if m.deleteInterfaceErr != nil {
		return m.deleteInterfaceErr
	}
	m.exists = false
	m.up = false
	return nil
}

func (m *mockController) ConfigureAddress(name string, address string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ConfigureAddress", name, address)
	return m.configureAddressErr
}

func (m *mockController) SetInterfaceUp(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("SetInterfaceUp", name)
	if m.setInterfaceUpErr != nil {
		return m.setInterfaceUpErr
	}
	m.up = true
	return nil
}

func (m *mockController) SetMTU(name string, mtu int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("SetMTU", name, mtu)
	return m.setMTUErr
}

func (m *mockController) AddPeer(iface string, cfg PeerConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("AddPeer", iface, cfg)
	return m.addPeerErr
}

func (m *mockController) AddRoutes(iface string, table int, cidrs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("AddRoutes", iface, table, cidrs)
	return m.addRoutesErr
}

func (m *mockController) AddPolicyRules(table, priority int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("AddPolicyRules", table, priority)
	return m.addPolicyRulesErr
}

func (m *mockController) DeletePolicyRules(table, priority int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("DeletePolicyRules", table, priority)
	return m.deletePolicyRulesErr
}

func (m *mockController) InterfaceState(name string) (bool, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("InterfaceState", name)
	if m.interfaceStateErr != nil {
		return false, false, m.interfaceStateErr
	}
	return m.exists, m.up, nil
}

// callsFor returns all recorded calls for the given method name.
func (m *mockController) callsFor(method string) []mockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []mockCall
	for _, c := range m.calls {
		if c.Method == method {
			result = append(result, c)
		}
	}
	return result
}

// methods returns the recorded method names in call order.
func (m *mockController) methods() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.calls))
	for _, c := range m.calls {
		out = append(out, c.Method)
	}
	return out
}

// mockExcluder is a test double for Excluder.
type mockExcluder struct {
	mu       sync.Mutex
	applied  [][]string
	marks    []uint32
	clears   int
	applyErr error
	clearErr error
}

func (e *mockExcluder) Apply(apps []string, mark uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.applied = append(e.applied, apps)
	e.marks = append(e.marks, mark)
	return e.applyErr
}

func (e *mockExcluder) Clear() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clears++
	return e.clearErr
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nopWriter{}, nil))
}
