//go:build linux

package ime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/godbus/dbus/v5"

	"quwei/internal/config"
	"quwei/internal/logging"
)

// ErrNameTaken is returned by Start when another process owns the bus name.
var ErrNameTaken = errors.New("ibus: bus name already taken")

// busConn is the part of *dbus.Conn the frontend uses.
type busConn interface {
	Emit(path dbus.ObjectPath, name string, values ...interface{}) error
	Export(v interface{}, path dbus.ObjectPath, iface string) error
}

// IBusServer connects to the IBus bus and serves the engine factory.
type IBusServer struct {
	engine *Engine
	cfg    config.IBusConfig
	log    *logging.Logger

	conn    *dbus.Conn
	factory *IBusFactory
}

// NewIBusServer returns a server for engine. Call Start or Serve to connect.
func NewIBusServer(engine *Engine, cfg config.IBusConfig, log *logging.Logger) *IBusServer {
	if log == nil {
		log = logging.Default()
	}
	return &IBusServer{
		engine: engine,
		cfg:    cfg,
		log:    log.WithComponent("ibus"),
	}
}

// Start connects, exports the factory and claims the component bus name.
func (s *IBusServer) Start() error {
	conn, err := s.connect()
	if err != nil {
		return err
	}

	s.factory = NewIBusFactory(conn, s.engine, s.cfg.EngineName, s.log)
	if err := conn.Export(s.factory, IBusFactoryPath, IBusFactoryInterface); err != nil {
		conn.Close()
		return fmt.Errorf("export factory: %w", err)
	}

	reply, err := conn.RequestName(s.cfg.BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return fmt.Errorf("request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return fmt.Errorf("%w: %s", ErrNameTaken, s.cfg.BusName)
	}

	s.conn = conn
	s.log.Info("ibus engine started", "bus_name", s.cfg.BusName, "engine", s.cfg.EngineName)
	return nil
}

func (s *IBusServer) connect() (*dbus.Conn, error) {
	if addr := BusAddress(s.cfg.Address); addr != "" {
		conn, err := dbus.Connect(addr)
		if err == nil {
			s.log.Debug("connected to ibus bus", "address", addr)
			return conn, nil
		}
		s.log.Warn("ibus bus unreachable, using session bus", "address", addr, "error", err)
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	return conn, nil
}

// Serve starts the server and blocks until ctx is done or the bus
// connection drops.
func (s *IBusServer) Serve(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	defer s.Close()

	select {
	case <-ctx.Done():
		return nil
	case <-s.conn.Context().Done():
		return errors.New("ibus: bus connection closed")
	}
}

// Factory returns the exported factory, nil before Start.
func (s *IBusServer) Factory() *IBusFactory { return s.factory }

// Close releases the bus name and closes the connection.
func (s *IBusServer) Close() error {
	if s.conn == nil {
		return nil
	}
	if s.factory != nil {
		s.factory.destroyAll()
	}
	s.conn.ReleaseName(s.cfg.BusName)
	err := s.conn.Close()
	s.conn = nil
	s.log.Info("ibus engine stopped")
	return err
}

// IBusFactory implements org.freedesktop.IBus.Factory.
type IBusFactory struct {
	conn   busConn
	engine *Engine
	name   string
	log    *logging.Logger

	mu      sync.Mutex
	next    uint32
	engines map[dbus.ObjectPath]*IBusEngine
}

// NewIBusFactory returns a factory creating engines named name.
func NewIBusFactory(conn busConn, engine *Engine, name string, log *logging.Logger) *IBusFactory {
	return &IBusFactory{
		conn:    conn,
		engine:  engine,
		name:    name,
		log:     log,
		engines: make(map[dbus.ObjectPath]*IBusEngine),
	}
}

// CreateEngine exports a new engine object for one input context.
func (f *IBusFactory) CreateEngine(engineName string) (dbus.ObjectPath, *dbus.Error) {
	if engineName != f.name {
		return "", dbus.NewError("org.freedesktop.IBus.NoEngine",
			[]interface{}{"unknown engine: " + engineName})
	}

	f.mu.Lock()
	f.next++
	path := dbus.ObjectPath(fmt.Sprintf("%s%d", IBusEnginePathPrefix, f.next))
	e := &IBusEngine{
		path:    path,
		conn:    f.conn,
		engine:  f.engine,
		factory: f,
		log:     f.log.WithSession(string(path)),
		caps:    CapPreeditText | CapAuxiliary | CapLookupTable | CapFocus,
	}
	f.engines[path] = e
	f.mu.Unlock()

	for _, iface := range []string{IBusEngineInterface, IBusServiceInterface} {
		if err := f.conn.Export(e, path, iface); err != nil {
			f.remove(path)
			return "", dbus.MakeFailedError(err)
		}
	}

	e.log.Debug("engine created")
	return path, nil
}

// Destroy implements org.freedesktop.IBus.Factory.Destroy.
func (f *IBusFactory) Destroy() *dbus.Error {
	f.destroyAll()
	return nil
}

// Engine returns the engine exported at path.
func (f *IBusFactory) Engine(path dbus.ObjectPath) (*IBusEngine, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.engines[path]
	return e, ok
}

// Len returns the number of live engines.
func (f *IBusFactory) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.engines)
}

func (f *IBusFactory) remove(path dbus.ObjectPath) {
	f.mu.Lock()
	delete(f.engines, path)
	f.mu.Unlock()
}

func (f *IBusFactory) destroyAll() {
	f.mu.Lock()
	all := make([]*IBusEngine, 0, len(f.engines))
	for _, e := range f.engines {
		all = append(all, e)
	}
	f.mu.Unlock()

	for _, e := range all {
		e.Destroy()
	}
}

// IBusEngine implements org.freedesktop.IBus.Engine for one input context
// and is the Host of its session.
type IBusEngine struct {
	path    dbus.ObjectPath
	conn    busConn
	engine  *Engine
	factory *IBusFactory
	log     *logging.Logger

	mu           sync.Mutex
	caps         uint32
	preeditShown bool
	auxShown     bool
	tableShown   bool
}

func (e *IBusEngine) session() string { return string(e.path) }

// ProcessKeyEvent classifies a key and reports whether it was consumed.
func (e *IBusEngine) ProcessKeyEvent(keyval, keycode, state uint32) (bool, *dbus.Error) {
	return e.engine.HandleKey(e.session(), e, keyval, state), nil
}

func (e *IBusEngine) FocusIn() *dbus.Error { return nil }

// FocusOut discards pending input.
func (e *IBusEngine) FocusOut() *dbus.Error {
	e.engine.Reset(e.session(), e)
	return nil
}

func (e *IBusEngine) Enable() *dbus.Error { return nil }

func (e *IBusEngine) Disable() *dbus.Error {
	e.engine.Reset(e.session(), e)
	return nil
}

func (e *IBusEngine) Reset() *dbus.Error {
	e.engine.Reset(e.session(), e)
	return nil
}

// SetCapabilities records what the client can display.
func (e *IBusEngine) SetCapabilities(caps uint32) *dbus.Error {
	e.mu.Lock()
	e.caps = caps
	e.mu.Unlock()
	return nil
}

func (e *IBusEngine) SetContentType(purpose, hints uint32) *dbus.Error { return nil }

func (e *IBusEngine) SetCursorLocation(x, y, w, h int32) *dbus.Error { return nil }

func (e *IBusEngine) SetSurroundingText(text dbus.Variant, cursorPos, anchorPos uint32) *dbus.Error {
	return nil
}

func (e *IBusEngine) PropertyActivate(name string, state uint32) *dbus.Error { return nil }

func (e *IBusEngine) PropertyShow(name string) *dbus.Error { return nil }

func (e *IBusEngine) PropertyHide(name string) *dbus.Error { return nil }

func (e *IBusEngine) PageUp() *dbus.Error {
	e.engine.HandleAction(e.session(), e, Key(ActionPagePrev))
	return nil
}

func (e *IBusEngine) PageDown() *dbus.Error {
	e.engine.HandleAction(e.session(), e, Key(ActionPageNext))
	return nil
}

func (e *IBusEngine) CursorUp() *dbus.Error {
	e.engine.HandleAction(e.session(), e, Key(ActionCursorPrev))
	return nil
}

func (e *IBusEngine) CursorDown() *dbus.Error {
	e.engine.HandleAction(e.session(), e, Key(ActionCursorNext))
	return nil
}

// CandidateClicked selects the clicked slot of the lookup table.
func (e *IBusEngine) CandidateClicked(index, button, state uint32) *dbus.Error {
	e.engine.HandleAction(e.session(), e, Select(int(index)))
	return nil
}

// Destroy drops the session and unexports the object.
func (e *IBusEngine) Destroy() *dbus.Error {
	e.engine.Detach(e.session())
	e.factory.remove(e.path)
	for _, iface := range []string{IBusEngineInterface, IBusServiceInterface} {
		e.conn.Export(nil, e.path, iface)
	}
	e.log.Debug("engine destroyed")
	return nil
}

// CommitString implements Host.
func (e *IBusEngine) CommitString(text string) {
	e.emit("CommitText", newText(text, false))
}

// ForwardCursorLeft implements Host by sending Left press/release pairs.
func (e *IBusEngine) ForwardCursorLeft(n int) {
	for i := 0; i < n; i++ {
		e.emit("ForwardKeyEvent", KeyLeft, keycodeLeft, uint32(0))
		e.emit("ForwardKeyEvent", KeyLeft, keycodeLeft, ReleaseMask)
	}
}

// UpdateDisplay implements Host. Clients without preedit support get the
// preedit in the auxiliary text.
func (e *IBusEngine) UpdateDisplay(d Display) {
	e.mu.Lock()
	defer e.mu.Unlock()

	preedit, aux := d.Preedit, d.Aux
	if e.caps&CapPreeditText == 0 && preedit != "" {
		if aux != "" {
			aux += " "
		}
		aux += preedit
		preedit = ""
	}

	if preedit != "" {
		cursor := uint32(utf8.RuneCountInString(preedit))
		e.emit("UpdatePreeditText", newText(preedit, true), cursor, true, preeditModeClear)
		e.preeditShown = true
	} else if e.preeditShown {
		e.emit("HidePreeditText")
		e.preeditShown = false
	}

	if aux != "" {
		e.emit("UpdateAuxiliaryText", newText(aux, false), true)
		e.auxShown = true
	} else if e.auxShown {
		e.emit("HideAuxiliaryText")
		e.auxShown = false
	}

	if len(d.Candidates) > 0 {
		e.emit("UpdateLookupTable", newLookupTable(d), true)
		e.tableShown = true
	} else if e.tableShown {
		e.emit("HideLookupTable")
		e.tableShown = false
	}
}

func (e *IBusEngine) emit(signal string, values ...interface{}) {
	if err := e.conn.Emit(e.path, IBusEngineInterface+"."+signal, values...); err != nil {
		e.log.Warn("emit signal failed", "signal", signal, "error", err)
	}
}
