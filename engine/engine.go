// Package engine is the composition root: it owns every component spec
// §4 defines and drives the single-threaded cooperative main loop of
// §5 (platform time, transport task, per-connection driver task, native
// host tasks, router tick, output-mode task, storage task, hotkey task).
package engine

import (
	"log/slog"
	"time"

	"github.com/padlink/padlink/canonical"
	"github.com/padlink/padlink/driver"
	"github.com/padlink/padlink/feedback"
	"github.com/padlink/padlink/hotkey"
	"github.com/padlink/padlink/outputmode"
	"github.com/padlink/padlink/platform"
	"github.com/padlink/padlink/player"
	"github.com/padlink/padlink/profile"
	"github.com/padlink/padlink/router"
	"github.com/padlink/padlink/storage"
	"github.com/padlink/padlink/usb"
	"github.com/padlink/padlink/virtualbus"
)

// activeConn tracks one live connection's driver binding for per-tick
// Task dispatch and disconnect handling.
type activeConn struct {
	conn   *driver.Connection
	driver driver.Driver
}

// NativeSource is a native host driver's per-tick polling hook (spec
// §4.10); concrete types in native/* implement it directly since their
// Tick signature already matches.
type NativeSource interface {
	Tick(now time.Time)
}

// Engine owns every runtime component and the connection/target tables
// that bind them together. All state here belongs to the single runtime
// task (spec §5); Engine is not safe for concurrent use.
type Engine struct {
	Platform platform.Platform
	Logger   *slog.Logger

	Drivers *driver.Registry
	Router  *router.Router
	Hotkeys *hotkey.Detector
	Storage *storage.Store

	bus *virtualbus.VirtualBus

	conns   map[uint16]*activeConn // key: source<<8|instance
	targets map[string]*targetBinding
	natives []NativeSource

	// hotkeyModeCycle maps a registered global mode-switch combo's index to
	// the target it cycles, per spec §4.9's "cycles through compiled-in
	// modes on user hotkey" facility.
	hotkeyModeCycle map[int]string
}

// modeCycleButtons is the global combo that advances a target's output
// mode (spec §4.9); Select+Start held matches the mode-switch convention
// most emulated-console adapters in the wild already use.
const modeCycleButtons = canonical.S1 | canonical.S2

const modeCycleHoldMs = 1500

type targetBinding struct {
	players  *player.Manager
	feedback *feedback.Service
	modes    *outputmode.Registry
	devices  []*usbDevice
}

func connKey(source, instance uint8) uint16 { return uint16(source)<<8 | uint16(instance) }

// New returns an Engine with no targets, drivers, or native sources yet
// registered; callers wire those up before calling Run.
func New(plat platform.Platform, logger *slog.Logger, autoAssign bool, store *storage.Store) *Engine {
	return &Engine{
		Platform: plat,
		Logger:   logger,
		Drivers:  driver.NewRegistry(),
		Router:   router.New(autoAssign),
		Hotkeys:  hotkey.NewDetector(),
		Storage:  store,
		bus:      virtualbus.New(),
		conns:    map[uint16]*activeConn{},
		targets:  map[string]*targetBinding{},
	}
}

// Bus returns the virtual USB bus every target's devices are registered
// on, for wiring into the USB-IP server.
func (e *Engine) Bus() *virtualbus.VirtualBus { return e.bus }

// AddTarget registers an emulated-console output target: its routing
// policy, player slot table, profile, and compiled-in USB personalities.
// Each port gets its own usb.Device added to the bus immediately.
func (e *Engine) AddTarget(name string, kind canonical.Kind, mode router.Mode, playerMode player.Mode, portCount int, prof *profile.Profile, modes *outputmode.Registry) error {
	players := player.NewManager(playerMode, portCount)
	e.Router.AddTarget(name, players, prof, portCount)
	e.Router.SetRoute(kind, router.Route{SourceKind: kind, Target: name, Mode: mode})

	fb := feedback.NewService(portCount)
	binding := &targetBinding{players: players, feedback: fb, modes: modes}

	for port := 0; port < portCount; port++ {
		dev := &usbDevice{target: name, port: port, modes: modes, router: e.Router, fb: fb}
		if _, err := e.bus.Add(dev); err != nil {
			return err
		}
		binding.devices = append(binding.devices, dev)
	}
	e.targets[name] = binding

	idx := e.Hotkeys.Register(hotkey.Def{
		Name:       "cycle-output-mode:" + name,
		Buttons:    modeCycleButtons,
		Trigger:    hotkey.OnHold,
		DurationMs: modeCycleHoldMs,
		Scope:      hotkey.ScopeGlobal,
	})
	if e.hotkeyModeCycle == nil {
		e.hotkeyModeCycle = map[int]string{}
	}
	e.hotkeyModeCycle[idx] = name
	return nil
}

// SetExclusiveTarget installs a push-mode tap for a latency-critical
// native output target (GPIO NEOGEO, joybus) instead of the periodic USB
// device array, per spec §4.4.
func (e *Engine) SetExclusiveTarget(name string, tap router.ExclusiveTap) {
	e.Router.SetExclusiveTap(name, tap)
}

// Feedback returns the feedback service for a registered target, for
// wiring a native driver's rumble/LED consumer.
func (e *Engine) Feedback(target string) *feedback.Service {
	if b, ok := e.targets[target]; ok {
		return b.feedback
	}
	return nil
}

// CycleOutputMode advances a target's compiled-in USB personality list
// (the mode-switch hotkey facility, spec §4.9). The USB bus is not reset
// and devices are not re-enumerated; each port's usb.Device uses the new
// mode from its next GetDescriptor/HandleTransfer call on.
func (e *Engine) CycleOutputMode(target string) outputmode.Mode {
	b, ok := e.targets[target]
	if !ok || b.modes == nil {
		return nil
	}
	return b.modes.Next()
}

// AddNativeSource registers a native host poller (SNES/NES/N64/GC/NEOGEO)
// to be ticked every main-loop iteration.
func (e *Engine) AddNativeSource(s NativeSource) { e.natives = append(e.natives, s) }

// Connect binds an incoming transport connection to the first matching
// driver, per spec §4.3's first-match-wins dispatch. link is the
// outbound byte sink for that physical connection. Returns false if no
// driver claimed it or the driver's instance pool is exhausted.
func (e *Engine) Connect(source, instance uint8, transport canonical.Transport, match driver.Match, link driver.Link) bool {
	drv := e.Drivers.Resolve(match)
	if drv == nil {
		return false
	}
	conn := &driver.Connection{
		SourceAddress: source,
		Instance:      instance,
		Transport:     transport,
		Match:         match,
		Link:          link,
		Submit:        func(ev canonical.Event) { e.submit(ev) },
	}
	if !drv.Init(conn) {
		return false
	}
	e.conns[connKey(source, instance)] = &activeConn{conn: conn, driver: drv}
	return true
}

// Disconnect releases a connection's driver state and replays a neutral
// frame through the router so outputs don't latch a stuck button.
func (e *Engine) Disconnect(source, instance uint8) {
	key := connKey(source, instance)
	ac, ok := e.conns[key]
	if !ok {
		return
	}
	ac.driver.Disconnect(ac.conn)
	delete(e.conns, key)
	e.Router.DeviceDisconnected(source, instance)
}

// ProcessReport routes one raw report from a connected source to its
// bound driver.
func (e *Engine) ProcessReport(source, instance uint8, data []byte) {
	if ac, ok := e.conns[connKey(source, instance)]; ok {
		ac.driver.ProcessReport(ac.conn, data)
	}
}

// submit is the Connection.Submit callback every driver is handed: route
// through the profile/player pipeline and cache the raw frame for any
// USB device on the port it landed on (battery/motion fields the profile
// pipeline does not carry).
func (e *Engine) submit(ev canonical.Event) {
	e.Router.SubmitInput(ev)
	for name, b := range e.targets {
		port := e.Router.PortFor(name, ev.SourceAddress, ev.Instance)
		if port < 0 || port >= len(b.devices) {
			continue
		}
		b.devices[port].noteRaw(ev)
	}
}

// Tick runs one iteration of the spec §5 main loop: per-connection driver
// tasks, native host tasks, the hotkey check, and the storage debounce
// task. The transport
// task (draining radio/USB events) and the USB-IP server's own I/O loop
// are out of scope here (spec §1) and run independently.
func (e *Engine) Tick(now time.Time) {
	for _, ac := range e.conns {
		ac.driver.Task(ac.conn, now)
	}
	for _, n := range e.natives {
		n.Tick(now)
	}
	e.checkHotkeys(now)
	if e.Storage != nil {
		if err := e.Storage.Task(now); err != nil && e.Logger != nil {
			e.Logger.Warn("storage save failed, will retry", "error", err)
		}
	}
}

// checkHotkeys runs the combo/hotkey detector against every port's last
// submitted buttons plus the OR of all of them (spec §4.8's global-combo
// rule), firing the mode-switch combo registered by AddTarget into
// CycleOutputMode.
func (e *Engine) checkHotkeys(now time.Time) {
	if e.Hotkeys == nil {
		return
	}
	var global canonical.Buttons
	for _, b := range e.targets {
		for _, dev := range b.devices {
			global |= dev.lastRaw.Buttons
		}
	}
	fire := func(idx, player int, def hotkey.Def) {
		if target, ok := e.hotkeyModeCycle[idx]; ok {
			e.CycleOutputMode(target)
		}
	}
	for _, b := range e.targets {
		for port, dev := range b.devices {
			e.Hotkeys.Check(port, dev.lastRaw.Buttons, global, now, fire)
		}
	}
}

// Run blocks, ticking the engine at tickInterval until stop is closed.
func (e *Engine) Run(tickInterval time.Duration, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		e.Tick(e.Platform.Now())
		e.Platform.Sleep(tickInterval)
	}
}

var _ usb.Device = (*usbDevice)(nil)
