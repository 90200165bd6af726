package engine_test

import (
	"testing"
	"time"

	"github.com/padlink/padlink/canonical"
	"github.com/padlink/padlink/driver"
	"github.com/padlink/padlink/engine"
	"github.com/padlink/padlink/feedback"
	"github.com/padlink/padlink/outputmode"
	"github.com/padlink/padlink/player"
	"github.com/padlink/padlink/profile"
	"github.com/padlink/padlink/router"
	"github.com/padlink/padlink/storage"
	"github.com/padlink/padlink/usb"
	"github.com/padlink/padlink/usbip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPlatform struct{ now time.Time }

func (p *stubPlatform) Now() time.Time          { return p.now }
func (p *stubPlatform) Sleep(time.Duration)     {}
func (p *stubPlatform) UniqueID() [8]byte       { return [8]byte{1} }
func (p *stubPlatform) Reboot()                 {}
func (p *stubPlatform) RebootBootloader()       {}

type stubDriver struct {
	name       string
	matchName  string
	initOK     bool
	buttons    canonical.Buttons
	conn       *driver.Connection
	processed  [][]byte
	taskCalls  int
	disconnect bool
}

func (d *stubDriver) Name() string { return d.name }
func (d *stubDriver) Match(m driver.Match) bool { return m.Name == d.matchName }
func (d *stubDriver) Init(c *driver.Connection) bool {
	if !d.initOK {
		return false
	}
	d.conn = c
	return true
}
func (d *stubDriver) ProcessReport(c *driver.Connection, data []byte) {
	d.processed = append(d.processed, data)
	if c.Submit != nil {
		ev := canonical.New()
		ev.SourceAddress = c.SourceAddress
		ev.Instance = c.Instance
		ev.Kind = canonical.KindGamepad
		ev.Buttons = d.buttons
		if ev.Buttons == 0 {
			ev.Buttons = canonical.B1
		}
		c.Submit(ev)
	}
}
func (d *stubDriver) Task(c *driver.Connection, now time.Time) { d.taskCalls++ }
func (d *stubDriver) Disconnect(c *driver.Connection)          { d.disconnect = true }

type stubMode struct {
	lastRaw  canonical.Event
	lastOut  profile.Output
	handled  []byte
}

func (m *stubMode) Name() string                { return "stub" }
func (m *stubMode) Descriptor() *usb.Descriptor { return &usb.Descriptor{} }
func (m *stubMode) SendReport(port int, out profile.Output, raw canonical.Event) []byte {
	m.lastOut = out
	m.lastRaw = raw
	return []byte{0xAA}
}
func (m *stubMode) HandleOutput(port int, reportID uint8, data []byte, fb *feedback.Service) {
	m.handled = append([]byte(nil), data...)
	fb.SetRumble(port, data[0], data[0])
}

func newTestEngine() (*engine.Engine, *stubPlatform) {
	plat := &stubPlatform{now: time.Now()}
	e := engine.New(plat, nil, true, nil)
	return e, plat
}

func TestConnectDispatchesToFirstMatchingDriver(t *testing.T) {
	e, _ := newTestEngine()
	other := &stubDriver{name: "other", matchName: "other-pad", initOK: true}
	mine := &stubDriver{name: "mine", matchName: "my-pad", initOK: true}
	e.Drivers.Register(other)
	e.Drivers.Register(mine)

	ok := e.Connect(1, 0, canonical.TransportUSB, driver.Match{Name: "my-pad"}, nil)
	require.True(t, ok)
	assert.NotNil(t, mine.conn)
	assert.Nil(t, other.conn)
}

func TestConnectReturnsFalseWhenNoDriverMatches(t *testing.T) {
	e, _ := newTestEngine()
	e.Drivers.Register(&stubDriver{name: "a", matchName: "a-pad", initOK: true})
	ok := e.Connect(1, 0, canonical.TransportUSB, driver.Match{Name: "unknown"}, nil)
	assert.False(t, ok)
}

func TestConnectReturnsFalseWhenDriverInitRejects(t *testing.T) {
	e, _ := newTestEngine()
	e.Drivers.Register(&stubDriver{name: "full", matchName: "pad", initOK: false})
	ok := e.Connect(1, 0, canonical.TransportUSB, driver.Match{Name: "pad"}, nil)
	assert.False(t, ok)
}

func TestProcessReportRoutesToBoundDriver(t *testing.T) {
	e, _ := newTestEngine()
	d := &stubDriver{name: "pad", matchName: "pad", initOK: true}
	e.Drivers.Register(d)
	require.True(t, e.Connect(1, 0, canonical.TransportUSB, driver.Match{Name: "pad"}, nil))

	e.ProcessReport(1, 0, []byte{1, 2, 3})
	require.Len(t, d.processed, 1)
	assert.Equal(t, []byte{1, 2, 3}, d.processed[0])

	// a report for an unbound source is silently dropped
	e.ProcessReport(9, 9, []byte{9})
	assert.Len(t, d.processed, 1)
}

func TestAddTargetRegistersOneDevicePerPortOnTheBus(t *testing.T) {
	e, _ := newTestEngine()
	modes := outputmode.NewRegistry(&stubMode{})
	prof := &profile.Profile{Name: "default"}
	err := e.AddTarget("console", canonical.KindGamepad, router.ModeSimple, player.ModeFixed, 2, prof, modes)
	require.NoError(t, err)
	assert.Len(t, e.Bus().Devices(), 2)
}

func TestSubmitRoutesThroughRouterAndFeedsRawToDevice(t *testing.T) {
	e, _ := newTestEngine()
	d := &stubDriver{name: "pad", matchName: "pad", initOK: true}
	e.Drivers.Register(d)

	mode := &stubMode{}
	modes := outputmode.NewRegistry(mode)
	prof := &profile.Profile{Name: "default"}
	require.NoError(t, e.AddTarget("console", canonical.KindGamepad, router.ModeSimple, player.ModeFixed, 1, prof, modes))

	require.True(t, e.Connect(1, 0, canonical.TransportUSB, driver.Match{Name: "pad"}, nil))
	e.ProcessReport(1, 0, []byte{0})

	devices := e.Bus().Devices()
	require.Len(t, devices, 1)
	payload := devices[0].HandleTransfer(1, usbip.DirIn, nil)
	require.NotNil(t, payload)

	assert.True(t, mode.lastOut.Buttons.Has(canonical.B1))
	assert.True(t, mode.lastRaw.Buttons.Has(canonical.B1))
}

func TestDisconnectReplaysNeutralAndFreesSlot(t *testing.T) {
	e, _ := newTestEngine()
	d := &stubDriver{name: "pad", matchName: "pad", initOK: true}
	e.Drivers.Register(d)

	mode := &stubMode{}
	modes := outputmode.NewRegistry(mode)
	prof := &profile.Profile{Name: "default"}
	require.NoError(t, e.AddTarget("console", canonical.KindGamepad, router.ModeSimple, player.ModeFixed, 1, prof, modes))

	require.True(t, e.Connect(2, 0, canonical.TransportUSB, driver.Match{Name: "pad"}, nil))
	e.ProcessReport(2, 0, []byte{0})

	e.Disconnect(2, 0)
	assert.True(t, d.disconnect)

	devices := e.Bus().Devices()
	devices[0].HandleTransfer(1, usbip.DirIn, nil)
	assert.Zero(t, mode.lastOut.Buttons)
	assert.EqualValues(t, 128, mode.lastOut.LX)

	// a second disconnect on an already-released source is a silent no-op
	e.Disconnect(2, 0)
}

func TestBusDeviceHandleOutputAppliesToFeedbackService(t *testing.T) {
	e, _ := newTestEngine()
	mode := &stubMode{}
	modes := outputmode.NewRegistry(mode)
	prof := &profile.Profile{Name: "default"}
	require.NoError(t, e.AddTarget("console", canonical.KindGamepad, router.ModeSimple, player.ModeFixed, 1, prof, modes))

	devices := e.Bus().Devices()
	require.Len(t, devices, 1)
	devices[0].HandleTransfer(1, usbip.DirOut, []byte{77})

	fb := e.Feedback("console")
	require.NotNil(t, fb)
	state := fb.Get(0)
	assert.EqualValues(t, 77, state.RumbleLeft)
	assert.True(t, state.RumbleDirty)
}

func TestFeedbackReturnsNilForUnknownTarget(t *testing.T) {
	e, _ := newTestEngine()
	assert.Nil(t, e.Feedback("nope"))
}

func TestCycleOutputModeAdvancesTargetRegistry(t *testing.T) {
	e, _ := newTestEngine()
	a, b := &stubMode{}, &stubMode{}
	modes := outputmode.NewRegistry(a, b)
	prof := &profile.Profile{Name: "default"}
	require.NoError(t, e.AddTarget("console", canonical.KindGamepad, router.ModeSimple, player.ModeFixed, 1, prof, modes))

	assert.Same(t, outputmode.Mode(a), modes.Current())
	next := e.CycleOutputMode("console")
	assert.Same(t, outputmode.Mode(b), next)
}

func TestCycleOutputModeReturnsNilForUnknownTarget(t *testing.T) {
	e, _ := newTestEngine()
	assert.Nil(t, e.CycleOutputMode("nope"))
}

type stubNative struct{ ticks int }

func (n *stubNative) Tick(now time.Time) { n.ticks++ }

type memBackend struct {
	data []byte
}

func (b *memBackend) Load() ([]byte, error) { return b.data, nil }
func (b *memBackend) Save(data []byte) error {
	b.data = append([]byte(nil), data...)
	return nil
}

func TestTickFiresModeCycleHotkeyAfterHoldingSelectStart(t *testing.T) {
	e, _ := newTestEngine()
	d := &stubDriver{name: "pad", matchName: "pad", initOK: true, buttons: canonical.S1 | canonical.S2}
	e.Drivers.Register(d)

	a, b := &stubMode{}, &stubMode{}
	modes := outputmode.NewRegistry(a, b)
	prof := &profile.Profile{Name: "default"}
	require.NoError(t, e.AddTarget("console", canonical.KindGamepad, router.ModeSimple, player.ModeFixed, 1, prof, modes))

	require.True(t, e.Connect(1, 0, canonical.TransportUSB, driver.Match{Name: "pad"}, nil))
	e.ProcessReport(1, 0, []byte{0}) // submits Select+Start, latching it as the port's last raw buttons

	start := time.Now()
	e.Tick(start)
	assert.Same(t, outputmode.Mode(a), modes.Current(), "combo not held long enough yet")

	e.Tick(start.Add(2 * time.Second))
	assert.Same(t, outputmode.Mode(b), modes.Current(), "held past the hold threshold, mode advances")
}

func TestTickDrivesConnectionTasksNativeSourcesAndStorage(t *testing.T) {
	store := storage.Open(&memBackend{})
	e := engine.New(&stubPlatform{}, nil, true, store)

	d := &stubDriver{name: "pad", matchName: "pad", initOK: true}
	e.Drivers.Register(d)
	require.True(t, e.Connect(1, 0, canonical.TransportUSB, driver.Match{Name: "pad"}, nil))

	n := &stubNative{}
	e.AddNativeSource(n)

	now := time.Now()
	store.Update(now, func(s *storage.State) { s.ActiveProfileIndex = 3 })

	e.Tick(now)
	assert.Equal(t, 1, d.taskCalls)
	assert.Equal(t, 1, n.ticks)

	e.Tick(now.Add(6 * time.Second))
	assert.EqualValues(t, 1, store.State().Sequence, "debounce window elapsed, the pending update flushed")
}
