package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/padlink/padlink/canonical"
	"github.com/padlink/padlink/driver"
	"github.com/padlink/padlink/driver/ds3"
	"github.com/padlink/padlink/driver/eightbitdo"
	"github.com/padlink/padlink/driver/generichid"
	"github.com/padlink/padlink/driver/switch2ble"
	switchprodrv "github.com/padlink/padlink/driver/switchpro"
	"github.com/padlink/padlink/driver/wiimote"
	"github.com/padlink/padlink/driver/wiiupro"
	xinputdrv "github.com/padlink/padlink/driver/xinput"
	"github.com/padlink/padlink/engine"
	"github.com/padlink/padlink/feedback"
	"github.com/padlink/padlink/internal/configpaths"
	"github.com/padlink/padlink/internal/log"
	"github.com/padlink/padlink/internal/server/usb"
	"github.com/padlink/padlink/internal/util"
	"github.com/padlink/padlink/outputmode"
	"github.com/padlink/padlink/outputmode/gcadapter"
	"github.com/padlink/padlink/outputmode/pcenginemini"
	"github.com/padlink/padlink/outputmode/ps3ds3"
	"github.com/padlink/padlink/outputmode/switchpro"
	"github.com/padlink/padlink/outputmode/xinput"
	"github.com/padlink/padlink/platform"
	"github.com/padlink/padlink/player"
	"github.com/padlink/padlink/profile"
	"github.com/padlink/padlink/router"
	"github.com/padlink/padlink/storage"
)

const stateFileName = "padlink.state"

// Server is the kong "server" subcommand: it wires the translation engine
// (drivers, router, output-mode personalities) to the USB-IP bus server
// and runs until interrupted.
type Server struct {
	UsbServerConfig   usb.ServerConfig `embed:"" prefix:"usb."`
	ConnectionTimeout time.Duration    `help:"Bus accept/idle timeout." default:"30s" env:"PADLINK_CONNECTION_TIMEOUT"`
	PortCount         int              `help:"Number of player ports to emulate on the output bus." default:"4" env:"PADLINK_PORT_COUNT"`
	AutoAssign        bool             `help:"Assign an unrouted source a free port on its first button press." default:"true"`
}

// Run is called by Kong when the server command is executed.
func (s *Server) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.StartServer(ctx, logger, rawLogger)
}

// StartServer builds the engine, registers every vendor/console driver and
// output-mode personality, attaches the engine's virtual bus to the
// USB-IP server, and runs the main loop until ctx is canceled.
func (s *Server) StartServer(ctx context.Context, logger *slog.Logger, rawLogger log.RawLogger) error {
	s.UsbServerConfig.ConnectionTimeout = s.ConnectionTimeout

	logger.Info("starting padlink USB-IP server", "addr", s.UsbServerConfig.Addr)

	stateDir, err := configpaths.DefaultConfigDir()
	if err != nil {
		return fmt.Errorf("resolve state file path: %w", err)
	}
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	store := storage.Open(&fileBackend{path: path.Join(stateDir, stateFileName)})

	plat := platform.NewHost(nil)

	eng := engine.New(plat, logger, s.AutoAssign, store)

	defaultProfile := &profile.Profile{Name: "default", PressureTable: profile.DefaultPressureOrder}

	modes := outputmode.NewRegistry(
		ps3ds3.New(),
		xinput.New(),
		switchpro.New(),
		gcadapter.New(),
		pcenginemini.New(),
	)
	if err := eng.AddTarget("main", canonical.KindGamepad, router.ModeExplicit, player.ModeShiftOnDisconnect, s.PortCount, defaultProfile, modes); err != nil {
		return fmt.Errorf("add output target: %w", err)
	}

	registerDrivers(eng.Drivers, eng.Feedback("main"))

	// native/* host drivers (SNES/NES/N64/GameCube joybus, NEOGEO GPIO)
	// bind to real pins and are wired in by a board-specific build, not
	// this hosted USB-IP command; eng.AddNativeSource is their hook.

	usbSrv := usb.New(s.UsbServerConfig, logger, rawLogger)
	if err := usbSrv.AddBus(eng.Bus()); err != nil {
		return fmt.Errorf("attach engine bus to USB-IP server: %w", err)
	}

	usbErrCh := make(chan error, 1)
	go func() { usbErrCh <- usbSrv.ListenAndServe() }()

	select {
	case err := <-usbErrCh:
		return err
	case <-usbSrv.Ready():
	}

	if util.IsRunFromGUI() {
		go func() {
			time.Sleep(250 * time.Millisecond)
			util.HideConsoleWindow()
		}()
	}

	engineStop := make(chan struct{})
	go eng.Run(time.Second/1000, engineStop)

	select {
	case <-ctx.Done():
		close(engineStop)
		_ = usbSrv.Close()
		_ = <-usbErrCh
		return nil
	case err := <-usbErrCh:
		close(engineStop)
		return err
	}
}

// registerDrivers installs every vendor/console HID driver in
// first-match-wins priority order: specific matches first, the generic
// HID fallback last.
func registerDrivers(reg *driver.Registry, fb *feedback.Service) {
	reg.Register(wiiupro.New())
	reg.Register(wiimote.New())
	reg.Register(switch2ble.New(switch2ble.VariantPro2))
	reg.Register(eightbitdo.New(fb))
	reg.Register(ds3.New(fb))
	reg.Register(xinputdrv.New(fb))
	reg.Register(switchprodrv.New(fb))
	reg.Register(generichid.New(nil))
}

// fileBackend persists the engine's settings blob to a single file in the
// platform config directory.
type fileBackend struct{ path string }

func (b *fileBackend) Load() ([]byte, error) { return os.ReadFile(b.path) }

func (b *fileBackend) Save(data []byte) error {
	return os.WriteFile(b.path, data, 0o600)
}
