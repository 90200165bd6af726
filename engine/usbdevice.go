package engine

import (
	"github.com/padlink/padlink/canonical"
	"github.com/padlink/padlink/feedback"
	"github.com/padlink/padlink/outputmode"
	"github.com/padlink/padlink/router"
	"github.com/padlink/padlink/usb"
	"github.com/padlink/padlink/usbip"
)

// usbDevice adapts one (target, port) slot's output-mode encoding onto
// the usb.Device interface the virtualbus/USB-IP stack already drives.
// It is the "what feeds it" half of the kept USB-IP transport: the wire
// emulation is unchanged, only the source of report bytes is new.
type usbDevice struct {
	target  string
	port    int
	modes   *outputmode.Registry
	router  *router.Router
	fb      *feedback.Service
	lastRaw canonical.Event
}

// inEndpoint is the interrupt IN endpoint number (without direction bit)
// every outputmode descriptor in this tree advertises first. OUT endpoint
// numbers differ by mode (1 for xinput and switch-pro, 2 for ps3-ds3 and
// gc-adapter), so HandleTransfer accepts an OUT transfer on any endpoint.
const inEndpoint = 1

func (d *usbDevice) GetDescriptor() *usb.Descriptor {
	m := d.modes.Current()
	if m == nil {
		return &usb.Descriptor{}
	}
	return m.Descriptor()
}

func (d *usbDevice) HandleTransfer(ep uint32, dir uint32, out []byte) []byte {
	m := d.modes.Current()
	if m == nil {
		return nil
	}
	if dir == usbip.DirIn {
		if ep != inEndpoint {
			return nil
		}
		profOut, _ := d.router.Output(d.target, d.port)
		return m.SendReport(d.port, profOut, d.lastRaw)
	}

	if dir == usbip.DirOut && len(out) > 0 {
		m.HandleOutput(d.port, out[0], out, d.fb)
	}
	return nil
}

// noteRaw records the latest raw event for a port so SendReport can pull
// fields (battery, motion) the profile pipeline does not carry.
func (d *usbDevice) noteRaw(e canonical.Event) { d.lastRaw = e }

var _ usb.Device = (*usbDevice)(nil)
