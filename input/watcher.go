package input

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/lixenwraith/harmonium/constant"
)

// ErrMIDIUnavailable marks a platform without usable MIDI access
var ErrMIDIUnavailable = errors.New("midi unavailable")

// Port is the subset of a MIDI input port the watcher needs
// drivers.In satisfies it
type Port interface {
	Open() error
	Close() error
	String() string
}

// PortLister enumerates MIDI input ports
type PortLister interface {
	Ports() ([]Port, error)
}

// ListenFunc attaches recv to an open port and returns its stop function
type ListenFunc func(p Port, recv func(msg midi.Message), onErr func(error)) (stop func(), err error)

// DriverLister adapts a gomidi driver to PortLister
type DriverLister struct {
	Driver drivers.Driver
}

// Ports implements PortLister
func (d DriverLister) Ports() ([]Port, error) {
	ins, err := d.Driver.Ins()
	if err != nil {
		return nil, err
	}
	ports := make([]Port, 0, len(ins))
	for _, in := range ins {
		ports = append(ports, in)
	}
	return ports, nil
}

// ListenDriverPort is the ListenFunc for gomidi ports
func ListenDriverPort(p Port, recv func(msg midi.Message), onErr func(error)) (func(), error) {
	in, ok := p.(drivers.In)
	if !ok {
		return nil, errors.Errorf("port %q is not a driver input", p.String())
	}
	return midi.ListenTo(in, func(msg midi.Message, _ int32) {
		recv(msg)
	}, midi.HandleError(onErr))
}

// midiConn is one listening input
type midiConn struct {
	port Port
	stop func()
}

// MIDIWatcher keeps every available input port open and forwards decoded
// events through the device filter. Tick rescans for hot-plugged and vanished devices
type MIDIWatcher struct {
	mu       sync.Mutex
	lister   PortLister
	listen   ListenFunc
	sink     Sink
	filter   *DeviceFilter
	conns    map[string]*midiConn
	lastScan time.Time
	log      *slog.Logger

	supported atomic.Bool
	received  atomic.Uint64
	filtered  atomic.Uint64
}

// NewMIDIWatcher creates a watcher; a nil lister yields an unsupported watcher
// that keeps the keyboard path working
func NewMIDIWatcher(lister PortLister, listen ListenFunc, sink Sink, filter *DeviceFilter, logger *slog.Logger) *MIDIWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if filter == nil {
		filter = NewDeviceFilter("", 0)
	}
	if listen == nil {
		listen = ListenDriverPort
	}
	w := &MIDIWatcher{
		lister: lister,
		listen: listen,
		sink:   sink,
		filter: filter,
		conns:  make(map[string]*midiConn),
		log:    logger.With("component", "midi"),
	}
	w.supported.Store(lister != nil)
	return w
}

// Supported reports whether MIDI access is available
func (w *MIDIWatcher) Supported() bool {
	return w.supported.Load()
}

// Filter returns the device filter applied to incoming messages
func (w *MIDIWatcher) Filter() *DeviceFilter {
	return w.filter
}

// Scan enumerates ports immediately, opening new ones and closing vanished ones
// A failing first enumeration disables MIDI support for the session
func (w *MIDIWatcher) Scan() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.scanLocked(time.Now())
}

// Tick rescans at most once per constant.MIDIRescanInterval
func (w *MIDIWatcher) Tick(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.lastScan.IsZero() && now.Sub(w.lastScan) < constant.MIDIRescanInterval {
		return
	}
	if err := w.scanLocked(now); err != nil && !errors.Is(err, ErrMIDIUnavailable) {
		w.log.Error("midi: rescan failed", "err", err)
	}
}

func (w *MIDIWatcher) scanLocked(now time.Time) error {
	if !w.supported.Load() {
		return ErrMIDIUnavailable
	}

	first := w.lastScan.IsZero()
	w.lastScan = now

	ports, err := w.lister.Ports()
	if err != nil {
		if first {
			w.supported.Store(false)
			w.log.Warn("midi: access refused, keyboard only", "err", err)
			return errors.Wrap(ErrMIDIUnavailable, err.Error())
		}
		return errors.Wrap(err, "list midi inputs")
	}

	present := make(map[string]Port, len(ports))
	for _, p := range ports {
		present[p.String()] = p
	}

	for name, c := range w.conns {
		if _, ok := present[name]; !ok {
			w.log.Info("midi: device disappeared", "device", name)
			w.closeConn(c)
			delete(w.conns, name)
		}
	}

	for name, p := range present {
		if _, ok := w.conns[name]; ok {
			continue
		}
		if err := w.openPort(name, p); err != nil {
			w.log.Error("midi: connect failed", "device", name, "err", err)
			continue
		}
		w.log.Info("midi: device connected", "device", name)
	}
	return nil
}

func (w *MIDIWatcher) openPort(name string, p Port) error {
	if err := p.Open(); err != nil {
		return errors.Wrapf(err, "open %q", name)
	}

	stop, err := w.listen(p, func(msg midi.Message) {
		w.deliver(name, msg)
	}, func(listenErr error) {
		w.log.Warn("midi: listener error", "device", name, "err", listenErr)
	})
	if err != nil {
		_ = p.Close()
		return errors.Wrapf(err, "listen %q", name)
	}

	w.conns[name] = &midiConn{port: p, stop: stop}
	return nil
}

// deliver runs on the driver's listener goroutine
func (w *MIDIWatcher) deliver(device string, msg midi.Message) {
	w.received.Add(1)
	if !w.filter.Pass(device, msg) {
		w.filtered.Add(1)
		return
	}
	ev, ok := DecodeMIDI(msg, device)
	if !ok {
		w.log.Debug("midi: unhandled message", "device", device, "msg", msg.String())
		return
	}
	w.sink.Push(ev)
}

func (w *MIDIWatcher) closeConn(c *midiConn) {
	if c.stop != nil {
		c.stop()
	}
	_ = c.port.Close()
}

// Devices returns the names of connected inputs, sorted
func (w *MIDIWatcher) Devices() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	names := make([]string, 0, len(w.conns))
	for name := range w.conns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stats returns received and filtered message counts
func (w *MIDIWatcher) Stats() (received, filtered uint64) {
	return w.received.Load(), w.filtered.Load()
}

// Close stops all listeners and closes every port
func (w *MIDIWatcher) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for name, c := range w.conns {
		w.closeConn(c)
		delete(w.conns, name)
	}
}
