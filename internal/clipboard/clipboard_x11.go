//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && !cgo

package clipboard

import (
	"fmt"
	"image"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

var (
	initOnce sync.Once
	initErr  error
	owner    *selectionOwner
)

func ensureInit() error {
	initOnce.Do(func() {
		if !hasDisplay() {
			initErr = errNoDisplay
			return
		}
		owner, initErr = newSelectionOwner()
	})
	return initErr
}

// WriteImage encodes the provided image as PNG and publishes it to the clipboard.
func WriteImage(img image.Image) error {
	if err := ensureInit(); err != nil {
		return err
	}
	data, err := encodePNG(img)
	if err != nil {
		return err
	}
	return owner.offer(map[xproto.Atom][]byte{owner.atoms.png: data})
}

// ReadImage retrieves PNG image data from the clipboard and decodes it.
func ReadImage() (image.Image, error) {
	if err := ensureInit(); err != nil {
		return nil, err
	}
	data, err := owner.request(owner.atoms.png)
	if err != nil {
		return nil, err
	}
	return decodePNG(data)
}

// WriteText writes text data to the clipboard.
func WriteText(text string) error {
	if err := ensureInit(); err != nil {
		return err
	}
	b := []byte(text)
	return owner.offer(map[xproto.Atom][]byte{
		owner.atoms.utf8:      b,
		owner.atoms.textPlain: b,
		xproto.AtomString:     b,
	})
}

// ReadText returns UTF-8 text data from the clipboard.
func ReadText() (string, error) {
	if err := ensureInit(); err != nil {
		return "", err
	}
	data, err := owner.request(owner.atoms.utf8)
	if err != nil {
		if data, err = owner.request(xproto.AtomString); err != nil {
			return "", err
		}
	}
	if n := len(data); n > 0 && data[n-1] == 0 {
		data = data[:n-1]
	}
	if len(data) == 0 {
		return "", fmt.Errorf("text: %w", ErrEmpty)
	}
	return string(data), nil
}

type atoms struct {
	clipboard xproto.Atom
	targets   xproto.Atom
	utf8      xproto.Atom
	textPlain xproto.Atom
	png       xproto.Atom
	transfer  xproto.Atom
}

// selectionOwner holds the CLIPBOARD selection on a hidden window and
// answers conversion requests with whatever payloads were last offered.
type selectionOwner struct {
	conn   *xgb.Conn
	window xproto.Window
	atoms  atoms

	mu       sync.RWMutex
	payloads map[xproto.Atom][]byte
}

func newSelectionOwner() (*selectionOwner, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}
	window, err := hiddenWindow(conn, xproto.EventMaskPropertyChange|xproto.EventMaskStructureNotify)
	if err != nil {
		conn.Close()
		return nil, err
	}
	a, err := internAtoms(conn)
	if err != nil {
		xproto.DestroyWindow(conn, window)
		conn.Close()
		return nil, err
	}
	o := &selectionOwner{conn: conn, window: window, atoms: a}
	go o.serve()
	return o, nil
}

func hiddenWindow(conn *xgb.Conn, mask uint32) (xproto.Window, error) {
	screen := xproto.Setup(conn).DefaultScreen(conn)
	window, err := xproto.NewWindowId(conn)
	if err != nil {
		return 0, err
	}
	err = xproto.CreateWindowChecked(conn, 0, window, screen.Root, 0, 0, 1, 1, 0,
		xproto.WindowClassInputOnly, 0, xproto.CwEventMask, []uint32{mask}).Check()
	if err != nil {
		return 0, fmt.Errorf("create clipboard window: %w", err)
	}
	return window, nil
}

func internAtoms(conn *xgb.Conn) (atoms, error) {
	names := []string{"CLIPBOARD", "TARGETS", "UTF8_STRING", "text/plain;charset=utf-8", "image/png", "CROPMASK_CLIPBOARD"}
	cookies := make([]xproto.InternAtomCookie, len(names))
	for i, name := range names {
		cookies[i] = xproto.InternAtom(conn, false, uint16(len(name)), name)
	}
	out := make([]xproto.Atom, len(names))
	for i, c := range cookies {
		reply, err := c.Reply()
		if err != nil {
			return atoms{}, fmt.Errorf("intern atom %s: %w", names[i], err)
		}
		out[i] = reply.Atom
	}
	return atoms{
		clipboard: out[0],
		targets:   out[1],
		utf8:      out[2],
		textPlain: out[3],
		png:       out[4],
		transfer:  out[5],
	}, nil
}

// offer replaces every published payload and claims the selection.
func (o *selectionOwner) offer(payloads map[xproto.Atom][]byte) error {
	o.mu.Lock()
	o.payloads = payloads
	o.mu.Unlock()
	return xproto.SetSelectionOwnerChecked(o.conn, o.window, o.atoms.clipboard, xproto.TimeCurrentTime).Check()
}

func (o *selectionOwner) serve() {
	for {
		ev, err := o.conn.WaitForEvent()
		if err != nil {
			return
		}
		switch e := ev.(type) {
		case xproto.SelectionRequestEvent:
			o.answer(e)
		case xproto.SelectionClearEvent:
			o.mu.Lock()
			o.payloads = nil
			o.mu.Unlock()
		}
	}
}

func (o *selectionOwner) answer(e xproto.SelectionRequestEvent) {
	property := e.Property
	if property == xproto.AtomNone {
		property = e.Target
	}

	o.mu.RLock()
	payload, ok := o.payloads[e.Target]
	var offered []xproto.Atom
	if e.Target == o.atoms.targets {
		offered = append(offered, o.atoms.targets)
		for atom := range o.payloads {
			offered = append(offered, atom)
		}
	}
	o.mu.RUnlock()

	switch {
	case e.Target == o.atoms.targets:
		xproto.ChangeProperty(o.conn, xproto.PropModeReplace, e.Requestor, property,
			xproto.AtomAtom, 32, uint32(len(offered)), atomBytes(offered))
	case ok:
		xproto.ChangeProperty(o.conn, xproto.PropModeReplace, e.Requestor, property,
			e.Target, 8, uint32(len(payload)), payload)
	default:
		property = xproto.AtomNone
	}

	notify := xproto.SelectionNotifyEvent{
		Time:      e.Time,
		Requestor: e.Requestor,
		Selection: e.Selection,
		Target:    e.Target,
		Property:  property,
	}
	xproto.SendEvent(o.conn, false, e.Requestor, 0, string(notify.Bytes()))
}

// request converts the current selection to target on a short-lived
// connection so the serving loop never sees the reply.
func (o *selectionOwner) request(target xproto.Atom) ([]byte, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}
	defer conn.Close()

	window, err := hiddenWindow(conn, xproto.EventMaskPropertyChange)
	if err != nil {
		return nil, err
	}
	defer xproto.DestroyWindow(conn, window)

	if err := xproto.ConvertSelectionChecked(conn, window, o.atoms.clipboard, target, o.atoms.transfer, xproto.TimeCurrentTime).Check(); err != nil {
		return nil, fmt.Errorf("convert selection: %w", err)
	}
	for {
		ev, err := conn.WaitForEvent()
		if err != nil {
			return nil, err
		}
		e, ok := ev.(xproto.SelectionNotifyEvent)
		if !ok {
			continue
		}
		if e.Property == xproto.AtomNone {
			return nil, fmt.Errorf("target unavailable: %w", ErrEmpty)
		}
		reply, perr := xproto.GetProperty(conn, true, window, e.Property, xproto.GetPropertyTypeAny, 0, (1<<31)-1).Reply()
		if perr != nil {
			return nil, fmt.Errorf("read selection: %w", perr)
		}
		return append([]byte(nil), reply.Value...), nil
	}
}

func atomBytes(list []xproto.Atom) []byte {
	buf := make([]byte, len(list)*4)
	for i, a := range list {
		xgb.Put32(buf[i*4:], uint32(a))
	}
	return buf
}
