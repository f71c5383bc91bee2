package ime

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"
)

// IBus D-Bus names.
const (
	IBusFactoryPath      = "/org/freedesktop/IBus/Factory"
	IBusFactoryInterface = "org.freedesktop.IBus.Factory"
	IBusEngineInterface  = "org.freedesktop.IBus.Engine"
	IBusServiceInterface = "org.freedesktop.IBus.Service"
	IBusEnginePathPrefix = "/org/freedesktop/IBus/Engine/"
)

// Client capabilities passed to SetCapabilities.
const (
	CapPreeditText uint32 = 1 << 0
	CapAuxiliary   uint32 = 1 << 1
	CapLookupTable uint32 = 1 << 2
	CapFocus       uint32 = 1 << 3
	CapProperty    uint32 = 1 << 4
	CapSurrounding uint32 = 1 << 5
)

// Values of IBus text attributes and lookup tables.
const (
	attrTypeUnderline   uint32 = 1
	attrUnderlineSingle uint32 = 1

	orientationSystem int32 = 2

	preeditModeClear uint32 = 0

	// evdev code of the Left key as IBus expects it in ForwardKeyEvent.
	keycodeLeft uint32 = 105
)

// ibusAttribute is the IBusAttribute struct (sa{sv}uuuu).
type ibusAttribute struct {
	Name       string
	Attachment map[string]dbus.Variant
	Type       uint32
	Value      uint32
	StartIndex uint32
	EndIndex   uint32
}

// ibusAttrList is the IBusAttrList struct (sa{sv}av).
type ibusAttrList struct {
	Name       string
	Attachment map[string]dbus.Variant
	Attributes []dbus.Variant
}

// ibusText is the IBusText struct (sa{sv}sv).
type ibusText struct {
	Name       string
	Attachment map[string]dbus.Variant
	Text       string
	AttrList   dbus.Variant
}

// ibusLookupTable is the IBusLookupTable struct (sa{sv}uubbiavav).
type ibusLookupTable struct {
	Name          string
	Attachment    map[string]dbus.Variant
	PageSize      uint32
	CursorPos     uint32
	CursorVisible bool
	Round         bool
	Orientation   int32
	Candidates    []dbus.Variant
	Labels        []dbus.Variant
}

func newAttrList(attrs ...ibusAttribute) ibusAttrList {
	l := ibusAttrList{
		Name:       "IBusAttrList",
		Attachment: map[string]dbus.Variant{},
		Attributes: []dbus.Variant{},
	}
	for _, a := range attrs {
		l.Attributes = append(l.Attributes, dbus.MakeVariant(a))
	}
	return l
}

// newText wraps s as an IBusText variant, underlined when underline is set.
func newText(s string, underline bool) dbus.Variant {
	var attrs []ibusAttribute
	if underline && s != "" {
		attrs = append(attrs, ibusAttribute{
			Name:       "IBusAttribute",
			Attachment: map[string]dbus.Variant{},
			Type:       attrTypeUnderline,
			Value:      attrUnderlineSingle,
			StartIndex: 0,
			EndIndex:   uint32(len([]rune(s))),
		})
	}
	return dbus.MakeVariant(ibusText{
		Name:       "IBusText",
		Attachment: map[string]dbus.Variant{},
		Text:       s,
		AttrList:   dbus.MakeVariant(newAttrList(attrs...)),
	})
}

// newLookupTable builds the IBusLookupTable shown for d.
func newLookupTable(d Display) dbus.Variant {
	t := ibusLookupTable{
		Name:          "IBusLookupTable",
		Attachment:    map[string]dbus.Variant{},
		PageSize:      uint32(len(d.Candidates)),
		CursorPos:     uint32(d.Cursor),
		CursorVisible: true,
		Round:         true,
		Orientation:   orientationSystem,
		Candidates:    make([]dbus.Variant, 0, len(d.Candidates)),
		Labels:        make([]dbus.Variant, 0, len(d.Candidates)),
	}
	for _, c := range d.Candidates {
		t.Candidates = append(t.Candidates, newText(c.Text, false))
		t.Labels = append(t.Labels, newText(c.Label, false))
	}
	return dbus.MakeVariant(t)
}

// BusAddress returns the address of the IBus daemon bus. An explicit address
// wins, then IBUS_ADDRESS, then the address file written by ibus-daemon. It
// returns "" when none is found; callers fall back to the session bus.
func BusAddress(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if addr := os.Getenv("IBUS_ADDRESS"); addr != "" {
		return addr
	}

	path, err := AddressFilePath()
	if err != nil {
		return ""
	}
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	addr, _, err := parseAddressFile(f)
	if err != nil {
		return ""
	}
	return addr
}

// AddressFilePath returns $XDG_CONFIG_HOME/ibus/bus/<machine-id>-<host>-<display>.
func AddressFilePath() (string, error) {
	id, err := machineID()
	if err != nil {
		return "", err
	}

	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}

	host, display := displayParts(os.Getenv("DISPLAY"), os.Getenv("WAYLAND_DISPLAY"))
	name := fmt.Sprintf("%s-%s-%s", id, host, display)
	return filepath.Join(base, "ibus", "bus", name), nil
}

// displayParts splits an X11 display such as "host:1.0" into ("host", "1").
// An empty host is "unix". Without X11 the Wayland socket name is used.
func displayParts(x11, wayland string) (host, display string) {
	host, display = "unix", "0"
	if x11 == "" {
		if wayland != "" {
			display = wayland
		}
		return host, display
	}

	i := strings.LastIndex(x11, ":")
	if i < 0 {
		return host, display
	}
	if i > 0 {
		host = x11[:i]
	}
	display = x11[i+1:]
	if j := strings.Index(display, "."); j >= 0 {
		display = display[:j]
	}
	if display == "" {
		display = "0"
	}
	return host, display
}

var machineIDFiles = []string{"/var/lib/dbus/machine-id", "/etc/machine-id"}

func machineID() (string, error) {
	for _, path := range machineIDFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("machine id not found")
}

// parseAddressFile reads IBUS_ADDRESS and IBUS_DAEMON_PID from an ibus-daemon
// address file.
func parseAddressFile(r io.Reader) (addr string, pid int, err error) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "IBUS_ADDRESS":
			addr = value
		case "IBUS_DAEMON_PID":
			pid, _ = strconv.Atoi(value)
		}
	}
	if err := sc.Err(); err != nil {
		return "", 0, err
	}
	if addr == "" {
		return "", 0, fmt.Errorf("no IBUS_ADDRESS in address file")
	}
	return addr, pid, nil
}
