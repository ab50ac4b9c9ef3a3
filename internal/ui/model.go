//go:build linux
// +build linux

package ui

import (
	"firewallctl/internal/backup"
	"firewallctl/internal/firewalld"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
)

type focusArea int

const (
	focusZones focusArea = iota
	focusMain
)

type mainTab int

const (
	tabServices mainTab = iota
	tabPorts
	tabRich
	tabNetwork
	tabInfo
	tabCount
)

var tabNames = [...]string{"Services", "Ports", "Rich rules", "Network", "Info"}

func (t mainTab) String() string {
	if t < 0 || t >= tabCount {
		return "?"
	}
	return tabNames[t]
}

type inputMode int

const (
	inputNone inputMode = iota
	inputAdd
	inputTemplate
)

type itemKind int

const (
	kindService itemKind = iota
	kindPort
	kindRichRule
	kindInterface
	kindSource
)

func (k itemKind) String() string {
	switch k {
	case kindService:
		return "service"
	case kindPort:
		return "port"
	case kindRichRule:
		return "rich rule"
	case kindInterface:
		return "interface"
	case kindSource:
		return "source"
	default:
		return "item"
	}
}

type item struct {
	kind  itemKind
	value string
}

type Model struct {
	backend   Backend
	snapshots *backup.Store

	zones       []string
	selected    int
	focus       focusArea
	tab         mainTab
	itemIndex   int
	permanent   bool
	readOnly    bool
	defaultZone string
	activeZones map[string]firewalld.ActiveZone

	data        *firewalld.ZoneSettings
	loading     bool
	pendingZone string
	err         error
	notice      string

	templateIndex int

	signals       <-chan firewalld.SignalEvent
	signalsCancel func()

	width     int
	height    int
	spinner   spinner.Model
	input     textinput.Model
	inputMode inputMode
}

func NewModel(backend Backend, opts Options) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Line

	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 40
	ti.Prompt = ""

	return Model{
		backend:   backend,
		snapshots: opts.Snapshots,
		focus:     focusZones,
		tab:       tabServices,
		permanent: opts.Permanent,
		readOnly:  backend.ReadOnly(),
		loading:   true,
		spinner:   sp,
		input:     ti,
	}
}

func (m Model) currentZone() string {
	if m.selected < 0 || m.selected >= len(m.zones) {
		return ""
	}
	return m.zones[m.selected]
}

// items lists what the current tab shows for the loaded zone.
func (m Model) items() []item {
	z := m.data
	if z == nil {
		return nil
	}
	var out []item
	switch m.tab {
	case tabServices:
		for _, s := range z.Services {
			out = append(out, item{kindService, s})
		}
	case tabPorts:
		for _, p := range z.Ports {
			out = append(out, item{kindPort, p.String()})
		}
	case tabRich:
		for _, r := range z.RichRules {
			out = append(out, item{kindRichRule, r})
		}
	case tabNetwork:
		for _, i := range z.Interfaces {
			out = append(out, item{kindInterface, i})
		}
		for _, s := range z.Sources {
			out = append(out, item{kindSource, s})
		}
	}
	return out
}

func (m Model) selectedItem() (item, bool) {
	items := m.items()
	if m.itemIndex < 0 || m.itemIndex >= len(items) {
		return item{}, false
	}
	return items[m.itemIndex], true
}

func (m *Model) clampItemIndex() {
	n := len(m.items())
	if m.itemIndex >= n {
		m.itemIndex = n - 1
	}
	if m.itemIndex < 0 {
		m.itemIndex = 0
	}
}

func (m Model) modeLabel() string {
	if m.permanent {
		return "permanent"
	}
	return "runtime"
}
