//go:build linux
// +build linux

package ui

import (
	"fmt"
	"strings"

	"firewallctl/internal/firewalld"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle       = lipgloss.NewStyle().Bold(true)
	selectedStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	dimStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	noticeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	tabActiveStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("62")).Padding(0, 1)
	tabInactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Background(lipgloss.Color("237")).Padding(0, 1)
	inputStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("229"))
	statusStyle      = lipgloss.NewStyle().Background(lipgloss.Color("236")).Foreground(lipgloss.Color("250")).Padding(0, 1)
	sidebarStyle     = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
	mainStyle        = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
)

func (m Model) View() string {
	sidebarWidth := 24
	if m.width > 0 {
		if m.width/4 > sidebarWidth {
			sidebarWidth = m.width / 4
		}
		if sidebarWidth > 32 {
			sidebarWidth = 32
		}
	}

	mainWidth := 80
	if m.width > 0 {
		mainWidth = m.width - sidebarWidth - 4
		if mainWidth < 40 {
			mainWidth = 40
		}
	}

	content := lipgloss.JoinHorizontal(lipgloss.Top, renderSidebar(m, sidebarWidth), renderMain(m, mainWidth))
	return lipgloss.JoinVertical(lipgloss.Left, content, renderStatus(m))
}

func renderSidebar(m Model, width int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Zones"))
	b.WriteString("\n")

	if len(m.zones) == 0 {
		b.WriteString(dimStyle.Render("No zones"))
		return sidebarStyle.Width(width).Render(b.String())
	}

	for i, zone := range m.zones {
		prefix := "  "
		line := zone
		if zone == m.defaultZone {
			line += " (default)"
		}
		if _, ok := m.activeZones[zone]; ok {
			line += " ●"
		}
		if i == m.selected {
			prefix = "› "
			if m.focus == focusZones {
				line = selectedStyle.Render(line)
			} else {
				line = titleStyle.Render(line)
			}
		}
		b.WriteString(prefix + line + "\n")
	}
	return sidebarStyle.Width(width).Render(b.String())
}

func renderMain(m Model, width int) string {
	var b strings.Builder

	zoneName := m.currentZone()
	if zoneName == "" {
		zoneName = "None"
	}
	header := fmt.Sprintf("%s (%s)", zoneName, m.modeLabel())
	if m.readOnly {
		header += " [read-only]"
	}
	if m.loading {
		header = fmt.Sprintf("%s %s Loading...", header, m.spinner.View())
	}
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		if isPermissionError(m.err) {
			b.WriteString("\n" + dimStyle.Render("Run as root or get a polkit grant for firewalld."))
		}
		b.WriteString("\n\n")
	} else if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n\n")
	}

	if m.inputMode == inputTemplate {
		renderTemplates(&b, m)
		return mainStyle.Width(width).Render(b.String())
	}

	if m.data == nil {
		b.WriteString(dimStyle.Render("No data loaded"))
		return mainStyle.Width(width).Render(b.String())
	}

	b.WriteString(renderTabs(m))
	b.WriteString("\n\n")
	if m.tab == tabInfo {
		renderInfo(&b, m.data)
	} else {
		renderItems(&b, m)
	}

	if m.inputMode == inputAdd {
		b.WriteString("\n")
		b.WriteString(inputStyle.Render(fmt.Sprintf("Add to %s (%s): ", m.tab, m.modeLabel())))
		b.WriteString(m.input.View())
	}
	return mainStyle.Width(width).Render(b.String())
}

func renderTabs(m Model) string {
	labels := make([]string, 0, tabCount)
	for t := mainTab(0); t < tabCount; t++ {
		label := fmt.Sprintf("%d %s", t+1, t)
		if t == m.tab {
			labels = append(labels, tabActiveStyle.Render(label))
		} else {
			labels = append(labels, tabInactiveStyle.Render(label))
		}
	}
	return strings.Join(labels, " ")
}

func renderItems(b *strings.Builder, m Model) {
	items := m.items()
	if len(items) == 0 {
		b.WriteString(dimStyle.Render("  (none)"))
		return
	}
	for i, it := range items {
		prefix := "  "
		line := it.value
		if m.tab == tabNetwork {
			line = fmt.Sprintf("%-9s %s", it.kind, it.value)
		}
		if i == m.itemIndex {
			prefix = "› "
			if m.focus == focusMain {
				line = selectedStyle.Render(line)
			} else {
				line = titleStyle.Render(line)
			}
		}
		b.WriteString(prefix + line + "\n")
	}
}

func renderInfo(b *strings.Builder, z *firewalld.ZoneSettings) {
	row := func(label, value string) {
		if value == "" {
			value = dimStyle.Render("-")
		}
		fmt.Fprintf(b, "%-22s %s\n", label, value)
	}
	row("Short", z.Short)
	row("Description", z.Description)
	row("Target", z.Target)
	row("Masquerade", yesNo(z.Masquerade))
	row("ICMP block inversion", yesNo(z.IcmpBlockInversion))
	row("ICMP blocks", strings.Join(z.IcmpBlocks, ", "))
	row("Protocols", strings.Join(z.Protocols, ", "))
	row("Source ports", joinPorts(z.SourcePorts))
	fwd := make([]string, 0, len(z.ForwardPorts))
	for _, f := range z.ForwardPorts {
		fwd = append(fwd, f.String())
	}
	row("Forward ports", strings.Join(fwd, "\n"+strings.Repeat(" ", 23)))
}

func renderTemplates(b *strings.Builder, m Model) {
	b.WriteString(titleStyle.Render("Apply template to " + m.currentZone()))
	b.WriteString("\n\n")
	for i, tpl := range defaultTemplates {
		prefix := "  "
		line := fmt.Sprintf("%-16s %s", tpl.Name, dimStyle.Render(tpl.Description))
		if i == m.templateIndex {
			prefix = "› "
			line = selectedStyle.Render(tpl.Name) + strings.Repeat(" ", max(1, 17-len(tpl.Name))) + dimStyle.Render(tpl.Description)
		}
		b.WriteString(prefix + line + "\n")
	}
	b.WriteString("\n" + dimStyle.Render("enter: apply  esc: cancel"))
}

func renderStatus(m Model) string {
	status := fmt.Sprintf("Mode: %s | tab: focus  j/k: move  1-5: tabs  a: add  x: remove  t: template  D: default  s: snapshot  P: mode  R: reload  C: commit  r: refresh  q: quit", m.modeLabel())
	return statusStyle.Render(status)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func joinPorts(ports []firewalld.Port) string {
	parts := make([]string, 0, len(ports))
	for _, p := range ports {
		parts = append(parts, p.String())
	}
	return strings.Join(parts, ", ")
}
