package cmd

import (
	"fmt"
	"strings"

	"dl-setup/internal/installer"
	"dl-setup/internal/platform"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Width(14)
)

// summary renders the detected platform and the path that will be taken.
func summary(info platform.Info, branch installer.Branch) string {
	rows := [][2]string{
		{"OS", string(info.OS)},
		{"Architecture", string(info.Arch)},
		{"Shell", fmt.Sprintf("%s (%s)", platform.ShellName(info.Shell), info.Shell)},
		{"Rosetta", fmt.Sprintf("%t", info.Rosetta)},
		{"Provisioning", branch.String()},
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("dl-setup"))
	for _, row := range rows {
		b.WriteString("\n" + labelStyle.Render(row[0]) + row[1])
	}
	return boxStyle.Render(b.String())
}
