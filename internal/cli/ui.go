package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// Palette
// =============================================================================

var (
	colorAccent = lipgloss.Color("39")  // titles, progress
	colorGreen  = lipgloss.Color("35")  // success marks
	colorAmber  = lipgloss.Color("214") // warnings
	colorRed    = lipgloss.Color("160") // failures
	colorSky    = lipgloss.Color("81")  // suggested commands
	colorWhite  = lipgloss.Color("255") // primary values
	colorGray   = lipgloss.Color("245") // labels
	colorDim    = lipgloss.Color("240") // de-emphasized text
)

// =============================================================================
// Shared Styles
// =============================================================================

var (
	// StyleTitle renders view and section headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)

	// StyleDim de-emphasizes supporting text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue highlights primary values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleWarning tints warnings.
	StyleWarning = lipgloss.NewStyle().Foreground(colorAmber)

	// StyleError tints failure messages.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)
)

// styleSpinner tints in-flight progress glyphs.
var styleSpinner = lipgloss.NewStyle().Foreground(colorAccent)

// =============================================================================
// Status Markers
// =============================================================================

// marker pairs a status glyph with its tint.
type marker struct {
	icon  string
	style lipgloss.Style
}

func (m marker) render() string { return m.style.Render(m.icon) }

func (m marker) printf(format string, args ...any) {
	fmt.Println(m.render() + " " + fmt.Sprintf(format, args...))
}

var (
	markSuccess = marker{"✓", lipgloss.NewStyle().Foreground(colorGreen)}
	markError   = marker{"✗", lipgloss.NewStyle().Foreground(colorRed)}
	markWarning = marker{"!", lipgloss.NewStyle().Foreground(colorAmber)}
	markInfo    = marker{"›", lipgloss.NewStyle().Foreground(colorGray)}
)

// =============================================================================
// Status Lines
// =============================================================================

// The print helpers pair a marker with a formatted message on stdout.
func printSuccess(format string, args ...any) { markSuccess.printf(format, args...) }
func printError(format string, args ...any)   { markError.printf(format, args...) }
func printInfo(format string, args ...any)    { markInfo.printf(format, args...) }

// printWarning tints the whole message, not just the marker.
func printWarning(format string, args ...any) {
	markWarning.printf("%s", StyleWarning.Render(fmt.Sprintf(format, args...)))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile lists a written file.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render("→") + " " + StyleValue.Render(path))
}

var styleKey = lipgloss.NewStyle().Foreground(colorGray).Width(12)

// printKeyValue prints a fixed-width label and its value.
func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// =============================================================================
// Plan Summary
// =============================================================================

// printPlanStats prints plan statistics on a single line.
func printPlanStats(packages, layers, residual int) {
	parts := []string{StyleDim.Render(fmt.Sprintf("%d packages", packages))}
	if layers > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d layers", layers)))
	}
	if residual > 0 {
		parts = append(parts, StyleWarning.Render(fmt.Sprintf("%d residual", residual)))
	}
	fmt.Println("  " + strings.Join(parts, StyleDim.Render(" · ")))
}

var styleCommand = lipgloss.NewStyle().Foreground(colorSky)

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}
