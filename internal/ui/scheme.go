package ui

import "github.com/fatih/color"

// ColorScheme maps test phases to terminal colors
type ColorScheme struct {
	Header      *color.Color
	Countdown   *color.Color
	Blow        *color.Color
	Analyzing   *color.Color
	ResultSober *color.Color
	ResultUnder *color.Color
	ResultOver  *color.Color
}

func defaultScheme() *ColorScheme {
	return &ColorScheme{
		Header:      color.New(color.FgHiCyan),
		Countdown:   color.New(color.FgHiYellow),
		Blow:        color.New(color.FgHiGreen),
		Analyzing:   color.New(color.FgHiBlue),
		ResultSober: color.New(color.FgHiGreen),
		ResultUnder: color.New(color.FgHiYellow),
		ResultOver:  color.New(color.FgHiRed),
	}
}

func matrixScheme() *ColorScheme {
	s := defaultScheme()
	s.Header = color.New(color.FgHiGreen)
	s.Countdown = color.New(color.FgHiGreen)
	s.Analyzing = color.New(color.FgHiGreen)
	return s
}

func retroScheme() *ColorScheme {
	s := defaultScheme()
	s.Header = color.New(color.FgHiMagenta)
	s.Countdown = color.New(color.FgHiCyan)
	s.Blow = color.New(color.FgHiYellow)
	return s
}

func minimalScheme() *ColorScheme {
	white := color.New(color.FgHiWhite)
	return &ColorScheme{
		Header:      white,
		Countdown:   white,
		Blow:        white,
		Analyzing:   white,
		ResultSober: white,
		ResultUnder: white,
		ResultOver:  white,
	}
}

// Schemes lists the selectable UI themes
var Schemes = map[string]func() *ColorScheme{
	"default": defaultScheme,
	"matrix":  matrixScheme,
	"retro":   retroScheme,
	"minimal": minimalScheme,
}

// SchemeByName resolves a theme name, falling back to default for unknown names
func SchemeByName(name string) *ColorScheme {
	if factory, ok := Schemes[name]; ok {
		return factory()
	}
	return defaultScheme()
}
