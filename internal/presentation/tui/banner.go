package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the hearth banner to w.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{` _                     _   _     `, "#fbbf24"},
		{`| |__   ___  __ _ _ __| |_| |__  `, "#f59e0b"},
		{`| '_ \ / _ \/ _' | '__| __| '_ \ `, "#f97316"},
		{`| | | |  __/ (_| | |  | |_| | | |`, "#ea580c"},
		{`|_| |_|\___|\__,_|_|   \__|_| |_|`, "#dc2626"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
