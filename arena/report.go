package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/logrusorgru/aurora"
	"golang.org/x/term"
)

// newPalette enables colours only when out is an interactive terminal.
func newPalette(out io.Writer) aurora.Aurora {
	f, ok := out.(*os.File)
	return aurora.NewAurora(ok && term.IsTerminal(int(f.Fd())))
}

// expectationBroken reports whether a hard player lost, or a hard:hard
// matchup produced anything but draws.
func expectationBroken(r matchResult) bool {
	if r.Matchup.X == "hard" && r.OWins > 0 {
		return true
	}
	if r.Matchup.O == "hard" && r.XWins > 0 {
		return true
	}
	return false
}

// printReport writes one line per matchup and returns how many broke expectations.
func printReport(w io.Writer, au aurora.Aurora, results []matchResult) int {
	violations := 0
	fmt.Fprintln(w, au.Bold("matchup         games   x wins   o wins    draws   errors"))
	for _, r := range results {
		line := fmt.Sprintf("%-14s %6d %8d %8d %8d %8d", r.Matchup, r.Games, r.XWins, r.OWins, r.Draws, r.Errors)
		switch {
		case expectationBroken(r):
			violations++
			fmt.Fprintln(w, au.Red(line+"   UNEXPECTED"))
		case r.Errors > 0:
			fmt.Fprintln(w, au.Yellow(line))
		default:
			fmt.Fprintln(w, au.Green(line))
		}
	}
	for _, r := range results {
		if r.LastBoard == nil {
			continue
		}
		fmt.Fprintf(w, "\nlast board %s\n", au.Cyan(r.Matchup.String()))
		fmt.Fprint(w, renderBoard(au, r.LastBoard))
	}
	return violations
}

func renderBoard(au aurora.Aurora, board [][]int) string {
	var b strings.Builder
	for row, cells := range board {
		for col, cell := range cells {
			if col > 0 {
				b.WriteString(" | ")
			}
			switch cell {
			case 1:
				b.WriteString(au.Blue("X").String())
			case 2:
				b.WriteString(au.Magenta("O").String())
			default:
				b.WriteString(" ")
			}
		}
		b.WriteString("\n")
		if row < len(board)-1 {
			b.WriteString(strings.Repeat("-", 4*len(cells)-3))
			b.WriteString("\n")
		}
	}
	return b.String()
}
