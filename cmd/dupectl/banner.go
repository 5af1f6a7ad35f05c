package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
)

// printBanner prints the dupekit banner to w.
func printBanner(w io.Writer) {
	defer fmt.Fprintln(w)

	bannerStr := figure.NewFigure("dupekit", "small", true).String()
	maxWidth := 0
	for _, line := range strings.Split(bannerStr, "\n") {
		maxWidth = max(maxWidth, len(line))
	}

	color.New(color.FgCyan, color.Bold).Fprintln(w, bannerStr)
	centerPrint(w, "Decode. Validate. Paste.", maxWidth, color.FgHiBlack)
}

func centerPrint(w io.Writer, text string, width int, attr color.Attribute) {
	padding := max((width-len(text))/2, 0)
	color.New(attr).Fprintln(w, strings.Repeat(" ", padding)+text)
}
