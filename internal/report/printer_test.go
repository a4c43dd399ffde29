package report

import (
	"bytes"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestPrinter_Lines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, termenv.Ascii, false)

	p.Lines([]Line{
		{Kind: KindSuiteHeader, Level: 0, Text: "Login"},
		{Kind: KindSuccess, Level: 2, Text: "✔ accepts valid credentials"},
		{Kind: KindFailure, Level: 2, Text: "✘ rejects bad passwords"},
		{Kind: KindFailure, Level: 4, Text: "➤ Expected false to be true"},
		{Kind: KindFailure, Level: 0, Text: "2 scenarios, 1 failure"},
	})

	assert.Equal(t, "Login\n"+
		"  ✔ accepts valid credentials\n"+
		"  ✘ rejects bad passwords\n"+
		"    ➤ Expected false to be true\n"+
		"2 scenarios, 1 failure\n", buf.String())
}

func TestPrinter_InfoAndError(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, termenv.Ascii, false)

	p.Info("Run all scenario suites", true)
	p.Error("An error occurred: boom")

	assert.Equal(t, "Run all scenario suites\nAn error occurred: boom\n", buf.String())
}

func TestPrinter_ClearOnReset(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, termenv.Ascii, true)

	p.Info("Run scenario suite at http://localhost:8888/casper", false)
	assert.NotContains(t, buf.String(), "\x1b[2J")

	p.Info("Run all scenario suites", true)
	assert.Contains(t, buf.String(), "\x1b[2J")
}

func TestPrinter_Colours(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, termenv.ANSI, false)

	p.Lines([]Line{{Kind: KindFailure, Text: "✘ broken"}})

	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "✘ broken")
}
