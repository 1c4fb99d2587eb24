package output

import (
	"fmt"
	"io"
)

type Class int

const (
	Required Class = iota //explicitly requested information, printed even in quiet mode
	Error
	Normal
	Verbose
)

type Printer struct {
	classes    map[Class]bool
	terminal   io.Writer
	diagnosis  io.Writer
	useEscapes bool
}

func NewPrinter(include []Class, allowEscapes bool, terminal io.Writer, diagnosis io.Writer) (p Printer) {
	p = Printer{
		classes:    map[Class]bool{},
		terminal:   terminal,
		diagnosis:  diagnosis,
		useEscapes: allowEscapes,
	}
	for _, class := range include {
		p.classes[class] = true
	}
	return
}

func (p Printer) Out(class Class, format string, values ...interface{}) {
	if !p.classes[class] {
		return
	}
	target := &p.terminal
	if class == Error {
		target = &p.diagnosis
	}
	fmt.Fprintf(*target, format, values...)
}

// Dim applies the dim style if escape sequences are allowed.
func (p Printer) Dim(text string) string {
	if !p.useEscapes {
		return text
	}
	return TerminalFormatAsDim(text)
}

func (p Printer) Highlight(text string) string {
	if !p.useEscapes {
		return text
	}
	return TerminalFormatAsBold(text)
}

func (p Printer) Alarm(text string) string {
	if !p.useEscapes {
		return text
	}
	return TerminalFormatAsError(text)
}
