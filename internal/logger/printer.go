package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Printer adapts the global logger to libraries that log through Println and
// Printf, such as the MQTT client. Lines are written at a fixed level.
type Printer struct {
	// name is the logger name attached to each line.
	name string
	// level is the level every line is written at.
	level zapcore.Level
}

// NewPrinter returns a Printer writing at level under the given logger name.
func NewPrinter(name string, level zapcore.Level) *Printer {
	return &Printer{
		name:  name,
		level: level,
	}
}

// Println writes the operands joined by spaces.
func (p *Printer) Println(v ...any) {
	p.write(fmt.Sprintln(v...))
}

// Printf writes the formatted message.
func (p *Printer) Printf(format string, v ...any) {
	p.write(fmt.Sprintf(format, v...))
}

// write resolves the global logger on each call so later Configure calls apply.
func (p *Printer) write(message string) {
	if len(message) > 0 && message[len(message)-1] == '\n' {
		message = message[:len(message)-1]
	}

	Logger().Desugar().Named(p.name).WithOptions(zap.AddCallerSkip(2)).Sugar().Logw(p.level, message)
}
