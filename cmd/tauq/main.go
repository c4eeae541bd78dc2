// Command tauq is a thin driver over the tauq and tauq/tqq packages: build,
// format, minify, exec, and validate TQN/TQQ documents from the shell. The
// full flag grammar and exit-code contract are external-collaborator scope;
// this wiring exists to exercise the library, not to be the product.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/tauqlang/tauq"
	"github.com/tauqlang/tauq/tqq"
)

// CLI is the top-level command set, struct-tagged for kong the way
// ardnew-aenv/cli/cli.go declares its commands.
type CLI struct {
	Build    BuildCmd    `cmd:"" help:"Parse TQN and print it as JSON"`
	Format   FormatCmd   `cmd:"" help:"Re-emit TQN in pretty form"`
	Minify   MinifyCmd   `cmd:"" help:"Re-emit TQN in minified form"`
	Exec     ExecCmd     `cmd:"" help:"Run the TQQ preprocessor, then parse the result"`
	Validate ValidateCmd `cmd:"" help:"Check a TQN document for errors without printing output"`
}

type BuildCmd struct {
	File string `arg:"" type:"existingfile"`
}

func (c *BuildCmd) Run() error {
	text, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	out, err := tauq.ParseToJSONText(string(text))
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

type FormatCmd struct {
	File string `arg:"" type:"existingfile"`
}

func (c *FormatCmd) Run() error {
	text, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	v, err := tauq.ParseToValue(string(text))
	if err != nil {
		return err
	}
	fmt.Println(tauq.Emit(v, tauq.ModePretty))
	return nil
}

type MinifyCmd struct {
	File string `arg:"" type:"existingfile"`
}

func (c *MinifyCmd) Run() error {
	text, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	out, err := tauq.Minify(string(text))
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

type ExecCmd struct {
	File string `arg:"" type:"existingfile"`
	Safe bool   `help:"Run the preprocessor in safe mode (no filesystem/subprocess directives)"`
}

func (c *ExecCmd) Run() error {
	text, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	tqn, err := tqq.ExecQuery(string(text), c.Safe)
	if err != nil {
		return err
	}
	out, err := tauq.ParseToJSONText(tqn)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

type ValidateCmd struct {
	File string `arg:"" type:"existingfile"`
}

func (c *ValidateCmd) Run() error {
	text, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	return tauq.Validate(string(text))
}

func main() {
	var cli CLI
	ktx := kong.Parse(&cli,
		kong.Name("tauq"),
		kong.Description("Tauq Notation and Tauq Query command-line driver"),
		kong.UsageOnError(),
	)
	if err := ktx.Run(); err != nil {
		slog.Error("tauq command failed", slog.Any("error", err))
		os.Exit(1)
	}
}
