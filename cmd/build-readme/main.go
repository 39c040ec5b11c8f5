// cmd/build-readme regenerates README.md from the registered commands.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"

	"tourney-bot/internal/command"
	"tourney-bot/internal/command/core"
	"tourney-bot/internal/command/esports"
	"tourney-bot/internal/docs"
	"tourney-bot/pkg/cmd"
)

func main() {
	out := flag.String("out", "README.md", "file to write")
	tmplPath := flag.String("template", "", "template file; the built-in one when empty")
	flag.Parse()

	if err := run(*out, *tmplPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(out, tmplPath string) error {
	tmpl := docs.DefaultTemplate
	if tmplPath != "" {
		raw, err := os.ReadFile(tmplPath)
		if err != nil {
			return err
		}
		tmpl = string(raw)
	}

	reg := cmd.NewRegistry()
	command.RegisterCommand(reg, core.NewHelp(core.Deps{}))
	command.RegisterCommand(reg, core.NewMaintenance(core.Deps{}))
	command.RegisterCommand(reg, esports.New(esports.Deps{}))

	var buf bytes.Buffer
	if err := docs.Render(&buf, tmpl, reg, core.CategoryWeights); err != nil {
		return err
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return err
	}
	fmt.Printf("%s updated with %d commands\n", out, len(reg.GetAll()))
	return nil
}
