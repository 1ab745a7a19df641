package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/wippyai/mcu-facade/ctype"
)

type shell struct {
	s  *session
	rl *readline.Instance
}

func cmdShell(ctx context.Context, o *options, _ []string) error {
	return withSession(o, func(s *session) error {
		rl, err := readline.NewEx(&readline.Config{
			Prompt:          "facade> ",
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
			AutoComplete:    completer(s),
		})
		if err != nil {
			return fmt.Errorf("failed to create readline: %w", err)
		}
		defer rl.Close()
		sh := &shell{s: s, rl: rl}
		sh.run(ctx)
		return nil
	})
}

func completer(s *session) readline.AutoCompleter {
	vars := make([]readline.PrefixCompleterInterface, 0, len(s.dev.Variables()))
	for _, name := range s.dev.Variables() {
		vars = append(vars, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("read", vars...),
		readline.PcItem("raw", vars...),
		readline.PcItem("write", vars...),
		readline.PcItem("list"),
		readline.PcItem("stats"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

func (sh *shell) run(ctx context.Context) {
	out := sh.rl.Stdout()
	sh.printHelp(out)
	for {
		if ctx.Err() != nil {
			return
		}
		line, err := sh.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return
		}

		parts := strings.Fields(strings.TrimSpace(line))
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		switch cmd {
		case "help", "?":
			sh.printHelp(out)
		case "exit", "quit", "q":
			return
		case "list", "ls":
			for _, name := range sh.s.dev.Variables() {
				v, _ := sh.s.dev.Variable(name)
				fmt.Fprintln(out, describe(name, v))
			}
		case "read", "r":
			sh.read(ctx, out, args)
		case "raw":
			sh.raw(ctx, out, args)
		case "write", "w":
			if len(args) < 2 {
				fmt.Fprintln(out, "usage: write <path> <value>")
				continue
			}
			if err := writeValue(ctx, sh.s.dev, args[0], strings.Join(args[1:], " ")); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			fmt.Fprintln(out, "ok")
		case "stats":
			if sh.s.sim == nil {
				fmt.Fprintln(out, "stats are only kept by the simulator")
				continue
			}
			st := sh.s.sim.Stats()
			fmt.Fprintf(out, "gets=%d sets=%d nacks=%d errors=%d\n", st.Gets, st.Sets, st.Nacks, st.Errors)
		default:
			fmt.Fprintf(out, "unknown command %q, try help\n", cmd)
		}
	}
}

func (sh *shell) read(ctx context.Context, out io.Writer, paths []string) {
	if len(paths) == 0 {
		paths = sh.s.dev.Variables()
	}
	for _, p := range paths {
		got, err := sh.s.dev.Read(ctx, p)
		if err != nil {
			fmt.Fprintf(out, "%s: error: %v\n", p, err)
			continue
		}
		fmt.Fprintf(out, "%s = %s\n", p, formatRead(got))
	}
}

func (sh *shell) raw(ctx context.Context, out io.Writer, paths []string) {
	for _, p := range paths {
		v, err := sh.s.dev.Lookup(p)
		if err != nil {
			fmt.Fprintf(out, "%s: error: %v\n", p, err)
			continue
		}
		b, err := ctype.ReadCanonical(ctx, v)
		if err != nil {
			fmt.Fprintf(out, "%s: error: %v\n", p, err)
			continue
		}
		fmt.Fprintf(out, "%s = % X\n", p, b)
	}
}

func (sh *shell) printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  list                 declared variables")
	fmt.Fprintln(out, "  read [path...]       read values (all variables when empty)")
	fmt.Fprintln(out, "  raw <path...>        canonical bytes in hex")
	fmt.Fprintln(out, "  write <path> <value> write a value, composites as {a, b}")
	fmt.Fprintln(out, "  stats                simulator transaction counters")
	fmt.Fprintln(out, "  exit                 leave the shell")
}
