// facade talks to a microcontroller through declared memory layouts.
//
// Usage:
//
//	facade [flags] <command> [args]
//
// Commands:
//
//	ports                    list serial ports
//	list                     list declared variables with their types
//	read [--dump] <path>...  read variables or fields
//	write <path> <value>     write a variable or field
//	watch [paths...]         live view; interactive when stdout is a terminal
//	shell                    line-oriented read/write prompt
//	trace <file>             print a recorded wire trace
//	backup <file>            save declared variables to a snapshot file
//	restore <file>           write a snapshot file back to the device
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/pflag"
)

type command struct {
	run     func(ctx context.Context, o *options, args []string) error
	summary string
	device  bool
}

var commands = map[string]command{
	"ports":   {run: cmdPorts, summary: "list serial ports"},
	"list":    {run: cmdList, summary: "list declared variables", device: true},
	"read":    {run: cmdRead, summary: "read variables or fields", device: true},
	"write":   {run: cmdWrite, summary: "write a variable or field", device: true},
	"watch":   {run: cmdWatch, summary: "live view of variables", device: true},
	"shell":   {run: cmdShell, summary: "interactive prompt", device: true},
	"trace":   {run: cmdTrace, summary: "print a recorded wire trace"},
	"backup":  {run: cmdBackup, summary: "save variables to a snapshot file", device: true},
	"restore": {run: cmdRestore, summary: "restore variables from a snapshot file", device: true},
}

var commandOrder = []string{"ports", "list", "read", "write", "watch", "shell", "trace", "backup", "restore"}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(argv []string) error {
	var o options
	fs := pflag.NewFlagSet("facade", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	o.addFlags(fs)
	fs.Usage = func() { printUsage(fs) }
	if err := fs.Parse(argv); err != nil {
		return err
	}

	args := fs.Args()
	if len(args) == 0 {
		printUsage(fs)
		return fmt.Errorf("no command given")
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", args[0])
	}

	log, err := buildLogger(o.logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	o.log = log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return cmd.run(ctx, &o, args[1:])
}

func printUsage(fs *pflag.FlagSet) {
	fmt.Fprintln(os.Stderr, "Usage: facade [flags] <command> [args]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Commands:")
	for _, name := range commandOrder {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Flags:")
	fmt.Fprint(os.Stderr, fs.FlagUsages())
}

// subFlags returns a flag set for a command's own flags.
func subFlags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("facade "+name, pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: facade %s [flags]\n", name)
		fmt.Fprint(os.Stderr, fs.FlagUsages())
	}
	return fs
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
