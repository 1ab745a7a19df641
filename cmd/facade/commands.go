package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/wippyai/mcu-facade/channel"
	"github.com/wippyai/mcu-facade/ctype"
	"github.com/wippyai/mcu-facade/device"
	"github.com/wippyai/mcu-facade/snapshot"
	"github.com/wippyai/mcu-facade/trace"
)

func cmdPorts(_ context.Context, _ *options, _ []string) error {
	ports, err := channel.Ports()
	if err != nil {
		return fmt.Errorf("list ports: %w", err)
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found.")
		return nil
	}
	for _, p := range ports {
		fmt.Println(p)
	}
	return nil
}

func withSession(o *options, fn func(*session) error) error {
	s, err := o.connect()
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func cmdList(_ context.Context, o *options, _ []string) error {
	return withSession(o, func(s *session) error {
		names := s.dev.Variables()
		if len(names) == 0 {
			fmt.Println("No variables declared. Use --schema to load a layout.")
			return nil
		}
		for _, name := range names {
			v, _ := s.dev.Variable(name)
			fmt.Println(describe(name, v))
		}
		return nil
	})
}

func describe(name string, v ctype.Value) string {
	link := v.Link()
	mode := "volatile"
	if !link.Volatile() {
		mode = "cached"
	}
	addr, _ := link.Address(context.Background())
	return fmt.Sprintf("%-16s %-20s %s:0x%04X %d bytes %s",
		name, v.Type().Name(), link.Kind(), addr, v.Len(), mode)
}

func cmdRead(ctx context.Context, o *options, args []string) error {
	fs := subFlags("read")
	dump := fs.Bool("dump", false, "dump the decoded Go value")
	raw := fs.Bool("raw", false, "print canonical bytes in hex")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("read needs at least one path")
	}

	return withSession(o, func(s *session) error {
		for _, path := range fs.Args() {
			v, err := s.dev.Lookup(path)
			if err != nil {
				return err
			}
			if *raw {
				b, err := ctype.ReadCanonical(ctx, v)
				if err != nil {
					return err
				}
				fmt.Printf("%s = % X\n", path, b)
				continue
			}
			got, err := v.Read(ctx)
			if err != nil {
				return err
			}
			if *dump {
				fmt.Printf("%s = %s", path, spew.Sdump(got))
				continue
			}
			fmt.Printf("%s = %s\n", path, formatRead(got))
		}
		return nil
	})
}

// formatRead renders a read result; a dereferenced composite shows its
// mirrors.
func formatRead(v any) string {
	switch x := v.(type) {
	case ctype.Value:
		return x.String()
	case ctype.Record:
		return x.String()
	case string:
		return fmt.Sprintf("%q", strings.TrimRight(x, "\x00"))
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = formatRead(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(v)
	}
}

func writeValue(ctx context.Context, dev *device.Device, path, text string) error {
	v, err := dev.Lookup(path)
	if err != nil {
		return err
	}
	t := v.Type()
	if t.Kind() == ctype.KindPointer {
		t, _ = t.Target()
	}
	operand, err := parseOperand(text, t)
	if err != nil {
		return err
	}
	return v.Write(ctx, operand)
}

func cmdWrite(ctx context.Context, o *options, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: write <path> <value>")
	}
	path, text := args[0], strings.Join(args[1:], " ")
	return withSession(o, func(s *session) error {
		if err := writeValue(ctx, s.dev, path, text); err != nil {
			return err
		}
		fmt.Printf("%s written\n", path)
		return nil
	})
}

func cmdTrace(_ context.Context, _ *options, args []string) error {
	fs := subFlags("trace")
	op := fs.String("op", "", "only GET or SET transactions")
	nacks := fs.Bool("nacks", false, "only rejected transactions")
	failed := fs.Bool("errors", false, "only failed transactions")
	engine := fs.String("engine", "", "only transactions of this engine ID")
	addr := fs.String("address", "", "only transactions touching this protocol address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: trace [flags] <file>")
	}

	filter := trace.Filter{Engine: *engine}
	switch strings.ToUpper(*op) {
	case "":
	case "GET":
		get := trace.OpGet
		filter.Op = &get
	case "SET":
		set := trace.OpSet
		filter.Op = &set
	default:
		return fmt.Errorf("unknown op %q", *op)
	}
	switch {
	case *nacks:
		o := trace.OutcomeNack
		filter.Outcome = &o
	case *failed:
		o := trace.OutcomeError
		filter.Outcome = &o
	}
	if *addr != "" {
		n, err := strconv.ParseUint(*addr, 0, 16)
		if err != nil {
			return fmt.Errorf("bad address %q", *addr)
		}
		a := uint16(n)
		filter.Address = &a
	}

	r, err := trace.NewFilteredReader(fs.Arg(0), filter)
	if err != nil {
		return err
	}
	defer r.Close()
	for {
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", e.Timestamp.Format("15:04:05.000"), e)
	}
}

func cmdBackup(ctx context.Context, o *options, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: backup <file>")
	}
	return withSession(o, func(s *session) error {
		snaps, err := snapshot.CaptureAll(ctx, s.dev)
		if err != nil {
			return err
		}
		if err := snapshot.Save(args[0], snaps); err != nil {
			return err
		}
		for _, sn := range snaps {
			fmt.Println(sn)
		}
		return nil
	})
}

func cmdRestore(ctx context.Context, o *options, args []string) error {
	fs := subFlags("restore")
	only := fs.String("only", "", "comma-separated variables to restore")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: restore [--only a,b] <file>")
	}
	snaps, err := snapshot.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	if names := splitCSV(*only); len(names) > 0 {
		keep := make(map[string]bool, len(names))
		for _, n := range names {
			keep[n] = true
		}
		filtered := snaps[:0]
		for _, sn := range snaps {
			if keep[sn.Name] {
				filtered = append(filtered, sn)
			}
		}
		snaps = filtered
	}
	return withSession(o, func(s *session) error {
		if err := snapshot.RestoreAll(ctx, s.dev, snaps); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%d variable(s) restored\n", len(snaps))
		return nil
	})
}
