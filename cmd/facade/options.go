package main

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	facade "github.com/wippyai/mcu-facade"
	"github.com/wippyai/mcu-facade/addrspace"
	"github.com/wippyai/mcu-facade/channel"
	"github.com/wippyai/mcu-facade/device"
	"github.com/wippyai/mcu-facade/memlink"
	"github.com/wippyai/mcu-facade/protocol"
	"github.com/wippyai/mcu-facade/schema"
	"github.com/wippyai/mcu-facade/simulator"
	"github.com/wippyai/mcu-facade/trace"
)

type options struct {
	log        *zap.Logger
	port       string
	tcp        string
	schemaPath string
	backend    string
	logLevel   string
	tracePath  string
	baud       int
	timeout    time.Duration
	throttle   bool
	simulate   bool
}

func (o *options) addFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.port, "port", "p", "", "serial port (e.g. /dev/ttyUSB0, COM3)")
	fs.IntVarP(&o.baud, "baud", "b", 0, "serial baud rate (default 115200 or the schema's)")
	fs.StringVar(&o.tcp, "tcp", "", "host:port of a TCP serial bridge")
	fs.BoolVar(&o.simulate, "simulate", false, "use an in-process simulated device")
	fs.StringVarP(&o.schemaPath, "schema", "s", "", "layout file (.yaml, .yml or .toml)")
	fs.StringVar(&o.backend, "backend", "", "pointer translation backend (xc8, flat)")
	fs.DurationVar(&o.timeout, "timeout", channel.DefaultReadTimeout, "read timeout per byte")
	fs.BoolVar(&o.throttle, "throttle", false, "pause after each transmission for slow links")
	fs.StringVar(&o.tracePath, "trace", "", "append wire transactions to this CBOR file")
	fs.StringVar(&o.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = lvl
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	protocol.SetLogger(log.Named("protocol"))
	memlink.SetLogger(log.Named("memlink"))
	device.SetLogger(log.Named("device"))
	schema.SetLogger(log.Named("schema"))
	return log, nil
}

// session is an open connection with the schema's variables declared.
type session struct {
	eng    *protocol.Engine
	dev    *device.Device
	schema *schema.Schema
	sim    *simulator.Device
	rec    *trace.FileRecorder
}

func (s *session) Close() error {
	err := s.eng.Close()
	if s.rec != nil {
		if cerr := s.rec.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (o *options) loadSchema() (*schema.Schema, error) {
	if o.schemaPath == "" {
		return &schema.Schema{}, nil
	}
	return schema.Load(o.schemaPath)
}

func (o *options) channel(s *schema.Schema) (facade.Channel, *simulator.Device, error) {
	chosen := 0
	for _, set := range []bool{o.port != "", o.tcp != "", o.simulate} {
		if set {
			chosen++
		}
	}
	if chosen > 1 {
		return nil, nil, fmt.Errorf("--port, --tcp and --simulate are exclusive")
	}

	switch {
	case o.simulate:
		sim := simulator.New()
		return sim, sim, nil
	case o.tcp != "":
		return channel.NewTCP(o.tcp, o.timeout), nil, nil
	}

	cfg := s.SerialConfig(o.port)
	if cfg.Port == "" {
		return nil, nil, fmt.Errorf("no device: use --port, --tcp, --simulate or a schema serial section")
	}
	if o.baud != 0 {
		cfg.BaudRate = o.baud
	}
	cfg.ReadTimeout = o.timeout
	return channel.NewSerial(cfg), nil, nil
}

// connect opens the channel and declares the schema's variables.
func (o *options) connect() (*session, error) {
	sch, err := o.loadSchema()
	if err != nil {
		return nil, err
	}
	ch, sim, err := o.channel(sch)
	if err != nil {
		return nil, err
	}

	opts := []protocol.Option{protocol.WithLogger(o.log.Named("engine"))}
	if named, ok := ch.(fmt.Stringer); ok {
		opts = append(opts, protocol.WithName(named.String()))
	} else if sim != nil {
		opts = append(opts, protocol.WithName("simulator"))
	}
	if o.throttle {
		opts = append(opts, protocol.WithThroughputLimit(protocol.DefaultThroughputPause))
	}
	var rec *trace.FileRecorder
	if o.tracePath != "" {
		if rec, err = trace.NewFileRecorder(o.tracePath); err != nil {
			return nil, fmt.Errorf("open trace: %w", err)
		}
		opts = append(opts, protocol.WithRecorder(rec))
	}

	eng := protocol.New(ch, opts...)
	if err := eng.Open(); err != nil {
		if rec != nil {
			_ = rec.Close()
		}
		return nil, err
	}
	s := &session{eng: eng, schema: sch, sim: sim, rec: rec}

	cfg, err := sch.DeviceConfig()
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	if o.backend != "" {
		cfg.Backend = o.backend
	}
	if s.dev, err = device.New(eng, cfg); err != nil {
		_ = s.Close()
		return nil, err
	}
	if err := sch.Bind(s.dev); err != nil {
		_ = s.Close()
		return nil, err
	}
	o.log.Debug("connected",
		zap.String("engine", eng.ID().String()),
		zap.Strings("variables", s.dev.Variables()),
		zap.Strings("backends", addrspace.NewRegistry().Names()))
	return s, nil
}
