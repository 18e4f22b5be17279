// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command directctl inspects handler metadata files and calls remote
// actions.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/luxfi/direct"
	"github.com/luxfi/direct/metadata"
	"github.com/luxfi/direct/naming"
	"github.com/luxfi/direct/router"
	"github.com/luxfi/direct/service"
	"github.com/luxfi/direct/validation"
)

type CLI struct {
	Verbose bool `help:"Log at debug level." short:"v"`

	Version VersionCmd `cmd:"" help:"Print version information."`
	Check   CheckCmd   `cmd:"" help:"Load a metadata file and list the actions it exposes."`
	Resolve ResolveCmd `cmd:"" help:"Resolve a call against a metadata file without running it."`
	Call    CallCmd    `cmd:"" help:"Call a remote action."`
}

type VersionCmd struct{}

func (c *VersionCmd) Run(out io.Writer) error {
	fmt.Fprintln(out, Version())
	return nil
}

// NamingFlags selects how wire action names map to class names.
type NamingFlags struct {
	Naming string `help:"Naming strategy: default (a_b <-> a.b) or identity." default:"default" enum:"default,identity"`
	Prefix string `help:"Class namespace prepended to every action."`
}

func (f NamingFlags) strategy() naming.Strategy {
	var base naming.Strategy = naming.Default{}
	if f.Naming == "identity" {
		base = naming.Identity{}
	}
	if f.Prefix == "" {
		return base
	}
	return naming.Chain(base, naming.Prefix{Prefix: f.Prefix})
}

func loadRegistry(path string) (*metadata.Registry, error) {
	reg := &metadata.Registry{}
	if err := reg.LoadFile(path); err != nil {
		return nil, err
	}
	reg.Freeze()
	return reg, nil
}

type CheckCmd struct {
	NamingFlags `embed:""`

	File string `arg:"" help:"Metadata file (YAML)." type:"existingfile"`
}

func (c *CheckCmd) Run(out io.Writer) error {
	reg, err := loadRegistry(c.File)
	if err != nil {
		return err
	}
	v, err := validation.New()
	if err != nil {
		return err
	}

	strategy := c.strategy()
	for _, class := range reg.Classes() {
		action, _ := reg.MetadataForClass(class)
		fmt.Fprintf(out, "%s -> %s", strategy.ConvertToActionName(class), class)
		if action.ServiceID() != class {
			fmt.Fprintf(out, " (service %s)", action.ServiceID())
		}
		fmt.Fprintln(out)

		for _, m := range action.Methods() {
			fmt.Fprintf(out, "  %s(%s)", m.Name(), formatParams(m))
			if m.IsStatic() {
				fmt.Fprint(out, " static")
			}
			fmt.Fprintln(out)
		}
	}
	return v.CheckRegistry(reg)
}

func formatParams(m *metadata.MethodMetadata) string {
	params := m.Parameters()
	parts := make([]string, len(params))
	for i, p := range params {
		s := p.Name
		if p.Injected() {
			s += " <" + p.Kind.String() + ">"
		} else if p.Constraints != "" {
			s += " [" + p.Constraints + "]"
		}
		parts[i] = s
	}
	return strings.Join(parts, ", ")
}

type ResolveCmd struct {
	NamingFlags `embed:""`

	File     string `arg:"" help:"Metadata file (YAML)." type:"existingfile"`
	Action   string `help:"Wire action name." required:""`
	Method   string `help:"Method name." required:""`
	Data     string `help:"Call data as a JSON array." default:"[]"`
	Validate bool   `help:"Check the bound arguments against their constraints."`
}

// placeholderFactory stands in for real handler instances.
var placeholderFactory = service.FactoryFunc(func(a *metadata.ActionMetadata) (any, error) {
	return fmt.Sprintf("<instance of %s>", a.ServiceID()), nil
})

func (c *ResolveCmd) Run(out io.Writer) error {
	reg, err := loadRegistry(c.File)
	if err != nil {
		return err
	}
	data, err := parseData(c.Data)
	if err != nil {
		return err
	}

	resolver := router.New(reg, c.strategy(), placeholderFactory)
	req := router.NewRequest(c.Action, c.Method, data...)

	ref, err := resolver.GetService(req)
	if err != nil {
		return err
	}
	args, err := resolver.GetArguments(req, nil)
	if err != nil {
		return err
	}

	kind := "instance"
	if ref.IsStatic() {
		kind = "static"
	}
	fmt.Fprintf(out, "handler: %v (%s)\n", ref.Handler(), kind)
	fmt.Fprintf(out, "method:  %s.%s\n", ref.Action().Name(), ref.Method().Name())
	for i, arg := range args {
		value := "<absent>"
		switch {
		case arg.Injected && ref.Method().Parameter(i).Kind == metadata.CallContext:
			value = "<call " + req.String() + ">"
		case arg.Injected:
			value = "<transport>"
		case arg.Present:
			b, _ := json.Marshal(arg.Value)
			value = string(b)
		}
		fmt.Fprintf(out, "  %s = %s\n", arg.Name, value)
	}

	if c.Validate {
		v, err := validation.New()
		if err != nil {
			return err
		}
		return v.Validate(ref.Method(), args)
	}
	return nil
}

func parseData(s string) ([]any, error) {
	var data []any
	if err := json.Unmarshal([]byte(s), &data); err != nil {
		return nil, fmt.Errorf("--data must be a JSON array: %w", err)
	}
	return data, nil
}

type CallCmd struct {
	Addr      string        `help:"Server address." default:"127.0.0.1:9650"`
	Transport string        `help:"Transport type." default:"zap" enum:"zap,json,grpc"`
	Timeout   time.Duration `help:"Call timeout." default:"10s"`
	Header    []string      `help:"HTTP header for the json transport, as Key=Value." short:"H"`
	Action    string        `arg:"" help:"Wire action name."`
	Method    string        `arg:"" help:"Method name."`
	Data      string        `arg:"" optional:"" help:"Call data as a JSON array." default:"[]"`
}

func (c *CallCmd) Run(out io.Writer) error {
	data, err := parseData(c.Data)
	if err != nil {
		return err
	}

	opts := []direct.DialOption{direct.WithTransport(c.Transport)}
	for _, h := range c.Header {
		key, val, ok := strings.Cut(h, "=")
		if !ok {
			return fmt.Errorf("header %q: want Key=Value", h)
		}
		opts = append(opts, direct.WithRequestOptions(direct.WithHeader(key, val)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	client, err := direct.Dial(ctx, c.Addr, opts...)
	if err != nil {
		return err
	}
	defer client.Close()

	var reply json.RawMessage
	if err := client.Call(ctx, c.Action, c.Method, data, &reply); err != nil {
		return err
	}
	if len(reply) == 0 {
		reply = json.RawMessage("null")
	}
	fmt.Fprintln(out, string(reply))
	return nil
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("directctl"),
		kong.Description("Inspect handler metadata and call remote actions."),
		kong.UsageOnError(),
		kong.BindTo(os.Stdout, (*io.Writer)(nil)),
	)

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
