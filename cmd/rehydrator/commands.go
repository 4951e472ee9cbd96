package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"rehydrator/pkg/rehydrator"
)

// commandContext holds what a command handler needs.
type commandContext struct {
	Out    io.Writer
	Opts   rehydrator.Options
	Args   []string
	Pretty bool
}

func (c commandContext) open() (*rehydrator.Store, error) {
	return rehydrator.Open(c.Args[0], c.Opts)
}

// printJSON writes v as JSON, indented when stdout is a terminal.
func (c commandContext) printJSON(v any) error {
	var (
		data []byte
		err  error
	)
	if c.Pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.Out, string(data))
	return err
}

// command describes one CLI subcommand.
type command struct {
	Usage   string // e.g. "load <store> <key>"
	Help    string
	MinArgs int
	Run     func(ctx commandContext) error
}

type usageError struct {
	usage string
}

func (e *usageError) Error() string { return "usage: rehydrator " + e.usage }

// registry maps command names to handlers and produces help in registration order.
type registry struct {
	commands map[string]command
	order    []string
}

func newRegistry() *registry {
	r := &registry{commands: make(map[string]command)}
	r.register("help", command{
		Help: "show this help",
		Run: func(ctx commandContext) error {
			_, err := fmt.Fprint(ctx.Out, r.helpText())
			return err
		},
	})
	return r
}

// register adds cmd under name. Registering a name twice overwrites it.
func (r *registry) register(name string, cmd command) {
	if cmd.Run == nil {
		panic("rehydrator: nil handler for command " + name)
	}
	if cmd.Usage == "" {
		cmd.Usage = name
	}
	if _, exists := r.commands[name]; !exists {
		r.order = append(r.order, name)
	}
	r.commands[name] = cmd
}

func (r *registry) dispatch(name string, ctx commandContext) error {
	cmd, ok := r.commands[name]
	if !ok {
		return &usageError{usage: fmt.Sprintf("<command> ...: unknown command %q, try help", name)}
	}
	if len(ctx.Args) < cmd.MinArgs {
		return &usageError{usage: cmd.Usage}
	}
	return cmd.Run(ctx)
}

func (r *registry) helpText() string {
	var b strings.Builder
	for _, name := range r.order {
		cmd := r.commands[name]
		fmt.Fprintf(&b, "  %-32s %s\n", cmd.Usage, cmd.Help)
	}
	return b.String()
}

func registerStoreCommands(r *registry) {
	r.register("path", command{
		Usage: "path <store>", Help: "print the backing file path", MinArgs: 1,
		Run: handlePath,
	})
	r.register("exists", command{
		Usage: "exists <store>", Help: "print whether the store file exists", MinArgs: 1,
		Run: handleExists,
	})
	r.register("keys", command{
		Usage: "keys <store>", Help: "list stored keys", MinArgs: 1,
		Run: handleKeys,
	})
	r.register("has", command{
		Usage: "has <store> <key>", Help: "print whether key is stored", MinArgs: 2,
		Run: handleHas,
	})
	r.register("load", command{
		Usage: "load <store> <key>", Help: "print a stored value as JSON", MinArgs: 2,
		Run: handleLoad,
	})
	r.register("get", command{
		Usage: "get <store> <key> <default>", Help: "print a value, saving default first if missing", MinArgs: 3,
		Run: handleGet,
	})
	r.register("save", command{
		Usage: "save <store> <key> <value>", Help: "store a value (JSON, or plain text)", MinArgs: 3,
		Run: handleSave,
	})
	r.register("unset", command{
		Usage: "unset <store> <key>", Help: "remove one key", MinArgs: 2,
		Run: handleUnset,
	})
	r.register("delete", command{
		Usage: "delete <store>", Help: "remove the store file", MinArgs: 1,
		Run: handleDelete,
	})
	r.register("describe", command{
		Usage: "describe <store>", Help: "dump the store for humans", MinArgs: 1,
		Run: handleDescribe,
	})
}

// parseValue reads args as one JSON document, falling back to plain text.
func parseValue(args []string) any {
	raw := strings.Join(args, " ")
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

func handlePath(ctx commandContext) error {
	s, err := ctx.open()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(ctx.Out, s.Path())
	return err
}

func handleExists(ctx commandContext) error {
	s, err := ctx.open()
	if err != nil {
		return err
	}
	ok, err := s.Exists()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(ctx.Out, ok)
	return err
}

func handleKeys(ctx commandContext) error {
	s, err := ctx.open()
	if err != nil {
		return err
	}
	keys, err := s.Keys()
	if err != nil {
		return err
	}
	for _, k := range keys {
		if _, err := fmt.Fprintln(ctx.Out, k); err != nil {
			return err
		}
	}
	return nil
}

func handleHas(ctx commandContext) error {
	s, err := ctx.open()
	if err != nil {
		return err
	}
	ok, err := s.KeyExists(ctx.Args[1])
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(ctx.Out, ok)
	return err
}

func handleLoad(ctx commandContext) error {
	s, err := ctx.open()
	if err != nil {
		return err
	}
	v, err := s.Load(ctx.Args[1])
	if err != nil {
		return err
	}
	return ctx.printJSON(v)
}

func handleGet(ctx commandContext) error {
	s, err := ctx.open()
	if err != nil {
		return err
	}
	v, err := s.Get(ctx.Args[1], parseValue(ctx.Args[2:]))
	if err != nil {
		return err
	}
	return ctx.printJSON(v)
}

func handleSave(ctx commandContext) error {
	s, err := ctx.open()
	if err != nil {
		return err
	}
	return s.Save(ctx.Args[1], parseValue(ctx.Args[2:]))
}

func handleUnset(ctx commandContext) error {
	s, err := ctx.open()
	if err != nil {
		return err
	}
	return s.Unset(ctx.Args[1])
}

func handleDelete(ctx commandContext) error {
	s, err := ctx.open()
	if err != nil {
		return err
	}
	return s.Delete()
}

func handleDescribe(ctx commandContext) error {
	s, err := ctx.open()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(ctx.Out, s.Describe())
	return err
}
