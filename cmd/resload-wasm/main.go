//go:build js && wasm

// Command resload-wasm exposes the loader to page scripts as
// window.resload with load, unload, ignore, prefetch and state functions.
package main

import (
	"log/slog"
	"os"
	"syscall/js"

	"github.com/leapstack-labs/resload/pkg/dom/jsdom"
	"github.com/leapstack-labs/resload/pkg/resload"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	doc := jsdom.Global()
	l := resload.New(doc, jsdom.Scheduler{}, resload.WithLogger(logger))

	api := map[string]any{
		"load": js.FuncOf(func(_ js.Value, args []js.Value) any {
			kind, url := kindURL(args)
			var done func()
			if len(args) > 2 && args[2].Type() == js.TypeFunction {
				cb := args[2]
				done = func() { cb.Invoke() }
			}
			name := ""
			if len(args) > 3 && args[3].Type() == js.TypeString {
				name = args[3].String()
			}
			el := l.LoadNamed(kind, url, name, done)
			if e, ok := el.(*jsdom.Element); ok {
				return e.Value()
			}
			return js.Null()
		}),
		"unload": js.FuncOf(func(_ js.Value, args []js.Value) any {
			l.Unload(kindURL(args))
			return nil
		}),
		"ignore": js.FuncOf(func(_ js.Value, args []js.Value) any {
			l.Ignore(kindURL(args))
			return nil
		}),
		"prefetch": js.FuncOf(func(_ js.Value, args []js.Value) any {
			l.Prefetch(kindURL(args))
			return nil
		}),
		"state": js.FuncOf(func(_ js.Value, args []js.Value) any {
			return l.State(kindURL(args)).String()
		}),
	}
	js.Global().Set("resload", js.ValueOf(api))
	logger.Info("resload ready")

	select {}
}

func kindURL(args []js.Value) (resload.Kind, string) {
	if len(args) < 2 {
		return "", ""
	}
	return resload.Kind(args[0].String()), args[1].String()
}
