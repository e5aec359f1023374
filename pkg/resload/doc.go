// Package resload loads external script and style resources into a live
// document exactly once.
//
// A Loader keys every resource by an Identity derived from its kind and
// URL. The element carrying that Identity as its id is the registry entry:
// its presence means the resource is loading or loaded, and a marker in the
// MarkerStore means it has loaded. Callers pass an optional callback that
// runs once the resource completes; callers that arrive after completion
// have their callback run synchronously.
//
// # Generations
//
// LoadNamed tags the element with a logical name. When a named load
// completes, every element of the same kind that carried the name before
// the load started is removed, so switching URLs under one name replaces
// the previous generation.
//
// # Prefetch
//
// Prefetch fetches bytes into a hidden isolated context without executing
// or applying them, so a later Load is served from the engine's cache.
//
// # Execution model
//
// A Loader is not safe for concurrent use. Every method, and every
// callback it runs, executes on the goroutine that drains the Scheduler.
// Completion is always reported at least one tick after the engine's
// signal, even when the engine signals synchronously.
//
//	loop := eventloop.New(logger)
//	l := resload.New(doc, loop, resload.WithLogger(logger))
//	l.LoadNamed(resload.Script, "/app.v2.js", "app", func() {
//	    logger.Info("app ready")
//	})
//	_ = loop.Run(ctx)
package resload
