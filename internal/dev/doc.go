// Package dev provides the preview server and hot reload.
//
// # Architecture
//
//   - Watcher: polls the watched directories for changes
//   - Server: renders documents on request, routed with chi
//   - ReloadServer: notifies browsers of changes via WebSocket
//
// # Usage
//
//	srv := dev.NewServer(dev.ServerOptions{Config: cfg})
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Routes
//
//	/metrics              Prometheus metrics
//	/__jsonpage/reload    reload WebSocket (when dev.hotReload is on)
//	/blog/post            renders <root>/blog/post.json (or .yaml, .yml)
//	/                     renders <root>/index.json
//
// Other paths are served from the project directory.
//
// # Hot Reload Protocol
//
// Messages are JSON-encoded:
//
//	{"type": "reload", "file": "..."}                // full page reload
//	{"type": "error", "file": "...", "error": "..."} // shows error overlay
//	{"type": "clear"}                                // clears error overlay
package dev
