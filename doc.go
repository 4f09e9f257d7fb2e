// Package bmproxy manages the lifecycle of an externally-installed
// BrowserMob Proxy server and exposes a thin REST client handle to it.
//
// Server resolves the proxy executable, launches it with stdout/stderr
// redirected to a log file, polls the control port until it accepts TCP
// connections, and tears the process group down again with idempotent
// cleanup. RemoteServer models a proxy that is already running elsewhere.
// Either one hands out Client values bound to the proxy's control API for
// HAR capture and traffic rewriting.
//
// # Basic Usage
//
//	srv, err := bmproxy.New("browsermob-proxy")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Close()
//
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Stop(10 * time.Second) // Returns nil on success; safe to ignore in defer
//
//	proxy := srv.CreateProxy(nil)
//	if err := proxy.Open(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer proxy.Close(ctx)
//
//	// Point a browser at proxy.ProxyAddr(), then:
//	if err := proxy.NewHAR(ctx, bmproxy.HAROptions{CaptureContent: true}); err != nil {
//	    log.Fatal(err)
//	}
//	har, err := proxy.HAR(ctx)
//	// Inspect captured entries...
//
// # Lifecycle
//
// A Server moves through Unstarted → Starting → Running → Stopped. A failed
// Start tears the child down before returning, and a stopped Server cannot
// be started again. Stop is idempotent; Close is a safety net that stops a
// still-running process before closing the log file, and a runtime cleanup
// performs the same teardown if a Server is dropped without either call.
// Deterministic Stop/Close remains the supported path; the cleanup is
// best-effort only.
//
// # Remote Proxies
//
// When the proxy is already running (e.g., a shared CI service), skip
// Server entirely:
//
//	remote := bmproxy.NewRemoteServer("proxy.ci.internal", 8080)
//	if !remote.IsListening() {
//	    log.Fatal("proxy not reachable")
//	}
//	client := remote.CreateProxy(map[string]string{"httpProxy": upstream})
package bmproxy
