// Diagd is the diagnostic HTTP daemon for an Edgeline gateway node.
//
// It watches a directory of generated configuration snapshots, rebuilds a
// fresh view of the newest one for every request, and serves diagnostic
// pages alongside the liveness and readiness probes the orchestrator uses.
//
// Usage:
//
//	# Serve diagnostics for generated configuration under /tmp/edgeline
//	diagd run /tmp/edgeline
//
//	# Custom listen address and a local notices file
//	diagd run /tmp/edgeline --host 127.0.0.1 --port 9877 --notices /etc/edgeline/notices.json
//
//	# Disable the background health checks against the Envoy admin port
//	diagd run /tmp/edgeline --no-checks
//
//	# Show version information
//	diagd version
package main

func main() {
	Execute()
}
