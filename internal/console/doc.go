// Package console drives an interactive REPL through a pseudo-terminal and
// turns it into a synchronous request/response service.
//
// The underlying channel has no framing: readiness and command completion are
// inferred from patterns and timing against the raw terminal stream.
//
// Components:
//   - Buffer: bounded append-only accumulator fed by the PTY reader
//   - Normalizer: strips escape sequences, prompt lines and echoed input
//   - ErrorExtractor: recognizes interpreter error reports and formats them
//   - ReadinessDetector: decides when the shell has finished booting
//   - CompletionDetector: decides when a command's output stopped growing
//   - Manager: owns the child process and composes the above
//
// Lifecycle:
//
//	stopped -> starting -> ready -> stopped
//	starting -> failed -> stopped (startup timeout)
//
// Example Usage:
//
//	mgr := console.New(console.Config{
//	    WorkingDir: "/srv/app",
//	    Command:    "bundle exec rails console",
//	    Timeout:    30 * time.Second,
//	})
//	if err := mgr.Start(ctx); err != nil {
//	    return err
//	}
//	defer mgr.Stop()
//
//	res := mgr.Execute(ctx, "User.count")
//	// res.Success, res.Output
//
// Only one command runs at a time; a second concurrent Execute is rejected
// with KindBusy rather than interleaving on the terminal.
package console
