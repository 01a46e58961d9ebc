package runtime

import (
	"os"
)

// ServiceOption tunes a ServiceCtx before Run.
type ServiceOption func(*ServiceCtx)

// WithServiceTermination replaces the channel Run listens on for an
// explicit stop request, in addition to its context.
func WithServiceTermination(ch chan os.Signal) ServiceOption {
	return func(sCtx *ServiceCtx) {
		sCtx.shutdownChannel = ch
	}
}

// WithWaitingForServer makes the listener announce itself to WaitForServer.
func WithWaitingForServer() ServiceOption {
	return func(sCtx *ServiceCtx) {
		sCtx.serverReady = make(chan struct{})
	}
}

// WithDependencies appends options applied after the HTTP server wiring.
func WithDependencies(opts ...DependencyOption) ServiceOption {
	return func(sCtx *ServiceCtx) {
		sCtx.depOptions = append(sCtx.depOptions, opts...)
	}
}
