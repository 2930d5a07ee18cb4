//go:build !unix

package main

import "context"

// setupReloadSignal does nothing where SIGUSR1 does not exist.
func setupReloadSignal(ctx context.Context, triggers chan<- string) {}
