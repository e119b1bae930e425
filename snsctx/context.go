// Package snsctx carries per-call options through context.Context so that bus
// adapters deep below a driver can honor them.
package snsctx

import "context"

type verboseKey struct{}

// IsVerbose reports whether raw frames and HID reports should be logged.
func IsVerbose(ctx context.Context) bool {
	verbose, _ := ctx.Value(verboseKey{}).(bool)
	return verbose
}

func SetVerbose(ctx context.Context, value bool) context.Context {
	return context.WithValue(ctx, verboseKey{}, value)
}
