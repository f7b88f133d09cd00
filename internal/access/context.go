// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolDungeons Contributors

package access

import "context"

type callKey struct{}

// WithCall returns a context carrying the verified request identity.
func WithCall(ctx context.Context, call Call) context.Context {
	return context.WithValue(ctx, callKey{}, call)
}

// CallFromContext returns the identity stored by WithCall.
func CallFromContext(ctx context.Context) (Call, bool) {
	call, ok := ctx.Value(callKey{}).(Call)
	return call, ok
}
