// Package api provides the management server for the client side application.
//
// It exposes region, trail, and webhook settings plus read access to the
// statuses and history that reconciliation derives.
package api

import (
	"go.uber.org/fx"
)

var Module = fx.Module("api",
	fx.Provide(
		NewServer,
	),
)
