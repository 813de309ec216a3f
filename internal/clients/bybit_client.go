// Package clients constructs the exchange SDK clients the market sources use.
package clients

import (
	"github.com/hirokisan/bybit/v2"
)

// NewBybitClient returns a Bybit client. The market endpoints used here are
// public, so no credentials are required.
func NewBybitClient() *bybit.Client {
	return bybit.NewClient()
}
