package fec

import "errors"

// ErrMalformedRepairSymbol is returned by AddRepairSymbol when a symbol
// fails the basic sanity checks implied by invariant I1: nss is zero,
// nss exceeds the configured window size, or the implied source window
// start (fss_esi - nss + 1) underflows. The recoverer drops the symbol
// and keeps running; nothing here is fatal to the connection.
var ErrMalformedRepairSymbol = errors.New("fec: malformed repair symbol")
