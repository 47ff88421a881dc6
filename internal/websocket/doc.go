// Package websocket pushes fused claims metrics to connected dashboards.
//
// A Hub owns the client set and a single run loop. Every refresh of the
// metrics service calls Hub.Broadcast, which queues without blocking; the
// loop fans the message out to each client's buffered send channel and drops
// clients that fall behind. The last broadcast is replayed to new clients.
package websocket
