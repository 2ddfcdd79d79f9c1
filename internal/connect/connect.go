// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package connect

import (
	"time"

	"github.com/solidcoredata/arrowtrace/internal/schemahash"
)

/*
	A worker process holds a cache of compiled Programs, keyed by schema
	version hash. It connects to a schema registry and periodically sends a
	heartbeat announcing which versions it currently has compiled.
	The registry notifies workers of a newly accepted schema version.
	The worker fetches the new schema through a different interface, compiles
	it, and only then reports it as current.
	The worker notifies the registry once its in-flight serialize/deserialize
	calls have drained off an old version.

	Each heartbeat from the worker announces the compiled versions it holds
	for each named schema: struct{Parts int, Current []struct{Version hash, Parts int}}.
	Similarly the registry anounces in each heartbeat the 5 most recent
	versions of each named schema: struct{Stack []struct{Version hash, Current bool, Scheduled *time.Time}}.
	The registry announce should only contain relevant versions, which may be
	defined as any future versions not yet started and any past versions
	within the same change group.

	Upon startup, a worker should choose a UUID to send with each request.
	No "connect" message should be sent, if the registry doesn't know the UUID,
	it assumes it is effectivly "new".

	The worker and registry should send a "disconnect" message when they want
	to go away, though it is not required.

	Use in-memory gRPC connection such as: google.golang.org/grpc/test/bufconn
	or github.com/akutz/memconn for connecting comments.
*/

type NotifyToServer struct {
	Disconnect   bool
	NextAnnounce *time.Time

	Parts   int
	Current []struct {
		Version schemahash.Hash
		Parts   int
	}
}

type NotifyToClient struct {
	Disconnect   bool
	NextAnnounce *time.Time // TODO(kardianos): Is this needed?

	Stack []struct {
		Version   schemahash.Hash
		Current   bool
		Scheduled *time.Time
	}
}

type Notify interface {
	Subscribe(toServer chan NotifyToServer, toClient chan NotifyToClient) error
}

type NotifyServer struct{}

// Serve runs the notification server and blocks until the server is closed down.
func (n *NotifyServer) Serve(ns NotifyServer) {}
