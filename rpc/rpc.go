// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rpc

import (
	"context"

	"github.com/solidcoredata/arrowtrace/internal/schemahash"
)

// SchemaService lets a worker holding a compiled Program check whether its
// schema version is still the one a registry considers current, the RPC
// side of internal/connect's heartbeat protocol.
type SchemaService interface {
	Alive(ctx context.Context, req *AliveRequest) (*AliveResponse, error)
}

type AliveRequest struct {
	Name    string
	Version schemahash.Hash
}

type AliveResponse struct {
	Current        bool
	CurrentVersion schemahash.Hash
}
