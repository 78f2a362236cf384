// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"log"
	"sync"

	"github.com/urfave/cli/v2"

	"github.com/chainmesh/objstore"
	"github.com/chainmesh/objstore/common"
	"github.com/chainmesh/objstore/objects"
)

// errInvalidFlags is raised for malformed CLI input; the store itself never
// returns an error, only panics on invariant violations (see DESIGN.md).
const errInvalidFlags = common.ConstError("threads and iterations must both be positive")

var (
	threadsFlag = cli.IntFlag{
		Name:  "threads",
		Usage: "number of concurrent goroutines hammering the store",
		Value: 8,
	}
	iterationsFlag = cli.IntFlag{
		Name:  "iterations",
		Usage: "number of store/drop cycles each goroutine runs",
		Value: 1000,
	}
)

var runCommand = cli.Command{
	Action: run,
	Name:   "run",
	Usage:  "runs a concurrent store/drop soak test against a fresh root handle",
	Flags: []cli.Flag{
		&threadsFlag,
		&iterationsFlag,
	},
}

func run(ctx *cli.Context) error {
	threads := ctx.Int(threadsFlag.Name)
	iterations := ctx.Int(iterationsFlag.Name)
	if threads <= 0 || iterations <= 0 {
		return errInvalidFlags
	}

	log.Printf("starting storeload: %d threads x %d iterations", threads, iterations)
	root := objstore.CreateRoot()

	var wg sync.WaitGroup
	wg.Add(threads)
	for t := 0; t < threads; t++ {
		t := t
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				local := root.Clone()
				local.StoreBlock(makeBlock(t, i))
				local.Release()
			}
		}()
	}
	wg.Wait()

	remaining := len(root.GetBlockRefs())
	log.Printf("storeload complete: root retains %d local block refs", remaining)
	return nil
}

func makeBlock(thread, iteration int) *objects.Block {
	var creator objects.Address
	creator[0] = byte(thread)
	data := []byte{byte(thread), byte(iteration), byte(iteration >> 8), byte(iteration >> 16)}
	return &objects.Block{
		ID:      objects.ComputeBlockID(data),
		Slot:    objects.Slot{Period: uint64(iteration), Thread: uint8(thread % 32)},
		Creator: creator,
		Bytes:   data,
	}
}
