// Command shmqbench drives a producer/consumer pair against a single shmq
// queue and reports throughput. It is the external benchmark harness
// spec.md §1 calls out of scope for the core.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package main

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	flashflags "github.com/agilira/flash-flags"
	"github.com/agilira/shmq"
)

func main() {
	fs := flashflags.New("shmqbench")
	name := fs.String("name", "shmqbench", "queue name")
	elementSize := fs.Int("element-size", 64, "payload size in bytes")
	capacity := fs.Int("capacity", 4096, "slot count, power of two")
	producers := fs.Int("producers", 1, "number of producer goroutines")
	consumers := fs.Int("consumers", 1, "number of consumer goroutines")
	duration := fs.Duration("duration", 3*time.Second, "how long to run")
	if err := fs.Parse(os.Args[1:]); err != nil {
		slog.Error("shmqbench", "error", err)
		os.Exit(1)
	}

	q, err := shmq.Create(*name, *elementSize, *capacity)
	if err != nil {
		slog.Error("create", "error", err)
		os.Exit(1)
	}
	defer func() {
		q.Close()
		_ = shmq.Unlink(*name)
	}()

	stop := make(chan struct{})
	time.AfterFunc(*duration, func() { close(stop) })

	var produced, consumed atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < *producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			payload := make([]byte, *elementSize)
			t := 10 * time.Millisecond
			for {
				select {
				case <-stop:
					return
				default:
				}
				if err := q.PutTimeout(payload, t); err == nil {
					produced.Add(1)
				}
			}
		}()
	}
	for i := 0; i < *consumers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			t := 10 * time.Millisecond
			for {
				select {
				case <-stop:
					return
				default:
				}
				if _, err := q.GetTimeout(t); err == nil {
					consumed.Add(1)
				}
			}
		}()
	}

	wg.Wait()

	secs := (*duration).Seconds()
	fmt.Printf("produced=%d (%.0f/s) consumed=%d (%.0f/s)\n",
		produced.Load(), float64(produced.Load())/secs,
		consumed.Load(), float64(consumed.Load())/secs)
}
