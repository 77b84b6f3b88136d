// Command shmqctl inspects and manipulates shmq queues from the shell:
// create/unlink a named queue, push or pop one element, or print its
// current length. It is external tooling, not part of the core (spec.md
// §6: "No CLI is part of the core").
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package main

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	flashflags "github.com/agilira/flash-flags"
	"github.com/agilira/shmq"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "create":
		err = runCreate(args)
	case "unlink":
		err = runUnlink(args)
	case "len":
		err = runLen(args)
	case "put":
		err = runPut(args)
	case "get":
		err = runGet(args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		slog.Error("shmqctl", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: shmqctl <create|unlink|len|put|get> [flags]")
}

func runCreate(args []string) error {
	fs := flashflags.New("create")
	name := fs.String("name", "", "queue name")
	elementSize := fs.String("element-size", "", "fixed element size (e.g. 64, 1KB)")
	capacity := fs.Int("capacity", 0, "slot count, power of two")
	if err := fs.Parse(args); err != nil {
		return err
	}

	size, err := shmq.ParseSize(*elementSize)
	if err != nil {
		return fmt.Errorf("--element-size: %w", err)
	}

	q, err := shmq.Create(*name, int(size), *capacity)
	if err != nil {
		return err
	}
	defer q.Close()

	fmt.Printf("created %s\n", q)
	return nil
}

func runUnlink(args []string) error {
	fs := flashflags.New("unlink")
	name := fs.String("name", "", "queue name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return shmq.Unlink(*name)
}

func runLen(args []string) error {
	fs := flashflags.New("len")
	name := fs.String("name", "", "queue name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	q, err := shmq.Open(*name)
	if err != nil {
		return err
	}
	defer q.Close()

	fmt.Println(q.Len())
	return nil
}

func runPut(args []string) error {
	fs := flashflags.New("put")
	name := fs.String("name", "", "queue name")
	hexData := fs.String("hex", "", "payload as hex-encoded bytes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	payload, err := hex.DecodeString(*hexData)
	if err != nil {
		return fmt.Errorf("--hex: %w", err)
	}

	q, err := shmq.Open(*name)
	if err != nil {
		return err
	}
	defer q.Close()

	return q.PutNowait(payload)
}

func runGet(args []string) error {
	fs := flashflags.New("get")
	name := fs.String("name", "", "queue name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	q, err := shmq.Open(*name)
	if err != nil {
		return err
	}
	defer q.Close()

	item, err := q.GetNowait()
	if err != nil {
		return err
	}
	fmt.Println(hex.EncodeToString(item))
	return nil
}
