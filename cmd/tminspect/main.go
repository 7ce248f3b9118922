// Copyright 2023 The NLP Odyssey Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command tminspect prints the content of TensorMap containers.
//
//	tminspect [options] <file> [file...]
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/nlpodyssey/tensormap"
)

func main() {
	var (
		maxKeys    = flag.Int("max-keys", 20, "Maximum number of keys to print, negative for all")
		lazy       = flag.Bool("lazy", false, "Read the keys only, without loading the blocks data")
		samples    = flag.String("unique-samples", "", "Comma-separated sample dimensions whose unique values are printed")
		headerSize = flag.Int("header-limit", 100<<20, "Maximum header size in bytes, zero for no limit")
	)
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <file> [file...]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	for _, path := range args {
		if *lazy {
			if err := printKeys(path, *maxKeys, *headerSize); err != nil {
				log.Fatalf("Failed to read %s: %v", path, err)
			}
			continue
		}

		tm, err := tensormap.Load(path)
		if err != nil {
			log.Fatalf("Failed to load %s: %v", path, err)
		}
		fmt.Printf("%s: %s\n", path, tm.Print(*maxKeys))

		if *samples != "" {
			unique, err := tensormap.UniqueMetadata(tm, tensormap.AxisSamples, strings.Split(*samples, ","), "")
			if err != nil {
				log.Fatalf("Failed to collect samples of %s: %v", path, err)
			}
			fmt.Printf("unique samples: %s\n", unique.Print(*maxKeys, 16))
		}
	}
}

func printKeys(path string, maxKeys, headerSize int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	lt, err := tensormap.OpenLazy(f, headerSize)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d blocks\nkeys: %s\n", path, lt.Len(), lt.Keys().Print(maxKeys, 6))
	return nil
}
