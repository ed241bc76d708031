// Command bufpool-bench drives a configure/activate/acquire/release
// cycle against a bufpool.Pool and reports throughput. Grounded on
// tphakala-birdnet-go's cmd/benchmark package for the cobra flag
// layout and the fixed-duration run loop (--duration, default 10s).
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/agilira/bufpool"
	"github.com/spf13/cobra"
)

var (
	size       uint
	minBuffers uint
	maxBuffers uint
	align      uint
	workers    int
	duration   time.Duration
)

func main() {
	root := &cobra.Command{
		Use:   "bufpool-bench",
		Short: "Benchmark bufpool.Pool acquire/release throughput",
		RunE:  run,
	}

	root.Flags().UintVar(&size, "size", 4096, "payload size per buffer, in bytes")
	root.Flags().UintVar(&minBuffers, "min", 8, "min_buffers to preallocate on activate")
	root.Flags().UintVar(&maxBuffers, "max", 64, "max_buffers, 0 for unbounded")
	root.Flags().UintVar(&align, "align", 64, "payload alignment, must be a power of two")
	root.Flags().IntVar(&workers, "workers", 8, "number of concurrent acquire/release goroutines")
	root.Flags().DurationVar(&duration, "duration", 10*time.Second, "how long to run")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	pool := bufpool.New(nil)
	defer pool.Close()

	cfg := bufpool.NewConfigStore()
	if err := cfg.Set(size, minBuffers, maxBuffers, 0, 0, align); err != nil {
		return fmt.Errorf("bufpool-bench: invalid config: %w", err)
	}
	if err := pool.Configure(cfg); err != nil {
		return fmt.Errorf("bufpool-bench: configure: %w", err)
	}
	if err := pool.SetActive(true); err != nil {
		return fmt.Errorf("bufpool-bench: activate: %w", err)
	}

	fmt.Printf("running %d workers for %s (size=%d min=%d max=%d align=%d)\n",
		workers, duration, size, minBuffers, maxBuffers, align)

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	results := make(chan int64, workers)
	for i := 0; i < workers; i++ {
		go func() {
			var count int64
			for ctx.Err() == nil {
				buf, status := pool.AcquireBuffer(ctx, nil)
				if status != bufpool.StatusOK {
					continue
				}
				pool.ReleaseBuffer(buf)
				count++
			}
			results <- count
		}()
	}

	var total int64
	for i := 0; i < workers; i++ {
		total += <-results
	}

	fmt.Printf("total cycles: %d (%.0f/sec)\n", total, float64(total)/duration.Seconds())
	return nil
}
