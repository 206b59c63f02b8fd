// Command heat2d runs a distributed 2D heat diffusion simulation: the
// domain is split into horizontal slabs, one rank per slab, and the final
// temperature field is written to a binary checkpoint file.
//
// Usage:
//
//	heat2d [flags] <nx> <ny> <ni>
//
// where nx and ny are each rank's local grid extents and ni is the number
// of iterations.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/parsim/heat2d"
	"github.com/parsim/heat2d/checkpoint"
	"github.com/parsim/heat2d/comm"
	"github.com/parsim/heat2d/sim"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] <nx> <ny> <ni>\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	ranks := flag.Int("p", 1, "number of simulation ranks")
	out := flag.String("o", "output", "checkpoint file path")
	nout := flag.Int("nout", heat2d.DefaultNOut, "iterations between energy reports")
	cpuprofile := flag.String("cpuprofile", "", "write a CPU profile to this file")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 3 {
		usage()
		os.Exit(2)
	}
	var ext [3]int
	for i, arg := range flag.Args() {
		n, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "heat2d: bad argument %q: %v\n", arg, err)
			usage()
			os.Exit(2)
		}
		ext[i] = n
	}
	if *ranks < 1 {
		fmt.Fprintf(os.Stderr, "heat2d: invalid rank count %v\n", *ranks)
		os.Exit(2)
	}

	base, err := heat2d.NewParams(ext[0], ext[1], ext[2])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	base.NOut = *nout
	if err := base.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "heat2d:", err)
			os.Exit(1)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	if err := run(base, *ranks, *out); err != nil {
		fmt.Fprintln(os.Stderr, "heat2d:", err)
		os.Exit(1)
	}
}

// run spawns one goroutine per rank over a shared group, waits for every
// rank to finish all iterations and write its checkpoint block, and prints
// the throughput summary.
func run(base *heat2d.Params, ranks int, out string) error {
	group := comm.NewGroup(ranks)
	errs := make([]error, ranks)

	start := time.Now()
	var wg sync.WaitGroup
	for r := 0; r < ranks; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			p := base.ForRank(r, ranks)
			s := sim.New(p, group.Rank(r))
			if err := s.Run(); err != nil {
				errs[r] = err
				return
			}
			errs[r] = checkpoint.Write(out, p, s.Field())
		}(r)
	}
	wg.Wait()
	elapsed := time.Since(start).Seconds()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	gb := float64(base.NX*base.NY) * 8 * 2 / 1e9
	fmt.Fprintf(os.Stderr, "Domain %dx%d (%g GB): %g GB/s\n",
		base.NX, base.NY, gb, gb*float64(base.NI)/elapsed)
	return nil
}
