// Command c8 executes CHIP-8 programs in a terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"runtime/pprof"
	"time"

	"github.com/nf/c8/chip8"
	"github.com/nf/c8/vip"
)

func main() {
	log.SetPrefix("c8: ")
	log.SetFlags(0)

	var (
		speedFlag    = flag.Int("speed", vip.DefaultSpeed, "execute `n` instructions per second")
		quirksFlag   = flag.String("quirks", "vip", "interpreter behaviour: vip or schip")
		wrapFlag     = flag.Bool("wrap", false, "wrap sprites around the screen edges instead of clipping them")
		seedFlag     = flag.Int64("seed", 0, "seed for the random number generator (0 uses the time)")
		watchFlag    = flag.Bool("watch", false, "reload and restart the program when the ROM file changes")
		headlessFlag = flag.Bool("headless", false, "run without a display and print the screen on exit")
		framesFlag   = flag.Int("frames", 0, "with -headless, stop after `n` frames (0 runs until halt)")

		cpuProfileFlag = flag.String("cpu_profile", "", "write CPU profile to `file`")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <program.ch8>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
	}
	if *watchFlag && *headlessFlag {
		log.Fatal("-watch requires a display and cannot be used with -headless")
	}

	q, err := chip8.ParseQuirks(*quirksFlag)
	if err != nil {
		log.Fatal(err)
	}
	q.WrapSprites = *wrapFlag

	l := &loader{quirks: q, seed: *seedFlag}
	cfg := vip.Config{Speed: *speedFlag, Watch: *watchFlag}

	if *watchFlag {
		if err := watchMode(cfg, l, flag.Arg(0)); err != nil {
			log.Fatal(err)
		}
		return
	}

	var cpuProfile io.Closer
	if prof := *cpuProfileFlag; prof != "" {
		f, err := os.Create(prof)
		if err != nil {
			log.Fatalf("creating CPU profile file: %v", err)
		}
		pprof.StartCPUProfile(f)
		cpuProfile = f
	}

	var front vip.Frontend
	if *headlessFlag {
		front = vip.Headless{Frames: *framesFlag, Out: os.Stdout}
	}
	err = run(cfg, l, flag.Arg(0), front)

	if f := cpuProfile; f != nil {
		pprof.StopCPUProfile()
		f.Close()
	}

	if err != nil {
		log.Fatal(err)
	}
}

func run(cfg vip.Config, l *loader, romFile string, front vip.Frontend) error {
	m, err := l.load(romFile)
	if err != nil {
		return err
	}
	if front == nil {
		t, err := vip.NewTerminal(filepath.Base(romFile), false)
		if err != nil {
			return err
		}
		front = t
	}
	return vip.NewRunner(cfg).Run(context.Background(), m, front)
}

// loader reads ROM files into new machines.
type loader struct {
	quirks chip8.Quirks
	seed   int64
}

func (l *loader) load(romFile string) (*chip8.Machine, error) {
	rom, err := os.ReadFile(romFile)
	if err != nil {
		return nil, err
	}
	m, err := chip8.NewMachine(rom, l.quirks)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", romFile, err)
	}
	seed := l.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	m.Rand = rand.New(rand.NewSource(seed))
	return m, nil
}
