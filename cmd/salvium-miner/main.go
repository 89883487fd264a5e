// Command salvium-miner drives a randomx.Session against a block
// template, reporting any share that satisfies the template's difficulty.
//
// Usage:
//
//	salvium-miner [flags]
//
// Flags:
//
//	--pool        Pool URL (default: none)
//	--wallet      Wallet address shares are credited to (required)
//	--worker      Worker name reported alongside --wallet (default: "default")
//	--threads     Worker thread count (default: runtime.NumCPU())
//	--mode        RandomX mode: light, full (default: light)
//	--seed-hex    32-byte RandomX seed, hex-encoded (default: a fixed test seed)
//	--blob-hex    Block template blob, hex-encoded (default: a fixed test blob)
//	--nonce-offset Byte offset of the blob's nonce field (default: 39)
//	--difficulty  Target difficulty (default: 1000)
//	--version     Print version and exit
//
// --pool and --worker exist for CLI-surface compatibility with a real
// mining pool; the stratum client and pool-message framing that would
// turn them into a live job feed are explicitly out of this core's
// scope. Without one, salvium-miner hashes the template given by
// --seed-hex/--blob-hex (or their fixed defaults) until stopped.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"sync/atomic"
	"syscall"

	"github.com/mxhess/salvium-rs-sub002/randomx"
)

var (
	version = "v0.1.0-dev"
	commit  = "unknown"
)

// defaultSeedHex/defaultBlobHex let salvium-miner run end to end with no
// arguments, against a fixed local template, since no stratum client
// supplies a real one (see the package doc).
const (
	defaultSeedHex = "73616c7669756d2073616c766d696e6572206465666175" +
		"6c742073656564202020202020202020"
	defaultBlobHex = "0606d1b8dab10602" +
		"0000000000000000000000000000000000000000000000000000000000000000" +
		"00000000000000000000000000000000000000000000000000000000000000"
)

type config struct {
	Pool        string
	Wallet      string
	Worker      string
	Threads     int
	Mode        string
	SeedHex     string
	BlobHex     string
	NonceOffset int
	Difficulty  uint64
}

func defaultConfig() config {
	return config{
		Worker:      "default",
		Threads:     runtime.NumCPU(),
		Mode:        "light",
		SeedHex:     defaultSeedHex,
		BlobHex:     defaultBlobHex,
		NonceOffset: 39,
		Difficulty:  1000,
	}
}

func (c config) validate() error {
	if c.Wallet == "" {
		return fmt.Errorf("--wallet is required")
	}
	if c.Mode != "light" && c.Mode != "full" {
		return fmt.Errorf("--mode must be \"light\" or \"full\", got %q", c.Mode)
	}
	if c.Threads < 1 {
		return fmt.Errorf("--threads must be at least 1")
	}
	if _, err := hex.DecodeString(c.SeedHex); err != nil {
		return fmt.Errorf("--seed-hex: %w", err)
	}
	if _, err := hex.DecodeString(c.BlobHex); err != nil {
		return fmt.Errorf("--blob-hex: %w", err)
	}
	return nil
}

func (c config) randomxMode() randomx.Mode {
	if c.Mode == "full" {
		return randomx.ModeFull
	}
	return randomx.ModeLight
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is the actual entry point, returning an exit code: 0 success, 1
// CLI error, 2 runtime error (spec.md's exit-code convention for the
// miner executable).
func run(args []string) int {
	cfg, exit, code := parseFlags(args)
	if exit {
		return code
	}

	if err := cfg.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Printf("salvium-miner %s starting", version)
	log.Printf("  wallet:  %s", cfg.Wallet)
	log.Printf("  worker:  %s", cfg.Worker)
	log.Printf("  threads: %d", cfg.Threads)
	log.Printf("  mode:    %s", cfg.Mode)
	if cfg.Pool != "" {
		log.Printf("  pool:    %s (pool connectivity is out of this core's scope; hashing the local template instead)", cfg.Pool)
	} else {
		log.Printf("  pool:    none; hashing the local template")
	}

	seed, err := hex.DecodeString(cfg.SeedHex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	blob, err := hex.DecodeString(cfg.BlobHex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	var seedHash [32]byte
	copy(seedHash[:], seed)

	obs := randomx.ObserverFunc(func(e randomx.Event) {
		switch e.Kind {
		case randomx.EventStateChanged:
			log.Printf("state -> %v", e.State)
		case randomx.EventProgress:
			log.Printf("dataset build progress: %d/%d", e.Done, e.Total)
		case randomx.EventShareFound:
			fmt.Printf("share: nonce=%d hash=%x\n", e.Share.Nonce, e.Share.Hash)
		case randomx.EventError:
			log.Printf("error: %v", e.Err)
		}
	})

	session := randomx.NewSession(cfg.randomxMode(), cfg.Threads, obs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := session.Init(ctx, seedHash); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	job := randomx.Job{
		SeedHash:    seedHash,
		Blob:        blob,
		NonceOffset: cfg.NonceOffset,
		Difficulty:  cfg.Difficulty,
	}
	if err := session.SetJob(ctx, job); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	var stop atomic.Bool
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("received signal %v, stopping...", sig)
		stop.Store(true)
		cancel()
	}()

	if err := session.Run(ctx, &stop); err != nil {
		log.Printf("mining session ended: %v", err)
	}

	log.Println("shutdown complete")
	return 0
}

// parseFlags parses CLI arguments into a config. Returns the config,
// whether the caller should exit immediately, and the exit code.
func parseFlags(args []string) (config, bool, int) {
	cfg := defaultConfig()
	fs := newFlagSet(&cfg)

	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cfg, true, 1
	}

	if *showVersion {
		fmt.Printf("salvium-miner %s (commit %s)\n", version, commit)
		return cfg, true, 0
	}

	return cfg, false, 0
}

func newFlagSet(cfg *config) *flagSet {
	fs := newCustomFlagSet("salvium-miner")
	fs.StringVar(&cfg.Pool, "pool", cfg.Pool, "pool URL")
	fs.StringVar(&cfg.Wallet, "wallet", cfg.Wallet, "wallet address shares are credited to")
	fs.StringVar(&cfg.Worker, "worker", cfg.Worker, "worker name")
	fs.IntVar(&cfg.Threads, "threads", cfg.Threads, "worker thread count")
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "RandomX mode (light, full)")
	fs.StringVar(&cfg.SeedHex, "seed-hex", cfg.SeedHex, "32-byte RandomX seed, hex-encoded")
	fs.StringVar(&cfg.BlobHex, "blob-hex", cfg.BlobHex, "block template blob, hex-encoded")
	fs.IntVar(&cfg.NonceOffset, "nonce-offset", cfg.NonceOffset, "byte offset of the blob's nonce field")
	fs.Uint64Var(&cfg.Difficulty, "difficulty", cfg.Difficulty, "target difficulty")
	return fs
}
