// Command bufdemo is a small harness that exercises a buffer pool end to
// end: load a config file, then either run a scripted pin/write/flush pass
// or drop into an interactive shell for poking at a pool by hand. It is not
// a protocol and nothing in the bufferpool package depends on it.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/dbkit/bufferpool/internal/bufconfig"
	"github.com/dbkit/bufferpool/internal/bufferpool"
)

func main() {
	var cfgPath string
	var interactive bool
	flag.StringVar(&cfgPath, "config", "bufdemo.yaml", "path to bufdemo yaml config")
	flag.BoolVar(&interactive, "i", false, "drop into an interactive shell instead of running the scripted demo")
	flag.Parse()

	cfg, err := bufconfig.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if interactive {
		if err := runShell(cfg); err != nil {
			log.Fatalf("bufdemo: %v", err)
		}
		return
	}

	if err := run(cfg); err != nil {
		log.Fatalf("bufdemo: %v", err)
	}
}

func run(cfg *bufconfig.Config) error {
	store := bufferpool.NewDiskBlockStore()
	pool, err := bufferpool.Init(store, cfg.Pool.PageFile, cfg.Pool.Capacity, bufferpool.Policy(cfg.Pool.Policy))
	if err != nil {
		return fmt.Errorf("init pool: %w", err)
	}

	slog.Info("bufdemo: pool ready", "page_file", cfg.Pool.PageFile, "capacity", cfg.Pool.Capacity, "policy", cfg.Pool.Policy)

	for pageID := int32(0); pageID < int32(cfg.Pool.Capacity); pageID++ {
		h, err := pool.Pin(pageID)
		if err != nil {
			return fmt.Errorf("pin %d: %w", pageID, err)
		}
		copy(h.Bytes, fmt.Sprintf("P%d", pageID))
		if err := pool.MarkDirty(h); err != nil {
			return fmt.Errorf("mark_dirty %d: %w", pageID, err)
		}
		if err := pool.Unpin(h); err != nil {
			return fmt.Errorf("unpin %d: %w", pageID, err)
		}
	}

	if err := pool.ForceFlush(); err != nil {
		return fmt.Errorf("force_flush: %w", err)
	}

	fmt.Fprintf(os.Stdout, "frame_contents: %v\n", pool.FrameContents())
	fmt.Fprintf(os.Stdout, "dirty_flags:    %v\n", pool.DirtyFlags())
	fmt.Fprintf(os.Stdout, "fix_counts:     %v\n", pool.FixCounts())
	fmt.Fprintf(os.Stdout, "read_io=%d write_io=%d\n", pool.NumReadIO(), pool.NumWriteIO())

	return pool.Shutdown()
}
