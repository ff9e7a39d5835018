package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/dbkit/bufferpool/internal/bufconfig"
	"github.com/dbkit/bufferpool/internal/bufferpool"
)

// runShell opens a pool against cfg and drives it from an interactive
// readline shell: pin/unpin/write/force/flush/stats commands, one per
// line, with persistent command history across invocations.
func runShell(cfg *bufconfig.Config) error {
	store := bufferpool.NewDiskBlockStore()
	pool, err := bufferpool.Init(store, cfg.Pool.PageFile, cfg.Pool.Capacity, bufferpool.Policy(cfg.Pool.Policy))
	if err != nil {
		return fmt.Errorf("init pool: %w", err)
	}

	handles := map[int32]*bufferpool.PageHandle{}

	histPath := defaultHistoryPath()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "bufdemo> ",
		HistoryFile:     histPath,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer func() { _ = rl.Close() }()

	fmt.Printf("bufdemo shell: capacity=%d policy=%s page_file=%s\n", cfg.Pool.Capacity, cfg.Pool.Policy, cfg.Pool.PageFile)
	fmt.Println("type \\help for a list of commands")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			fmt.Println("^C")
			continue
		}
		if err != nil {
			fmt.Println()
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if line == "\\q" || line == "quit" || line == "exit" {
			break
		}
		if line == "\\help" {
			printShellHelp()
			continue
		}

		if err := dispatchShellCommand(pool, handles, line); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}

	for pageID, h := range handles {
		if err := pool.Unpin(h); err != nil {
			fmt.Printf("error: unpin %d on exit: %v\n", pageID, err)
		}
	}
	return pool.Shutdown()
}

func dispatchShellCommand(pool *bufferpool.Pool, handles map[int32]*bufferpool.PageHandle, line string) error {
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "pin":
		pageID, err := parsePageID(args)
		if err != nil {
			return err
		}
		h, err := pool.Pin(pageID)
		if err != nil {
			return err
		}
		handles[pageID] = h
		fmt.Printf("pinned page %d\n", pageID)
		return nil

	case "unpin":
		pageID, err := parsePageID(args)
		if err != nil {
			return err
		}
		h, ok := handles[pageID]
		if !ok {
			return fmt.Errorf("page %d is not pinned by this shell", pageID)
		}
		if err := pool.Unpin(h); err != nil {
			return err
		}
		delete(handles, pageID)
		fmt.Printf("unpinned page %d\n", pageID)
		return nil

	case "write":
		if len(args) < 2 {
			return fmt.Errorf("usage: write <page_id> <text>")
		}
		pageID, err := strconv.ParseInt(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid page id %q: %w", args[0], err)
		}
		h, ok := handles[int32(pageID)]
		if !ok {
			return fmt.Errorf("page %d is not pinned by this shell", pageID)
		}
		text := strings.Join(args[1:], " ")
		clear(h.Bytes)
		copy(h.Bytes, text)
		if err := pool.MarkDirty(h); err != nil {
			return err
		}
		fmt.Printf("wrote %d bytes to page %d\n", len(text), pageID)
		return nil

	case "force":
		pageID, err := parsePageID(args)
		if err != nil {
			return err
		}
		h, ok := handles[pageID]
		if !ok {
			return fmt.Errorf("page %d is not pinned by this shell", pageID)
		}
		if err := pool.ForcePage(h); err != nil {
			return err
		}
		fmt.Printf("forced page %d to disk\n", pageID)
		return nil

	case "flush":
		if err := pool.ForceFlush(); err != nil {
			return err
		}
		fmt.Println("flushed all dirty unpinned frames")
		return nil

	case "stats":
		printStats(pool)
		return nil

	default:
		return fmt.Errorf("unknown command: %s (try \\help)", cmd)
	}
}

func parsePageID(args []string) (int32, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected exactly one page id argument")
	}
	n, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid page id %q: %w", args[0], err)
	}
	return int32(n), nil
}

func printStats(pool *bufferpool.Pool) {
	fmt.Printf("frame_contents: %v\n", pool.FrameContents())
	fmt.Printf("dirty_flags:    %v\n", pool.DirtyFlags())
	fmt.Printf("fix_counts:     %v\n", pool.FixCounts())
	fmt.Printf("read_io=%d write_io=%d\n", pool.NumReadIO(), pool.NumWriteIO())
}

func printShellHelp() {
	fmt.Println(`commands:
  pin <page_id>             pin a page, loading it if necessary
  unpin <page_id>           release this shell's pin on a page
  write <page_id> <text>    overwrite a pinned page's bytes and mark it dirty
  force <page_id>           write a pinned page back to disk now, if dirty
  flush                     write back every dirty unpinned frame
  stats                     print frame_contents/dirty_flags/fix_counts/IO counters
  \q | quit | exit          leave the shell, unpinning and shutting down`)
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".bufdemo_history"
	}
	return filepath.Join(home, ".bufdemo_history")
}
