package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/murmur"
)

func main() {
	count := flag.Int("count", 1000, "Number of notes to generate")
	keep := flag.Bool("keep", false, "Keep the benchmark directory after running")
	verbose := flag.Bool("verbose", false, "Log every component at debug level")
	flag.Parse()

	benchDir, err := os.MkdirTemp("", "murmur_bench_")
	if err != nil {
		panic(err)
	}
	defer func() {
		if !*keep {
			os.RemoveAll(benchDir)
		} else {
			fmt.Printf("Keeping bench dir: %s\n", benchDir)
		}
	}()

	// Write files directly to simulate an existing data directory.
	fmt.Printf("Generating %d notes in %s...\n", *count, benchDir)
	startGen := time.Now()
	notesDir := filepath.Join(benchDir, "notes")
	if err := os.MkdirAll(notesDir, 0755); err != nil {
		panic(err)
	}
	created := time.Now().UTC().Format(time.RFC3339Nano)
	for i := 0; i < *count; i++ {
		content := fmt.Sprintf("---\ncreated_at: %q\ntitle: Note %d\ntags: [benchmark, test]\n---\nThis is benchmark note %d.\n", created, i, i)
		filename := filepath.Join(notesDir, fmt.Sprintf("note_%d.md", i))
		if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
			panic(err)
		}
	}
	fmt.Printf("Generation took: %v\n", time.Since(startGen))

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	opts := []murmur.Option{
		murmur.WithLogger(logger),
		murmur.WithOwner("bench"),
		murmur.WithFormat(".md"),
		murmur.WithVersioning(false),
	}
	ctx := context.Background()

	// Run 1: Cold (parses every file, populates the index cache)
	cold := timeRead(ctx, benchDir, opts)

	// Run 2: Warm. A fresh engine simulates a new CLI invocation reading the
	// persisted cache.
	warm := timeRead(ctx, benchDir, opts)

	engine, err := murmur.Open(ctx, benchDir, opts...)
	if err != nil {
		panic(err)
	}
	defer engine.Close()

	fmt.Println("Running Sync (Run 1 - pushes everything)...")
	firstSync := timeSync(ctx, engine)
	fmt.Println("Running Sync (Run 2 - converged, nothing to move)...")
	secondSync := timeSync(ctx, engine)

	fmt.Printf("--------------------------------------------------\n")
	fmt.Printf("Benchmark Result (%d notes):\n", *count)
	fmt.Printf("  ReadAll cold: %v\n", cold)
	fmt.Printf("  ReadAll warm: %v\n", warm)
	fmt.Printf("  Sync first:   %v\n", firstSync)
	fmt.Printf("  Sync second:  %v\n", secondSync)
	fmt.Printf("--------------------------------------------------\n")
}

func timeRead(ctx context.Context, dir string, opts []murmur.Option) time.Duration {
	engine, err := murmur.Open(ctx, dir, opts...)
	if err != nil {
		panic(err)
	}
	defer engine.Close()

	start := time.Now()
	notes, err := engine.Notes.ReadAll(ctx)
	if err != nil {
		panic(err)
	}
	d := time.Since(start)
	fmt.Printf("ReadAll: %v (Items: %d)\n", d, len(notes))
	return d
}

func timeSync(ctx context.Context, engine *murmur.Engine) time.Duration {
	start := time.Now()
	for _, out := range engine.SyncAll(ctx) {
		fmt.Printf("  %s: %s merged=%d pushed=%d pulled=%d\n", out.Kind, out.Status, out.Merged, out.Pushed, out.Pulled)
	}
	return time.Since(start)
}
