package main

import (
	"os"
	"runtime"
	"runtime/pprof"

	"go.uber.org/zap"
)

// profiled runs fn. When path is set it logs the allocations fn made and
// writes a heap profile to path afterwards.
func profiled(path string, log *zap.Logger, fn func() error) error {
	if path == "" {
		return fn()
	}
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	if err := fn(); err != nil {
		return err
	}
	runtime.ReadMemStats(&after)
	log.Info("Prediction memory",
		zap.Uint64("alloc_bytes", after.TotalAlloc-before.TotalAlloc),
		zap.Uint64("mallocs", after.Mallocs-before.Mallocs),
		zap.Uint64("heap_inuse", after.HeapInuse),
	)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	runtime.GC() // up-to-date statistics
	err = pprof.WriteHeapProfile(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	log.Info("Wrote heap profile", zap.String("path", path))
	return nil
}
