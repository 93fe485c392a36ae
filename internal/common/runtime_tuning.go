package common

import (
	"os"
	"runtime"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

// Runtime profiles by available CPU. The engine is I/O bound (RPC and
// provider calls dominate), so the defaults favor low GC churn over heap
// thrift.
const (
	smallServerGOGC     = 400
	smallServerMemLimit = 2.5 * 1024 * 1024 * 1024 // 2.5GB

	largeServerGOGC     = 600
	largeServerMemLimit = 8 * 1024 * 1024 * 1024 // 8GB
)

func detectServerProfile() (gogc int, memLimit int64) {
	if runtime.NumCPU() <= 2 {
		return smallServerGOGC, int64(smallServerMemLimit)
	}
	return largeServerGOGC, int64(largeServerMemLimit)
}

// InitRuntimeTuning applies GC defaults sized to the host. Environment
// variables GOGC and GOMEMLIMIT always win when set.
func InitRuntimeTuning() {
	defaultGOGC, defaultMemLimit := detectServerProfile()

	if os.Getenv("GOGC") == "" {
		debug.SetGCPercent(defaultGOGC)
		log.Info().
			Int("GOGC", defaultGOGC).
			Msg("[runtime] set GOGC")
	}

	// GOMEMLIMIT is the safety net for the relaxed GOGC above.
	if os.Getenv("GOMEMLIMIT") == "" {
		debug.SetMemoryLimit(defaultMemLimit)
		log.Info().
			Int64("GOMEMLIMIT_bytes", defaultMemLimit).
			Msg("[runtime] set memory limit")
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	log.Info().
		Int("num_cpu", runtime.NumCPU()).
		Int("gomaxprocs", runtime.GOMAXPROCS(0)).
		Uint64("heap_alloc_mb", memStats.HeapAlloc/1024/1024).
		Str("go_version", runtime.Version()).
		Msg("[runtime] current runtime settings")
}
