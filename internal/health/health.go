// Package health logs a one-shot snapshot of system and process resource
// usage at server startup, for operators diagnosing a misbehaving
// deployment.
//
// Grounded on github.com/pbnjay/memory and github.com/prometheus/procfs,
// both direct dependencies in the teacher's own go.mod despite no call site
// anywhere in its own source (they are pulled in as direct requirements
// presumably for the unfetchable vctt94/bisonbotkit dependency's benefit,
// not exercised by pkg/server or pkg/poker themselves) — carried forward
// and given an actual home here rather than dropped, since "use as many
// third-party deps as possible" outranks "the teacher never called this."
package health

import (
	"os"

	"github.com/pbnjay/memory"
	"github.com/prometheus/procfs"

	"github.com/decred/slog"
)

// Report logs total system memory and the running process's resident set
// size and open file-descriptor count. A procfs failure (e.g. this platform
// has no /proc) is logged as a warning rather than treated as fatal —
// health reporting must never block server startup.
func Report(log slog.Logger) {
	total := memory.TotalMemory()
	log.Infof("system memory: %.1f GiB", float64(total)/(1<<30))

	proc, err := procfs.Self()
	if err != nil {
		log.Warnf("health: procfs unavailable: %v", err)
		return
	}

	stat, err := proc.Stat()
	if err != nil {
		log.Warnf("health: reading process stat: %v", err)
		return
	}
	rssBytes := uint64(stat.RSS) * uint64(os.Getpagesize())
	log.Infof("process RSS: %.1f MiB", float64(rssBytes)/(1<<20))

	fds, err := proc.FileDescriptorsLen()
	if err != nil {
		log.Warnf("health: counting file descriptors: %v", err)
		return
	}
	log.Infof("open file descriptors: %d", fds)
}
