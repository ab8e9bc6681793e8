package inspector

import (
	"context"

	"github.com/superstream/sdk-go/core/ssclient"
)

// Stats is a point-in-time summary of every stream of the program.
type Stats struct {
	// At is the ledger time the summary was taken at.
	At uint64

	Total   int
	Prepaid int
	// Active streams have not stopped yet.
	Active int
	Paused int
	// Stopped streams have ended or been cancelled.
	Stopped   int
	Insolvent int
}

// CollectStats fetches every stream and summarizes it against the given
// ledger time.
func CollectStats(ctx context.Context, client *ssclient.Client, at uint64) (Stats, error) {
	streams, err := client.GetAllStreams(ctx, nil)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{At: at, Total: len(streams)}
	for _, s := range streams {
		if s.IsPrepaid {
			stats.Prepaid++
		}
		if s.HasStopped(at) {
			stats.Stopped++
			continue
		}

		stats.Active++
		if s.IsPaused {
			stats.Paused++
		}
		solvent, err := s.IsSolvent(at)
		if err != nil {
			return Stats{}, err
		}
		if !solvent {
			stats.Insolvent++
		}
	}
	return stats, nil
}
