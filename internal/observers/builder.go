package observers

import (
	"fmt"

	"github.com/thomas-vilte/issuebot/internal/config"
	"github.com/thomas-vilte/issuebot/internal/monitor"
)

// Build returns the observers enabled in cfg, in a fixed registration order:
// log first, then triage. labeler may be nil when triage is disabled.
func Build(cfg config.ObserversConfig, labeler Labeler) ([]monitor.Observer, error) {
	var list []monitor.Observer

	if cfg.Log.Enabled {
		list = append(list, NewLogObserver())
	}

	if cfg.Triage.Enabled {
		if labeler == nil && !cfg.Triage.DryRun {
			return nil, fmt.Errorf("triage observer needs a labeler")
		}
		list = append(list, NewTriageObserver(labeler, cfg.Triage.Label,
			WithCollaborators(cfg.Triage.Collaborators...),
			WithDryRun(cfg.Triage.DryRun)))
	}

	return list, nil
}
