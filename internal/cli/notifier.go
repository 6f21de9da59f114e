package cli

import (
	"fmt"

	"github.com/verdantlab/ranger/internal/models"
	ranger "github.com/verdantlab/ranger/internal/sync"
)

// printNotifier surfaces flush progress on stdout. When the user has
// minimized progress, per-item events are suppressed and only the final
// summary is printed.
type printNotifier struct {
	orch *ranger.Orchestrator
}

func (n *printNotifier) SubmissionConfirmed(item models.QueueItem, receipt models.Receipt) {
	if n.orch != nil && n.orch.Minimized() {
		return
	}
	fmt.Printf("Tree submission %s confirmed, tx %s\n", item.OfflineID, receipt.TxHash)
}

func (n *printNotifier) SubmissionFailed(item models.QueueItem, reason string) {
	if n.orch != nil && n.orch.Minimized() {
		return
	}
	fmt.Printf("Tree submission %s failed: %s (kept in queue)\n", item.OfflineID, reason)
}

func (n *printNotifier) FlushFinished(kind models.QueueKind, confirmed, failed int) {
	if confirmed == 0 && failed == 0 {
		return
	}
	fmt.Printf("Flush %s finished: %d confirmed, %d failed\n", kind, confirmed, failed)
}
