package tasks

import (
	"fmt"

	"github.com/desertthunder/poseup/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Percent int    // Cumulative progress, 0-100
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	UploadStarted Phase = iota
	BatchCompleted
	UploadFinished
	UploadAborted
	DownloadStarted
	ResourceSaved
	ResourceFailed
	DownloadFinished
)

func (p Phase) String() string {
	switch p {
	case UploadStarted:
		return "upload_started"
	case BatchCompleted:
		return "batch_completed"
	case UploadFinished:
		return "upload_finished"
	case UploadAborted:
		return "upload_aborted"
	case DownloadStarted:
		return "download_started"
	case ResourceSaved:
		return "resource_saved"
	case ResourceFailed:
		return "resource_failed"
	case DownloadFinished:
		return "download_finished"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
		// Channel full, skip this update
	}
}

func uploadStartedUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadStarted,
		Step:    0,
		Total:   total,
		Percent: 0,
		Message: AnalysingMessage,
	}
}

func batchCompletedUpdate(step, total, percent int, ack *models.UploadAck) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BatchCompleted,
		Step:    step,
		Total:   total,
		Percent: percent,
		Message: fmt.Sprintf("[%d/%d] batch uploaded", step, total),
		Data:    ack,
	}
}

func uploadFinishedUpdate(total int, message string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadFinished,
		Step:    total,
		Total:   total,
		Percent: 100,
		Message: message,
	}
}

func uploadAbortedUpdate(step, total, percent int, detail string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadAborted,
		Step:    step,
		Total:   total,
		Percent: percent,
		Message: detail,
	}
}

func downloadStartedUpdate(total int, kind ResourceKind) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DownloadStarted,
		Total:   total,
		Message: fmt.Sprintf("Downloading %d %s...", total, kind),
	}
}

func resourceSavedUpdate(step, total int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResourceSaved,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, path),
		Data:    path,
	}
}

func resourceFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResourceFailed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}

func downloadFinishedUpdate(result *DownloadAllResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DownloadFinished,
		Step:    result.Attempted,
		Total:   result.Attempted,
		Message: fmt.Sprintf("Saved %d of %d %s", len(result.Saved), result.Attempted, result.Kind),
		Data:    result,
	}
}
