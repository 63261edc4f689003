package tasks

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/poseup/internal/models"
	"github.com/desertthunder/poseup/internal/services"
	"github.com/desertthunder/poseup/internal/shared"
)

// AnalysingMessage is shown while a run is in flight.
const AnalysingMessage = "Videos sent! Analysing..."

// BatchSubmitter uploads one batch. [*services.Client] implements it.
type BatchSubmitter interface {
	ProcessBatch(ctx context.Context, batch []models.SelectedFile, mode string) (*models.UploadAck, error)
}

// UploadState is the lifecycle state of the [UploadController].
type UploadState int

const (
	Idle UploadState = iota
	Running
	Succeeded
	Failed
)

func (s UploadState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// UploadOutcome is the observable state of the current or last run.
type UploadOutcome struct {
	RunID            string
	Mode             string
	CompletedBatches int
	TotalBatches     int
	Progress         int
	State            UploadState
	Message          string
	LastError        error
}

// UploadController partitions the selection into batches and submits them strictly in order, stopping at the
// first failure.
//
// The selection belongs to the controller and is only cleared by [UploadController.RemoveAll].
type UploadController struct {
	submitter BatchSubmitter
	batchSize int
	logger    *log.Logger

	mu        sync.Mutex
	selection []models.SelectedFile
	outcome   UploadOutcome
}

// NewUploadController creates an [UploadController]. A batchSize below 1 is treated as 1.
func NewUploadController(submitter BatchSubmitter, batchSize int, logger *log.Logger) *UploadController {
	if batchSize < 1 {
		batchSize = 1
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &UploadController{submitter: submitter, batchSize: batchSize, logger: logger}
}

// BatchSize returns the configured chunk size.
func (u *UploadController) BatchSize() int { return u.batchSize }

// Batches returns how many batches the current selection splits into. A run sends at most Batches()+2
// progress updates.
func (u *UploadController) Batches() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return (len(u.selection) + u.batchSize - 1) / u.batchSize
}

// Select appends files to the selection.
func (u *UploadController) Select(files ...models.SelectedFile) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.selection = append(u.selection, files...)
}

// Selection returns a copy of the current selection.
func (u *UploadController) Selection() []models.SelectedFile {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]models.SelectedFile(nil), u.selection...)
}

// RemoveAll clears the selection and resets progress and message. It is refused while a run is in flight.
func (u *UploadController) RemoveAll() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.outcome.State == Running {
		return shared.ErrUploadInProgress
	}
	u.selection = nil
	u.outcome = UploadOutcome{State: Idle}
	return nil
}

// Snapshot returns the current outcome.
func (u *UploadController) Snapshot() UploadOutcome {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.outcome
}

// Upload runs every batch of the selection in mode.
//
// An empty selection is a no-op and returns (nil, nil). A failed batch ends the run: later batches are never
// submitted, progress keeps its last value and the outcome message is the failure detail.
func (u *UploadController) Upload(ctx context.Context, mode string, progress chan<- ProgressUpdate) (*UploadOutcome, error) {
	u.mu.Lock()
	if len(u.selection) == 0 {
		u.mu.Unlock()
		return nil, nil
	}
	if strings.TrimSpace(mode) == "" {
		u.mu.Unlock()
		return nil, &shared.ValidationError{Field: "mode", Message: "Select an analysis mode"}
	}
	if u.outcome.State == Running {
		u.mu.Unlock()
		return nil, shared.ErrUploadInProgress
	}

	batches := Partition(u.selection, u.batchSize)
	files := len(u.selection)
	total := len(batches)
	u.outcome = UploadOutcome{
		RunID:        shared.GenerateID(),
		Mode:         mode,
		TotalBatches: total,
		State:        Running,
		Message:      AnalysingMessage,
	}
	runID := u.outcome.RunID
	u.mu.Unlock()

	logger := shared.WithLogger(u.logger, "run", runID, "mode", mode)
	logger.Info("upload started", "files", files, "batches", total)
	sendProgress(progress, uploadStartedUpdate(total))

	for i, batch := range batches {
		ack, err := u.submitter.ProcessBatch(ctx, batch, mode)
		if err != nil {
			detail := services.DetailOf(err)

			u.mu.Lock()
			u.outcome.State = Failed
			u.outcome.Message = detail
			u.outcome.LastError = err
			out := u.outcome
			u.mu.Unlock()

			logger.Error("batch failed", "batch", i+1, "of", total, "detail", detail, "error", err)
			sendProgress(progress, uploadAbortedUpdate(i, total, out.Progress, detail))
			return &out, fmt.Errorf("batch %d of %d failed: %w", i+1, total, err)
		}

		pct := batchProgress(i+1, total)

		u.mu.Lock()
		u.outcome.CompletedBatches = i + 1
		u.outcome.Progress = pct
		u.mu.Unlock()

		logger.Debug("batch uploaded", "batch", i+1, "of", total, "progress", pct)
		sendProgress(progress, batchCompletedUpdate(i+1, total, pct, ack))
	}

	message := fmt.Sprintf("Successfully uploaded all files in %s mode", mode)

	u.mu.Lock()
	u.outcome.State = Succeeded
	u.outcome.Progress = 100
	u.outcome.Message = message
	out := u.outcome
	u.mu.Unlock()

	logger.Info("upload finished", "batches", total)
	sendProgress(progress, uploadFinishedUpdate(total, message))
	return &out, nil
}

// Partition slices files into fixed-size, order-preserving chunks. A size below 1 is treated as 1.
func Partition(files []models.SelectedFile, size int) [][]models.SelectedFile {
	if size < 1 {
		size = 1
	}

	batches := make([][]models.SelectedFile, 0, (len(files)+size-1)/size)
	for start := 0; start < len(files); start += size {
		end := min(start+size, len(files))
		batches = append(batches, files[start:end:end])
	}
	return batches
}

// batchProgress returns round(100 * done / total), rounding halves up.
func batchProgress(done, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}
