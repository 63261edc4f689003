// Package tasks runs the client's multi-step transfers with real-time progress reporting.
//
// # Batch Upload
//
// [UploadController] owns the file selection and runs uploads:
//
//  1. The selection is split by [Partition] into fixed-size, order-preserving batches.
//  2. Batches are submitted one at a time. Batch N starts only after batch N-1 returned.
//  3. After each batch, progress becomes round(100 * completed / total).
//  4. The first failure aborts the run. Progress freezes and the server's detail becomes the message.
//
// The selection survives success and failure alike and is only cleared by [UploadController.RemoveAll].
//
// # Downloads
//
// [Downloader] saves single resources and runs best-effort download-all over a listing. A failed item is
// logged and the run moves on. An optional [rate.Limiter] paces attempts.
//
// # Media Sources
//
// [Player] materializes streamed videos as temp files. [Gallery] owns one per rendered video and releases
// them on replacement and unmount.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
// Updates use select with default to prevent blocking.
package tasks
