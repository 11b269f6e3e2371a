package worker

import (
	"RoadVision/internal/api/inspection"
	inspectionService "RoadVision/internal/api/inspection/service"
	contextPkg "RoadVision/pkg/context"
	"RoadVision/pkg/queue"
	"RoadVision/pkg/storage"
	"RoadVision/pkg/utils"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type SourceType string

const (
	SourceImage       SourceType = "image"
	SourceVideo       SourceType = "video"
	SourceUnsupported SourceType = "unsupported"
)

type Stats struct {
	Processed uint64
	Failed    uint64
	InFlight  uint64
}

// Worker is the queue-driven ingestion loop: one message at a time, asset
// fetched to a private scratch file, routed by content type through the
// inspection service, result persisted under the asset's tracking id. The
// scratch file is removed on every exit path once it exists.
type Worker struct {
	log                *logrus.Logger
	queue              queue.IQueue
	storage            storage.ItfStorage
	service            inspectionService.IInspectionService
	validator          *validator.Validate
	utils              utils.IUtils
	scratchDir         string
	strictContentTypes bool
	errLimiter         *rate.Limiter

	processed atomic.Uint64
	failed    atomic.Uint64
	inFlight  atomic.Uint64
}

func New(
	log *logrus.Logger,
	q queue.IQueue,
	st storage.ItfStorage,
	svc inspectionService.IInspectionService,
	validate *validator.Validate,
	utilsInstance utils.IUtils,
) *Worker {
	scratchDir := os.Getenv("WORKER_SCRATCH_DIR")
	if scratchDir == "" {
		scratchDir = os.TempDir()
	}

	return &Worker{
		log:                log,
		queue:              q,
		storage:            st,
		service:            svc,
		validator:          validate,
		utils:              utilsInstance,
		scratchDir:         scratchDir,
		strictContentTypes: os.Getenv("WORKER_STRICT_CONTENT_TYPES") == "true",
		errLimiter:         rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
}

// Run consumes until the context is canceled. A bad job never stops the
// loop; broker errors are paced through the limiter so a broken connection
// does not spin.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("Ingestion worker started")

	for {
		if err := ctx.Err(); err != nil {
			w.log.Info("Ingestion worker stopped")
			return err
		}

		msg, err := w.queue.Consume(ctx)
		if errors.Is(err, queue.ErrNoMessage) {
			continue
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				continue
			}
			if werr := w.errLimiter.Wait(ctx); werr != nil {
				continue
			}
			continue
		}

		w.processMessage(ctx, msg)
	}
}

func (w *Worker) processMessage(ctx context.Context, msg *queue.Message) {
	jobID, err := w.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		jobID = msg.ID
	}
	ctx = contextPkg.WithJobID(ctx, jobID)

	w.inFlight.Add(1)
	defer func() { w.inFlight.Add(^uint64(0)) }()

	var dto inspection.IngestMessage
	if err := jsoniter.Unmarshal(msg.Body, &dto); err != nil {
		w.dropMalformed(ctx, msg, err)
		return
	}
	if err := w.validator.Struct(dto); err != nil {
		w.dropMalformed(ctx, msg, fmt.Errorf("%w: %v", inspection.ErrMalformedMessage, err))
		return
	}

	w.log.WithFields(logrus.Fields{
		"job_id":    jobID,
		"asset_id":  dto.ID,
		"bucket_id": dto.BucketID,
	}).Info("Job received")

	err = w.handleJob(ctx, dto)
	switch {
	case err == nil:
		w.processed.Add(1)
		if ackErr := w.queue.Ack(ctx, msg.ID); ackErr != nil {
			w.log.WithFields(logrus.Fields{
				"job_id": jobID,
				"error":  ackErr.Error(),
			}).Error("Failed to ack completed job")
		}
	case isTerminal(err):
		// Retrying cannot succeed, ack and drop.
		w.failed.Add(1)
		w.log.WithFields(logrus.Fields{
			"job_id":   jobID,
			"asset_id": dto.ID,
			"error":    err.Error(),
		}).Error("Job failed permanently")
		if ackErr := w.queue.Ack(ctx, msg.ID); ackErr != nil {
			w.log.WithFields(logrus.Fields{
				"job_id": jobID,
				"error":  ackErr.Error(),
			}).Error("Failed to ack failed job")
		}
	default:
		// Transient: leave the entry pending so another instance can claim it.
		w.failed.Add(1)
		w.log.WithFields(logrus.Fields{
			"job_id":   jobID,
			"asset_id": dto.ID,
			"error":    err.Error(),
		}).Error("Job failed, left pending for redelivery")
	}
}

func (w *Worker) handleJob(ctx context.Context, dto inspection.IngestMessage) error {
	jobID := contextPkg.GetJobID(ctx)

	meta, err := w.storage.GetMetadata(ctx, dto.ID, dto.BucketID)
	if err != nil {
		return fmt.Errorf("%w: %v", inspection.ErrFetchFailed, err)
	}

	srcType := w.classifySource(meta.MimeType)
	if srcType == SourceUnsupported {
		return fmt.Errorf("%w: %s", inspection.ErrUnsupportedContentType, meta.MimeType)
	}

	scratch, err := w.utils.ScratchFilePath(w.scratchDir, dto.ID, meta.Name)
	if err != nil {
		return err
	}

	if err := w.storage.Download(ctx, dto.ID, dto.BucketID, scratch); err != nil {
		// A partial scratch file may exist after a failed download.
		w.removeScratch(ctx, scratch)
		return fmt.Errorf("%w: %v", inspection.ErrFetchFailed, err)
	}
	defer w.removeScratch(ctx, scratch)

	w.log.WithFields(logrus.Fields{
		"job_id":       jobID,
		"asset_id":     dto.ID,
		"asset_name":   meta.Name,
		"content_type": meta.MimeType,
		"source_type":  string(srcType),
	}).Debug("Asset fetched")

	switch srcType {
	case SourceImage:
		result, err := w.service.ProcessImageFile(ctx, scratch, map[string]string{
			"asset_name": meta.Name,
			"bucket_id":  dto.BucketID,
		})
		if err != nil {
			return err
		}
		return w.service.SaveImageResult(ctx, result, dto.ID)
	default:
		result, err := w.service.ProcessVideoFile(ctx, scratch)
		if err != nil {
			return err
		}
		return w.service.SaveVideoResult(ctx, result, dto.ID)
	}
}

// classifySource routes by MIME type. Unknown types fall through to the video
// path for compatibility with container formats the uploader does not label,
// unless strict mode demands rejection.
func (w *Worker) classifySource(mimeType string) SourceType {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return SourceImage
	case strings.HasPrefix(mimeType, "video/"):
		return SourceVideo
	case w.strictContentTypes:
		return SourceUnsupported
	default:
		return SourceVideo
	}
}

func (w *Worker) dropMalformed(ctx context.Context, msg *queue.Message, err error) {
	w.failed.Add(1)
	w.log.WithFields(logrus.Fields{
		"job_id":     contextPkg.GetJobID(ctx),
		"message_id": msg.ID,
		"error":      err.Error(),
	}).Warn("Dropping malformed queue message")

	if ackErr := w.queue.Ack(ctx, msg.ID); ackErr != nil {
		w.log.WithFields(logrus.Fields{
			"message_id": msg.ID,
			"error":      ackErr.Error(),
		}).Error("Failed to ack malformed message")
	}
}

// removeScratch is non-fatal: a leaked scratch file is a disk-space risk, not
// a job failure, but it must show up in the logs.
func (w *Worker) removeScratch(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		w.log.WithFields(logrus.Fields{
			"job_id": contextPkg.GetJobID(ctx),
			"path":   path,
			"error":  err.Error(),
		}).Warn("Failed to remove scratch file")
	}
}

func (w *Worker) Stats() Stats {
	return Stats{
		Processed: w.processed.Load(),
		Failed:    w.failed.Load(),
		InFlight:  w.inFlight.Load(),
	}
}

func isTerminal(err error) bool {
	return errors.Is(err, inspection.ErrUnsupportedContentType) ||
		errors.Is(err, inspection.ErrInferenceFailed) ||
		errors.Is(err, inspection.ErrMalformedMessage)
}
