package context

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

const JobIDKey = "job_id"

func WithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, JobIDKey, jobID)
}

func GetJobID(ctx context.Context) string {
	jobID, ok := ctx.Value(JobIDKey).(string)
	if !ok || jobID == "" {
		return "unknown"
	}
	return jobID
}

func FromFiberCtx(c *fiber.Ctx) context.Context {
	ctx := context.Background()

	requestID, ok := c.Locals("X-Request-ID").(string)
	if !ok || requestID == "" {
		requestID = c.Get("X-Request-ID")

		if requestID == "" {
			requestID = "unknown"
		}
	}

	return WithJobID(ctx, requestID)
}
