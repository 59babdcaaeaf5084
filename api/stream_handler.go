package api

import (
	"context"
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/manroop79/coding-arena/pkg/run"
)

// handleStream opens the long-lived SSE stream for one observer of a run:
// history replay sorted by timestamp, then live events, with keep-alives.
func (s *Server) handleStream(c *fiber.Ctx) error {
	runID := c.Query("runId")
	if runID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Missing runId"})
	}

	// Tolerate the race between run creation and the observer's first
	// connection attempt before reporting not-found.
	if err := s.streamer.WaitForRun(context.Background(), runID); err != nil {
		var notFound run.ErrNotFound
		if errors.As(err, &notFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "internal error"})
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache, no-transform")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	// io.Pipe + SetBodyStream gives per-frame flushing to the socket and
	// turns an observer disconnect into a write error on the pipe, which
	// ends the pump goroutine. The pump uses context.Background() because
	// fasthttp recycles its RequestCtx after this handler returns while
	// the stream keeps running.
	pr, pw := io.Pipe()
	go func() {
		defer pw.Close()
		if err := s.streamer.Stream(context.Background(), runID, pw); err != nil && !errors.Is(err, io.ErrClosedPipe) {
			s.logger.Debug("observer stream ended",
				zap.String("run_id", runID),
				zap.Error(err),
			)
		}
	}()

	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}
