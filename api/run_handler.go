package api

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/manroop79/coding-arena/pkg/agent"
	"github.com/manroop79/coding-arena/pkg/run"
	"github.com/manroop79/coding-arena/pkg/utils"
)

// runRequest is the structured submission body.
type runRequest struct {
	Prompt      string                 `json:"prompt"`
	Agents      []string               `json:"agents"`
	Attachments []agent.AttachmentMeta `json:"attachments"`
}

// runResponse is returned on successful submission.
type runResponse struct {
	RunID             string   `json:"runId"`
	Run               *run.Run `json:"run"`
	UnavailableAgents []string `json:"unavailableAgents"`
}

// handleCreateRun accepts a JSON or multipart submission, creates the run,
// and launches the selected adapters in the background. The response
// returns immediately; orchestration failures surface only as logged
// events on the run itself.
func (s *Server) handleCreateRun(c *fiber.Ctx) error {
	var req runRequest

	contentType := c.Get(fiber.HeaderContentType)
	if strings.Contains(contentType, fiber.MIMEApplicationJSON) {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Invalid request body"})
		}
	} else {
		parsed, err := s.parseMultipart(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Invalid request body"})
		}
		req = *parsed
	}

	if strings.TrimSpace(req.Prompt) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Prompt is required"})
	}

	requested := make([]string, 0, len(req.Agents))
	for _, id := range req.Agents {
		if id != "" {
			requested = append(requested, id)
		}
	}
	if len(requested) == 0 {
		requested = []string{agent.MockAgentID}
	}

	attachments := req.Attachments
	if attachments == nil {
		attachments = []agent.AttachmentMeta{}
	}
	for i := range attachments {
		if attachments[i].ID == "" {
			attachments[i].ID = uuid.NewString()
		}
	}

	adapters, unavailable := agent.Resolve(requested, s.adapters, s.cfg)

	s.logger.Info("run submitted",
		zap.String("prompt", utils.Truncate(req.Prompt, 80)),
		zap.Strings("agents", requested),
		zap.Strings("unavailable", unavailable),
		zap.Int("attachments", len(attachments)),
	)

	created := s.registry.CreateRun(req.Prompt, attachments, requested)

	input := agent.RunInput{
		RunID:        created.ID,
		Prompt:       req.Prompt,
		Attachments:  attachments,
		WorkspaceDir: s.config.WorkspaceDir,
		UploadDir:    s.config.UploadDir,
	}

	// Fire and forget: the submitter never waits on orchestration.
	go s.orch.StartAgents(context.Background(), created, adapters, input)

	snapshot, err := s.registry.Snapshot(created.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "internal error"})
	}

	return c.Status(fiber.StatusCreated).JSON(runResponse{
		RunID:             created.ID,
		Run:               snapshot,
		UnavailableAgents: unavailable,
	})
}

// parseMultipart extracts the prompt, agent list, and attachment files
// from a multipart submission, persisting each file into the upload
// directory under a collision-free generated name. Per-file persistence
// failures are logged and the file skipped.
func (s *Server) parseMultipart(c *fiber.Ctx) (*runRequest, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}

	req := &runRequest{}
	if vals := form.Value["prompt"]; len(vals) > 0 {
		req.Prompt = vals[0]
	}
	for _, id := range form.Value["agents"] {
		if id != "" {
			req.Agents = append(req.Agents, id)
		}
	}

	files := form.File["attachments"]
	if len(files) == 0 {
		return req, nil
	}

	if err := os.MkdirAll(s.config.UploadDir, 0o755); err != nil {
		return nil, err
	}

	for _, file := range files {
		name := uuid.NewString() + "-" + filepath.Base(file.Filename)
		target := filepath.Join(s.config.UploadDir, name)

		if err := c.SaveFile(file, target); err != nil {
			s.logger.Error("failed to persist attachment",
				zap.String("name", file.Filename),
				zap.Error(err),
			)
			continue
		}

		req.Attachments = append(req.Attachments, agent.AttachmentMeta{
			ID:   uuid.NewString(),
			Name: file.Filename,
			Type: file.Header.Get("Content-Type"),
			Size: file.Size,
			Path: target,
		})
	}

	return req, nil
}
