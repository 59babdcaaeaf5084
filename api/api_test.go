package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/manroop79/coding-arena/pkg/agent"
	"github.com/manroop79/coding-arena/pkg/agent/mock"
	"github.com/manroop79/coding-arena/pkg/agent/openai"
	"github.com/manroop79/coding-arena/pkg/config"
	"github.com/manroop79/coding-arena/pkg/diff"
	"github.com/manroop79/coding-arena/pkg/run"
	"github.com/manroop79/coding-arena/pkg/stream"
)

var _ = Describe("Server", func() {
	var (
		server   *Server
		registry *run.Registry
		cfg      *config.Config
	)

	BeforeEach(func() {
		logger := zap.NewNop()
		cfg = config.NewDefaultConfig()

		diffs := diff.NewStore()
		mockAdapter := mock.New(diffs, mock.WithStepDelay(0))
		adapters := []agent.Adapter{
			mockAdapter,
			openai.New(cfg, diffs, mockAdapter),
		}

		registry = run.NewRegistry(run.NewBus(logger), logger)
		orch := run.NewOrchestrator(registry, logger)
		streamer := stream.New(registry, logger,
			stream.WithAttachRetry(0, time.Millisecond),
		)

		server = NewServer(Config{
			ListenAddr:   ":0",
			UploadDir:    GinkgoT().TempDir(),
			WorkspaceDir: GinkgoT().TempDir(),
		}, cfg, registry, orch, streamer, adapters, logger)
	})

	jsonRequest := func(method, target string, body string) *http.Response {
		req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := server.app.Test(req, 5000)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	decode := func(resp *http.Response, out any) {
		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(json.Unmarshal(body, out)).To(Succeed())
	}

	Describe("GET /ping", func() {
		It("responds with pong", func() {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(Equal(`"pong"`))
		})
	})

	Describe("GET /api/agents", func() {
		It("lists each adapter with its availability", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body struct {
				Agents []agentInfo `json:"agents"`
			}
			decode(resp, &body)

			Expect(body.Agents).To(HaveLen(2))
			Expect(body.Agents[0].ID).To(Equal(agent.MockAgentID))
			Expect(body.Agents[0].Available).To(BeTrue())
			Expect(body.Agents[1].ID).To(Equal("openai-agent"))
			Expect(body.Agents[1].Available).To(BeFalse())
		})
	})

	Describe("POST /api/run", func() {
		It("rejects malformed JSON", func() {
			resp := jsonRequest(http.MethodPost, "/api/run", "{not json")
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

			var body ErrorResponse
			decode(resp, &body)
			Expect(body.Error).To(Equal("Invalid request body"))
		})

		It("rejects a missing prompt", func() {
			resp := jsonRequest(http.MethodPost, "/api/run", `{"agents":["mock-agent"]}`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

			var body ErrorResponse
			decode(resp, &body)
			Expect(body.Error).To(Equal("Prompt is required"))
		})

		It("rejects a whitespace-only prompt", func() {
			resp := jsonRequest(http.MethodPost, "/api/run", `{"prompt":"   "}`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("creates a run and returns its initial snapshot", func() {
			resp := jsonRequest(http.MethodPost, "/api/run", `{"prompt":"fix it","agents":["mock-agent"]}`)
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var body runResponse
			decode(resp, &body)

			Expect(body.RunID).NotTo(BeEmpty())
			Expect(body.Run).NotTo(BeNil())
			Expect(body.Run.ID).To(Equal(body.RunID))
			Expect(body.Run.Prompt).To(Equal("fix it"))
			Expect(body.Run.Agents).To(Equal([]string{"mock-agent"}))
			Expect(body.UnavailableAgents).To(BeEmpty())

			Expect(registry.Has(body.RunID)).To(BeTrue())
		})

		It("defaults to the mock agent when no agents are named", func() {
			resp := jsonRequest(http.MethodPost, "/api/run", `{"prompt":"fix it"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var body runResponse
			decode(resp, &body)
			Expect(body.Run.Agents).To(Equal([]string{agent.MockAgentID}))
		})

		It("keys the run by requested ids and reports unresolvable ones", func() {
			resp := jsonRequest(http.MethodPost, "/api/run", `{"prompt":"fix it","agents":["nope","mock-agent"]}`)
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var body runResponse
			decode(resp, &body)

			Expect(body.Run.Agents).To(Equal([]string{"nope", "mock-agent"}))
			Expect(body.UnavailableAgents).To(Equal([]string{"nope"}))
			Expect(body.Run.EventsByAgent).To(HaveKey("nope"))
		})

		It("eventually records the scripted sequence on the run", func() {
			resp := jsonRequest(http.MethodPost, "/api/run", `{"prompt":"fix it","agents":["mock-agent"]}`)
			var body runResponse
			decode(resp, &body)

			Eventually(func() int {
				snapshot, err := registry.Snapshot(body.RunID)
				if err != nil {
					return 0
				}
				return len(snapshot.EventsByAgent[agent.MockAgentID])
			}, time.Second).Should(BeNumerically(">=", 8))
		})

		It("accepts a multipart submission and persists attachments", func() {
			var buf bytes.Buffer
			form := multipart.NewWriter(&buf)
			Expect(form.WriteField("prompt", "review this file")).To(Succeed())
			Expect(form.WriteField("agents", "mock-agent")).To(Succeed())

			part, err := form.CreateFormFile("attachments", "notes.txt")
			Expect(err).NotTo(HaveOccurred())
			_, err = part.Write([]byte("attachment body"))
			Expect(err).NotTo(HaveOccurred())
			Expect(form.Close()).To(Succeed())

			req := httptest.NewRequest(http.MethodPost, "/api/run", &buf)
			req.Header.Set("Content-Type", form.FormDataContentType())
			resp, err := server.app.Test(req, 5000)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var body runResponse
			decode(resp, &body)

			Expect(body.Run.Attachments).To(HaveLen(1))
			att := body.Run.Attachments[0]
			Expect(att.ID).NotTo(BeEmpty())
			Expect(att.Name).To(Equal("notes.txt"))
			Expect(att.Size).To(Equal(int64(len("attachment body"))))
			Expect(filepath.Dir(att.Path)).To(Equal(server.config.UploadDir))

			saved, err := os.ReadFile(att.Path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(saved)).To(Equal("attachment body"))
		})
	})

	Describe("GET /api/stream", func() {
		It("rejects a missing runId", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/stream", nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

			var body ErrorResponse
			decode(resp, &body)
			Expect(body.Error).To(Equal("Missing runId"))
		})

		It("responds not found for an unknown run", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/stream?runId=missing", nil)
			resp, err := server.app.Test(req, 5000)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})
})
