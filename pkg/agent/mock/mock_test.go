package mock_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/manroop79/coding-arena/pkg/agent"
	"github.com/manroop79/coding-arena/pkg/agent/mock"
	"github.com/manroop79/coding-arena/pkg/diff"
)

// runScript executes the adapter synchronously and collects its sequence.
// The channel is buffered well past the script length so Run never blocks.
func runScript(a *mock.Adapter, input agent.RunInput) []agent.Event {
	out := make(chan agent.Event, 64)
	Expect(a.Run(context.Background(), input, out)).To(Succeed())
	close(out)

	var events []agent.Event
	for ev := range out {
		events = append(events, ev)
	}
	return events
}

var _ = Describe("Adapter", func() {
	var adapter *mock.Adapter

	BeforeEach(func() {
		adapter = mock.New(diff.NewStore(), mock.WithStepDelay(0))
	})

	It("is always available", func() {
		Expect(adapter.ID()).To(Equal(agent.MockAgentID))
		Expect(adapter.DisplayName()).To(Equal("Mock Agent"))
		Expect(adapter.Available(nil)).To(BeTrue())
	})

	It("emits the fixed script shape without attachments", func() {
		events := runScript(adapter, agent.RunInput{Prompt: "add a handler"})

		types := make([]agent.EventType, len(events))
		for i, ev := range events {
			types[i] = ev.Type
		}
		Expect(types).To(Equal([]agent.EventType{
			agent.TypeStatus,   // connecting
			agent.TypeStatus,   // streaming
			agent.TypeMessage,  // thinking
			agent.TypeToolCall, // pending
			agent.TypeToolCall, // succeeded
			agent.TypeFileDiff,
			agent.TypeMessage,
			agent.TypeStatus, // done
		}))

		Expect(events[0].Status).To(Equal(agent.StatusConnecting))
		Expect(events[1].Status).To(Equal(agent.StatusStreaming))
		Expect(events[len(events)-1].Status).To(Equal(agent.StatusDone))
	})

	It("tags every event with the mock agent id", func() {
		events := runScript(adapter, agent.RunInput{Prompt: "p"})

		for _, ev := range events {
			Expect(ev.AgentID).To(Equal(agent.MockAgentID))
		}
	})

	It("emits exactly one terminal done status", func() {
		events := runScript(adapter, agent.RunInput{Prompt: "p"})

		var doneCount int
		for _, ev := range events {
			if ev.Type == agent.TypeStatus && ev.Status == agent.StatusDone {
				doneCount++
			}
		}
		Expect(doneCount).To(Equal(1))
		Expect(events[len(events)-1].Status).To(Equal(agent.StatusDone))
	})

	It("echoes the prompt truncated to 80 characters", func() {
		long := strings.Repeat("p", 200)
		events := runScript(adapter, agent.RunInput{Prompt: long})

		Expect(events[2].Content).To(Equal("Thinking about: " + strings.Repeat("p", 80)))
	})

	It("pairs the tool call transitions under one call id", func() {
		events := runScript(adapter, agent.RunInput{Prompt: "p"})

		pending := events[3]
		succeeded := events[4]

		Expect(pending.Status).To(Equal(agent.ToolPending))
		Expect(pending.ToolName).To(Equal("search_codebase"))
		Expect(succeeded.Status).To(Equal(agent.ToolSucceeded))
		Expect(succeeded.CallID).To(Equal(pending.CallID))
		Expect(succeeded.ResultSummary).To(Equal("Found 3 candidate files."))
	})

	It("emits a stub file diff as pure insertions on first run", func() {
		events := runScript(adapter, agent.RunInput{Prompt: "p"})

		fd := events[5]
		Expect(fd.FilePath).To(Equal("workspace/main.go"))
		Expect(fd.Summary).To(Equal("Added TODO comment and handler stub"))
		Expect(fd.Diff).To(ContainSubstring("--- a/workspace/main.go"))
		Expect(fd.Diff).To(ContainSubstring("+func handler() {}"))
	})

	It("diffs a second run against the first run's content", func() {
		runScript(adapter, agent.RunInput{Prompt: "p"})
		events := runScript(adapter, agent.RunInput{Prompt: "p"})

		// Same content both times, so the second diff is all context lines.
		fd := events[5]
		Expect(fd.Diff).To(Equal("--- a/workspace/main.go\n+++ b/workspace/main.go\n // TODO: implement run start\n func handler() {}\n "))
	})

	Context("with attachments", func() {
		It("inserts an attachment message after the streaming status", func() {
			events := runScript(adapter, agent.RunInput{
				Prompt: "p",
				Attachments: []agent.AttachmentMeta{
					{Name: "notes.txt", Type: "text/plain", Size: 10},
					{Name: "spec.pdf", Type: "application/pdf", Size: 999},
				},
			})

			Expect(events[2].Type).To(Equal(agent.TypeMessage))
			Expect(events[2].Content).To(ContainSubstring("Attachments received: notes.txt, spec.pdf"))
			Expect(events[3].Content).To(HavePrefix("Thinking about: "))
		})

		It("summarizes and previews a small on-disk text attachment", func() {
			dir := GinkgoT().TempDir()
			path := filepath.Join(dir, "notes.txt")
			Expect(os.WriteFile(path, []byte("alpha beta gamma delta"), 0o644)).To(Succeed())

			events := runScript(adapter, agent.RunInput{
				Prompt: "p",
				Attachments: []agent.AttachmentMeta{
					{Name: "notes.txt", Type: "text/plain", Size: 22, Path: path},
				},
			})

			Expect(events[2].Content).To(ContainSubstring("Summary: alpha beta gamma delta"))
			Expect(events[2].Content).To(ContainSubstring("Preview:\nalpha beta gamma delta"))
		})

		It("degrades to the name listing when the file is unreadable", func() {
			events := runScript(adapter, agent.RunInput{
				Prompt: "p",
				Attachments: []agent.AttachmentMeta{
					{Name: "gone.txt", Type: "text/plain", Size: 10, Path: "/nonexistent/gone.txt"},
				},
			})

			Expect(events[2].Content).To(Equal("Attachments received: gone.txt"))
		})
	})

	It("stops emitting once the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		out := make(chan agent.Event) // unbuffered, nothing receives
		err := adapter.Run(ctx, agent.RunInput{Prompt: "p"}, out)

		Expect(err).To(MatchError(context.Canceled))
	})
})
