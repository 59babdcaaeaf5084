package agent_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/manroop79/coding-arena/pkg/agent"
)

var _ = Describe("Emit", func() {
	It("sends the event when the context is live", func() {
		out := make(chan agent.Event, 1)
		ev := agent.NewMessage("mock-agent", "hi")

		Expect(agent.Emit(context.Background(), out, ev)).To(Succeed())
		Expect(<-out).To(Equal(ev))
	})

	It("returns the context error instead of blocking on a full channel", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		out := make(chan agent.Event) // unbuffered, no receiver
		err := agent.Emit(ctx, out, agent.NewMessage("mock-agent", "hi"))

		Expect(err).To(MatchError(context.Canceled))
	})
})

var _ = Describe("Relay", func() {
	It("re-tags every relayed event with the delegating agent's id", func() {
		src := &fakeAdapter{id: "inner", events: []agent.Event{
			agent.NewStatus("inner", agent.StatusConnecting, ""),
			agent.NewMessage("inner", "work"),
			agent.NewStatus("inner", agent.StatusDone, ""),
		}}

		out := make(chan agent.Event, 8)
		err := agent.Relay(context.Background(), src, "outer-agent", agent.RunInput{}, out)
		close(out)

		Expect(err).NotTo(HaveOccurred())

		var relayed []agent.Event
		for ev := range out {
			relayed = append(relayed, ev)
		}

		Expect(relayed).To(HaveLen(3))
		for _, ev := range relayed {
			Expect(ev.AgentID).To(Equal("outer-agent"))
		}
		Expect(relayed[1].Content).To(Equal("work"))
	})

	It("preserves the source sequence order", func() {
		src := &fakeAdapter{id: "inner", events: []agent.Event{
			agent.NewMessage("inner", "one"),
			agent.NewMessage("inner", "two"),
		}}

		out := make(chan agent.Event, 8)
		Expect(agent.Relay(context.Background(), src, "outer-agent", agent.RunInput{}, out)).To(Succeed())
		close(out)

		var contents []string
		for ev := range out {
			contents = append(contents, ev.Content)
		}
		Expect(contents).To(Equal([]string{"one", "two"}))
	})
})
