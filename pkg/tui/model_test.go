package tui

import (
	"context"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/gemchat/pkg/chat"
)

func typeText(m Model, text string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return next.(Model)
}

func press(m Model, t tea.KeyType) (Model, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: t})
	return next.(Model), cmd
}

// findReply runs cmd (and any batch it expands to) looking for a replyMsg.
func findReply(cmd tea.Cmd) (replyMsg, bool) {
	if cmd == nil {
		return replyMsg{}, false
	}
	switch msg := cmd().(type) {
	case replyMsg:
		return msg, true
	case tea.BatchMsg:
		for _, c := range msg {
			if reply, ok := findReply(c); ok {
				return reply, true
			}
		}
	}
	return replyMsg{}, false
}

var _ = Describe("Model", func() {
	var (
		client *echoClient
		c      *chat.Controller
		m      Model
	)

	BeforeEach(func() {
		client = &echoClient{}
		c = chat.New(client)
		m = NewModel(context.Background(), c, WithGlamourStyle("notty"))
		next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
		m = next.(Model)
	})

	AfterEach(func() {
		m.Close()
	})

	It("mirrors typed text into the pending input", func() {
		m = typeText(m, "Hello")
		Expect(c.Pending().Text).To(Equal("Hello"))
	})

	It("submits on enter and renders the reply", func() {
		m = typeText(m, "Hello")
		m, cmd := press(m, tea.KeyEnter)

		Expect(c.Messages()).To(HaveLen(1))
		Expect(m.View()).To(ContainSubstring("Hello"))

		reply, ok := findReply(cmd)
		Expect(ok).To(BeTrue())
		Expect(reply.message.Text).To(Equal("echo: Hello"))

		next, _ := m.Update(reply)
		m = next.(Model)
		Expect(m.textarea.Value()).To(BeEmpty())
		Expect(m.View()).To(ContainSubstring("echo: Hello"))
		Expect(c.Busy()).To(BeFalse())
	})

	It("locks the input while busy", func() {
		client.release = make(chan struct{})
		defer close(client.release)

		m = typeText(m, "first")
		m, _ = press(m, tea.KeyEnter)
		Expect(c.Busy()).To(BeTrue())

		m = typeText(m, "more")
		Expect(m.textarea.Value()).To(Equal("first"))

		m, _ = press(m, tea.KeyEnter)
		Expect(m.status).To(Equal(chat.ErrBusy.Error()))
		Expect(c.Messages()).To(HaveLen(1))
		Expect(m.View()).To(ContainSubstring("waiting for reply"))
	})

	It("does nothing on enter with an empty input", func() {
		m, cmd := press(m, tea.KeyEnter)
		Expect(cmd).To(BeNil())
		Expect(c.Messages()).To(BeEmpty())
		Expect(m.status).To(BeEmpty())
	})

	It("attaches and removes an image through commands", func() {
		path := filepath.Join(GinkgoT().TempDir(), "dog.png")
		Expect(os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n"), 0o644)).To(Succeed())

		m = typeText(m, "/image "+path)
		m, _ = press(m, tea.KeyEnter)
		Expect(c.Pending().Image).NotTo(BeNil())
		Expect(m.View()).To(ContainSubstring("attached: dog.png"))
		Expect(m.textarea.Value()).To(BeEmpty())

		m = typeText(m, "/remove")
		m, _ = press(m, tea.KeyEnter)
		Expect(c.Pending().Image).To(BeNil())
	})

	It("reports an oversized image", func() {
		path := filepath.Join(GinkgoT().TempDir(), "big.jpg")
		Expect(os.WriteFile(path, make([]byte, 6<<20), 0o644)).To(Succeed())

		m = typeText(m, "/image "+path)
		m, _ = press(m, tea.KeyEnter)
		Expect(m.status).To(ContainSubstring("too large"))
		Expect(c.Pending().Image).To(BeNil())
	})

	It("asks before clearing", func() {
		m = typeText(m, "Hello")
		m, cmd := press(m, tea.KeyEnter)
		reply, ok := findReply(cmd)
		Expect(ok).To(BeTrue())
		next, _ := m.Update(reply)
		m = next.(Model)

		m = typeText(m, "/clear")
		m, _ = press(m, tea.KeyEnter)
		Expect(m.confirming).To(BeTrue())
		Expect(m.View()).To(ContainSubstring("Clear the conversation?"))

		m = typeText(m, "n")
		Expect(m.confirming).To(BeFalse())
		Expect(c.Messages()).To(HaveLen(2))

		m = typeText(m, "/clear")
		m, _ = press(m, tea.KeyEnter)
		m = typeText(m, "y")
		Expect(c.Messages()).To(BeEmpty())
		Expect(m.View()).To(ContainSubstring("Send a message to start"))
	})

	It("follows changes made directly on the controller", func() {
		c.EditText("typed elsewhere")
		next, cmd := m.Update(waitForChange(m.changes)())
		m = next.(Model)
		Expect(m.textarea.Value()).To(Equal("typed elsewhere"))
		Expect(cmd).NotTo(BeNil())

		done, err := c.Submit(context.Background())
		Expect(err).NotTo(HaveOccurred())
		<-done

		next, _ = m.Update(waitForChange(m.changes)())
		m = next.(Model)
		Expect(m.View()).To(ContainSubstring("echo: typed elsewhere"))
		Expect(m.textarea.Value()).To(BeEmpty())
	})

	It("ticks the spinner only while busy", func() {
		_, cmd := m.Update(m.spinner.Tick())
		Expect(cmd).To(BeNil())

		client.release = make(chan struct{})
		defer close(client.release)
		m = typeText(m, "wait")
		m, _ = press(m, tea.KeyEnter)
		Expect(c.Busy()).To(BeTrue())

		_, cmd = m.Update(m.spinner.Tick())
		Expect(cmd).NotTo(BeNil())
	})

	It("quits on ctrl+c", func() {
		_, cmd := press(m, tea.KeyCtrlC)
		Expect(cmd).NotTo(BeNil())
		Expect(cmd()).To(Equal(tea.Quit()))
	})

	It("eventually settles a reply delivered by the controller", func() {
		m = typeText(m, "ping")
		_, cmd := press(m, tea.KeyEnter)
		Expect(cmd).NotTo(BeNil())
		Eventually(c.Busy).WithTimeout(time.Second).Should(BeFalse())
	})
})
