package hooking

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type recordingHook struct {
	name  string
	calls *[]string
}

func (h *recordingHook) Func(ctx HookCtx) {
	*h.calls = append(*h.calls, h.name+"@"+ctx.Pos.Name)
}

var _ = Describe("HookableBase", func() {
	var (
		domain *HookableBase
		calls  []string
		pos    *HookPos
	)

	BeforeEach(func() {
		domain = &HookableBase{}
		calls = nil
		pos = &HookPos{Name: "Pos"}
	})

	It("should invoke hooks in registration order", func() {
		domain.AcceptHook(&recordingHook{name: "a", calls: &calls})
		domain.AcceptHook(&recordingHook{name: "b", calls: &calls})

		domain.InvokeHook(HookCtx{Domain: domain, Pos: pos})

		Expect(domain.NumHooks()).To(Equal(2))
		Expect(domain.Hooks()).To(HaveLen(2))
		Expect(calls).To(Equal([]string{"a@Pos", "b@Pos"}))
	})

	It("should pass the context through", func() {
		var seen HookCtx
		domain.AcceptHook(HookFunc(func(ctx HookCtx) { seen = ctx }))

		ctx := HookCtx{Domain: domain, Pos: pos, Item: 3, Detail: "d"}
		domain.InvokeHook(ctx)

		Expect(seen).To(Equal(ctx))
	})

	It("should panic on a duplicated hook", func() {
		hook := &recordingHook{name: "a", calls: &calls}
		domain.AcceptHook(hook)

		Expect(func() { domain.AcceptHook(hook) }).To(Panic())
	})

	It("should accept the same function twice", func() {
		f := HookFunc(func(ctx HookCtx) { calls = append(calls, "f") })

		domain.AcceptHook(f)
		domain.AcceptHook(f)
		domain.InvokeHook(HookCtx{Pos: pos})

		Expect(calls).To(Equal([]string{"f", "f"}))
	})

	It("should do nothing without hooks", func() {
		domain.InvokeHook(HookCtx{Pos: pos})

		Expect(domain.NumHooks()).To(BeZero())
	})
})
