package multirate

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"

	"github.com/ratelab/ratekit/sched"
)

var _ = Describe("Comp", func() {
	var (
		mockCtrl *gomock.Controller
		svc      *MockValueService
		comp     *Comp
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		svc = NewMockValueService(mockCtrl)
		comp = MakeBuilder().WithService(svc).Build("Comp")
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	Context("lifecycle", func() {
		It("should start uninitialized", func() {
			Expect(comp.Phase()).To(Equal(PhaseUninitialized))
		})

		It("should load the persisted accumulator on initialize", func() {
			svc.EXPECT().PersistedAccumulator().Return(7.5, StatusOk)

			comp.Initialize()

			Expect(comp.Phase()).To(Equal(PhaseRunning))
			Expect(comp.State().AccumulatorA).To(Equal(7.5))
			Expect(comp.State().AccumulatorB).To(Equal(0.0))
		})

		It("should panic when initialized twice", func() {
			svc.EXPECT().PersistedAccumulator().Return(0.0, StatusOk)

			comp.Initialize()

			Expect(func() { comp.Initialize() }).To(Panic())
		})

		It("should commit the persisted accumulator on terminate", func() {
			svc.EXPECT().PersistedAccumulator().Return(0.0, StatusOk)
			svc.EXPECT().Input().Return(2.5, StatusOk)
			svc.EXPECT().PublishTransfer(2.5).Return(StatusOk)
			svc.EXPECT().CommitAccumulator(2.5).Return(StatusOk)

			comp.Initialize()
			comp.StepFast()
			comp.Terminate()

			Expect(comp.Phase()).To(Equal(PhaseTerminated))
		})

		It("should panic when terminated before initialize", func() {
			Expect(func() { comp.Terminate() }).To(Panic())
		})

		It("should panic when terminated twice", func() {
			svc.EXPECT().PersistedAccumulator().Return(0.0, StatusOk)
			svc.EXPECT().CommitAccumulator(gomock.Any()).Return(StatusOk)

			comp.Initialize()
			comp.Terminate()

			Expect(func() { comp.Terminate() }).To(Panic())
		})

		It("should panic when stepped after terminate", func() {
			svc.EXPECT().PersistedAccumulator().Return(0.0, StatusOk)
			svc.EXPECT().CommitAccumulator(gomock.Any()).Return(StatusOk)

			comp.Initialize()
			comp.Terminate()

			Expect(func() { comp.StepFast() }).To(Panic())
			Expect(func() { comp.StepSlow() }).To(Panic())
		})

		It("should step on zero state before initialize", func() {
			svc.EXPECT().Input().Return(3.0, StatusOk)
			svc.EXPECT().PublishTransfer(3.0).Return(StatusOk)

			comp.StepFast()

			Expect(comp.State().AccumulatorA).To(Equal(3.0))
		})

		It("should panic when a field without a persistence channel is "+
			"marked persisted", func() {
			comp = MakeBuilder().
				WithService(svc).
				WithPersistencePolicy(PersistencePolicy{
					FieldAccumulatorB: Persisted,
				}).
				Build("Comp")

			Expect(func() { comp.Initialize() }).To(Panic())
		})

		It("should not restore anything when every field is transient", func() {
			comp = MakeBuilder().
				WithService(svc).
				WithPersistencePolicy(PersistencePolicy{
					FieldAccumulatorA: Transient,
					FieldAccumulatorB: Transient,
				}).
				Build("Comp")

			comp.Initialize()
			comp.Terminate()

			Expect(comp.State().AccumulatorA).To(Equal(0.0))
		})
	})

	Context("fast rate group", func() {
		BeforeEach(func() {
			svc.EXPECT().PersistedAccumulator().Return(0.0, StatusOk)
			comp.Initialize()
		})

		It("should accumulate the injected inputs", func() {
			inputs := []float64{1.0, 2.0, 3.0, 4.0}
			sum := 0.0

			for _, in := range inputs {
				sum += in
				svc.EXPECT().Input().Return(in, StatusOk)
				svc.EXPECT().PublishTransfer(sum).Return(StatusOk)

				comp.StepFast()

				Expect(comp.State().AccumulatorA).To(Equal(sum))
			}
		})

		It("should publish the post-update accumulator", func() {
			svc.EXPECT().Input().Return(2.0, StatusOk)
			svc.EXPECT().PublishTransfer(2.0).Return(StatusOk)

			comp.StepFast()

			svc.EXPECT().Input().Return(3.0, StatusOk)
			svc.EXPECT().PublishTransfer(5.0).Return(StatusOk)

			comp.StepFast()
		})

		It("should ignore a non-Ok input status", func() {
			svc.EXPECT().Input().Return(1.5, StatusTimeout)
			svc.EXPECT().PublishTransfer(1.5).Return(StatusOk)

			comp.StepFast()

			Expect(comp.State().AccumulatorA).To(Equal(1.5))
		})
	})

	Context("slow rate group", func() {
		BeforeEach(func() {
			svc.EXPECT().PersistedAccumulator().Return(0.0, StatusOk)
			comp.Initialize()
		})

		It("should add the transferred value to its accumulator", func() {
			svc.EXPECT().Transferred().Return(5.0, StatusOk)
			svc.EXPECT().WriteOutput(5.0).Return(StatusOk)

			comp.StepSlow()

			Expect(comp.State().AccumulatorB).To(Equal(5.0))

			svc.EXPECT().Transferred().Return(5.0, StatusOk)
			svc.EXPECT().WriteOutput(10.0).Return(StatusOk)

			comp.StepSlow()

			Expect(comp.State().AccumulatorB).To(Equal(10.0))
		})
	})

	Context("hooks", func() {
		It("should report each completed step", func() {
			infos := make([]StepInfo, 0)
			comp.AcceptHook(stepInfoCollector{&infos})

			svc.EXPECT().Input().Return(2.0, StatusOk)
			svc.EXPECT().PublishTransfer(2.0).Return(StatusOk)
			svc.EXPECT().Transferred().Return(2.0, StatusOk)
			svc.EXPECT().WriteOutput(2.0).Return(StatusOk)

			comp.StepFast()
			comp.StepSlow()

			Expect(infos).To(HaveLen(2))
			Expect(infos[0].Kind).To(Equal(StepFast))
			Expect(infos[0].Output).To(Equal(2.0))
			Expect(infos[1].Kind).To(Equal(StepSlow))
			Expect(infos[1].Input).To(Equal(2.0))
		})
	})
})

type stepInfoCollector struct {
	infos *[]StepInfo
}

func (c stepInfoCollector) Func(ctx sched.HookCtx) {
	if info, ok := ctx.Item.(StepInfo); ok {
		*c.infos = append(*c.infos, info)
	}
}
