package multirate

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TransferSlot", func() {
	var slot TransferSlot

	BeforeEach(func() {
		slot = TransferSlot{}
	})

	It("should read zero before anything is published", func() {
		Expect(slot.Read()).To(Equal(0.0))
	})

	It("should read the last published value", func() {
		slot.Publish(2.0)
		Expect(slot.Read()).To(Equal(2.0))

		slot.Publish(5.0)
		Expect(slot.Read()).To(Equal(5.0))
	})

	It("should keep serving the old value until the next publish", func() {
		slot.Publish(2.0)

		Expect(slot.Read()).To(Equal(2.0))
		Expect(slot.Read()).To(Equal(2.0))
	})

	It("should never expose a torn value to a concurrent reader", func() {
		// The two values differ in every byte, so a torn write would
		// produce a third value.
		a := 1.0
		b := -987654.321

		var wg sync.WaitGroup
		wg.Add(2)

		go func() {
			defer wg.Done()
			for i := 0; i < 100000; i++ {
				if i%2 == 0 {
					slot.Publish(a)
				} else {
					slot.Publish(b)
				}
			}
		}()

		torn := false
		go func() {
			defer wg.Done()
			for i := 0; i < 100000; i++ {
				v := slot.Read()
				if v != 0 && v != a && v != b {
					torn = true
					return
				}
			}
		}()

		wg.Wait()

		Expect(torn).To(BeFalse())
	})
})
