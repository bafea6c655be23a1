package iknp

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"

	"github.com/phuocchubeo123/volefp/crypto/block"
)

func TestIKNPSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "iknp suite")
}

var _ = Describe("IKNP extension", func() {
	DescribeTable("the COT correlation q = t xor (choice ? delta : 0) holds for every index", func(n int, malicious bool) {
		senderCh, recvCh := pipe()

		choices := make([]bool, n)
		for i := range choices {
			choices[i] = i%3 == 0
		}

		type sendResult struct {
			delta block.B32
			q     []block.B32
			err   error
		}
		resc := make(chan sendResult, 1)
		go func() {
			s, err := SetupSend(context.Background(), senderCh, nil, malicious)
			if err != nil {
				resc <- sendResult{err: err}
				return
			}
			q, err := s.SendCOT(context.Background(), senderCh, n)
			resc <- sendResult{delta: s.Delta(), q: q, err: err}
		}()

		r, err := SetupRecv(context.Background(), recvCh, malicious)
		Expect(err).Should(BeNil())
		tr, err := r.RecvCOT(context.Background(), recvCh, choices)
		Expect(err).Should(BeNil())

		res := <-resc
		Expect(res.err).Should(BeNil())

		Expect(res.q).Should(HaveLen(n))
		Expect(tr).Should(HaveLen(n))
		for i := range res.q {
			want := tr[i]
			if choices[i] {
				want = block.Xor32(want, res.delta)
			}
			Expect(res.q[i]).Should(Equal(want))
		}
	},
		Entry("honest, n=512", 512, false),
		Entry("malicious, n=512", 512, true),
	)
})
