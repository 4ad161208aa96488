package potential_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/galdyn/internal/potential"
)

var _ = Describe("ChandrasekharFriction", func() {
	var (
		halo *potential.PowerSphericalCutoff
		fric *potential.ChandrasekharFriction
	)

	BeforeEach(func() {
		halo = potential.NewPowerSphericalCutoff(1, 1, 3)
		cfg := potential.DefaultFrictionConfig()
		cfg.GMs = 0.01
		cfg.Rhm = 0.1
		cfg.MinR = 0.05
		cfg.MaxR = 20
		cfg.NR = 201
		cfg.SigmaFunc = potential.IsothermalSigma(1)
		cfg.Background = potential.Densities(halo)

		var err error
		fric, err = potential.NewChandrasekharFriction(cfg)
		Expect(err).NotTo(HaveOccurred())
	})

	Context("outside the cutoff", func() {
		It("decelerates a circular orbit", func() {
			_, _, fphi := fric.Forces(2, 0, 0, 0, 0, 1, 0)
			Expect(fphi).To(BeNumerically("<", 0))
		})

		It("scales linearly with the background density", func() {
			fR1 := fric.RForce(1.5, 0.2, 0, 0, 0.3, 0.7, 0.1)
			Expect(halo.SetParam("amp", 2)).To(Succeed())
			fR2 := fric.RForce(1.5, 0.2, 0, 0, 0.3, 0.7, 0.1)
			Expect(fR2).To(BeNumerically("~", 2*fR1, 1e-14*math.Abs(fR1)))
		})

		It("grows weaker at larger radius along the density falloff", func() {
			inner := fric.PhiForce(1, 0, 0, 0, 0, 1, 0)
			outer := fric.PhiForce(8, 0, 0, 0, 0, 1, 0) / 8
			Expect(math.Abs(inner)).To(BeNumerically(">", math.Abs(outer)))
		})
	})

	Context("inside the cutoff", func() {
		It("returns exact zeros", func() {
			fR, fz, fphi := fric.Forces(0.01, 0.01, 0, 0, 1, 1, 1)
			Expect(fR).To(BeZero())
			Expect(fz).To(BeZero())
			Expect(fphi).To(BeZero())
		})
	})

	Describe("parameters", func() {
		It("round-trips a fixed Coulomb logarithm through the sentinel", func() {
			Expect(fric.SetParam("lnlambda", 2.5)).To(Succeed())
			Expect(fric.Params()).To(HaveKeyWithValue("lnlambda", 2.5))

			Expect(fric.SetParam("lnlambda", -1)).To(Succeed())
			Expect(fric.Params()).To(HaveKeyWithValue("lnlambda", -1.0))
		})

		It("rejects unknown names", func() {
			Expect(fric.SetParam("sigma", 1)).To(MatchError(potential.ErrUnknownParam))
		})
	})
})
