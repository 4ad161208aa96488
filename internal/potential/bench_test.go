package potential

import "testing"

func BenchmarkPowerSphericalCutoff_Forces(b *testing.B) {
	p := NewPowerSphericalCutoff(1, 1.5, 2)
	for i := 0; i < b.N; i++ {
		_ = p.RForce(1.1, 0.3, 0, 0)
		_ = p.ZForce(1.1, 0.3, 0, 0)
	}
}

func BenchmarkPowerSphericalCutoff_Uncached(b *testing.B) {
	p := NewPowerSphericalCutoff(1, 1.5, 2)
	for i := 0; i < b.N; i++ {
		_ = p.RForce(1.1+float64(i&1)*1e-3, 0.3, 0, 0)
	}
}

func BenchmarkFriction_Forces(b *testing.B) {
	cfg := DefaultFrictionConfig()
	cfg.GMs = 0.01
	cfg.Rhm = 0.05
	cfg.SigmaFunc = IsothermalSigma(1)
	cfg.Background = List{NewPowerSphericalCutoff(1, 1, 2)}
	f, err := NewChandrasekharFriction(cfg)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = f.Forces(1.2, 0.2, 0, 0, 0.1, 0.9, 0.05)
	}
}
