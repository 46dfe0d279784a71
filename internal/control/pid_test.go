package control

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"MineTruck/internal/model"
)

func linearCfg() model.PIDConfig {
	return model.PIDConfig{Kp: 0.5, Ki: 0.1, Kd: 0.05, Sat: 10.0}
}

func TestPIDOutputWithinSaturation(t *testing.T) {
	pid := NewPID(linearCfg())
	for i := 0; i < 200; i++ {
		out := pid.Update(1000, 0, 0.05)
		assert.LessOrEqual(t, out, 10.0)
		assert.GreaterOrEqual(t, out, -10.0)
	}
}

func TestPIDConvergesOnStep(t *testing.T) {
	pid := NewPID(linearCfg())
	// crude plant: measurement chases the controller output
	meas := 0.0
	for i := 0; i < 2000; i++ {
		out := pid.Update(3.0, meas, 0.05)
		meas += (out - meas) * 0.05 / 0.5
	}
	assert.InDelta(t, 3.0, meas, 0.05)
}

func TestPIDAntiWindup(t *testing.T) {
	pid := NewPID(linearCfg())
	// Large positive error keeps the output pinned at +Sat; the integral
	// must not grow while saturated in the error direction.
	pid.Update(1e6, 0, 0.05)
	after := pid.Integral()
	for i := 0; i < 50; i++ {
		out := pid.Update(1e6, 0, 0.05)
		assert.Equal(t, 10.0, out)
		assert.LessOrEqual(t, math.Abs(pid.Integral()), math.Abs(after)+1e-12)
	}
}

func TestPIDAntiWindupNegative(t *testing.T) {
	pid := NewPID(linearCfg())
	pid.Update(-1e6, 0, 0.05)
	after := pid.Integral()
	for i := 0; i < 50; i++ {
		out := pid.Update(-1e6, 0, 0.05)
		assert.Equal(t, -10.0, out)
		assert.LessOrEqual(t, math.Abs(pid.Integral()), math.Abs(after)+1e-12)
	}
}

func TestPIDIntegralRecoversAfterSaturation(t *testing.T) {
	pid := NewPID(linearCfg())
	for i := 0; i < 10; i++ {
		pid.Update(1e6, 0, 0.05)
	}
	// Error collapses: conditional integration commits again.
	before := pid.Integral()
	pid.Update(1.0, 0, 0.05)
	assert.NotEqual(t, before, pid.Integral())
}

func TestPIDBumplessReinit(t *testing.T) {
	const dt = 0.05
	pid := NewPID(linearCfg())
	pid.Reinit(3.0, 3.0, 3.0, dt)
	out := pid.Update(3.0, 3.0, dt)
	assert.InDelta(t, 3.0, out, 1e-9)

	// nonzero error case
	pid2 := NewPID(linearCfg())
	pid2.Reinit(2.5, 4.0, 3.0, dt)
	out2 := pid2.Update(4.0, 3.0, dt)
	assert.InDelta(t, 2.5, out2, 1e-9)
}

func TestPIDReinitZeroKi(t *testing.T) {
	pid := NewPID(model.PIDConfig{Kp: 1.0, Sat: 10.0})
	pid.Reinit(5.0, 1.0, 0.0, 0.05)
	assert.Equal(t, 0.0, pid.Integral())
}

func TestPIDHoldFreezesIntegral(t *testing.T) {
	pid := NewPID(linearCfg())
	pid.Update(2.0, 0, 0.05)
	before := pid.Integral()
	pid.Hold(2.0, 0)
	assert.Equal(t, before, pid.Integral())
}

func TestPIDReset(t *testing.T) {
	pid := NewPID(linearCfg())
	pid.Update(2.0, 0, 0.05)
	pid.Reset()
	assert.Equal(t, 0.0, pid.Integral())
}
