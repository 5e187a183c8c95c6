package motion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	assert.Equal(t, FadeIn{Duration: 600 * time.Millisecond, Offset: 20}, DefaultFadeIn())
	assert.Equal(t, Stagger{DelayChildren: 100 * time.Millisecond, StaggerChildren: 60 * time.Millisecond}, DefaultStagger())
}

func TestStaggerDelays(t *testing.T) {
	assert.Nil(t, DefaultStagger().Delays(0))
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		160 * time.Millisecond,
		220 * time.Millisecond,
	}, DefaultStagger().Delays(3))
}

func TestSequence(t *testing.T) {
	f := FadeIn{Delay: 50 * time.Millisecond, Duration: time.Second, Offset: 12}
	cues := Sequence(f, Stagger{StaggerChildren: 10 * time.Millisecond}, 2)

	assert.Equal(t, []Cue{
		{DelayMs: 50, DurationMs: 1000, OffsetY: 12},
		{DelayMs: 60, DurationMs: 1000, OffsetY: 12},
	}, cues)
}
