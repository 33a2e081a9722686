package audio_test

import (
	"testing"
	"time"

	"github.com/aretw0/chains/internal/testutils"
	"github.com/aretw0/chains/pkg/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleEngine_FinishesEffects(t *testing.T) {
	sched := testutils.NewManualScheduler()
	engine := audio.NewConsoleEngine(sched, 0, nil)
	m := audio.NewManager(engine, audio.WithScheduler(sched))
	require.NoError(t, m.Load(&audio.Catalog{Clips: []audio.Clip{{Name: "click"}, {Name: "voice", Long: true}}}))

	rec := &testutils.Recorder{}
	assert.Equal(t, audio.DefaultClipDuration, m.Play("click", 1, rec.Add("click")))
	assert.Equal(t, audio.DefaultClipDuration, m.Play("voice", 1, rec.Add("voice")))
	assert.Equal(t, 1, engine.Playing())

	sched.Advance(time.Second)
	assert.ElementsMatch(t, []string{"click", "voice"}, rec.Events())
	assert.Equal(t, 0, engine.Playing())
}

func TestConsoleEngine_StopAll(t *testing.T) {
	sched := testutils.NewManualScheduler()
	engine := audio.NewConsoleEngine(sched, 2*time.Second, nil)

	h, err := engine.PlayEffect("a.wav")
	require.NoError(t, err)
	fired := false
	engine.OnFinish(h, func() { fired = true })

	engine.StopAll()
	sched.Advance(5 * time.Second)
	assert.False(t, fired)
	assert.Equal(t, 0, engine.Playing())
}
