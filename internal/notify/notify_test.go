package notify

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	notes []string
	cues  int
	err   error
}

func (r *recorder) Notify(title, message string) error {
	r.notes = append(r.notes, title+": "+message)
	return r.err
}

func (r *recorder) Cue() error {
	r.cues++
	return r.err
}

func TestConsole_CueRingsBell(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	assert.NoError(t, c.Notify("BTC alert", "above $50,000"))
	assert.NoError(t, c.Cue())
	assert.Equal(t, "\a", buf.String())
}

func TestMulti_FansOutAndJoinsErrors(t *testing.T) {
	ok := &recorder{}
	broken := &recorder{err: errors.New("no display")}
	m := Multi{ok, broken}

	err := m.Notify("t", "m")
	assert.ErrorContains(t, err, "no display")
	assert.Equal(t, []string{"t: m"}, ok.notes)
	assert.Equal(t, []string{"t: m"}, broken.notes)

	assert.Error(t, m.Cue())
	assert.Equal(t, 1, ok.cues)

	assert.NoError(t, Multi{ok}.Cue())
}
