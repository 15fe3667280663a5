package head

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpState_String(t *testing.T) {
	tests := []struct {
		state    OpState
		expected string
	}{
		{ClosedState, "Closed"},
		{ClosingState, "Closing"},
		{OpeningState, "Opening"},
		{OpenedState, "Opened"},
		{OpState(99), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.state.String())
		})
	}
}

func TestAtomicOpState_Lifecycle(t *testing.T) {
	var st atomicOpState
	assert.True(t, st.IsClosed())

	assert.False(t, st.ToOpened(), "cannot open without opening")
	assert.True(t, st.ToOpening())
	assert.False(t, st.ToOpening())
	assert.Equal(t, OpeningState, st.Get())

	assert.True(t, st.ToOpened())
	assert.True(t, st.ToOpened(), "opened is idempotent")
	assert.True(t, st.IsOpened())

	assert.False(t, st.ToClosed(), "cannot close without closing")
	assert.True(t, st.ToClosing())
	assert.Equal(t, ClosingState, st.Get())
	assert.True(t, st.ToClosed())
	assert.True(t, st.ToClosed(), "closed is idempotent")
	assert.True(t, st.IsClosed())
}

func TestAtomicOpState_AbortOpening(t *testing.T) {
	var st atomicOpState

	assert.True(t, st.ToOpening())
	assert.True(t, st.ToClosing())
	assert.True(t, st.ToClosed())
	assert.Equal(t, "Closed", st.String())
}
