package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	e := Event{
		GameID:  "g1",
		HandNum: 3,
		Seq:     7,
		Type:    TypeActionTaken,
		At:      time.Unix(1700000000, 0).UTC(),
	}
	e.Encode(ActionTaken{Seat: 2, Action: "raise", Level: 60, Paid: 50})

	var decoded ActionTaken
	require.NoError(t, e.Decode(&decoded))
	assert.Equal(t, 2, decoded.Seat)
	assert.Equal(t, "raise", decoded.Action)
	assert.Equal(t, 60, decoded.Level)
	assert.Equal(t, 50, decoded.Paid)
	assert.False(t, decoded.AllIn)
}

func TestDecodeMalformedPayload(t *testing.T) {
	t.Parallel()

	e := Event{Type: TypeActionTaken, Payload: []byte(`{"seat":`)}
	var decoded ActionTaken
	assert.Error(t, e.Decode(&decoded))
}
