package interestRepo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meramarket/models"
)

func TestDecodeAll(t *testing.T) {
	got, err := decodeAll[models.Question]([]string{
		`{"id":"q2","listingId":"l1","text":"Still available?"}`,
		`{"id":"q1","listingId":"l1","text":"Price negotiable?","redacted":false}`,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "q2", got[0].ID)
	assert.Equal(t, "Price negotiable?", got[1].Text)

	_, err = decodeAll[models.Question]([]string{"not json"})
	assert.Error(t, err)
}
