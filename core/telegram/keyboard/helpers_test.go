package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineButtonsNPerRow(t *testing.T) {
	btns := make([]InlineBtn, 5)
	for i := range btns {
		btns[i] = InlineBtn{Text: string(rune('1' + i)), Unique: "quantity", Data: string(rune('1' + i))}
	}

	m := InlineButtonsNPerRow(btns, 2)
	require.Len(t, m.InlineKeyboard, 3)
	assert.Len(t, m.InlineKeyboard[0], 2)
	assert.Len(t, m.InlineKeyboard[2], 1)
	assert.Equal(t, "quantity", m.InlineKeyboard[2][0].Unique)
	assert.Equal(t, "5", m.InlineKeyboard[2][0].Data)

	single := InlineButtonsNPerRow(btns[:2], 1)
	require.Len(t, single.InlineKeyboard, 2)
	assert.Equal(t, "1", single.InlineKeyboard[0][0].Text)
}
