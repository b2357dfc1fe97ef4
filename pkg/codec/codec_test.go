package codec

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID        int
	Name      string
	Price     decimal.Decimal
	UpdatedAt time.Time
}

func TestCodecsPreserveProductFields(t *testing.T) {
	in := item{
		ID:        7,
		Name:      "Hammer",
		Price:     decimal.RequireFromString("19.99"),
		UpdatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	for _, name := range []string{"json", "gob"} {
		t.Run(name, func(t *testing.T) {
			c, err := GetCodec(name)
			require.NoError(t, err)
			assert.Equal(t, name, c.Name())

			data, err := c.Marshal(in)
			require.NoError(t, err)

			var out item
			require.NoError(t, c.Unmarshal(data, &out))
			assert.Equal(t, in.ID, out.ID)
			assert.Equal(t, in.Name, out.Name)
			assert.True(t, in.Price.Equal(out.Price))
			assert.True(t, in.UpdatedAt.Equal(out.UpdatedAt))
		})
	}
}

func TestGetCodec(t *testing.T) {
	c, err := GetCodec("")
	require.NoError(t, err)
	assert.Equal(t, DefaultCodec().Name(), c.Name())

	_, err = GetCodec("xml")
	assert.Error(t, err)
}

func TestUnmarshalGarbage(t *testing.T) {
	var out item
	assert.Error(t, JSONCodec{}.Unmarshal([]byte("{"), &out))
	assert.Error(t, GobCodec{}.Unmarshal([]byte("nope"), &out))
}
