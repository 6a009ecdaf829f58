package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json"} {
		c, ok := ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, c.Name())
	}
	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestUnmarshalKeepsNumbers(t *testing.T) {
	for _, c := range []Codec{JSON{}, GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			var out map[string]any
			require.NoError(t, c.Unmarshal([]byte(`{"big":9007199254740993,"f":1.5}`), &out))

			big, ok := out["big"].(interface{ Int64() (int64, error) })
			require.True(t, ok, "expected a number literal, got %T", out["big"])
			i, err := big.Int64()
			require.NoError(t, err)
			assert.Equal(t, int64(9007199254740993), i)
		})
	}
}

func TestMustMarshal(t *testing.T) {
	assert.JSONEq(t, `{"a":1}`, string(MustMarshal(nil, map[string]int{"a": 1})))
	assert.Panics(t, func() { MustMarshal(JSON{}, make(chan int)) })
}
