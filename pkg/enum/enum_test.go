package enum

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("create an enum of string", func(t *testing.T) {
		type EnumString string

		bar := New(EnumString("bar"))
		require.Equal(t, bar, EnumString("bar"))

		v, err := ToEnum[EnumString]("bar")
		require.NoError(t, err)
		require.Equal(t, v, bar)

		_, err = ToEnum[EnumString]("unregistered")
		require.Error(t, err)
	})

	t.Run("create an enum of int", func(t *testing.T) {
		type EnumInt int

		bar := New(EnumInt(100))
		require.Equal(t, bar, EnumInt(100))

		v, err := ToEnum[EnumInt]("100")
		require.NoError(t, err)
		require.Equal(t, v, bar)

		_, err = ToEnum[EnumInt]("200")
		require.Error(t, err)
	})

	t.Run("list registered members", func(t *testing.T) {
		type EnumList string

		New(EnumList("major"))
		New(EnumList("grand"))
		New(EnumList("minor"))

		require.Equal(t,
			[]EnumList{"grand", "major", "minor"},
			ToList[EnumList](),
		)
	})
}
