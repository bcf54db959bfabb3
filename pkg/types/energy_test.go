package types

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMicrojoules_Humanized_Boundaries(t *testing.T) {
	cases := []struct {
		in   Microjoules
		want string
	}{
		{Microjoules(0), "0 µJ"},
		{Microjoules(1), "1 µJ"},
		{Microjoules(999), "999 µJ"},            // just below 1 mJ
		{Microjoules(1000), "1.00 mJ"},          // exactly 1 mJ
		{Microjoules(999_999), "1000.00 mJ"},    // rounds up below 1 J
		{Microjoules(1_000_000), "1.00 J"},      // exactly 1 J
		{Microjoules(1_500_000), "1.50 J"},      // non-round
		{Microjoules(1_000_000_000), "1.00 kJ"}, // exactly 1 kJ
		{Microjoules(1_000_000_000_000), "1.00 MJ"},
	}
	for i, tc := range cases {
		t.Run(fmt.Sprintf("case_%d_%d", i, uint64(tc.in)), func(t *testing.T) {
			got := tc.in.Humanized()
			require.Equal(t, tc.want, got)
		})
	}
}

func TestMicrojoules_UnitAccessors(t *testing.T) {
	assert.InDelta(t, 1.0, Microjoules(1000).Millijoules(), 1e-12)
	assert.InDelta(t, 1.0, Microjoules(1_000_000).Joules(), 1e-12)
	assert.InDelta(t, 1.0, Microjoules(3_600_000_000).WattHours(), 1e-12)

	u := Microjoules(2_500_000)
	assert.InDelta(t, 2.5, u.Joules(), 1e-12)
	assert.InDelta(t, 2500.0, u.Millijoules(), 1e-9)
}

func TestMicrojoules_RawRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 123456, ^uint64(0)} {
		assert.Equal(t, v, ToMicrojoules(v).ToUint64())
	}
}
