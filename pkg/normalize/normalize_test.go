package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{in: "", want: Collapse},
		{in: "collapse", want: Collapse},
		{in: " STRIP ", want: Strip},
		{in: "fold", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			p, err := ParsePolicy(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unknown normalization policy")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, p)
		})
	}
}

func TestPolicy_Apply(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		in     string
		want   string
	}{
		{name: "collapse internal runs", policy: Collapse, in: "මට  නිදිමතයි   හොදටම", want: "මට නිදිමතයි හොදටම"},
		{name: "collapse trims ends", policy: Collapse, in: "  අපි හෙට\n", want: "අපි හෙට"},
		{name: "collapse newlines and tabs", policy: Collapse, in: "a\n\tb", want: "a b"},
		{name: "collapse empty", policy: Collapse, in: "   ", want: ""},
		{name: "strip all", policy: Strip, in: " මට ගෙදර\nයනවා ", want: "මටගෙදරයනවා"},
		{name: "strip unicode space", policy: Strip, in: "a\u00a0b\u2003c", want: "abc"},
		{name: "case preserved", policy: Collapse, in: "office  Kandy", want: "office Kandy"},
		{name: "unknown policy falls back to collapse", policy: Policy("x"), in: "a  b", want: "a b"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.policy.Apply(tc.in))
		})
	}
}

func TestPolicy_Compare_PolicySeparation(t *testing.T) {
	t.Run("irregular spacing passes both policies", func(t *testing.T) {
		expected := "මට නිදිමතයි හොදටම"
		actual := "මට  නිදිමතයි   හොදටම"

		ok, normActual, normExpected := Collapse.Compare(actual, expected)
		assert.True(t, ok)
		assert.Equal(t, normExpected, normActual)

		ok, _, _ = Strip.Compare(actual, expected)
		assert.True(t, ok)
	})

	t.Run("missing separators fail collapse and pass strip", func(t *testing.T) {
		expected := "මට ගෙදර යනවා"
		actual := "මටගෙදරයනවා"

		ok, normActual, normExpected := Collapse.Compare(actual, expected)
		assert.False(t, ok)
		assert.Equal(t, "මටගෙදරයනවා", normActual)
		assert.Equal(t, "මට ගෙදර යනවා", normExpected)

		ok, _, _ = Strip.Compare(actual, expected)
		assert.True(t, ok)
	})

	t.Run("case is significant", func(t *testing.T) {
		ok, _, _ := Collapse.Compare("office", "Office")
		assert.False(t, ok)
		ok, _, _ = Strip.Compare("office", "Office")
		assert.False(t, ok)
	})
}
