package flow

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPattern_TemplateMatch(t *testing.T) {
	testCases := []struct {
		name     string
		template string
		input    string
		matched  bool
		params   map[string]string
	}{
		{
			name:     "literal only",
			template: "checkout",
			input:    "checkout",
			matched:  true,
			params:   map[string]string{},
		},
		{
			name:     "literal mismatch",
			template: "checkout",
			input:    "cancel",
			matched:  false,
		},
		{
			name:     "single placeholder after literal colons",
			template: "user:::id",
			input:    "user::456",
			matched:  true,
			params:   map[string]string{"id": "456"},
		},
		{
			name:     "placeholder excludes following delimiter",
			template: "add::item",
			input:    "add:latte",
			matched:  true,
			params:   map[string]string{"item": "latte"},
		},
		{
			name:     "two placeholders with delimiters",
			template: ":qty x :item",
			input:    "2 x latte",
			matched:  true,
			params:   map[string]string{"qty": "2", "item": "latte"},
		},
		{
			name:     "placeholder must capture at least one char",
			template: "add::item",
			input:    "add:",
			matched:  false,
		},
		{
			name:     "no partial prefix match",
			template: "add::item",
			input:    "madd:latte2",
			matched:  false,
		},
		{
			name:     "adjacent placeholders split on delimiter",
			template: ":a-:b",
			input:    "left-right",
			matched:  true,
			params:   map[string]string{"a": "left", "b": "right"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Compile(tc.template)
			require.NoError(t, err)

			params, matched := p.Match(tc.input)
			assert.Equal(t, tc.matched, matched)

			if tc.matched {
				assert.Equal(t, tc.params, params)
			} else {
				assert.Nil(t, params)
			}
		})
	}
}

func TestPattern_RawRegexp(t *testing.T) {
	t.Run("named groups populate params", func(t *testing.T) {
		p := Regexp(regexp.MustCompile(`^(?P<qty>\d+)$`))

		params, matched := p.Match("42")
		require.True(t, matched)
		assert.Equal(t, map[string]string{"qty": "42"}, params)
	})

	t.Run("positional groups stay anonymous", func(t *testing.T) {
		p := Regexp(regexp.MustCompile(`^(\d+)$`))

		params, matched := p.Match("42")
		require.True(t, matched)
		assert.Empty(t, params)
	})

	t.Run("no match", func(t *testing.T) {
		p := Regexp(regexp.MustCompile(`^(?P<qty>\d+)$`))

		params, matched := p.Match("forty two")
		assert.False(t, matched)
		assert.Nil(t, params)
	})
}

func TestPattern_PlaceholderOrder(t *testing.T) {
	p := MustCompile(":first/:second/:third")

	params, matched := p.Match("a/b/c")
	require.True(t, matched)
	assert.Equal(t, map[string]string{"first": "a", "second": "b", "third": "c"}, params)
}

func TestPattern_String(t *testing.T) {
	assert.Equal(t, "add::item", MustCompile("add::item").String())
}
