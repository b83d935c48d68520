// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paths(errs Errors) []string {
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Path
	}
	return out
}

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name string
		raw  any
		kind Kind
	}{
		{"empty list", []any{}, KindArray},
		{"single element list", []any{StringType}, KindArray},
		{"multi element list", []any{StringType, NumberType}, KindTuple},
		{"string marker", StringType, KindString},
		{"number marker", NumberType, KindNumber},
		{"boolean marker", BooleanType, KindBoolean},
		{"mapping", map[string]any{"a": StringType}, KindObject},
		{"constant", "replace", KindConstant},
		{"node", Optional(String()), KindOptional},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.kind, Normalize(tc.raw).Kind())
		})
	}

	t.Run("empty list accepts anything", func(t *testing.T) {
		arr := Normalize([]any{}).(*ArraySchema)
		assert.Equal(t, KindAny, arr.Item().Kind())
	})
}

func TestPrimitives(t *testing.T) {
	testCases := []struct {
		name     string
		node     Node
		value    any
		valid    bool
		received string
	}{
		{"string ok", String(), "x", true, ""},
		{"string number", String(), 5.0, false, "number"},
		{"string nil", String(), nil, false, "undefined"},
		{"number float", Number(), 1.5, true, ""},
		{"number int", Number(), 3, true, ""},
		{"number string", Number(), "3", false, "string"},
		{"boolean ok", Boolean(), false, true, ""},
		{"boolean number", Boolean(), 0.0, false, "number"},
		{"any nil", Any(), nil, true, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			errs := tc.node.Validate(tc.value)
			if tc.valid {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Equal(t, tc.received, errs[0].Received)
			assert.Equal(t, "", errs[0].Path)
		})
	}
}

func TestConstant(t *testing.T) {
	c := Constant("replace")
	assert.Empty(t, c.Validate("replace"))

	errs := c.Validate("append")
	require.Len(t, errs, 1)
	assert.Equal(t, []string{`"replace"`}, errs[0].Expected)
	assert.Equal(t, "replace", c.Run("append"))

	assert.Empty(t, Constant(2).Validate(2.0), "numbers compare by value")
}

func TestOptional(t *testing.T) {
	inners := []Node{String(), Number(), Tuple(String()), Object(map[string]any{"a": StringType})}
	for _, inner := range inners {
		t.Run(inner.Kind().String(), func(t *testing.T) {
			assert.Nil(t, Optional(inner).Validate(nil))
		})
	}

	d := Default(Number(), 7.0)
	assert.Equal(t, Number().Run(7.0), d.Run(nil))
	assert.Equal(t, 3.0, d.Run(3.0))

	errs := d.Validate("x")
	require.Len(t, errs, 1)
	assert.Equal(t, []string{"Number"}, errs[0].Expected)
}

func TestTupleReportsEveryError(t *testing.T) {
	errs := Tuple(Number(), String()).Validate([]any{"x", 5.0})
	require.Len(t, errs, 2)
	assert.Equal(t, []string{"0", "1"}, paths(errs))
	assert.Equal(t, "0: Expected Number, got string instead.", errs[0].Message())
}

func TestTuple(t *testing.T) {
	play := Tuple(String(), Optional(String()), Optional(Object(nil)))

	t.Run("trailing optionals may be omitted", func(t *testing.T) {
		assert.Empty(t, play.Validate([]any{"a.mkv"}))
	})

	t.Run("missing required position", func(t *testing.T) {
		errs := play.Validate([]any{})
		require.Len(t, errs, 1)
		assert.Equal(t, "0", errs[0].Path)
		assert.Equal(t, "undefined", errs[0].Received)
	})

	t.Run("extra positions are rejected", func(t *testing.T) {
		errs := Tuple().Validate([]any{1.0, "x"})
		require.Len(t, errs, 2)
		assert.Equal(t, []string{"Undefined"}, errs[0].Expected)
		assert.Equal(t, []string{"0", "1"}, paths(errs))
	})

	t.Run("not a sequence", func(t *testing.T) {
		errs := play.Validate("a.mkv")
		require.Len(t, errs, 1)
		assert.Equal(t, []string{"Array"}, errs[0].Expected)
	})

	t.Run("run fills defaults and keeps extras", func(t *testing.T) {
		s := Tuple(String(), Default(String(), "replace"))
		assert.Equal(t, []any{"a.mkv", "replace"}, s.Run([]any{"a.mkv"}))
		assert.Equal(t, []any{"a.mkv", "append", 3.0}, s.Run([]any{"a.mkv", "append", 3.0}))
	})
}

func TestArray(t *testing.T) {
	s := Array(Number())
	assert.Empty(t, s.Validate([]any{}))
	assert.Empty(t, s.Validate([]float64{1, 2}))

	errs := s.Validate([]any{1.0, "two", true})
	require.Len(t, errs, 2)
	assert.Equal(t, []string{"1", "2"}, paths(errs))

	assert.Equal(t, []any{1.0, 2.0}, Array(Default(Number(), 2.0)).Run([]any{1.0, nil}))
}

func TestObject(t *testing.T) {
	t.Run("strict rejects excess keys", func(t *testing.T) {
		errs := StrictObject(map[string]any{"a": StringType}).Validate(map[string]any{"a": "x", "b": 1.0})
		require.Len(t, errs, 1)
		assert.Equal(t, "b", errs[0].Path)
		assert.Equal(t, []string{"Undefined"}, errs[0].Expected)
	})

	t.Run("non strict allows excess keys", func(t *testing.T) {
		assert.Empty(t, Object(map[string]any{"a": StringType}).Validate(map[string]any{"a": "x", "b": 1.0}))
	})

	t.Run("required fields", func(t *testing.T) {
		errs := Object(map[string]any{"a": StringType, "b": Optional(Number())}).Validate(map[string]any{})
		require.Len(t, errs, 1)
		assert.Equal(t, "a", errs[0].Path)
	})

	t.Run("not a mapping", func(t *testing.T) {
		errs := Object(nil).Validate([]any{})
		require.Len(t, errs, 1)
		assert.Equal(t, []string{"Object"}, errs[0].Expected)
		assert.Equal(t, "array", errs[0].Received)
	})

	t.Run("run", func(t *testing.T) {
		s := Object(map[string]any{"mode": Default(String(), "replace")})
		out := s.Run(map[string]any{"extra": 1.0})
		assert.Equal(t, map[string]any{"mode": "replace", "extra": 1.0}, out)
	})
}

func TestNestedPaths(t *testing.T) {
	s := Tuple(String(), Object(map[string]any{
		"sub": Array(Object(map[string]any{"lang": StringType})),
	}))
	errs := s.Validate([]any{"a.mkv", map[string]any{
		"sub": []any{map[string]any{"lang": "en"}, map[string]any{"lang": 2.0}},
	}})
	require.Len(t, errs, 1)
	assert.Equal(t, "1.sub.1.lang", errs[0].Path)
	assert.Equal(t, "1.sub.1.lang: Expected String, got number instead.", errs.String())
}

func TestUnion(t *testing.T) {
	s := Union(String(), Number())
	assert.Empty(t, s.Validate("x"))
	assert.Empty(t, s.Validate(1.0))

	errs := s.Validate(true)
	require.Len(t, errs, 2)
	assert.Equal(t, []string{"String"}, errs[0].Expected)
	assert.Equal(t, []string{"Number"}, errs[1].Expected)

	t.Run("run uses the member that matches the value", func(t *testing.T) {
		u := Union(
			Object(map[string]any{"kind": Constant("a"), "n": Default(Number(), 1.0)}),
			Object(map[string]any{"kind": Constant("b"), "n": Default(Number(), 2.0)}),
		)
		out := u.Run(map[string]any{"kind": "b"}).(map[string]any)
		assert.Equal(t, 2.0, out["n"])
	})

	t.Run("run without match returns value", func(t *testing.T) {
		assert.Equal(t, true, s.Run(true))
	})
}

func TestIntersection(t *testing.T) {
	s := Intersection(
		Object(map[string]any{"a": StringType}),
		Object(map[string]any{"b": NumberType}),
	)
	assert.Empty(t, s.Validate(map[string]any{"a": "x", "b": 1.0}))

	errs := s.Validate(map[string]any{})
	require.Len(t, errs, 2)
	assert.Equal(t, []string{"a", "b"}, paths(errs))

	piped := Intersection(
		Object(map[string]any{"a": Default(String(), "x")}),
		Object(map[string]any{"b": Default(Number(), 1.0)}),
	).Run(map[string]any{})
	assert.Equal(t, map[string]any{"a": "x", "b": 1.0}, piped)
}

func TestValidateIsDeterministic(t *testing.T) {
	s := StrictObject(map[string]any{"a": StringType, "b": NumberType, "c": BooleanType})
	value := map[string]any{"a": 1.0, "b": "x", "c": "y", "d": 1.0, "e": 2.0}
	first := s.Validate(value).String()
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, s.Validate(value).String())
	}
}

func TestRunDoesNotPanicOnValidValues(t *testing.T) {
	s := Tuple(
		String(),
		Optional(Union(String(), Array(String()))),
		Optional(Intersection(Object(nil), Object(map[string]any{"speed": Default(Number(), 1.0)}))),
	)
	values := [][]any{
		{"a.mkv"},
		{"a.mkv", "b.srt"},
		{"a.mkv", []any{"b.srt", "c.srt"}, map[string]any{"start": 10.0}},
	}
	for _, v := range values {
		require.Empty(t, s.Validate(v))
		assert.NotPanics(t, func() { s.Run(v) })
	}
}

func TestErrorPrefix(t *testing.T) {
	err := newError("String", "number")
	assert.Equal(t, "a", err.Prefix("a").Path)
	assert.Equal(t, "0.a", err.Prefix("a").Prefix("0").Path)
	assert.Equal(t, "", err.Path, "prefix returns a copy")
}
