// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

package schema

import (
	"fmt"
	"strconv"
)

type AnySchema struct{}

func (*AnySchema) Kind() Kind          { return KindAny }
func (*AnySchema) Validate(any) Errors { return nil }
func (*AnySchema) Run(v any) any       { return v }
func (*AnySchema) node()               {}

type ConstantSchema struct {
	value any
}

func (s *ConstantSchema) Kind() Kind { return KindConstant }
func (s *ConstantSchema) Value() any { return s.value }

func (s *ConstantSchema) Validate(v any) Errors {
	if looseEqual(v, s.value) {
		return nil
	}
	return Errors{newError(quote(s.value), quote(v))}
}

func (s *ConstantSchema) Run(any) any { return s.value }
func (*ConstantSchema) node()         {}

func quote(v any) string {
	if v == nil {
		return `"undefined"`
	}
	return fmt.Sprintf("%q", fmt.Sprint(v))
}

type OptionalSchema struct {
	inner Node
	def   any
}

func (s *OptionalSchema) Kind() Kind   { return KindOptional }
func (s *OptionalSchema) Inner() Node  { return s.inner }
func (s *OptionalSchema) Default() any { return s.def }

func (s *OptionalSchema) Validate(v any) Errors {
	if v == nil {
		return nil
	}
	return s.inner.Validate(v)
}

func (s *OptionalSchema) Run(v any) any {
	if v == nil {
		v = s.def
	}
	return s.inner.Run(v)
}

func (*OptionalSchema) node() {}

type StringSchema struct{}

func (*StringSchema) Kind() Kind { return KindString }

func (*StringSchema) Validate(v any) Errors {
	if _, ok := v.(string); ok {
		return nil
	}
	return Errors{newError("String", TypeName(v))}
}

func (*StringSchema) Run(v any) any { return v }
func (*StringSchema) node()         {}

type NumberSchema struct{}

func (*NumberSchema) Kind() Kind { return KindNumber }

func (*NumberSchema) Validate(v any) Errors {
	if isNumber(v) {
		return nil
	}
	return Errors{newError("Number", TypeName(v))}
}

func (*NumberSchema) Run(v any) any { return v }
func (*NumberSchema) node()         {}

type BooleanSchema struct{}

func (*BooleanSchema) Kind() Kind { return KindBoolean }

func (*BooleanSchema) Validate(v any) Errors {
	if _, ok := v.(bool); ok {
		return nil
	}
	return Errors{newError("Boolean", TypeName(v))}
}

func (*BooleanSchema) Run(v any) any { return v }
func (*BooleanSchema) node()         {}

// UnionSchema matches when any member matches. A failing value reports the
// errors of every member, in member order.
type UnionSchema struct {
	members []Node
}

func (s *UnionSchema) Kind() Kind { return KindUnion }

func (s *UnionSchema) Members() []Node {
	return append([]Node(nil), s.members...)
}

func (s *UnionSchema) Validate(v any) Errors {
	var errs Errors
	for _, member := range s.members {
		memberErrs := member.Validate(v)
		if len(memberErrs) == 0 {
			return nil
		}
		errs = append(errs, memberErrs...)
	}
	return errs
}

// Run coerces v with the first member that accepts v, or returns v as is.
func (s *UnionSchema) Run(v any) any {
	for _, member := range s.members {
		if len(member.Validate(v)) == 0 {
			return member.Run(v)
		}
	}
	return v
}

func (*UnionSchema) node() {}

// IntersectionSchema matches when every member matches. Run feeds the output
// of each member into the next.
type IntersectionSchema struct {
	members []Node
}

func (s *IntersectionSchema) Kind() Kind { return KindIntersection }

func (s *IntersectionSchema) Members() []Node {
	return append([]Node(nil), s.members...)
}

func (s *IntersectionSchema) Validate(v any) Errors {
	var errs Errors
	for _, member := range s.members {
		errs = append(errs, member.Validate(v)...)
	}
	return errs
}

func (s *IntersectionSchema) Run(v any) any {
	for _, member := range s.members {
		v = member.Run(v)
	}
	return v
}

func (*IntersectionSchema) node() {}

type TupleSchema struct {
	items []Node
}

func (s *TupleSchema) Kind() Kind { return KindTuple }
func (s *TupleSchema) Len() int   { return len(s.items) }

func (s *TupleSchema) Items() []Node {
	return append([]Node(nil), s.items...)
}

// Validate checks each position against its item schema. Missing trailing
// positions are validated as absent, so only Optional items may be left out;
// positions past the end of the tuple are rejected.
func (s *TupleSchema) Validate(v any) Errors {
	values, ok := asSlice(v)
	if !ok {
		return Errors{newError("Array", TypeName(v))}
	}
	var errs Errors
	for i := 0; i < len(values) || i < len(s.items); i++ {
		index := strconv.Itoa(i)
		if i >= len(s.items) {
			errs = append(errs, newError("Undefined", TypeName(values[i])).Prefix(index))
			continue
		}
		var item any
		if i < len(values) {
			item = values[i]
		}
		errs = append(errs, s.items[i].Validate(item).prefix(index)...)
	}
	return errs
}

// Run coerces each positional value and returns a new slice at least as long
// as the tuple. Values past the end of the tuple are kept unchanged.
func (s *TupleSchema) Run(v any) any {
	values, ok := asSlice(v)
	if !ok {
		return v
	}
	size := len(values)
	if size < len(s.items) {
		size = len(s.items)
	}
	out := make([]any, size)
	for i := range out {
		var item any
		if i < len(values) {
			item = values[i]
		}
		if i < len(s.items) {
			out[i] = s.items[i].Run(item)
		} else {
			out[i] = item
		}
	}
	return out
}

func (*TupleSchema) node() {}

type ArraySchema struct {
	item Node
}

func (s *ArraySchema) Kind() Kind { return KindArray }
func (s *ArraySchema) Item() Node { return s.item }

func (s *ArraySchema) Validate(v any) Errors {
	values, ok := asSlice(v)
	if !ok {
		return Errors{newError("Array", TypeName(v))}
	}
	var errs Errors
	for i, item := range values {
		errs = append(errs, s.item.Validate(item).prefix(strconv.Itoa(i))...)
	}
	return errs
}

func (s *ArraySchema) Run(v any) any {
	values, ok := asSlice(v)
	if !ok {
		return v
	}
	out := make([]any, len(values))
	for i, item := range values {
		out[i] = s.item.Run(item)
	}
	return out
}

func (*ArraySchema) node() {}

type ObjectSchema struct {
	fields map[string]Node
	strict bool
}

func (s *ObjectSchema) Kind() Kind   { return KindObject }
func (s *ObjectSchema) Strict() bool { return s.strict }

// Field returns the schema of a declared field.
func (s *ObjectSchema) Field(name string) (Node, bool) {
	n, ok := s.fields[name]
	return n, ok
}

func (s *ObjectSchema) fieldNames() []string {
	names := make(map[string]any, len(s.fields))
	for k := range s.fields {
		names[k] = nil
	}
	return sortedKeys(names)
}

// Validate checks every declared field, present or not, so that required
// fields are enforced by their own schema. Keys are visited in sorted order.
func (s *ObjectSchema) Validate(v any) Errors {
	values, ok := asMap(v)
	if !ok {
		return Errors{newError("Object", TypeName(v))}
	}
	var errs Errors
	for _, key := range sortedKeys(values) {
		if _, declared := s.fields[key]; !declared && s.strict {
			errs = append(errs, newError("Undefined", TypeName(values[key])).Prefix(key))
		}
	}
	for _, key := range s.fieldNames() {
		errs = append(errs, s.fields[key].Validate(values[key]).prefix(key)...)
	}
	return errs
}

// Run returns a new mapping with declared fields coerced (defaulted when
// absent) and undeclared keys copied verbatim.
func (s *ObjectSchema) Run(v any) any {
	values, ok := asMap(v)
	if !ok {
		return v
	}
	out := make(map[string]any, len(values)+len(s.fields))
	for key, value := range values {
		out[key] = value
	}
	for key, field := range s.fields {
		out[key] = field.Run(values[key])
	}
	return out
}

func (*ObjectSchema) node() {}
