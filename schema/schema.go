// Copyright 2023 The STMPS Authors
// SPDX-License-Identifier: GPL-3.0-only

// Package schema validates and coerces untrusted argument values against a
// small closed algebra of schema nodes.
//
// Nodes are immutable once built. Validate never panics and reports every
// independent mismatch in one pass, each carrying a dotted path from the
// validated root to the offending leaf. Run applies defaults and passes
// unknown object keys through unchanged.
package schema

import "fmt"

type Kind int

const (
	KindAny Kind = iota
	KindConstant
	KindOptional
	KindString
	KindNumber
	KindBoolean
	KindUnion
	KindIntersection
	KindTuple
	KindArray
	KindObject
)

var kindNames = map[Kind]string{
	KindAny:          "Any",
	KindConstant:     "Constant",
	KindOptional:     "Optional",
	KindString:       "String",
	KindNumber:       "Number",
	KindBoolean:      "Boolean",
	KindUnion:        "Union",
	KindIntersection: "Intersection",
	KindTuple:        "Tuple",
	KindArray:        "Array",
	KindObject:       "Object",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Node is a schema tree node. The set of implementations is closed to this
// package.
type Node interface {
	Kind() Kind
	// Validate reports every mismatch between v and the node, or nil.
	Validate(v any) Errors
	// Run coerces v, filling defaults for absent optional values.
	Run(v any) any

	node()
}

// Primitive is the literal marker for a primitive type, usable inside raw
// schema literals given to Normalize.
type Primitive int

const (
	StringType Primitive = iota + 1
	NumberType
	BooleanType
)

// Normalize turns a raw declarative literal into exactly one Node:
//
//	Node                 -> itself
//	[]any{}              -> Array(Any)
//	[]any{x}             -> Array(x)
//	[]any{x, y, ...}     -> Tuple(x, y, ...)
//	StringType etc.      -> String / Number / Boolean
//	map[string]any       -> Object (non strict)
//	anything else        -> Constant
func Normalize(raw any) Node {
	switch s := raw.(type) {
	case Node:
		return s
	case []any:
		switch len(s) {
		case 0:
			return Array(Any())
		case 1:
			return Array(s[0])
		default:
			return Tuple(s...)
		}
	case Primitive:
		switch s {
		case StringType:
			return String()
		case NumberType:
			return Number()
		case BooleanType:
			return Boolean()
		}
	case map[string]any:
		return Object(s)
	}
	return Constant(raw)
}

func normalizeAll(raw []any) []Node {
	nodes := make([]Node, len(raw))
	for i, r := range raw {
		nodes[i] = Normalize(r)
	}
	return nodes
}

func Any() *AnySchema { return &AnySchema{} }

func String() *StringSchema { return &StringSchema{} }

func Number() *NumberSchema { return &NumberSchema{} }

func Boolean() *BooleanSchema { return &BooleanSchema{} }

func Constant(value any) *ConstantSchema { return &ConstantSchema{value: value} }

// Optional accepts an absent (nil) value, otherwise delegates to inner.
func Optional(inner any) *OptionalSchema {
	return &OptionalSchema{inner: Normalize(inner)}
}

// Default is Optional with a value substituted by Run when absent.
func Default(inner any, value any) *OptionalSchema {
	return &OptionalSchema{inner: Normalize(inner), def: value}
}

func Union(members ...any) *UnionSchema {
	return &UnionSchema{members: normalizeAll(members)}
}

func Intersection(members ...any) *IntersectionSchema {
	return &IntersectionSchema{members: normalizeAll(members)}
}

// Tuple is a fixed-length positional sequence. Command argument lists are
// always tuples. Missing trailing positions are validated as absent, so only
// Optional items may be left out, and Run pads them with their defaults.
func Tuple(items ...any) *TupleSchema {
	return &TupleSchema{items: normalizeAll(items)}
}

// Array is a homogeneous sequence of any length.
func Array(item any) *ArraySchema {
	return &ArraySchema{item: Normalize(item)}
}

// Object accepts mappings and silently allows keys not named in fields.
func Object(fields map[string]any) *ObjectSchema {
	return newObject(fields, false)
}

// StrictObject is Object rejecting every key not named in fields.
func StrictObject(fields map[string]any) *ObjectSchema {
	return newObject(fields, true)
}

func newObject(fields map[string]any, strict bool) *ObjectSchema {
	nodes := make(map[string]Node, len(fields))
	for k, v := range fields {
		nodes[k] = Normalize(v)
	}
	return &ObjectSchema{fields: nodes, strict: strict}
}
