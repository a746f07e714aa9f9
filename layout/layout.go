// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package layout computes GLSL interface-block member offsets under the
// std140 and std430 layout rules. It generalizes the buffer-offset helpers
// a naga-derived HLSL backend hand-rolls for cbuffer packing
// (calculateBufferOffset, alignedOffset, getScalarTypeSize,
// getTypeAlignment, getTypeSize) into a target-agnostic layouter that
// works directly off the shared ir.Module type arena, driven by an
// explicit Rule (Std140 for uniform blocks, Std430 for storage buffers
// and push-constant blocks).
package layout

import "github.com/gogpu/glslback/ir"

// Rule selects which GLSL packing rule governs alignment and array/struct
// stride computation.
type Rule uint8

const (
	// Std140 is required for uniform blocks. Arrays and structs round
	// their stride up to a 16-byte (vec4) boundary regardless of the
	// element's own alignment.
	Std140 Rule = iota
	// Std430 is required for buffer blocks and push-constant blocks.
	// Arrays and structs use the element's own alignment as their stride
	// base, without the forced 16-byte rounding.
	Std430
)

// Member describes one field of a flattened interface block, in
// declaration order, with its byte offset and size already resolved.
type Member struct {
	Name   string
	Type   ir.TypeHandle
	Offset uint32
	Size   uint32
	// Path is the field-access path from the block root, used by the
	// Reflection Collector to report member access paths. Of lists only a
	// struct's direct members, so Path equals Name; members of nested
	// structs and array elements get no entries of their own.
	Path string
}

// Layout is the result of laying out a type (or, for push constants, an
// entire struct type taken as the block body) under a Rule.
type Layout struct {
	Alignment uint32
	Size      uint32
	Members   []Member // non-nil only when the laid-out type is a struct
}

// Of computes the Layout of the type named by handle under rule.
func Of(module *ir.Module, rule Rule, handle ir.TypeHandle) Layout {
	return ofPath(module, rule, handle, "")
}

func ofPath(module *ir.Module, rule Rule, handle ir.TypeHandle, path string) Layout {
	if int(handle) >= len(module.Types) {
		return Layout{Alignment: 4, Size: 4}
	}

	switch inner := module.Types[handle].Inner.(type) {
	case ir.ScalarType:
		w := uint32(inner.Width)
		return Layout{Alignment: w, Size: w}

	case ir.VectorType:
		scalarW := uint32(inner.Scalar.Width)
		switch inner.Size {
		case ir.Vec2:
			return Layout{Alignment: 2 * scalarW, Size: 2 * scalarW}
		default: // Vec3, Vec4: both align to a vec4; size is the components' total
			return Layout{Alignment: 4 * scalarW, Size: uint32(inner.Size) * scalarW}
		}

	case ir.MatrixType:
		// GLSL lays a column-major matrix out as Columns consecutive
		// column vectors, each column padded to vec4 alignment - i.e.
		// the same shape as an array of Columns vec{Rows}.
		colAlign, colSize := vectorAlign(inner.Rows, inner.Scalar.Width)
		stride := alignUp(colSize, colAlign)
		if rule == Std140 {
			stride = alignUp(stride, 16)
		}
		return Layout{Alignment: max(colAlign, 16), Size: stride * uint32(inner.Columns)}

	case ir.ArrayType:
		elem := ofPath(module, rule, inner.Base, path)
		stride := inner.Stride
		if stride == 0 {
			stride = alignUp(elem.Size, elem.Alignment)
		}
		align := elem.Alignment
		if rule == Std140 {
			align = alignUp(align, 16)
			stride = alignUp(stride, 16)
		}
		count := uint32(0)
		if inner.Size.Constant != nil {
			count = *inner.Size.Constant
		}
		return Layout{Alignment: align, Size: stride * count}

	case ir.StructType:
		members := make([]Member, 0, len(inner.Members))
		offset := uint32(0)
		maxAlign := uint32(4)
		for _, m := range inner.Members {
			ml := ofPath(module, rule, m.Type, path)
			align := ml.Alignment
			if align > maxAlign {
				maxAlign = align
			}
			offset = alignUp(offset, align)
			memberPath := m.Name
			if path != "" {
				memberPath = path + "." + m.Name
			}
			members = append(members, Member{Name: m.Name, Type: m.Type, Offset: offset, Size: ml.Size, Path: memberPath})
			offset += ml.Size
		}
		if rule == Std140 {
			maxAlign = alignUp(maxAlign, 16)
		}
		return Layout{Alignment: maxAlign, Size: alignUp(offset, maxAlign), Members: members}

	case ir.AtomicType:
		w := uint32(inner.Scalar.Width)
		return Layout{Alignment: w, Size: w}

	default:
		return Layout{Alignment: 4, Size: 4}
	}
}

func vectorAlign(size ir.VectorSize, scalarWidth uint8) (align, size32 uint32) {
	w := uint32(scalarWidth)
	switch size {
	case ir.Vec2:
		return 2 * w, 2 * w
	default:
		return 4 * w, uint32(size) * w
	}
}

func alignUp(offset, alignment uint32) uint32 {
	if alignment == 0 {
		return offset
	}
	return (offset + alignment - 1) &^ (alignment - 1)
}

func max(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
