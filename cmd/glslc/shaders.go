// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import "github.com/gogpu/glslback/ir"

// buildTriangleModule hand-assembles a vertex/fragment IR module
// equivalent to a minimal textured-triangle shader: the vertex stage
// forwards a clip-space position and an interpolated color, the
// fragment stage writes the interpolated color straight to the
// framebuffer attachment.
func buildTriangleModule() *ir.Module {
	f32 := ir.ScalarType{Kind: ir.ScalarFloat, Width: 4}
	vec3f := ir.Type{Name: "vec3f", Inner: ir.VectorType{Size: ir.Vec3, Scalar: f32}}
	vec4f := ir.Type{Name: "vec4f", Inner: ir.VectorType{Size: ir.Vec4, Scalar: f32}}

	const (
		tVec3 ir.TypeHandle = iota
		tVec4
		tVertexOutput
	)

	vertexOutput := ir.Type{
		Name: "VertexOutput",
		Inner: ir.StructType{
			Members: []ir.StructMember{
				{Name: "position", Type: tVec4, Binding: bindingPtr(ir.BuiltinBinding{Builtin: ir.BuiltinPosition})},
				{Name: "color", Type: tVec3, Binding: bindingPtr(ir.LocationBinding{Location: 0})},
			},
			Span: 0,
		},
	}

	module := &ir.Module{
		Types: []ir.Type{tVec3: vec3f, tVec4: vec4f, tVertexOutput: vertexOutput},
	}

	vsMain := ir.Function{
		Name: "vs_main",
		Arguments: []ir.FunctionArgument{
			{Name: "position", Type: tVec3, Binding: bindingPtr(ir.LocationBinding{Location: 0})},
			{Name: "color", Type: tVec3, Binding: bindingPtr(ir.LocationBinding{Location: 1})},
		},
		Result: &ir.FunctionResult{Type: tVertexOutput},
		Expressions: []ir.Expression{
			{Kind: ir.ExprFunctionArgument{Index: 0}},               // 0: position
			{Kind: ir.ExprFunctionArgument{Index: 1}},               // 1: color
			{Kind: ir.Literal{Value: ir.LiteralF32(1.0)}},           // 2: 1.0
			{Kind: ir.ExprCompose{Type: tVec4, Components: []ir.ExpressionHandle{0, 2}}},          // 3: vec4(position, 1.0)
			{Kind: ir.ExprCompose{Type: tVertexOutput, Components: []ir.ExpressionHandle{3, 1}}}, // 4: VertexOutput(...)
		},
		Body: ir.Block{
			{Kind: ir.StmtEmit{Range: ir.Range{Start: 0, End: 4}}},
			{Kind: ir.StmtReturn{Value: handlePtr(4)}},
		},
	}

	fsMain := ir.Function{
		Name: "fs_main",
		Arguments: []ir.FunctionArgument{
			{Name: "color", Type: tVec3, Binding: bindingPtr(ir.LocationBinding{Location: 0})},
		},
		Result: &ir.FunctionResult{Type: tVec4, Binding: bindingPtr(ir.LocationBinding{Location: 0})},
		Expressions: []ir.Expression{
			{Kind: ir.ExprFunctionArgument{Index: 0}},     // 0: color
			{Kind: ir.Literal{Value: ir.LiteralF32(1.0)}}, // 1: 1.0 (alpha)
			{Kind: ir.ExprCompose{Type: tVec4, Components: []ir.ExpressionHandle{0, 1}}}, // 2: vec4(color, 1.0)
		},
		Body: ir.Block{
			{Kind: ir.StmtEmit{Range: ir.Range{Start: 0, End: 2}}},
			{Kind: ir.StmtReturn{Value: handlePtr(2)}},
		},
	}

	module.Functions = []ir.Function{vsMain, fsMain}
	module.EntryPoints = []ir.EntryPoint{
		{Name: "vs_main", Stage: ir.StageVertex, Function: 0},
		{Name: "fs_main", Stage: ir.StageFragment, Function: 1},
	}
	return module
}

// buildReductionModule hand-assembles a compute IR module that doubles
// every element of a storage buffer in place and tallies how many
// invocations ran with an atomic counter, exercising storage globals,
// atomics, and memory barriers in one entry point.
func buildReductionModule() *ir.Module {
	f32 := ir.ScalarType{Kind: ir.ScalarFloat, Width: 4}
	u32 := ir.ScalarType{Kind: ir.ScalarUint, Width: 4}

	const (
		tF32 ir.TypeHandle = iota
		tU32
		tVec3U
		tArrayF32
		tDataBlock
		tAtomicU32
	)

	module := &ir.Module{
		Types: []ir.Type{
			tF32:   {Name: "f32", Inner: f32},
			tU32:   {Name: "u32", Inner: u32},
			tVec3U: {Name: "vec3u", Inner: ir.VectorType{Size: ir.Vec3, Scalar: u32}},
			tArrayF32: {Name: "array<f32>", Inner: ir.ArrayType{
				Base: tF32, Size: ir.ArraySize{Constant: nil}, Stride: 4,
			}},
			tDataBlock: {Name: "DataBlock", Inner: ir.StructType{
				Members: []ir.StructMember{{Name: "values", Type: tArrayF32, Offset: 0}},
			}},
			tAtomicU32: {Name: "atomic<u32>", Inner: ir.AtomicType{Scalar: u32}},
		},
		GlobalVariables: []ir.GlobalVariable{
			{Name: "data", Space: ir.SpaceStorage, Binding: &ir.ResourceBinding{Group: 0, Binding: 0}, Type: tDataBlock},
			{Name: "counter", Space: ir.SpaceStorage, Binding: &ir.ResourceBinding{Group: 0, Binding: 1}, Type: tAtomicU32},
		},
	}

	csMain := ir.Function{
		Name: "cs_main",
		Arguments: []ir.FunctionArgument{
			{Name: "gid", Type: tVec3U, Binding: bindingPtr(ir.BuiltinBinding{Builtin: ir.BuiltinGlobalInvocationID})},
		},
		Expressions: []ir.Expression{
			{Kind: ir.ExprFunctionArgument{Index: 0}},                         // 0: gid
			{Kind: ir.ExprAccessIndex{Base: 0, Index: 0}},                     // 1: gid.x
			{Kind: ir.ExprGlobalVariable{Variable: 0}},                        // 2: data
			{Kind: ir.ExprAccessIndex{Base: 2, Index: 0}},                     // 3: data.values
			{Kind: ir.ExprAccess{Base: 3, Index: 1}},                         // 4: data.values[gid.x]
			{Kind: ir.ExprLoad{Pointer: 4}},                                   // 5: load
			{Kind: ir.Literal{Value: ir.LiteralF32(2.0)}},                     // 6: 2.0
			{Kind: ir.ExprBinary{Op: ir.BinaryMultiply, Left: 5, Right: 6}},   // 7: value * 2.0
			{Kind: ir.ExprGlobalVariable{Variable: 1}},                        // 8: counter
			{Kind: ir.Literal{Value: ir.LiteralU32(1)}},                       // 9: 1u
		},
		Body: ir.Block{
			{Kind: ir.StmtEmit{Range: ir.Range{Start: 0, End: 8}}},
			{Kind: ir.StmtStore{Pointer: 4, Value: 7}},
			{Kind: ir.StmtBarrier{Flags: ir.BarrierStorage}},
			{Kind: ir.StmtAtomic{Pointer: 8, Fun: ir.AtomicAdd{}, Value: 9}},
		},
	}

	module.Functions = []ir.Function{csMain}
	module.EntryPoints = []ir.EntryPoint{
		{Name: "cs_main", Stage: ir.StageCompute, Function: 0, Workgroup: [3]uint32{64, 1, 1}},
	}
	return module
}

func bindingPtr(b ir.Binding) *ir.Binding {
	return &b
}

func handlePtr(h ir.ExpressionHandle) *ir.ExpressionHandle {
	return &h
}
