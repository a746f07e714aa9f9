// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"github.com/gogpu/glslback/ir"
	"github.com/gogpu/glslback/layout"
)

// Reflection reports everything a pipeline layer needs to bind resources
// and validate a translated entry point against its host API, per §4.9.
type Reflection struct {
	// EntryPoint is the generated GLSL name of the selected entry point
	// (always "main").
	EntryPoint string

	// TextureSamplerPairs lists the combined texture+sampler names this
	// translation synthesized, "textureName_samplerName" per pair.
	TextureSamplerPairs []string

	// Uniforms lists each uniform-space global by its generated GLSL name
	// with, for struct-typed uniforms, its std140 member layout.
	Uniforms []UniformReflection

	// PushConstant describes the at-most-one push-constant block reachable
	// from the entry point, or is the zero value if there is none.
	PushConstant *PushConstantReflection

	// Varyings lists the location-bound arguments and the location-bound
	// result (named "result") of the selected entry point. Members of
	// struct-typed arguments or results are not listed.
	Varyings []VaryingReflection

	// ClipDistanceCount is the array size of gl_ClipDistance this entry
	// point writes, 0 if it writes none.
	ClipDistanceCount uint32

	// UsedExtensions lists GLSL extensions required by the shader.
	UsedExtensions []string

	// RequiredVersion is the minimum GLSL version needed for this shader.
	RequiredVersion Version
}

// UniformReflection describes one uniform-space global.
type UniformReflection struct {
	Name    string
	Members []MemberAccess
}

// PushConstantReflection describes the push-constant block, with the
// std430 byte offset of each direct member of the block. Members of nested
// structs are not listed separately.
type PushConstantReflection struct {
	Name    string
	Size    uint32
	Members []MemberAccess
}

// MemberAccess names one interface-block member and its byte offset.
type MemberAccess struct {
	Path   string
	Offset uint32
	Size   uint32
}

// VaryingReflection describes one location-bound entry-point argument or
// result member.
type VaryingReflection struct {
	Name     string
	Location uint32
	BlendSrc *uint32
}

// buildReflection assembles a Reflection from the writer's bookkeeping
// after writeModule has completed successfully.
func (w *Writer) buildReflection() Reflection {
	r := Reflection{
		EntryPoint:          "main",
		TextureSamplerPairs: w.textureSamplerPairs,
		UsedExtensions:      w.extensions,
		RequiredVersion:     w.requiredVersion,
	}

	for handle, global := range w.module.GlobalVariables {
		h := ir.GlobalVariableHandle(handle) //nolint:gosec // G115: handle is valid slice index
		name := w.names[nameKey{kind: nameKeyGlobalVariable, handle1: uint32(handle)}] //nolint:gosec // G115: handle is valid slice index

		switch global.Space {
		case ir.SpaceUniform:
			l := w.uniformLayouts[h]
			r.Uniforms = append(r.Uniforms, UniformReflection{
				Name:    name,
				Members: memberAccessesFrom(l),
			})
		case ir.SpacePushConstant:
			l := w.storageLayouts[h]
			r.PushConstant = &PushConstantReflection{
				Name:    name,
				Size:    l.Size,
				Members: memberAccessesFrom(l),
			}
		}
	}

	if w.selectedEntryPoint >= 0 && w.selectedEntryPoint < len(w.module.EntryPoints) {
		ep := w.module.EntryPoints[w.selectedEntryPoint]
		fn := &w.module.Functions[ep.Function]
		r.Varyings = append(r.Varyings, varyingsFromArguments(fn)...)
		if fn.Result != nil {
			r.Varyings = append(r.Varyings, varyingsFromResult(fn)...)
			r.ClipDistanceCount = clipDistanceCountOf(w.module, fn)
		}
	}

	return r
}

// memberAccessesFrom flattens a computed interface-block layout into
// name/offset/size triples for reflection output.
func memberAccessesFrom(l layout.Layout) []MemberAccess {
	members := make([]MemberAccess, 0, len(l.Members))
	for _, m := range l.Members {
		path := m.Path
		if path == "" {
			path = m.Name
		}
		members = append(members, MemberAccess{Path: path, Offset: m.Offset, Size: m.Size})
	}
	return members
}

// varyingsFromArguments collects location-bound entry-point arguments.
func varyingsFromArguments(fn *ir.Function) []VaryingReflection {
	var out []VaryingReflection
	for _, arg := range fn.Arguments {
		if arg.Binding == nil {
			continue
		}
		if loc, ok := (*arg.Binding).(ir.LocationBinding); ok {
			out = append(out, VaryingReflection{Name: arg.Name, Location: loc.Location, BlendSrc: loc.BlendSrc})
		}
	}
	return out
}

// varyingsFromResult collects the location-bound entry-point result.
func varyingsFromResult(fn *ir.Function) []VaryingReflection {
	if fn.Result == nil || fn.Result.Binding == nil {
		return nil
	}
	if loc, ok := (*fn.Result.Binding).(ir.LocationBinding); ok {
		return []VaryingReflection{{Name: "result", Location: loc.Location, BlendSrc: loc.BlendSrc}}
	}
	return nil
}

// clipDistanceCountOf reports the gl_ClipDistance array size the entry
// point's result implies, 0 if its result carries no ClipDistance builtin.
func clipDistanceCountOf(module *ir.Module, fn *ir.Function) uint32 {
	if fn.Result == nil || fn.Result.Binding == nil {
		return 0
	}
	b, ok := (*fn.Result.Binding).(ir.BuiltinBinding)
	if !ok || b.Builtin != ir.BuiltinClipDistance {
		return 0
	}
	if int(fn.Result.Type) < len(module.Types) {
		if arr, ok := module.Types[fn.Result.Type].Inner.(ir.ArrayType); ok && arr.Size.Constant != nil {
			return *arr.Size.Constant
		}
	}
	return 1
}
