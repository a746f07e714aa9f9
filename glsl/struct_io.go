// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import "github.com/gogpu/glslback/ir"

// epStructInfo describes a struct-typed, binding-less entry point result so
// writeStructReturn (statements.go) can expand a single return value into
// per-member output assignments.
type epStructInfo struct {
	structType ir.TypeHandle
	members    []epMemberInfo
}

// epMemberInfo is the resolved GLSL target for one struct member: either a
// declared `out` variable or a `gl_*` builtin.
type epMemberInfo struct {
	glslName string
}

// writeStructInputArgs flattens a struct-typed, binding-less entry point
// argument into one `in` declaration per location-bound member (bare member
// name, no prefix) and records each member's resolved GLSL expression in
// w.flattenedArgs, keyed by argument and member index. A member carrying a
// builtin binding gets no declaration at all; it resolves directly to the
// corresponding gl_* variable. This lets writeAccessIndex answer an access
// into the (non-existent, as far as GLSL is concerned) struct argument
// without ever naming the struct itself.
func (w *Writer) writeStructInputArgs(argIdx int, typeHandle ir.TypeHandle) {
	st, ok := w.module.Types[typeHandle].Inner.(ir.StructType)
	if !ok {
		return
	}
	if w.flattenedArgs == nil {
		w.flattenedArgs = make(map[uint32]map[uint32]string)
	}
	members := make(map[uint32]string, len(st.Members))
	for memberIdx, member := range st.Members {
		if member.Binding == nil {
			continue
		}
		switch b := (*member.Binding).(type) {
		case ir.BuiltinBinding:
			members[uint32(memberIdx)] = glslBuiltIn(b.Builtin, false) //nolint:gosec // G115: memberIdx is a small struct index
		case ir.LocationBinding:
			baseType := w.getBaseTypeName(member.Type)
			arraySuffix := w.getArraySuffix(member.Type)
			name := w.namer.Call(member.Name)
			w.writeLine("%s in %s %s%s;", w.locationQualifier(b), baseType, name, arraySuffix)
			members[uint32(memberIdx)] = name //nolint:gosec // G115: memberIdx is a small struct index
		}
	}
	w.flattenedArgs[uint32(argIdx)] = members //nolint:gosec // G115: argIdx is a small argument index
}

// writeStructOutputResult flattens a struct-typed, binding-less entry point
// result into one `out` declaration per location-bound member, plus a gl_*
// builtin assignment target for any builtin-bound member. Vertex stage
// outputs are varyings, so each gets a "v_" prefix to avoid colliding with
// a same-named fragment-stage input; fragment stage outputs are real
// attachments and keep their bare member name. The resulting table drives
// writeStructReturn's per-member expansion of the return statement.
func (w *Writer) writeStructOutputResult(typeHandle ir.TypeHandle) {
	st, ok := w.module.Types[typeHandle].Inner.(ir.StructType)
	if !ok {
		return
	}
	info := &epStructInfo{structType: typeHandle, members: make([]epMemberInfo, len(st.Members))}
	for memberIdx, member := range st.Members {
		if member.Binding == nil {
			continue
		}
		switch b := (*member.Binding).(type) {
		case ir.BuiltinBinding:
			info.members[memberIdx] = epMemberInfo{glslName: glslBuiltIn(b.Builtin, true)}
		case ir.LocationBinding:
			baseType := w.getBaseTypeName(member.Type)
			arraySuffix := w.getArraySuffix(member.Type)
			var name string
			if w.entryPointStage == ir.StageVertex {
				name = w.namer.CallWithPrefix("v_", member.Name)
			} else {
				name = w.namer.Call(member.Name)
			}
			w.writeLine("%s out %s %s%s;", w.locationQualifier(b), baseType, name, arraySuffix)
			info.members[memberIdx] = epMemberInfo{glslName: name}
		}
	}
	w.epStructOutput = info
}
