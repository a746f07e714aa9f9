// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"math"
	"strings"

	"github.com/gogpu/glslback/ir"
	"github.com/gogpu/glslback/layout"
	"github.com/gogpu/glslback/namer"
)

// nameKey identifies an IR entity for name lookup.
type nameKey struct {
	kind    nameKeyKind
	handle1 uint32
	handle2 uint32
}

type nameKeyKind uint8

const (
	nameKeyType nameKeyKind = iota
	nameKeyStructMember
	nameKeyConstant
	nameKeyGlobalVariable
	nameKeyFunction
	nameKeyFunctionArgument
	nameKeyEntryPoint
	nameKeyLocal
)

// Writer generates GLSL source code from IR.
type Writer struct {
	module  *ir.Module
	options *Options
	info    *ir.ModuleInfo
	policies BoundsCheckPolicies

	// pipeline narrows the module down to one entry point when Write (as
	// opposed to the simpler Compile) selected it.
	pipeline           PipelineOptions
	selectedEntryPoint int // -1 when unset; falls back to Options.EntryPoint matching

	// Output buffer
	out strings.Builder

	// Current indentation level
	indent int

	// Name management
	names map[nameKey]string
	namer *namer.Namer

	// Type tracking
	typeNames map[ir.TypeHandle]string

	// Texture-sampler pair tracking (WGSL separates, GLSL combines)
	textureSamplerPairs []string

	// Function context (set during function writing)
	currentFunction   *ir.Function
	currentFuncHandle ir.FunctionHandle
	localNames        map[uint32]string
	namedExpressions  map[ir.ExpressionHandle]string

	// Entry point context
	inEntryPoint     bool
	entryPointResult *ir.FunctionResult
	entryPointStage  ir.ShaderStage

	// flattenedArgs maps a struct-typed, binding-less entry point argument
	// (by argument index) to its per-member flattened GLSL variable name,
	// keyed by the struct member index. Populated by writeVertexIO /
	// writeFragmentIO, consumed by writeAccessIndex.
	flattenedArgs map[uint32]map[uint32]string

	// epStructOutput describes a struct-typed, binding-less entry point
	// result, so writeReturn can expand a single struct return value into
	// per-member output assignments.
	epStructOutput *epStructInfo

	// Expression baking (expressions that need to be materialized to temporaries)
	needBakeExpression map[ir.ExpressionHandle]struct{}

	// Output tracking
	entryPointNames map[string]string
	extensions      []string
	requiredVersion Version

	// Helper function flags
	needsModHelper       bool
	needsDivHelper       bool
	needsFirstInstance   bool
	pushConstantGlobal   *ir.GlobalVariableHandle
	uniformLayouts       map[ir.GlobalVariableHandle]layout.Layout
	storageLayouts       map[ir.GlobalVariableHandle]layout.Layout

	// doWhileStack tracks nested loops and switches being rendered as
	// do-while; for each rewritten switch it carries the boolean gate(s)
	// that forward a continue/break out of the synthetic loop. A plain
	// loop or switch pushes an empty frame so break/continue nested
	// inside it fall through to native GLSL break/continue instead of
	// being forwarded to an outer frame.
	doWhileStack []doWhileFrame
	gateCounter  int
}

// isReservedGLSL reports whether name collides with GLSL reserved words or
// starts with the `gl_` prefix.
func isReservedGLSL(name string) bool {
	if strings.HasPrefix(name, "gl_") {
		return true
	}
	return isKeyword(name)
}

// newWriter creates a new GLSL writer. info and the zero-value policies may
// be nil/zero when called from the simpler Compile entry point.
func newWriter(module *ir.Module, options *Options, info *ir.ModuleInfo, policies BoundsCheckPolicies) *Writer {
	return &Writer{
		module:             module,
		options:            options,
		info:               info,
		policies:           policies,
		selectedEntryPoint: -1,
		names:              make(map[nameKey]string),
		namer:              namer.New(isReservedGLSL, false),
		typeNames:          make(map[ir.TypeHandle]string),
		entryPointNames:    make(map[string]string),
		namedExpressions:   make(map[ir.ExpressionHandle]string),
		needBakeExpression: make(map[ir.ExpressionHandle]struct{}),
		requiredVersion:    options.LangVersion,
		uniformLayouts:     make(map[ir.GlobalVariableHandle]layout.Layout),
		storageLayouts:     make(map[ir.GlobalVariableHandle]layout.Layout),
	}
}

// String returns the generated GLSL source code.
func (w *Writer) String() string {
	return w.out.String()
}

// writeModule generates GLSL code for the entire module. After name
// registration it lowers the functions and the entry point first, so the
// extensions and helpers they require are known, and then writes the output
// in the fixed order: version, extensions, precision, types, constants,
// globals, helpers, functions, entry point.
func (w *Writer) writeModule() error {
	if err := validateScalarTypes(w.module); err != nil {
		return err
	}

	if err := w.registerNames(); err != nil {
		return err
	}

	if err := w.writeFunctions(); err != nil {
		return err
	}
	if err := w.writeEntryPoints(); err != nil {
		return err
	}
	body := w.out.String()
	w.out.Reset()

	w.writeVersionDirective()
	w.writeExtensionDirectives()
	w.writePrecisionQualifiers()

	if err := w.writeTypes(); err != nil {
		return err
	}

	if err := w.writeConstants(); err != nil {
		return err
	}

	if err := w.computeResourceLayouts(); err != nil {
		return err
	}

	if err := w.writeGlobalVariables(); err != nil {
		return err
	}

	w.writeHelperFunctions()

	w.out.WriteString(body)
	return nil
}

// writeVersionDirective writes the #version directive.
func (w *Writer) writeVersionDirective() {
	w.writeLine("#version %s", w.options.LangVersion.String())
	w.writeLine("")
}

// writeExtensionDirectives emits `#extension ... : require` lines for every
// extension this translation collected while lowering statements and
// expressions (e.g. GL_OVR_multiview2, GL_ARB_shader_ballot).
func (w *Writer) writeExtensionDirectives() {
	if len(w.extensions) == 0 {
		return
	}
	for _, ext := range w.extensions {
		w.writeLine("#extension %s : require", ext)
	}
	w.writeLine("")
}

// requireExtension records ext as used, without duplicating entries.
func (w *Writer) requireExtension(ext string) {
	for _, e := range w.extensions {
		if e == ext {
			return
		}
	}
	w.extensions = append(w.extensions, ext)
}

// writePrecisionQualifiers writes precision qualifiers for ES.
func (w *Writer) writePrecisionQualifiers() {
	if !w.options.LangVersion.ES {
		return
	}

	precision := "mediump"
	if w.options.ForceHighPrecision {
		precision = "highp"
	}
	w.writeLine("precision %s float;", precision)
	w.writeLine("precision %s int;", precision)
	w.writeLine("precision %s sampler2D;", precision)
	w.writeLine("precision %s sampler3D;", precision)
	w.writeLine("precision %s samplerCube;", precision)
	w.writeLine("")
}

// registerNames assigns unique names to all IR entities, selecting exactly
// one entry point to emit as `void main()`.
//
//nolint:gocognit // Name registration requires handling all IR entity types
func (w *Writer) registerNames() error {
	w.namer.Reserve("main")

	for handle, typ := range w.module.Types {
		var baseName string
		if typ.Name != "" {
			baseName = typ.Name
		} else {
			baseName = fmt.Sprintf("type_%d", handle)
		}
		name := w.namer.Call(baseName)
		w.names[nameKey{kind: nameKeyType, handle1: uint32(handle)}] = name //nolint:gosec // G115: handle is valid slice index
		w.typeNames[ir.TypeHandle(handle)] = name                           //nolint:gosec // G115: handle is valid slice index

		if st, ok := typ.Inner.(ir.StructType); ok {
			for memberIdx, member := range st.Members {
				memberName := member.Name
				if memberName == "" {
					memberName = fmt.Sprintf("member_%d", memberIdx)
				}
				w.names[nameKey{kind: nameKeyStructMember, handle1: uint32(handle), handle2: uint32(memberIdx)}] = escapeKeyword(memberName) //nolint:gosec // G115: handle is valid slice index
			}
		}
	}

	for handle, constant := range w.module.Constants {
		var baseName string
		if constant.Name != "" {
			baseName = constant.Name
		} else {
			baseName = fmt.Sprintf("const_%d", handle)
		}
		name := w.namer.Call(baseName)
		w.names[nameKey{kind: nameKeyConstant, handle1: uint32(handle)}] = name //nolint:gosec // G115: handle is valid slice index
	}

	for handle, global := range w.module.GlobalVariables {
		var baseName string
		if global.Name != "" {
			baseName = global.Name
		} else {
			baseName = fmt.Sprintf("global_%d", handle)
		}
		name := w.namer.Call(baseName)
		w.names[nameKey{kind: nameKeyGlobalVariable, handle1: uint32(handle)}] = name //nolint:gosec // G115: handle is valid slice index
		if global.Space == ir.SpacePushConstant {
			h := ir.GlobalVariableHandle(handle) //nolint:gosec // G115: handle is valid slice index
			if w.pushConstantGlobal != nil {
				return newError(ErrMultiplePushConstants, "more than one push-constant global is reachable from the entry point")
			}
			w.pushConstantGlobal = &h
		}
	}

	for handle := range w.module.Functions {
		fn := &w.module.Functions[handle]
		var baseName string
		if fn.Name != "" {
			baseName = fn.Name
		} else {
			baseName = fmt.Sprintf("function_%d", handle)
		}
		name := w.namer.Call(baseName)
		w.names[nameKey{kind: nameKeyFunction, handle1: uint32(handle)}] = name //nolint:gosec // G115: handle is valid slice index

		for argIdx, arg := range fn.Arguments {
			argName := arg.Name
			if argName == "" {
				argName = fmt.Sprintf("arg_%d", argIdx)
			}
			w.names[nameKey{kind: nameKeyFunctionArgument, handle1: uint32(handle), handle2: uint32(argIdx)}] = escapeKeyword(argName) //nolint:gosec // G115: argIdx is bounded by slice length
		}
	}

	epIdx, err := w.resolveSelectedEntryPoint()
	if err != nil {
		return err
	}
	w.selectedEntryPoint = epIdx
	ep := w.module.EntryPoints[epIdx]
	w.names[nameKey{kind: nameKeyEntryPoint, handle1: uint32(epIdx)}] = "main"
	w.entryPointNames[ep.Name] = "main"

	return nil
}

// resolveSelectedEntryPoint picks the single entry point to emit: the one
// matching PipelineOptions if set by Write, otherwise Options.EntryPoint by
// name, otherwise the sole entry point (erroring if there is more than one
// and neither selector disambiguates), per §6.
func (w *Writer) resolveSelectedEntryPoint() (int, error) {
	if w.pipeline.EntryPointName != "" {
		for i, ep := range w.module.EntryPoints {
			if ep.Name == w.pipeline.EntryPointName && ep.Stage == w.pipeline.Stage {
				return i, nil
			}
		}
		return 0, newError(ErrEntryPointNotFound, fmt.Sprintf("no entry point named %q for the requested stage", w.pipeline.EntryPointName))
	}
	if w.options.EntryPoint != "" {
		for i, ep := range w.module.EntryPoints {
			if ep.Name == w.options.EntryPoint {
				return i, nil
			}
		}
		return 0, newError(ErrEntryPointNotFound, fmt.Sprintf("no entry point named %q", w.options.EntryPoint))
	}
	if len(w.module.EntryPoints) == 0 {
		return 0, newError(ErrEntryPointNotFound, "module has no entry points")
	}
	if len(w.module.EntryPoints) > 1 {
		return 0, newError(ErrEntryPointNotFound, "module has multiple entry points; EntryPoint or PipelineOptions must select one")
	}
	return 0, nil
}

// writeTypes writes struct type definitions.
func (w *Writer) writeTypes() error {
	for handle, typ := range w.module.Types {
		st, ok := typ.Inner.(ir.StructType)
		if !ok {
			continue
		}

		typeName := w.typeNames[ir.TypeHandle(handle)] //nolint:gosec // G115: handle is valid slice index
		w.writeLine("struct %s {", typeName)
		w.pushIndent()

		for memberIdx, member := range st.Members {
			baseType := w.getBaseTypeName(member.Type)
			arraySuffix := w.getArraySuffix(member.Type)
			memberName := w.names[nameKey{kind: nameKeyStructMember, handle1: uint32(handle), handle2: uint32(memberIdx)}] //nolint:gosec // G115: handle is valid slice index
			w.writeLine("%s %s%s;", baseType, memberName, arraySuffix)
		}

		w.popIndent()
		w.writeLine("};")
		w.writeLine("")
	}
	return nil
}

// writeConstants writes constant definitions.
func (w *Writer) writeConstants() error {
	for handle, constant := range w.module.Constants {
		name := w.names[nameKey{kind: nameKeyConstant, handle1: uint32(handle)}] //nolint:gosec // G115: handle is valid slice index
		baseType := w.getBaseTypeName(constant.Type)
		arraySuffix := w.getArraySuffix(constant.Type)
		value := w.writeConstantValue(constant)
		w.writeLine("const %s %s%s = %s;", baseType, name, arraySuffix, value)
	}
	if len(w.module.Constants) > 0 {
		w.writeLine("")
	}
	return nil
}

// writeConstantValue returns the GLSL representation of a constant value.
func (w *Writer) writeConstantValue(constant ir.Constant) string {
	switch v := constant.Value.(type) {
	case ir.ScalarValue:
		return w.writeScalarValue(v, constant.Type)
	case ir.CompositeValue:
		return w.writeCompositeValue(v, constant.Type)
	default:
		return "0" // Unknown value type
	}
}

// writeScalarValue returns the GLSL representation of a scalar value.
func (w *Writer) writeScalarValue(v ir.ScalarValue, typeHandle ir.TypeHandle) string {
	switch v.Kind {
	case ir.ScalarBool:
		if v.Bits != 0 {
			return "true"
		}
		return "false"
	case ir.ScalarSint:
		return fmt.Sprintf("%d", int32(v.Bits))
	case ir.ScalarUint:
		return fmt.Sprintf("%du", uint32(v.Bits))
	case ir.ScalarFloat:
		width := uint8(4)
		if int(typeHandle) < len(w.module.Types) {
			if scalar, ok := w.module.Types[typeHandle].Inner.(ir.ScalarType); ok {
				width = scalar.Width
			}
		}
		if width == 4 {
			floatVal := math.Float32frombits(uint32(v.Bits))
			return formatFloat(floatVal)
		}
		floatVal := math.Float64frombits(v.Bits)
		return formatFloat64(floatVal)
	default:
		return "0"
	}
}

// writeCompositeValue returns the GLSL representation of a composite value.
func (w *Writer) writeCompositeValue(v ir.CompositeValue, typeHandle ir.TypeHandle) string {
	typeName := w.getTypeName(typeHandle)
	var components []string
	for _, compHandle := range v.Components {
		if int(compHandle) < len(w.module.Constants) {
			constant := w.module.Constants[compHandle]
			components = append(components, w.writeConstantValue(constant))
		} else {
			components = append(components, "0")
		}
	}
	return fmt.Sprintf("%s(%s)", typeName, strings.Join(components, ", "))
}

// computeResourceLayouts precomputes std140 layouts for uniform-space
// globals and std430 layouts for storage-space and push-constant globals.
// Only buildReflection reads them, for its byte-offset member lists; the
// global declarations carry no `layout(offset=...)` annotations.
func (w *Writer) computeResourceLayouts() error {
	for handle, global := range w.module.GlobalVariables {
		h := ir.GlobalVariableHandle(handle) //nolint:gosec // G115: handle is valid slice index
		switch global.Space {
		case ir.SpaceUniform:
			w.uniformLayouts[h] = layout.Of(w.module, layout.Std140, global.Type)
		case ir.SpaceStorage, ir.SpacePushConstant:
			w.storageLayouts[h] = layout.Of(w.module, layout.Std430, global.Type)
		}
	}
	return nil
}

// writeGlobalVariables writes uniform, input, and output declarations.
func (w *Writer) writeGlobalVariables() error {
	for handle, global := range w.module.GlobalVariables {
		name := w.names[nameKey{kind: nameKeyGlobalVariable, handle1: uint32(handle)}] //nolint:gosec // G115: handle is valid slice index
		typeName := w.getTypeName(global.Type)

		if _, isImage := w.module.Types[global.Type].Inner.(ir.ImageType); isImage {
			if err := w.writeImageVariable(name, typeName, global); err != nil {
				return err
			}
			continue
		}

		switch global.Space {
		case ir.SpaceUniform:
			w.writeUniformVariable(name, typeName, global)
		case ir.SpaceStorage:
			w.writeStorageVariable(name, typeName, global)
		case ir.SpacePushConstant:
			w.writePushConstantVariable(name, typeName, global)
		case ir.SpacePrivate:
			w.writeLine("%s %s;", typeName, name)
		case ir.SpaceWorkGroup:
			w.writeLine("shared %s %s;", typeName, name)
		case ir.SpaceHandle:
			w.writeLine("uniform %s %s;", typeName, name)
		default:
			w.writeLine("%s %s;", typeName, name)
		}
	}
	if len(w.module.GlobalVariables) > 0 {
		w.writeLine("")
	}
	return nil
}

// writeImageVariable writes a texture/sampler or storage-image uniform
// declaration, attaching the `readonly`/`writeonly`/format qualifiers a
// storage image's access flags imply.
func (w *Writer) writeImageVariable(name, typeName string, global ir.GlobalVariable) error {
	img, _ := w.module.Types[global.Type].Inner.(ir.ImageType)

	if img.Class != ir.ImageClassStorage {
		if global.Binding != nil {
			binding := global.Binding.Binding + w.options.TextureBindingBase
			w.writeLine("layout(binding = %d) uniform %s %s;", binding, typeName, name)
		} else {
			w.writeLine("uniform %s %s;", typeName, name)
		}
		return nil
	}

	qualifiers := []string{}
	formatQualifier, err := storageFormatQualifier(img.Format)
	if err != nil {
		return err
	}
	qualifiers = append(qualifiers, formatQualifier)
	access := ""
	switch {
	case img.Access&ir.StorageAccessLoad != 0 && img.Access&ir.StorageAccessStore == 0:
		access = "readonly "
	case img.Access&ir.StorageAccessStore != 0 && img.Access&ir.StorageAccessLoad == 0:
		access = "writeonly "
	}

	binding := uint32(0)
	if global.Binding != nil {
		binding = global.Binding.Binding + w.options.TextureBindingBase
	}
	w.writeLine("layout(%s, binding = %d) %suniform %s %s;", strings.Join(qualifiers, ", "), binding, access, typeName, name)
	return nil
}

// writeUniformVariable writes a uniform-buffer declaration with the std140
// layout qualifier.
func (w *Writer) writeUniformVariable(name, typeName string, global ir.GlobalVariable) {
	binding := uint32(0)
	if global.Binding != nil {
		binding = global.Binding.Binding + w.options.UniformBindingBase
	}
	if st, ok := w.module.Types[global.Type].Inner.(ir.StructType); ok {
		w.writeLine("layout(std140, binding = %d) uniform %s_block {", binding, name)
		w.pushIndent()
		for i, m := range st.Members {
			mName := w.names[nameKey{kind: nameKeyStructMember, handle1: uint32(global.Type), handle2: uint32(i)}]
			w.writeLine("%s %s%s;", w.getBaseTypeName(m.Type), mName, w.getArraySuffix(m.Type))
		}
		w.popIndent()
		w.writeLine("} %s;", name)
		return
	}
	if global.Binding != nil {
		w.writeLine("layout(binding = %d) uniform %s %s;", binding, typeName, name)
	} else {
		w.writeLine("uniform %s %s;", typeName, name)
	}
}

// writeStorageVariable writes a storage buffer declaration using std430
// layout, falling back to a uniform for versions with no SSBO support.
func (w *Writer) writeStorageVariable(name, typeName string, global ir.GlobalVariable) {
	if !w.options.LangVersion.SupportsStorageBuffers() {
		w.writeUniformVariable(name, typeName, global)
		return
	}

	binding := uint32(0)
	if global.Binding != nil {
		binding = global.Binding.Binding + w.options.StorageBindingBase
	}
	w.writeLine("layout(std430, binding = %d) buffer %s_block { %s %s; };", binding, name, typeName, name)
}

// writePushConstantVariable writes a push-constant block. GLSL has no
// dedicated push_constant storage qualifier in the targets this backend
// supports, so it is emitted as an unbound std430 uniform block, matching
// common GL-backend convention for emulating push constants via a UBO.
func (w *Writer) writePushConstantVariable(name, typeName string, global ir.GlobalVariable) {
	if st, ok := w.module.Types[global.Type].Inner.(ir.StructType); ok {
		w.writeLine("layout(std430) uniform %s_block {", name)
		w.pushIndent()
		for i, m := range st.Members {
			mName := w.names[nameKey{kind: nameKeyStructMember, handle1: uint32(global.Type), handle2: uint32(i)}]
			w.writeLine("%s %s%s;", w.getBaseTypeName(m.Type), mName, w.getArraySuffix(m.Type))
		}
		w.popIndent()
		w.writeLine("} %s;", name)
		return
	}
	w.writeLine("layout(std430) uniform %s_block { %s %s; };", name, typeName, name)
}

// writeHelperFunctions writes any needed polyfill functions.
func (w *Writer) writeHelperFunctions() {
	if w.needsModHelper {
		// GLSL has no floating-point %; WGSL's % truncates toward zero
		// like C's fmod, which this reproduces via trunc(a / b).
		w.writeLine("float _mod_helper(float a, float b) {")
		w.pushIndent()
		w.writeLine("return a - b * trunc(a / b);")
		w.popIndent()
		w.writeLine("}")
		w.writeLine("")
	}

	if w.needsDivHelper {
		w.writeLine("int _div_helper(int a, int b) {")
		w.pushIndent()
		w.writeLine("return b != 0 ? a / b : 0;")
		w.popIndent()
		w.writeLine("}")
		w.writeLine("")
	}

	if w.needsFirstInstance {
		binding := w.options.UniformBindingBase
		w.writeLine("layout(binding = %d) uniform _FirstInstance { uint _first_instance; };", binding)
		w.writeLine("")
	}
}

// writeFunctions writes regular function definitions.
// Entry point functions are skipped — they are emitted by writeEntryPoints as void main().
func (w *Writer) writeFunctions() error {
	epFunctions := make(map[ir.FunctionHandle]bool, len(w.module.EntryPoints))
	for _, ep := range w.module.EntryPoints {
		epFunctions[ep.Function] = true
	}

	for handle := range w.module.Functions {
		if epFunctions[ir.FunctionHandle(handle)] { //nolint:gosec // G115: handle is valid slice index
			continue
		}
		fn := &w.module.Functions[handle]
		if err := w.writeFunction(ir.FunctionHandle(handle), fn); err != nil { //nolint:gosec // G115: handle is valid slice index
			return err
		}
	}
	return nil
}

// writeFunction writes a single function definition.
func (w *Writer) writeFunction(handle ir.FunctionHandle, fn *ir.Function) error {
	w.currentFunction = fn
	w.currentFuncHandle = handle
	w.localNames = make(map[uint32]string)

	name := w.names[nameKey{kind: nameKeyFunction, handle1: uint32(handle)}]

	var returnType string
	if fn.Result != nil {
		returnType = w.getTypeName(fn.Result.Type)
	} else {
		returnType = "void"
	}

	args := make([]string, 0, len(fn.Arguments))
	for argIdx, arg := range fn.Arguments {
		argName := w.names[nameKey{kind: nameKeyFunctionArgument, handle1: uint32(handle), handle2: uint32(argIdx)}] //nolint:gosec // G115: argIdx is bounded by slice length
		argType := w.getTypeName(arg.Type)
		args = append(args, fmt.Sprintf("%s %s", argType, argName))
	}

	w.writeLine("%s %s(%s) {", returnType, name, strings.Join(args, ", "))
	w.pushIndent()

	if err := w.writeLocalVars(fn); err != nil {
		return err
	}

	if err := w.writeBlock(ir.Block(fn.Body)); err != nil {
		return err
	}

	w.popIndent()
	w.writeLine("}")
	w.writeLine("")

	w.currentFunction = nil
	return nil
}

// writeEntryPoints writes the single selected entry point function.
func (w *Writer) writeEntryPoints() error {
	if w.selectedEntryPoint < 0 || w.selectedEntryPoint >= len(w.module.EntryPoints) {
		return newError(ErrEntryPointNotFound, "no entry point selected")
	}
	ep := w.module.EntryPoints[w.selectedEntryPoint]
	return w.writeEntryPoint(w.selectedEntryPoint, &ep)
}

// writeEntryPoint writes a single entry point.
func (w *Writer) writeEntryPoint(epIdx int, ep *ir.EntryPoint) error {
	fn := &w.module.Functions[ep.Function]
	w.currentFunction = fn
	w.currentFuncHandle = ep.Function
	w.localNames = make(map[uint32]string)
	w.inEntryPoint = true
	w.entryPointResult = fn.Result
	w.entryPointStage = ep.Stage

	switch ep.Stage {
	case ir.StageVertex:
		w.writeVertexIO(ep, fn)
	case ir.StageFragment:
		w.writeFragmentIO(ep, fn)
	case ir.StageCompute:
		w.writeComputeLayout(ep)
	}

	if w.pipeline.MultiviewCount > 1 {
		w.requireExtension("GL_OVR_multiview2")
	}

	w.writeLine("void main() {")
	w.pushIndent()

	if w.needsWorkgroupZeroInit(ep) {
		w.writeWorkgroupZeroInitPrologue(ep)
	}

	if err := w.writeLocalVars(fn); err != nil {
		return err
	}

	if err := w.writeBlock(ir.Block(fn.Body)); err != nil {
		return err
	}

	w.popIndent()
	w.writeLine("}")

	w.currentFunction = nil
	w.inEntryPoint = false
	w.entryPointResult = nil
	_ = epIdx
	return nil
}

// needsWorkgroupZeroInit reports whether the compute entry point has
// workgroup-space globals and the zero-initialize flag is set.
func (w *Writer) needsWorkgroupZeroInit(ep *ir.EntryPoint) bool {
	if ep.Stage != ir.StageCompute {
		return false
	}
	if w.options.WriterFlags&WriterFlagZeroInitializeWorkgroupMemory == 0 {
		return false
	}
	for _, g := range w.module.GlobalVariables {
		if g.Space == ir.SpaceWorkGroup {
			return true
		}
	}
	return false
}

// writeWorkgroupZeroInitPrologue zeroes every workgroup-space global from
// invocation zero and inserts the barrier the rest of the invocations must
// wait on before touching shared memory, per §4.7.
func (w *Writer) writeWorkgroupZeroInitPrologue(*ir.EntryPoint) {
	w.writeLine("if (gl_LocalInvocationID == uvec3(0u)) {")
	w.pushIndent()
	for handle, g := range w.module.GlobalVariables {
		if g.Space != ir.SpaceWorkGroup {
			continue
		}
		name := w.names[nameKey{kind: nameKeyGlobalVariable, handle1: uint32(handle)}] //nolint:gosec // G115: handle is valid slice index
		w.writeLine("%s = %s(0);", name, w.getBaseTypeName(g.Type))
	}
	w.popIndent()
	w.writeLine("}")
	w.writeLine("barrier();")
}

// writeVertexIO writes vertex shader input/output declarations, flattening
// any struct-typed, binding-less argument or result into per-member
// declarations (§4.8 struct IO flattening).
func (w *Writer) writeVertexIO(_ *ir.EntryPoint, fn *ir.Function) {
	for argIdx, arg := range fn.Arguments {
		if arg.Binding == nil {
			w.writeStructInputArgs(argIdx, arg.Type)
			continue
		}
		if loc, ok := (*arg.Binding).(ir.LocationBinding); ok {
			baseType := w.getBaseTypeName(arg.Type)
			arraySuffix := w.getArraySuffix(arg.Type)
			name := escapeKeyword(arg.Name)
			w.writeLine("%s in %s %s%s;", w.locationQualifier(loc), baseType, name, arraySuffix)
		}
		if b, ok := (*arg.Binding).(ir.BuiltinBinding); ok && b.Builtin == ir.BuiltinInstanceIndex {
			if w.options.WriterFlags&WriterFlagDrawParameters == 0 {
				w.needsFirstInstance = true
			}
		}
	}

	if fn.Result != nil {
		if fn.Result.Binding != nil {
			if loc, ok := (*fn.Result.Binding).(ir.LocationBinding); ok {
				baseType := w.getBaseTypeName(fn.Result.Type)
				arraySuffix := w.getArraySuffix(fn.Result.Type)
				w.writeLine("%s out %s _vs_out%s;", w.locationQualifier(loc), baseType, arraySuffix)
			}
		} else {
			w.writeStructOutputResult(fn.Result.Type)
		}
	}
	w.writeLine("")
}

// writeFragmentIO writes fragment shader input/output declarations,
// flattening any struct-typed, binding-less argument or result into
// per-member declarations (§4.8 struct IO flattening).
func (w *Writer) writeFragmentIO(_ *ir.EntryPoint, fn *ir.Function) {
	for argIdx, arg := range fn.Arguments {
		if arg.Binding == nil {
			w.writeStructInputArgs(argIdx, arg.Type)
			continue
		}
		if loc, ok := (*arg.Binding).(ir.LocationBinding); ok {
			baseType := w.getBaseTypeName(arg.Type)
			arraySuffix := w.getArraySuffix(arg.Type)
			name := escapeKeyword(arg.Name)
			w.writeLine("%s in %s %s%s;", w.locationQualifier(loc), baseType, name, arraySuffix)
		}
	}

	if fn.Result != nil {
		switch {
		case fn.Result.Binding != nil:
			if loc, ok := (*fn.Result.Binding).(ir.LocationBinding); ok {
				baseType := w.getBaseTypeName(fn.Result.Type)
				arraySuffix := w.getArraySuffix(fn.Result.Type)
				w.writeLine("%s out %s fragColor%s;", w.locationQualifier(loc), baseType, arraySuffix)
			}
		default:
			if _, isStruct := w.module.Types[fn.Result.Type].Inner.(ir.StructType); isStruct {
				w.writeStructOutputResult(fn.Result.Type)
			} else {
				baseType := w.getBaseTypeName(fn.Result.Type)
				arraySuffix := w.getArraySuffix(fn.Result.Type)
				w.writeLine("layout(location = 0) out %s fragColor%s;", baseType, arraySuffix)
			}
		}
	}
	w.writeLine("")
}

// locationQualifier renders a LocationBinding's `layout(...)`, including
// the dual-source-blending index when BlendSrc is set.
func (w *Writer) locationQualifier(loc ir.LocationBinding) string {
	if loc.BlendSrc != nil {
		return fmt.Sprintf("layout(location = %d, index = %d)", loc.Location, *loc.BlendSrc)
	}
	return fmt.Sprintf("layout(location = %d)", loc.Location)
}

// writeComputeLayout writes compute shader layout declaration.
func (w *Writer) writeComputeLayout(ep *ir.EntryPoint) {
	if !w.options.LangVersion.SupportsCompute() {
		return
	}

	x, y, z := ep.Workgroup[0], ep.Workgroup[1], ep.Workgroup[2]
	if x == 0 {
		x = 1
	}
	if y == 0 {
		y = 1
	}
	if z == 0 {
		z = 1
	}

	w.writeLine("layout(local_size_x = %d, local_size_y = %d, local_size_z = %d) in;", x, y, z)
	w.writeLine("")
}

// writeLocalVars writes local variable declarations, including initializers if present.
func (w *Writer) writeLocalVars(fn *ir.Function) error {
	for localIdx, local := range fn.LocalVars {
		localName := w.namer.Call(local.Name)
		w.localNames[uint32(localIdx)] = localName //nolint:gosec // G115: localIdx is valid slice index
		baseType := w.getBaseTypeName(local.Type)
		arraySuffix := w.getArraySuffix(local.Type)

		if local.Init != nil {
			initStr, err := w.writeExpression(*local.Init)
			if err != nil {
				return err
			}
			w.writeLine("%s %s%s = %s;", baseType, localName, arraySuffix, initStr)
		} else {
			w.writeLine("%s %s%s;", baseType, localName, arraySuffix)
		}
	}
	return nil
}

// Note: writeBlock is defined in statements.go and takes ir.Block directly

// Output helpers

// writeLine writes a line with indentation and newline.
//
//nolint:goprintffuncname
func (w *Writer) writeLine(format string, args ...any) {
	w.writeIndent()
	if len(args) == 0 {
		w.out.WriteString(format)
	} else {
		fmt.Fprintf(&w.out, format, args...)
	}
	w.out.WriteByte('\n')
}

// writeIndent writes the current indentation.
func (w *Writer) writeIndent() {
	if w.options.WriterFlags&WriterFlagMinify != 0 {
		return
	}
	for i := 0; i < w.indent; i++ {
		w.out.WriteString("    ")
	}
}

// pushIndent increases indentation.
func (w *Writer) pushIndent() {
	w.indent++
}

// popIndent decreases indentation.
func (w *Writer) popIndent() {
	if w.indent > 0 {
		w.indent--
	}
}

// getTypeName returns the GLSL type name for a type handle.
// For arrays, this returns the full type including size (e.g., "vec2[3]").
// Use getBaseTypeName + getArraySuffix for variable declarations.
func (w *Writer) getTypeName(handle ir.TypeHandle) string {
	if int(handle) >= len(w.module.Types) {
		return fmt.Sprintf("type_%d", handle)
	}

	typ := w.module.Types[handle]
	return w.typeToGLSL(typ)
}

// getBaseTypeName returns the base GLSL type name, unwrapping arrays.
// For "array<vec2, 3>" returns "vec2". For non-arrays, same as getTypeName.
func (w *Writer) getBaseTypeName(handle ir.TypeHandle) string {
	if int(handle) >= len(w.module.Types) {
		return fmt.Sprintf("type_%d", handle)
	}
	typ := w.module.Types[handle]
	if arr, ok := typ.Inner.(ir.ArrayType); ok {
		return w.getBaseTypeName(arr.Base)
	}
	return w.typeToGLSL(typ)
}

// getArraySuffix returns the array size suffix(es) for a type handle.
// For "array<vec2, 3>" returns "[3]". For non-arrays, returns "".
// Handles nested arrays: "array<array<float, 4>, 3>" returns "[3][4]".
func (w *Writer) getArraySuffix(handle ir.TypeHandle) string {
	if int(handle) >= len(w.module.Types) {
		return ""
	}
	typ := w.module.Types[handle]
	arr, ok := typ.Inner.(ir.ArrayType)
	if !ok {
		return ""
	}
	if arr.Size.Constant != nil {
		return fmt.Sprintf("[%d]", *arr.Size.Constant) + w.getArraySuffix(arr.Base)
	}
	return "[]" + w.getArraySuffix(arr.Base)
}

// glslBuiltIn returns the GLSL built-in variable name for a builtin value.
// VertexIndex/InstanceIndex map to uint(gl_VertexID)/uint(gl_InstanceID);
// no first-vertex or first-instance offset is added to them.
func glslBuiltIn(builtin ir.BuiltinValue, isOutput bool) string {
	switch builtin {
	case ir.BuiltinPosition:
		if isOutput {
			return "gl_Position"
		}
		return "gl_FragCoord"
	case ir.BuiltinVertexIndex:
		return "uint(gl_VertexID)"
	case ir.BuiltinInstanceIndex:
		return "uint(gl_InstanceID)"
	case ir.BuiltinFrontFacing:
		return "gl_FrontFacing"
	case ir.BuiltinFragDepth:
		return "gl_FragDepth"
	case ir.BuiltinSampleIndex:
		return "gl_SampleID"
	case ir.BuiltinSampleMask:
		return "gl_SampleMaskIn[0]"
	case ir.BuiltinLocalInvocationID:
		return "gl_LocalInvocationID"
	case ir.BuiltinLocalInvocationIndex:
		return "gl_LocalInvocationIndex"
	case ir.BuiltinGlobalInvocationID:
		return "gl_GlobalInvocationID"
	case ir.BuiltinWorkGroupID:
		return "gl_WorkGroupID"
	case ir.BuiltinNumWorkGroups:
		return "gl_NumWorkGroups"
	case ir.BuiltinClipDistance:
		return "gl_ClipDistance"
	case ir.BuiltinPointSize:
		return "gl_PointSize"
	case ir.BuiltinViewIndex:
		return "gl_ViewID_OVR"
	case ir.BuiltinSubgroupSize:
		return "gl_SubGroupSizeARB"
	case ir.BuiltinSubgroupInvocationID:
		return "gl_SubGroupInvocationARB"
	case ir.BuiltinNumSubgroups:
		return "gl_NumSubgroupsARB"
	default:
		return "gl_UNKNOWN"
	}
}

// formatFloat formats a float32 for GLSL output.
func formatFloat(f float32) string {
	s := fmt.Sprintf("%g", f)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// formatFloat64 formats a float64 for GLSL output.
func formatFloat64(f float64) string {
	s := fmt.Sprintf("%g", f)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s + "lf" // double literal suffix
}
