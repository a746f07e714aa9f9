// Package ir defines the intermediate representation for naga.
//
// The IR is a shader-agnostic representation that can be translated
// from various source languages (WGSL, GLSL) and compiled to
// various target languages (SPIR-V, GLSL, MSL, HLSL).
package ir

// Module represents a shader module in IR form.
type Module struct {
	// Types holds all type definitions
	Types []Type

	// Constants holds module-scope constants
	Constants []Constant

	// GlobalVariables holds module-scope variables
	GlobalVariables []GlobalVariable

	// Functions holds all function definitions
	Functions []Function

	// EntryPoints holds shader entry points
	EntryPoints []EntryPoint

	// Overrides holds pipeline-overridable constants (WGSL `override`).
	// The GLSL backend has no equivalent of a pipeline-constant substituted
	// at compile time outside of specialization, so any expression that
	// still references one when writing begins is rejected with the
	// Override terminal error; by the time the writer runs, a prior
	// override-resolution pass is expected to have replaced every
	// reference with a Constant.
	Overrides []Override

	// SpecialTypes holds handles to struct types the writer synthesizes
	// on demand for multi-result built-ins (modf/frexp return a struct of
	// {fract,whole} or {fract,exp}, and atomic compare-exchange returns a
	// struct of {old_value, exchanged}). A nil field means the type has not
	// been registered. The GLSL writer in this module neither reads nor
	// registers these fields.
	SpecialTypes SpecialTypes
}

// SpecialTypes holds the predeclared result-struct types used by a handful
// of built-in functions whose result is not a single scalar/vector.
type SpecialTypes struct {
	ModfResultF32                *TypeHandle
	ModfResultF64                *TypeHandle
	FrexpResultF32                *TypeHandle
	FrexpResultF64                *TypeHandle
	AtomicCompareExchangeResultI32 *TypeHandle
	AtomicCompareExchangeResultU32 *TypeHandle
}

// Override represents a pipeline-overridable module-scope constant.
type Override struct {
	Name string
	Type TypeHandle
	// ID, if set, is the explicit @id(n) pipeline-override identifier;
	// nil means the override was declared without one.
	ID   *uint32
	Init *ConstantHandle
}

// EntryPoint represents a shader entry point.
type EntryPoint struct {
	Name      string
	Stage     ShaderStage
	Function  FunctionHandle
	Workgroup [3]uint32 // For compute shaders
}

// ShaderStage represents a shader stage.
type ShaderStage uint8

const (
	StageVertex ShaderStage = iota
	StageFragment
	StageCompute
)

// Handle types for referencing IR objects
type (
	TypeHandle           uint32
	FunctionHandle       uint32
	GlobalVariableHandle uint32
	ConstantHandle       uint32
	ExpressionHandle     uint32
	OverrideHandle       uint32
)

// Type represents a type in the IR.
type Type struct {
	Name  string
	Inner TypeInner
}

// TypeInner represents the inner type kind.
type TypeInner interface {
	typeInner()
}

// ScalarType represents scalar types.
type ScalarType struct {
	Kind  ScalarKind
	Width uint8 // in bytes
}

func (ScalarType) typeInner() {}

// ScalarKind represents scalar type kinds.
type ScalarKind uint8

const (
	ScalarSint  ScalarKind = iota // Signed integer
	ScalarUint                    // Unsigned integer
	ScalarFloat                   // Floating point
	ScalarBool                    // Boolean
)

// VectorType represents vector types.
type VectorType struct {
	Size   VectorSize
	Scalar ScalarType
}

func (VectorType) typeInner() {}

// VectorSize represents vector sizes.
type VectorSize uint8

const (
	Vec2 VectorSize = 2
	Vec3 VectorSize = 3
	Vec4 VectorSize = 4
)

// MatrixType represents matrix types.
type MatrixType struct {
	Columns VectorSize
	Rows    VectorSize
	Scalar  ScalarType
}

func (MatrixType) typeInner() {}

// ArrayType represents array types.
type ArrayType struct {
	Base   TypeHandle
	Size   ArraySize
	Stride uint32
}

func (ArrayType) typeInner() {}

// ArraySize represents array size.
type ArraySize struct {
	Constant *uint32 // nil for runtime-sized arrays
}

// StructType represents struct types.
type StructType struct {
	Members []StructMember
	Span    uint32 // Size in bytes
}

func (StructType) typeInner() {}

// StructMember represents a struct member.
type StructMember struct {
	Name    string
	Type    TypeHandle
	Binding *Binding // @builtin(position), @location(0), etc.
	Offset  uint32
}

// PointerType represents pointer types.
type PointerType struct {
	Base  TypeHandle
	Space AddressSpace
}

func (PointerType) typeInner() {}

// AtomicType represents atomic types for thread-safe operations.
type AtomicType struct {
	Scalar ScalarType
}

func (AtomicType) typeInner() {}

// AddressSpace represents memory address spaces.
type AddressSpace uint8

const (
	SpaceFunction AddressSpace = iota
	SpacePrivate
	SpaceWorkGroup
	SpaceUniform
	SpaceStorage
	SpacePushConstant
	SpaceHandle
)

// SamplerType represents sampler types.
type SamplerType struct {
	Comparison bool
}

func (SamplerType) typeInner() {}

// ImageType represents image/texture types.
type ImageType struct {
	Dim          ImageDimension
	Arrayed      bool
	Class        ImageClass
	Multisampled bool
	// Access and Format apply only when Class is ImageClassStorage; for
	// Sampled/Depth images they are zero.
	Access StorageAccess
	Format StorageFormat
}

func (ImageType) typeInner() {}

// ImageDimension represents image dimensions.
type ImageDimension uint8

const (
	Dim1D ImageDimension = iota
	Dim2D
	Dim3D
	DimCube
)

// ImageClass represents image classification.
type ImageClass uint8

const (
	ImageClassSampled ImageClass = iota
	ImageClassDepth
	ImageClassStorage
)

// StorageAccess is a bitflag set describing how a storage image or buffer
// is accessed. The GLSL backend uses it to decide between a `readonly`,
// `writeonly`, or unqualified `image2D` declaration.
type StorageAccess uint8

const (
	StorageAccessLoad StorageAccess = 1 << iota
	StorageAccessStore
	StorageAccessAtomic
)

// StorageFormat enumerates the image formats a storage image can declare,
// mirroring GLSL's `layout(xxx)` image format qualifiers.
type StorageFormat uint8

const (
	StorageFormatR8Unorm StorageFormat = iota
	StorageFormatR8Snorm
	StorageFormatR8Uint
	StorageFormatR8Sint
	StorageFormatR16Unorm
	StorageFormatR16Snorm
	StorageFormatR16Uint
	StorageFormatR16Sint
	StorageFormatR16Float
	StorageFormatRg8Unorm
	StorageFormatRg8Snorm
	StorageFormatRg8Uint
	StorageFormatRg8Sint
	StorageFormatRg16Unorm
	StorageFormatRg16Snorm
	StorageFormatRg16Uint
	StorageFormatRg16Sint
	StorageFormatRg16Float
	StorageFormatR32Uint
	StorageFormatR32Sint
	StorageFormatR32Float
	StorageFormatRg32Uint
	StorageFormatRg32Sint
	StorageFormatRg32Float
	StorageFormatRgba8Unorm
	StorageFormatRgba8Snorm
	StorageFormatRgba8Uint
	StorageFormatRgba8Sint
	StorageFormatRgba16Unorm
	StorageFormatRgba16Snorm
	StorageFormatRgba16Uint
	StorageFormatRgba16Sint
	StorageFormatRgba16Float
	StorageFormatRgba32Uint
	StorageFormatRgba32Sint
	StorageFormatRgba32Float
	StorageFormatRgb10A2Uint
	StorageFormatRgb10A2Unorm
	StorageFormatRg11B10Float
	StorageFormatR64Uint
	// StorageFormatBgra8Unorm has no GLSL `layout()` qualifier counterpart;
	// the Version & Features Gate rejects it with UnsupportedExternal rather
	// than emitting invalid GLSL.
	StorageFormatBgra8Unorm
)

// Constant represents a constant value.
type Constant struct {
	Name  string
	Type  TypeHandle
	Value ConstantValue
}

// ConstantValue represents constant values.
type ConstantValue interface {
	constantValue()
}

// ScalarValue represents a scalar constant.
type ScalarValue struct {
	Bits uint64 // Bit representation
	Kind ScalarKind
}

func (ScalarValue) constantValue() {}

// CompositeValue represents a composite constant.
type CompositeValue struct {
	Components []ConstantHandle
}

func (CompositeValue) constantValue() {}

// GlobalVariable represents a global variable.
type GlobalVariable struct {
	Name    string
	Space   AddressSpace
	Binding *ResourceBinding
	Type    TypeHandle
	Init    *ConstantHandle
}

// ResourceBinding represents a resource binding.
type ResourceBinding struct {
	Group   uint32
	Binding uint32
}

// Function represents a function definition.
type Function struct {
	Name            string
	Arguments       []FunctionArgument
	Result          *FunctionResult
	LocalVars       []LocalVariable
	Expressions     []Expression
	ExpressionTypes []TypeResolution // Type of each expression (parallel to Expressions)
	Body            []Statement
}

// FunctionArgument represents a function argument.
type FunctionArgument struct {
	Name    string
	Type    TypeHandle
	Binding *Binding
}

// FunctionResult represents a function return type.
type FunctionResult struct {
	Type    TypeHandle
	Binding *Binding
}

// LocalVariable represents a function-local variable.
type LocalVariable struct {
	Name string
	Type TypeHandle
	Init *ExpressionHandle
}

// Binding represents shader bindings.
type Binding interface {
	binding()
}

// BuiltinBinding represents a built-in binding.
type BuiltinBinding struct {
	Builtin BuiltinValue
	// Invariant marks a BuiltinPosition output that must round-trip
	// bit-identically across invocations (WGSL's `@invariant`). The GLSL
	// writer does not read it and emits no `invariant` qualifier.
	Invariant bool
}

func (BuiltinBinding) binding() {}

// BuiltinValue represents built-in values.
type BuiltinValue uint8

const (
	BuiltinPosition BuiltinValue = iota
	BuiltinVertexIndex
	BuiltinInstanceIndex
	BuiltinFrontFacing
	BuiltinFragDepth
	BuiltinSampleIndex
	BuiltinSampleMask
	BuiltinLocalInvocationID
	BuiltinLocalInvocationIndex
	BuiltinGlobalInvocationID
	BuiltinWorkGroupID
	BuiltinNumWorkGroups
	BuiltinClipDistance
	BuiltinPointSize
	BuiltinViewIndex
	BuiltinSubgroupSize
	BuiltinSubgroupInvocationID
	BuiltinNumSubgroups
)

// LocationBinding represents a location binding.
type LocationBinding struct {
	Location uint32
	// BlendSrc selects the dual-source-blending index (0 or 1) of a
	// fragment output sharing a location with another output; nil means
	// the location is not part of a dual-source blend pair.
	BlendSrc      *uint32
	Interpolation *Interpolation
}

func (LocationBinding) binding() {}

// Interpolation represents interpolation settings.
type Interpolation struct {
	Kind     InterpolationKind
	Sampling InterpolationSampling
}

// InterpolationKind represents interpolation kinds.
type InterpolationKind uint8

const (
	InterpolationFlat InterpolationKind = iota
	InterpolationLinear
	InterpolationPerspective
)

// InterpolationSampling represents interpolation sampling.
type InterpolationSampling uint8

const (
	SamplingCenter InterpolationSampling = iota
	SamplingCentroid
	SamplingSample
	// SamplingFirst corresponds to WGSL's `@interpolate(flat, first)`;
	// GLSL has no separate qualifier for it. The GLSL writer does not read
	// interpolation settings, so it neither rejects SamplingFirst
	// (ErrFirstSamplingNotSupported is never produced) nor emits a
	// qualifier for it.
	SamplingFirst
)

// TypeResolution represents the resolved type of an expression.
// It can either reference a type in the module's type arena (Handle)
// or represent an inline/computed type (Value).
type TypeResolution struct {
	Handle *TypeHandle // If set, references a module type
	Value  TypeInner   // If Handle is nil, this is the inline type
}

// Expression types are defined in expression.go
// Statement types are defined in statement.go
