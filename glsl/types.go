// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"

	"github.com/gogpu/glslback/ir"
)

// glslTypeSampler is the GLSL type name for samplers.
const glslTypeSampler = "sampler"

// typeToGLSL returns the GLSL type name for an IR type.
func (w *Writer) typeToGLSL(typ ir.Type) string {
	return w.typeInnerToGLSL(typ.Inner)
}

// typeInnerToGLSL returns the GLSL name for a TypeInner.
func (w *Writer) typeInnerToGLSL(inner ir.TypeInner) string {
	switch t := inner.(type) {
	case ir.ScalarType:
		return scalarToGLSL(t)
	case ir.VectorType:
		return vectorToGLSL(t)
	case ir.MatrixType:
		return matrixToGLSL(t)
	case ir.ArrayType:
		return w.arrayToGLSL(t)
	case ir.StructType:
		// Structs use their registered name
		for handle, regTyp := range w.module.Types {
			if st, ok := regTyp.Inner.(ir.StructType); ok {
				if structsEqual(st, t) {
					if name, ok := w.typeNames[ir.TypeHandle(handle)]; ok {
						return name
					}
				}
			}
		}
		return "struct_unknown"
	case ir.SamplerType:
		return glslTypeSampler
	case ir.ImageType:
		return w.imageToGLSL(t)
	case ir.PointerType:
		// GLSL doesn't have explicit pointers, return the pointee type
		return w.getTypeName(t.Base)
	case ir.AtomicType:
		return w.atomicToGLSL(t)
	default:
		return "unknown_type"
	}
}

// checkScalarSupported rejects the scalar kinds the Type & Scalar Formatter
// cannot represent: 16-bit floats and 64-bit integers require extensions
// this backend does not emit, and abstract (untyped) numeric kinds must
// already have been concretized upstream.
func checkScalarSupported(t ir.ScalarType) error {
	switch t.Kind {
	case ir.ScalarFloat:
		if t.Width == 2 {
			return newError(ErrUnsupportedScalar, "16-bit float scalars are not supported by the GLSL backend")
		}
	case ir.ScalarSint, ir.ScalarUint:
		if t.Width == 8 {
			return newError(ErrUnsupportedScalar, "64-bit integer scalars are not supported by the GLSL backend")
		}
	}
	return nil
}

// validateScalarTypes scans every registered type for scalars the
// formatter cannot represent, surfacing UnsupportedScalar before any
// output is produced rather than emitting a bogus type name.
func validateScalarTypes(module *ir.Module) error {
	for _, typ := range module.Types {
		if scalar, ok := typ.Inner.(ir.ScalarType); ok {
			if err := checkScalarSupported(scalar); err != nil {
				return err
			}
		}
		if vec, ok := typ.Inner.(ir.VectorType); ok {
			if err := checkScalarSupported(vec.Scalar); err != nil {
				return err
			}
		}
		if mat, ok := typ.Inner.(ir.MatrixType); ok {
			if err := checkScalarSupported(mat.Scalar); err != nil {
				return err
			}
		}
	}
	return nil
}

// scalarToGLSL returns the GLSL name for a scalar type. Callers must have
// already rejected unsupported widths via checkScalarSupported /
// validateScalarTypes; this only covers representable scalars.
func scalarToGLSL(t ir.ScalarType) string {
	switch t.Kind {
	case ir.ScalarBool:
		return "bool"
	case ir.ScalarSint:
		return glslTypeInt
	case ir.ScalarUint:
		return glslTypeUint
	case ir.ScalarFloat:
		if t.Width == 8 {
			return "double"
		}
		return glslTypeFloat
	}
	return glslTypeInt // Default fallback
}

// vectorToGLSL returns the GLSL name for a vector type.
func vectorToGLSL(t ir.VectorType) string {
	size := t.Size
	if size < 2 || size > 4 {
		size = 4 // Clamp to valid range
	}

	switch t.Scalar.Kind {
	case ir.ScalarBool:
		return fmt.Sprintf("bvec%d", size)
	case ir.ScalarSint:
		return fmt.Sprintf("ivec%d", size)
	case ir.ScalarUint:
		return fmt.Sprintf("uvec%d", size)
	case ir.ScalarFloat:
		switch t.Scalar.Width {
		case 8:
			return fmt.Sprintf("dvec%d", size)
		default:
			return fmt.Sprintf("vec%d", size)
		}
	default:
		return fmt.Sprintf("vec%d", size)
	}
}

// matrixToGLSL returns the GLSL name for a matrix type.
func matrixToGLSL(t ir.MatrixType) string {
	cols := t.Columns
	rows := t.Rows

	if cols < 2 || cols > 4 {
		cols = 4
	}
	if rows < 2 || rows > 4 {
		rows = 4
	}

	prefix := "mat"
	if t.Scalar.Kind == ir.ScalarFloat && t.Scalar.Width == 8 {
		prefix = "dmat"
	}
	if cols == rows {
		return fmt.Sprintf("%s%d", prefix, cols)
	}
	return fmt.Sprintf("%s%dx%d", prefix, cols, rows)
}

// arrayToGLSL returns the GLSL name for an array type.
func (w *Writer) arrayToGLSL(t ir.ArrayType) string {
	baseType := w.getTypeName(t.Base)
	if t.Size.Constant != nil {
		return fmt.Sprintf("%s[%d]", baseType, *t.Size.Constant)
	}
	return fmt.Sprintf("%s[]", baseType)
}

// imageDimString renders t.Dim/t.Arrayed/t.Multisampled as a GLSL type
// suffix, rewriting 1D to 2D under ES (§4.2: "1D images under ES are
// silently rewritten as 2D"; matching coordinate padding happens at
// expression-writing use sites, not here).
func (w *Writer) imageDimString(t ir.ImageType) string {
	dim := t.Dim
	if dim == ir.Dim1D && w.options.LangVersion.ES {
		dim = ir.Dim2D
	}

	switch dim {
	case ir.Dim1D:
		if t.Arrayed {
			return "1DArray"
		}
		return "1D"
	case ir.Dim2D:
		if t.Multisampled {
			if t.Arrayed {
				return "2DMSArray"
			}
			return "2DMS"
		}
		if t.Arrayed {
			return "2DArray"
		}
		return "2D"
	case ir.Dim3D:
		return "3D"
	case ir.DimCube:
		if t.Arrayed {
			return "CubeArray"
		}
		return "Cube"
	default:
		return "2D"
	}
}

// imageToGLSL returns the GLSL name for an image/texture type.
func (w *Writer) imageToGLSL(t ir.ImageType) string {
	prefix := glslTypeSampler
	if t.Class == ir.ImageClassStorage {
		prefix = "image"
	}

	suffix := w.imageDimString(t)
	if t.Class == ir.ImageClassDepth && !t.Multisampled {
		return fmt.Sprintf("%s%sShadow", prefix, suffix)
	}
	return fmt.Sprintf("%s%s", prefix, suffix)
}

// storageFormatQualifier renders the `layout(...)` image-format qualifier
// string for a storage image, from the fixed 40-entry table below (§4.2/§8).
// Returns an error for StorageFormatBgra8Unorm, the one storage format with
// no entry in that table.
func storageFormatQualifier(f ir.StorageFormat) (string, error) {
	if q, ok := storageFormatTable[f]; ok {
		return q, nil
	}
	return "", newError(ErrUnsupportedExternal, "storage format has no GLSL layout qualifier")
}

var storageFormatTable = map[ir.StorageFormat]string{
	ir.StorageFormatR8Unorm:       "r8",
	ir.StorageFormatR8Snorm:       "r8_snorm",
	ir.StorageFormatR8Uint:        "r8ui",
	ir.StorageFormatR8Sint:        "r8i",
	ir.StorageFormatR16Unorm:      "r16",
	ir.StorageFormatR16Snorm:      "r16_snorm",
	ir.StorageFormatR16Uint:       "r16ui",
	ir.StorageFormatR16Sint:       "r16i",
	ir.StorageFormatR16Float:      "r16f",
	ir.StorageFormatRg8Unorm:      "rg8",
	ir.StorageFormatRg8Snorm:      "rg8_snorm",
	ir.StorageFormatRg8Uint:       "rg8ui",
	ir.StorageFormatRg8Sint:       "rg8i",
	ir.StorageFormatRg16Unorm:     "rg16",
	ir.StorageFormatRg16Snorm:     "rg16_snorm",
	ir.StorageFormatRg16Uint:      "rg16ui",
	ir.StorageFormatRg16Sint:      "rg16i",
	ir.StorageFormatRg16Float:     "rg16f",
	ir.StorageFormatR32Uint:       "r32ui",
	ir.StorageFormatR32Sint:       "r32i",
	ir.StorageFormatR32Float:      "r32f",
	ir.StorageFormatRg32Uint:      "rg32ui",
	ir.StorageFormatRg32Sint:      "rg32i",
	ir.StorageFormatRg32Float:     "rg32f",
	ir.StorageFormatRgba8Unorm:    "rgba8",
	ir.StorageFormatRgba8Snorm:    "rgba8_snorm",
	ir.StorageFormatRgba8Uint:     "rgba8ui",
	ir.StorageFormatRgba8Sint:     "rgba8i",
	ir.StorageFormatRgba16Unorm:   "rgba16",
	ir.StorageFormatRgba16Snorm:   "rgba16_snorm",
	ir.StorageFormatRgba16Uint:    "rgba16ui",
	ir.StorageFormatRgba16Sint:    "rgba16i",
	ir.StorageFormatRgba16Float:   "rgba16f",
	ir.StorageFormatRgba32Uint:    "rgba32ui",
	ir.StorageFormatRgba32Sint:    "rgba32i",
	ir.StorageFormatRgba32Float:   "rgba32f",
	ir.StorageFormatRgb10A2Uint:   "rgb10_a2ui",
	ir.StorageFormatRgb10A2Unorm:  "rgb10_a2",
	ir.StorageFormatRg11B10Float:  "r11f_g11f_b10f",
	ir.StorageFormatR64Uint:       "r64ui",
	// StorageFormatBgra8Unorm intentionally absent: unsupported (§4.2).
}

// atomicToGLSL returns the GLSL name for an atomic type.
func (w *Writer) atomicToGLSL(t ir.AtomicType) string {
	switch t.Scalar.Kind {
	case ir.ScalarSint:
		return "int"
	case ir.ScalarUint:
		return "uint"
	default:
		return "uint"
	}
}

// structsEqual compares two struct types for equality.
func structsEqual(a, b ir.StructType) bool {
	if len(a.Members) != len(b.Members) {
		return false
	}
	for i := range a.Members {
		if a.Members[i].Name != b.Members[i].Name {
			return false
		}
		if a.Members[i].Type != b.Members[i].Type {
			return false
		}
	}
	return true
}
