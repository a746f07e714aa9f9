// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"strings"

	"github.com/gogpu/glslback/ir"
)

// GLSL type name constants for repeated use.
const (
	glslTypeInt   = "int"
	glslTypeUint  = "uint"
	glslTypeFloat = "float"
)

// writeExpression writes an expression and returns its GLSL representation.
func (w *Writer) writeExpression(handle ir.ExpressionHandle) (string, error) {
	// Check if this expression was already named
	if name, ok := w.namedExpressions[handle]; ok {
		return name, nil
	}

	if w.currentFunction == nil {
		return "", fmt.Errorf("no current function context")
	}

	if int(handle) >= len(w.currentFunction.Expressions) {
		return "", fmt.Errorf("invalid expression handle: %d", handle)
	}

	expr := &w.currentFunction.Expressions[handle]
	return w.writeExpressionKind(expr.Kind, handle)
}

// writeExpressionKind writes the expression based on its kind.
//
//nolint:gocyclo,cyclop // Expression handling requires many cases
func (w *Writer) writeExpressionKind(kind ir.ExpressionKind, _ ir.ExpressionHandle) (string, error) {
	switch k := kind.(type) {
	case ir.Literal:
		return w.writeLiteral(k)
	case ir.ExprConstant:
		return w.writeConstant(k)
	case ir.ExprZeroValue:
		return w.writeZeroValue(k)
	case ir.ExprCompose:
		return w.writeCompose(k)
	case ir.ExprAccess:
		return w.writeAccess(k)
	case ir.ExprAccessIndex:
		return w.writeAccessIndex(k)
	case ir.ExprSplat:
		return w.writeSplat(k)
	case ir.ExprSwizzle:
		return w.writeSwizzle(k)
	case ir.ExprFunctionArgument:
		return w.writeFunctionArgument(k)
	case ir.ExprGlobalVariable:
		return w.writeGlobalVariable(k)
	case ir.ExprLocalVariable:
		return w.writeLocalVariable(k)
	case ir.ExprLoad:
		return w.writeLoad(k)
	case ir.ExprUnary:
		return w.writeUnary(k)
	case ir.ExprBinary:
		return w.writeBinary(k)
	case ir.ExprSelect:
		return w.writeSelect(k)
	case ir.ExprRelational:
		return w.writeRelational(k)
	case ir.ExprMath:
		return w.writeMath(k)
	case ir.ExprDerivative:
		return w.writeDerivative(k)
	case ir.ExprImageSample:
		return w.writeImageSample(k)
	case ir.ExprImageLoad:
		return w.writeImageLoad(k)
	case ir.ExprImageQuery:
		return w.writeImageQuery(k)
	case ir.ExprAs:
		return w.writeAs(k)
	case ir.ExprCallResult:
		return w.writeCallResult(k)
	case ir.ExprAtomicResult:
		return w.writeAtomicResult(k)
	case ir.ExprArrayLength:
		return w.writeArrayLength(k)
	case ir.ExprOverride:
		return "", newError(ErrOverride, "override expression reached the writer unresolved")
	default:
		return "", fmt.Errorf("unsupported expression kind: %T", kind)
	}
}

// writeLiteral writes a literal expression.
func (w *Writer) writeLiteral(lit ir.Literal) (string, error) {
	switch v := lit.Value.(type) {
	case ir.LiteralBool:
		if v {
			return "true", nil
		}
		return "false", nil
	case ir.LiteralI32:
		return fmt.Sprintf("%d", int32(v)), nil
	case ir.LiteralU32:
		return fmt.Sprintf("%du", uint32(v)), nil
	case ir.LiteralI64:
		return fmt.Sprintf("%dL", int64(v)), nil
	case ir.LiteralU64:
		return fmt.Sprintf("%duL", uint64(v)), nil
	case ir.LiteralF32:
		return formatFloat(float32(v)), nil
	case ir.LiteralF64:
		return formatFloat64(float64(v)), nil
	case ir.LiteralAbstractInt:
		return fmt.Sprintf("%d", int64(v)), nil
	case ir.LiteralAbstractFloat:
		return formatFloat64(float64(v)), nil
	default:
		return "0", nil
	}
}

// writeConstant writes a constant reference.
func (w *Writer) writeConstant(c ir.ExprConstant) (string, error) {
	name := w.names[nameKey{kind: nameKeyConstant, handle1: uint32(c.Constant)}]
	return name, nil
}

// writeZeroValue writes a zero-initialized value.
func (w *Writer) writeZeroValue(z ir.ExprZeroValue) (string, error) {
	typeName := w.getTypeName(z.Type)
	return fmt.Sprintf("%s(0)", typeName), nil
}

// writeCompose writes a composite construction expression.
func (w *Writer) writeCompose(c ir.ExprCompose) (string, error) {
	typeName := w.getTypeName(c.Type)

	components := make([]string, 0, len(c.Components))
	for _, comp := range c.Components {
		compStr, err := w.writeExpression(comp)
		if err != nil {
			return "", err
		}
		components = append(components, compStr)
	}

	return fmt.Sprintf("%s(%s)", typeName, strings.Join(components, ", ")), nil
}

// writeAccess writes an array/struct access expression with dynamic index.
func (w *Writer) writeAccess(a ir.ExprAccess) (string, error) {
	base, err := w.writeExpression(a.Base)
	if err != nil {
		return "", err
	}
	index, err := w.writeExpression(a.Index)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s[%s]", base, index), nil
}

// writeAccessIndex writes a constant-index access expression.
//
//nolint:nestif // Struct member lookup requires nested type checking
func (w *Writer) writeAccessIndex(a ir.ExprAccessIndex) (string, error) {
	if w.inEntryPoint && w.currentFunction != nil && int(a.Base) < len(w.currentFunction.Expressions) {
		if fa, ok := w.currentFunction.Expressions[a.Base].Kind.(ir.ExprFunctionArgument); ok {
			if members, ok := w.flattenedArgs[fa.Index]; ok {
				if name, ok := members[a.Index]; ok {
					return name, nil
				}
			}
		}
	}

	base, err := w.writeExpression(a.Base)
	if err != nil {
		return "", err
	}

	// An atomic compare-exchange result is a synthetic {old_value,
	// exchanged} struct (see writeAtomicCompareExchange), not a module
	// struct type, so it can't be resolved through w.module.Types below.
	if w.currentFunction != nil && int(a.Base) < len(w.currentFunction.Expressions) {
		if _, ok := w.currentFunction.Expressions[a.Base].Kind.(ir.ExprAtomicResult); ok {
			field := "old_value"
			if a.Index == 1 {
				field = "exchanged"
			}
			return fmt.Sprintf("%s.%s", base, field), nil
		}
	}

	// Check if this is a struct member access
	if w.currentFunction != nil && int(a.Base) < len(w.currentFunction.Expressions) {
		baseExpr := &w.currentFunction.Expressions[a.Base]
		if baseTypeHandle := w.getExpressionTypeHandle(baseExpr.Kind); baseTypeHandle != nil {
			if int(*baseTypeHandle) < len(w.module.Types) {
				baseType := &w.module.Types[*baseTypeHandle]
				if st, ok := baseType.Inner.(ir.StructType); ok {
					if int(a.Index) < len(st.Members) {
						memberName := st.Members[a.Index].Name
						if memberName != "" {
							return fmt.Sprintf("%s.%s", base, escapeKeyword(memberName)), nil
						}
					}
				}
			}
		}
	}

	return fmt.Sprintf("%s[%d]", base, a.Index), nil
}

// writeSplat writes a splat expression (scalar to vector).
func (w *Writer) writeSplat(s ir.ExprSplat) (string, error) {
	value, err := w.writeExpression(s.Value)
	if err != nil {
		return "", err
	}
	// In GLSL, vec constructors accept scalar and broadcast
	return fmt.Sprintf("vec%d(%s)", s.Size, value), nil
}

// writeSwizzle writes a swizzle expression.
func (w *Writer) writeSwizzle(s ir.ExprSwizzle) (string, error) {
	vector, err := w.writeExpression(s.Vector)
	if err != nil {
		return "", err
	}

	components := "xyzw"
	var swizzle string
	for i := ir.VectorSize(0); i < s.Size; i++ {
		if int(s.Pattern[i]) < len(components) {
			swizzle += string(components[s.Pattern[i]])
		}
	}

	return fmt.Sprintf("%s.%s", vector, swizzle), nil
}

// writeFunctionArgument writes a function argument reference.
func (w *Writer) writeFunctionArgument(a ir.ExprFunctionArgument) (string, error) {
	// In entry points, builtin arguments map to GLSL built-in variables.
	if w.inEntryPoint && w.currentFunction != nil && int(a.Index) < len(w.currentFunction.Arguments) {
		arg := &w.currentFunction.Arguments[a.Index]
		if arg.Binding != nil {
			if b, ok := (*arg.Binding).(ir.BuiltinBinding); ok {
				return glslBuiltIn(b.Builtin, false), nil
			}
		}
	}
	name := w.names[nameKey{kind: nameKeyFunctionArgument, handle1: uint32(w.currentFuncHandle), handle2: a.Index}]
	return name, nil
}

// writeGlobalVariable writes a global variable reference.
func (w *Writer) writeGlobalVariable(g ir.ExprGlobalVariable) (string, error) {
	name := w.names[nameKey{kind: nameKeyGlobalVariable, handle1: uint32(g.Variable)}]
	return name, nil
}

// writeLocalVariable writes a local variable reference.
func (w *Writer) writeLocalVariable(l ir.ExprLocalVariable) (string, error) {
	if name, ok := w.localNames[l.Variable]; ok {
		return name, nil
	}
	return fmt.Sprintf("local_%d", l.Variable), nil
}

// writeLoad writes a load expression (dereference).
func (w *Writer) writeLoad(l ir.ExprLoad) (string, error) {
	// In GLSL, loading is implicit
	return w.writeExpression(l.Pointer)
}

// writeUnary writes a unary expression.
func (w *Writer) writeUnary(u ir.ExprUnary) (string, error) {
	operand, err := w.writeExpression(u.Expr)
	if err != nil {
		return "", err
	}

	switch u.Op {
	case ir.UnaryNegate:
		return fmt.Sprintf("-(%s)", operand), nil
	case ir.UnaryLogicalNot:
		return fmt.Sprintf("!(%s)", operand), nil
	case ir.UnaryBitwiseNot:
		return fmt.Sprintf("~(%s)", operand), nil
	default:
		return "", fmt.Errorf("unsupported unary operator: %v", u.Op)
	}
}

// writeBinary writes a binary expression.
//
//nolint:gocyclo,cyclop // Binary operators require many cases
func (w *Writer) writeBinary(b ir.ExprBinary) (string, error) {
	left, err := w.writeExpression(b.Left)
	if err != nil {
		return "", err
	}
	right, err := w.writeExpression(b.Right)
	if err != nil {
		return "", err
	}

	leftIsVector := w.resolveVectorSize(b.Left) > 0 || w.resolveVectorSize(b.Right) > 0

	switch b.Op {
	case ir.BinaryAdd:
		return fmt.Sprintf("(%s + %s)", left, right), nil
	case ir.BinarySubtract:
		return fmt.Sprintf("(%s - %s)", left, right), nil
	case ir.BinaryMultiply:
		return fmt.Sprintf("(%s * %s)", left, right), nil
	case ir.BinaryDivide:
		return fmt.Sprintf("(%s / %s)", left, right), nil
	case ir.BinaryModulo:
		// GLSL's integer % already truncates like WGSL's %; only floats
		// need the polyfill, since GLSL has no floating-point % operator.
		// Vector floats are inlined rather than routed through the scalar
		// helper, since GLSL overloads -/*/trunc over vecN for free.
		if w.resolveScalarKind(b.Left) == ir.ScalarFloat {
			if leftIsVector {
				return fmt.Sprintf("(%s - %s * trunc(%s / %s))", left, right, left, right), nil
			}
			w.needsModHelper = true
			return fmt.Sprintf("_mod_helper(%s, %s)", left, right), nil
		}
		return fmt.Sprintf("(%s %% %s)", left, right), nil
	case ir.BinaryEqual:
		if leftIsVector {
			return fmt.Sprintf("equal(%s, %s)", left, right), nil
		}
		return fmt.Sprintf("(%s == %s)", left, right), nil
	case ir.BinaryNotEqual:
		if leftIsVector {
			return fmt.Sprintf("notEqual(%s, %s)", left, right), nil
		}
		return fmt.Sprintf("(%s != %s)", left, right), nil
	case ir.BinaryLess:
		if leftIsVector {
			return fmt.Sprintf("lessThan(%s, %s)", left, right), nil
		}
		return fmt.Sprintf("(%s < %s)", left, right), nil
	case ir.BinaryLessEqual:
		if leftIsVector {
			return fmt.Sprintf("lessThanEqual(%s, %s)", left, right), nil
		}
		return fmt.Sprintf("(%s <= %s)", left, right), nil
	case ir.BinaryGreater:
		if leftIsVector {
			return fmt.Sprintf("greaterThan(%s, %s)", left, right), nil
		}
		return fmt.Sprintf("(%s > %s)", left, right), nil
	case ir.BinaryGreaterEqual:
		if leftIsVector {
			return fmt.Sprintf("greaterThanEqual(%s, %s)", left, right), nil
		}
		return fmt.Sprintf("(%s >= %s)", left, right), nil
	case ir.BinaryAnd:
		if w.resolveScalarKind(b.Left) == ir.ScalarBool && leftIsVector {
			return w.writeComponentwiseBoolOp(left, right, "&&", w.resolveVectorSize(b.Left)), nil
		}
		return fmt.Sprintf("(%s & %s)", left, right), nil
	case ir.BinaryExclusiveOr:
		return fmt.Sprintf("(%s ^ %s)", left, right), nil
	case ir.BinaryInclusiveOr:
		if w.resolveScalarKind(b.Left) == ir.ScalarBool && leftIsVector {
			return w.writeComponentwiseBoolOp(left, right, "||", w.resolveVectorSize(b.Left)), nil
		}
		return fmt.Sprintf("(%s | %s)", left, right), nil
	case ir.BinaryLogicalAnd:
		return fmt.Sprintf("(%s && %s)", left, right), nil
	case ir.BinaryLogicalOr:
		return fmt.Sprintf("(%s || %s)", left, right), nil
	case ir.BinaryShiftLeft:
		return fmt.Sprintf("(%s << %s)", left, right), nil
	case ir.BinaryShiftRight:
		return fmt.Sprintf("(%s >> %s)", left, right), nil
	default:
		return "", fmt.Errorf("unsupported binary operator: %v", b.Op)
	}
}

// writeComponentwiseBoolOp renders `&`/`|` over bvec operands, which GLSL
// has no operator for, as a constructor applying the scalar boolean
// operator componentwise via bvecN(a.x OP b.x, ...).
func (w *Writer) writeComponentwiseBoolOp(left, right, op string, size int) string {
	if size < 2 || size > 4 {
		size = 4
	}
	components := []string{"x", "y", "z", "w"}[:size]
	parts := make([]string, 0, size)
	for _, c := range components {
		parts = append(parts, fmt.Sprintf("%s.%s %s %s.%s", left, c, op, right, c))
	}
	return fmt.Sprintf("bvec%d(%s)", size, strings.Join(parts, ", "))
}

// writeSelect writes a select (ternary) expression.
func (w *Writer) writeSelect(s ir.ExprSelect) (string, error) {
	condition, err := w.writeExpression(s.Condition)
	if err != nil {
		return "", err
	}
	accept, err := w.writeExpression(s.Accept)
	if err != nil {
		return "", err
	}
	reject, err := w.writeExpression(s.Reject)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s ? %s : %s)", condition, accept, reject), nil
}

// writeRelational writes a relational expression.
func (w *Writer) writeRelational(r ir.ExprRelational) (string, error) {
	argument, err := w.writeExpression(r.Argument)
	if err != nil {
		return "", err
	}

	switch r.Fun {
	case ir.RelationalAll:
		return fmt.Sprintf("all(%s)", argument), nil
	case ir.RelationalAny:
		return fmt.Sprintf("any(%s)", argument), nil
	case ir.RelationalIsNan:
		return fmt.Sprintf("isnan(%s)", argument), nil
	case ir.RelationalIsInf:
		return fmt.Sprintf("isinf(%s)", argument), nil
	default:
		return "", fmt.Errorf("unsupported relational function: %v", r.Fun)
	}
}

// writeMath writes a math function expression.
//
//nolint:gocyclo,cyclop,funlen,maintidx // Math functions require many cases
func (w *Writer) writeMath(m ir.ExprMath) (string, error) {
	// Collect arguments
	arg, err := w.writeExpression(m.Arg)
	if err != nil {
		return "", err
	}

	var args []string
	args = append(args, arg)

	if m.Arg1 != nil {
		a, err := w.writeExpression(*m.Arg1)
		if err != nil {
			return "", err
		}
		args = append(args, a)
	}
	if m.Arg2 != nil {
		a, err := w.writeExpression(*m.Arg2)
		if err != nil {
			return "", err
		}
		args = append(args, a)
	}
	if m.Arg3 != nil {
		a, err := w.writeExpression(*m.Arg3)
		if err != nil {
			return "", err
		}
		args = append(args, a)
	}

	argStr := strings.Join(args, ", ")

	switch m.Fun {
	// Trigonometric
	case ir.MathCos:
		return fmt.Sprintf("cos(%s)", argStr), nil
	case ir.MathCosh:
		return fmt.Sprintf("cosh(%s)", argStr), nil
	case ir.MathSin:
		return fmt.Sprintf("sin(%s)", argStr), nil
	case ir.MathSinh:
		return fmt.Sprintf("sinh(%s)", argStr), nil
	case ir.MathTan:
		return fmt.Sprintf("tan(%s)", argStr), nil
	case ir.MathTanh:
		return fmt.Sprintf("tanh(%s)", argStr), nil
	case ir.MathAcos:
		return fmt.Sprintf("acos(%s)", argStr), nil
	case ir.MathAsin:
		return fmt.Sprintf("asin(%s)", argStr), nil
	case ir.MathAtan:
		return fmt.Sprintf("atan(%s)", argStr), nil
	case ir.MathAtan2:
		return fmt.Sprintf("atan(%s)", argStr), nil // GLSL atan takes two args
	case ir.MathAsinh:
		return fmt.Sprintf("asinh(%s)", argStr), nil
	case ir.MathAcosh:
		return fmt.Sprintf("acosh(%s)", argStr), nil
	case ir.MathAtanh:
		return fmt.Sprintf("atanh(%s)", argStr), nil
	case ir.MathRadians:
		return fmt.Sprintf("radians(%s)", argStr), nil
	case ir.MathDegrees:
		return fmt.Sprintf("degrees(%s)", argStr), nil

	// Exponential
	case ir.MathExp:
		return fmt.Sprintf("exp(%s)", argStr), nil
	case ir.MathExp2:
		return fmt.Sprintf("exp2(%s)", argStr), nil
	case ir.MathLog:
		return fmt.Sprintf("log(%s)", argStr), nil
	case ir.MathLog2:
		return fmt.Sprintf("log2(%s)", argStr), nil
	case ir.MathPow:
		return fmt.Sprintf("pow(%s)", argStr), nil
	case ir.MathSqrt:
		return fmt.Sprintf("sqrt(%s)", argStr), nil
	case ir.MathInverseSqrt:
		return fmt.Sprintf("inversesqrt(%s)", argStr), nil

	// Common
	case ir.MathAbs:
		return fmt.Sprintf("abs(%s)", argStr), nil
	case ir.MathSign:
		return fmt.Sprintf("sign(%s)", argStr), nil
	case ir.MathFloor:
		return fmt.Sprintf("floor(%s)", argStr), nil
	case ir.MathCeil:
		return fmt.Sprintf("ceil(%s)", argStr), nil
	case ir.MathTrunc:
		return fmt.Sprintf("trunc(%s)", argStr), nil
	case ir.MathRound:
		return fmt.Sprintf("round(%s)", argStr), nil
	case ir.MathFract:
		return fmt.Sprintf("fract(%s)", argStr), nil
	case ir.MathMin:
		return fmt.Sprintf("min(%s)", argStr), nil
	case ir.MathMax:
		return fmt.Sprintf("max(%s)", argStr), nil
	case ir.MathClamp:
		// GLSL's clamp() is defined in terms of comparisons that are
		// well-formed for integers too, but the reference semantics
		// (§8) pin integer Clamp to an explicit min(max()) chain rather
		// than trusting the driver's clamp() overload for ints.
		if kind := w.resolveScalarKind(m.Arg); kind == ir.ScalarSint || kind == ir.ScalarUint {
			return fmt.Sprintf("min(max(%s, %s), %s)", args[0], args[1], args[2]), nil
		}
		return fmt.Sprintf("clamp(%s)", argStr), nil
	case ir.MathSaturate:
		return fmt.Sprintf("clamp(%s, 0.0, 1.0)", args[0]), nil
	case ir.MathMix:
		return fmt.Sprintf("mix(%s)", argStr), nil
	case ir.MathStep:
		return fmt.Sprintf("step(%s)", argStr), nil
	case ir.MathSmoothStep:
		return fmt.Sprintf("smoothstep(%s)", argStr), nil
	case ir.MathFma:
		return fmt.Sprintf("fma(%s)", argStr), nil

	// Geometric
	case ir.MathLength:
		return fmt.Sprintf("length(%s)", argStr), nil
	case ir.MathDistance:
		return fmt.Sprintf("distance(%s)", argStr), nil
	case ir.MathDot:
		// GLSL's dot() is float-only; an integer Dot lowers to an
		// explicit sum of componentwise products instead.
		if kind := w.resolveScalarKind(m.Arg); kind == ir.ScalarSint || kind == ir.ScalarUint {
			size := w.resolveVectorSize(m.Arg)
			if size == 0 {
				size = 4
			}
			return w.writeIntegerDot(args[0], args[1], size), nil
		}
		return fmt.Sprintf("dot(%s)", argStr), nil
	case ir.MathDot4I8Packed:
		return w.writePackedDot(args[0], args[1], true), nil
	case ir.MathDot4U8Packed:
		return w.writePackedDot(args[0], args[1], false), nil
	case ir.MathCross:
		return fmt.Sprintf("cross(%s)", argStr), nil
	case ir.MathNormalize:
		return fmt.Sprintf("normalize(%s)", argStr), nil
	case ir.MathFaceForward:
		return fmt.Sprintf("faceforward(%s)", argStr), nil
	case ir.MathReflect:
		return fmt.Sprintf("reflect(%s)", argStr), nil
	case ir.MathRefract:
		return fmt.Sprintf("refract(%s)", argStr), nil

	// Matrix
	case ir.MathTranspose:
		return fmt.Sprintf("transpose(%s)", argStr), nil
	case ir.MathDeterminant:
		return fmt.Sprintf("determinant(%s)", argStr), nil
	case ir.MathInverse:
		return fmt.Sprintf("inverse(%s)", argStr), nil
	case ir.MathOuter:
		return fmt.Sprintf("outerProduct(%s)", argStr), nil

	// Bitwise
	case ir.MathCountOneBits:
		return fmt.Sprintf("bitCount(%s)", argStr), nil
	case ir.MathReverseBits:
		return fmt.Sprintf("bitfieldReverse(%s)", argStr), nil
	case ir.MathFirstLeadingBit:
		return fmt.Sprintf("findMSB(%s)", argStr), nil
	case ir.MathFirstTrailingBit:
		return fmt.Sprintf("findLSB(%s)", argStr), nil
	case ir.MathCountLeadingZeros:
		// GLSL doesn't have direct clz, use workaround
		return fmt.Sprintf("(31 - findMSB(%s))", args[0]), nil
	case ir.MathCountTrailingZeros:
		// GLSL doesn't have direct ctz, use findLSB
		return fmt.Sprintf("findLSB(%s)", argStr), nil
	case ir.MathExtractBits:
		// offset/count can exceed the operand's bit width at runtime;
		// GLSL leaves bitfieldExtract undefined then, so both are
		// clamped into range first (§4.8: o=min(offset,w); c=min(count,w-o)).
		offsetClamped := fmt.Sprintf("min(uint(%s), 32u)", args[1])
		countClamped := fmt.Sprintf("min(uint(%s), 32u - (%s))", args[2], offsetClamped)
		return fmt.Sprintf("bitfieldExtract(%s, int(%s), int(%s))", args[0], offsetClamped, countClamped), nil
	case ir.MathInsertBits:
		offsetClamped := fmt.Sprintf("min(uint(%s), 32u)", args[2])
		countClamped := fmt.Sprintf("min(uint(%s), 32u - (%s))", args[3], offsetClamped)
		return fmt.Sprintf("bitfieldInsert(%s, %s, int(%s), int(%s))", args[0], args[1], offsetClamped, countClamped), nil

	// Pack/Unpack
	case ir.MathPack4x8snorm:
		return fmt.Sprintf("packSnorm4x8(%s)", argStr), nil
	case ir.MathPack4x8unorm:
		return fmt.Sprintf("packUnorm4x8(%s)", argStr), nil
	case ir.MathPack2x16snorm:
		return fmt.Sprintf("packSnorm2x16(%s)", argStr), nil
	case ir.MathPack2x16unorm:
		return fmt.Sprintf("packUnorm2x16(%s)", argStr), nil
	case ir.MathPack2x16float:
		return fmt.Sprintf("packHalf2x16(%s)", argStr), nil
	case ir.MathUnpack4x8snorm:
		return fmt.Sprintf("unpackSnorm4x8(%s)", argStr), nil
	case ir.MathUnpack4x8unorm:
		return fmt.Sprintf("unpackUnorm4x8(%s)", argStr), nil
	case ir.MathUnpack2x16snorm:
		return fmt.Sprintf("unpackSnorm2x16(%s)", argStr), nil
	case ir.MathUnpack2x16unorm:
		return fmt.Sprintf("unpackUnorm2x16(%s)", argStr), nil
	case ir.MathUnpack2x16float:
		return fmt.Sprintf("unpackHalf2x16(%s)", argStr), nil
	case ir.MathPack4xI8:
		return w.writePack4x8(args[0], true, false), nil
	case ir.MathPack4xU8:
		return w.writePack4x8(args[0], false, false), nil
	case ir.MathPack4xI8Clamp:
		return w.writePack4x8(args[0], true, true), nil
	case ir.MathPack4xU8Clamp:
		return w.writePack4x8(args[0], false, true), nil
	case ir.MathUnpack4xI8:
		return w.writeUnpack4x8(args[0], true), nil
	case ir.MathUnpack4xU8:
		return w.writeUnpack4x8(args[0], false), nil
	case ir.MathQuantizeF16:
		// Round-trip through a half-float pack/unpack is the standard
		// GLSL idiom for quantizing to 16-bit float precision.
		return fmt.Sprintf("unpackHalf2x16(packHalf2x16(vec2(%s, 0.0))).x", args[0]), nil

	default:
		return "", fmt.Errorf("unsupported math function: %v", m.Fun)
	}
}

// writeIntegerDot sums componentwise products for an integer-vector Dot,
// since GLSL's dot() builtin is float-only.
func (w *Writer) writeIntegerDot(a, b string, size int) string {
	if size < 2 || size > 4 {
		size = 4
	}
	components := []string{"x", "y", "z", "w"}[:size]
	parts := make([]string, 0, size)
	for _, c := range components {
		parts = append(parts, fmt.Sprintf("%s.%s * %s.%s", a, c, b, c))
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, " + "))
}

// writePackedDot sums componentwise products of two u32 values, each
// packing four signed (I8) or unsigned (U8) 8-bit lanes. GLSL has no
// native equivalent, so each lane is unpacked with bitfieldExtract first.
func (w *Writer) writePackedDot(a, b string, signed bool) string {
	baseType := glslTypeUint
	if signed {
		baseType = glslTypeInt
	}
	parts := make([]string, 0, 4)
	for i := 0; i < 4; i++ {
		shift := i * 8
		parts = append(parts, fmt.Sprintf(
			"(bitfieldExtract(%s(%s), %d, 8) * bitfieldExtract(%s(%s), %d, 8))",
			baseType, a, shift, baseType, b, shift))
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, " + "))
}

// writePack4x8 packs a 4-component signed/unsigned integer vector into a
// u32, one byte per lane, with optional clamping to the lane's range.
func (w *Writer) writePack4x8(v string, signed, clamp bool) string {
	components := []string{"x", "y", "z", "w"}
	lo, hi := 0, 255
	mask := "0xFFu"
	if signed {
		lo, hi = -128, 127
		mask = "0xFF"
	}
	parts := make([]string, 0, 4)
	for i, c := range components {
		lane := fmt.Sprintf("%s.%s", v, c)
		if clamp {
			lane = fmt.Sprintf("clamp(%s, %d, %d)", lane, lo, hi)
		}
		if signed {
			parts = append(parts, fmt.Sprintf("(uint(%s & %s) << %du)", lane, mask, i*8))
		} else {
			parts = append(parts, fmt.Sprintf("((%s & %s) << %du)", lane, mask, i*8))
		}
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, " | "))
}

// writeUnpack4x8 unpacks a u32 into 4 signed/unsigned 8-bit lanes.
func (w *Writer) writeUnpack4x8(v string, signed bool) string {
	ctor, baseType := "uvec4", glslTypeUint
	if signed {
		ctor, baseType = "ivec4", glslTypeInt
	}
	parts := make([]string, 0, 4)
	for i := 0; i < 4; i++ {
		parts = append(parts, fmt.Sprintf("bitfieldExtract(%s(%s), %d, 8)", baseType, v, i*8))
	}
	return fmt.Sprintf("%s(%s)", ctor, strings.Join(parts, ", "))
}

// writeDerivative writes a derivative expression.
func (w *Writer) writeDerivative(d ir.ExprDerivative) (string, error) {
	expr, err := w.writeExpression(d.Expr)
	if err != nil {
		return "", err
	}

	switch d.Axis {
	case ir.DerivativeX:
		switch d.Control {
		case ir.DerivativeCoarse:
			return fmt.Sprintf("dFdxCoarse(%s)", expr), nil
		case ir.DerivativeFine:
			return fmt.Sprintf("dFdxFine(%s)", expr), nil
		default:
			return fmt.Sprintf("dFdx(%s)", expr), nil
		}
	case ir.DerivativeY:
		switch d.Control {
		case ir.DerivativeCoarse:
			return fmt.Sprintf("dFdyCoarse(%s)", expr), nil
		case ir.DerivativeFine:
			return fmt.Sprintf("dFdyFine(%s)", expr), nil
		default:
			return fmt.Sprintf("dFdy(%s)", expr), nil
		}
	case ir.DerivativeWidth:
		switch d.Control {
		case ir.DerivativeCoarse:
			return fmt.Sprintf("fwidthCoarse(%s)", expr), nil
		case ir.DerivativeFine:
			return fmt.Sprintf("fwidthFine(%s)", expr), nil
		default:
			return fmt.Sprintf("fwidth(%s)", expr), nil
		}
	default:
		return "", fmt.Errorf("unsupported derivative axis: %v", d.Axis)
	}
}

// writeImageSample writes an image sample expression. Depth/shadow images
// fold DepthRef into the coordinate as GLSL's shadow samplers require; a
// texel Offset renames the call to its `*Offset` overload; a Gather
// dispatches to textureGather(Offset); and sampling a shadow cube or a
// shadow 2D array at an explicit zero level falls back to a zero-gradient
// textureGrad, since GLSL has no textureLod overload for either sampler
// type (§4.8 bullet 5, §8 scenario 5).
//
//nolint:gocyclo,cyclop,funlen // one function covers every sample-level/shadow/offset/gather combination
func (w *Writer) writeImageSample(s ir.ExprImageSample) (string, error) {
	image, err := w.writeExpression(s.Image)
	if err != nil {
		return "", err
	}
	sampler, err := w.writeExpression(s.Sampler)
	if err != nil {
		return "", err
	}
	coordinate, err := w.writeExpression(s.Coordinate)
	if err != nil {
		return "", err
	}

	combinedName := fmt.Sprintf("%s_%s", image, sampler)
	w.textureSamplerPairs = append(w.textureSamplerPairs, combinedName)

	imgType, _ := w.resolveImageType(s.Image)
	isShadow := imgType.Class == ir.ImageClassDepth || s.DepthRef != nil

	coordVectorSize := w.resolveVectorSize(s.Coordinate)
	if coordVectorSize == 0 {
		coordVectorSize = 2
	}
	coordExpr := coordinate
	mergedSize := coordVectorSize
	if s.ArrayIndex != nil {
		arrayIdx, err := w.writeExpression(*s.ArrayIndex)
		if err != nil {
			return "", err
		}
		mergedSize++
		coordExpr = fmt.Sprintf("%s, %s", coordExpr, arrayIdx)
	}
	var depthRef string
	if s.DepthRef != nil {
		depthRef, err = w.writeExpression(*s.DepthRef)
		if err != nil {
			return "", err
		}
		mergedSize++
		coordExpr = fmt.Sprintf("%s, %s", coordExpr, depthRef)
	}
	if s.ArrayIndex != nil || s.DepthRef != nil {
		coordExpr = fmt.Sprintf("vec%d(%s)", mergedSize, coordExpr)
	}

	var offset string
	if s.Offset != nil {
		offset, err = w.writeExpression(*s.Offset)
		if err != nil {
			return "", err
		}
	}
	offsetSuffix := ""
	if offset != "" {
		offsetSuffix = "Offset"
	}

	if s.Gather != nil {
		if isShadow {
			if offset != "" {
				return fmt.Sprintf("textureGatherOffset(%s, %s, %s, %s)", combinedName, coordExpr, depthRef, offset), nil
			}
			return fmt.Sprintf("textureGather(%s, %s, %s)", combinedName, coordExpr, depthRef), nil
		}
		comp := int(*s.Gather)
		if offset != "" {
			return fmt.Sprintf("textureGatherOffset(%s, %s, %s, %d)", combinedName, coordExpr, offset, comp), nil
		}
		return fmt.Sprintf("textureGather(%s, %s, %d)", combinedName, coordExpr, comp), nil
	}

	switch level := s.Level.(type) {
	case ir.SampleLevelExact:
		levelExpr, err := w.writeExpression(level.Level)
		if err != nil {
			return "", err
		}
		if offset != "" {
			return fmt.Sprintf("textureLodOffset(%s, %s, %s, %s)", combinedName, coordExpr, levelExpr, offset), nil
		}
		return fmt.Sprintf("textureLod(%s, %s, %s)", combinedName, coordExpr, levelExpr), nil
	case ir.SampleLevelBias:
		biasExpr, err := w.writeExpression(level.Bias)
		if err != nil {
			return "", err
		}
		if offset != "" {
			return fmt.Sprintf("textureOffset(%s, %s, %s, %s)", combinedName, coordExpr, offset, biasExpr), nil
		}
		return fmt.Sprintf("texture(%s, %s, %s)", combinedName, coordExpr, biasExpr), nil
	case ir.SampleLevelGradient:
		gradX, err := w.writeExpression(level.X)
		if err != nil {
			return "", err
		}
		gradY, err := w.writeExpression(level.Y)
		if err != nil {
			return "", err
		}
		if offset != "" {
			return fmt.Sprintf("textureGradOffset(%s, %s, %s, %s, %s)", combinedName, coordExpr, gradX, gradY, offset), nil
		}
		return fmt.Sprintf("textureGrad(%s, %s, %s, %s)", combinedName, coordExpr, gradX, gradY), nil
	case ir.SampleLevelZero:
		if isShadow && (imgType.Dim == ir.DimCube || (imgType.Dim == ir.Dim2D && imgType.Arrayed)) {
			zero := fmt.Sprintf("vec%d(0.0)", coordVectorSize)
			if offset != "" {
				return fmt.Sprintf("textureGradOffset(%s, %s, %s, %s, %s)", combinedName, coordExpr, zero, zero, offset), nil
			}
			return fmt.Sprintf("textureGrad(%s, %s, %s, %s)", combinedName, coordExpr, zero, zero), nil
		}
		if offset != "" {
			return fmt.Sprintf("textureLodOffset(%s, %s, 0.0, %s)", combinedName, coordExpr, offset), nil
		}
		return fmt.Sprintf("textureLod(%s, %s, 0.0)", combinedName, coordExpr), nil
	default:
		// SampleLevelAuto or nil - implicit LOD
		if offset != "" {
			return fmt.Sprintf("textureOffset(%s, %s, %s)", combinedName, coordExpr, offset), nil
		}
		return fmt.Sprintf("texture%s(%s, %s)", offsetSuffix, combinedName, coordExpr), nil
	}
}

// writeImageLoad writes an image load expression, applying the configured
// ImageLoad bounds-check policy: Restrict clamps the coordinate (and level,
// when mipmapped) into range before the fetch; ReadZeroSkipWrite instead
// guards the fetch with a ternary that returns vec4(0.0) out of range,
// whatever the image's texel type.
func (w *Writer) writeImageLoad(l ir.ExprImageLoad) (string, error) {
	image, err := w.writeExpression(l.Image)
	if err != nil {
		return "", err
	}
	coordinate, err := w.writeExpression(l.Coordinate)
	if err != nil {
		return "", err
	}

	coordExpr := coordinate
	coordCtor := "ivec2"
	coordSize := w.resolveVectorSize(l.Coordinate)
	if coordSize == 0 {
		coordSize = 2
	}
	if l.ArrayIndex != nil {
		arrayIdx, err := w.writeExpression(*l.ArrayIndex)
		if err != nil {
			return "", err
		}
		coordSize++
		coordExpr = fmt.Sprintf("ivec%d(%s, %s)", coordSize, coordinate, arrayIdx)
	}
	coordCtor = fmt.Sprintf("ivec%d", coordSize)

	var level, sample string
	if l.Level != nil {
		level, err = w.writeExpression(*l.Level)
		if err != nil {
			return "", err
		}
	}
	if l.Sample != nil {
		sample, err = w.writeExpression(*l.Sample)
		if err != nil {
			return "", err
		}
	}

	sizeArg := "0"
	if w.policies.ImageLoad == PolicyRestrict {
		if level != "" {
			level = fmt.Sprintf("clamp(%s, 0, textureQueryLevels(%s) - 1)", level, image)
			sizeArg = level
		}
		coordExpr = fmt.Sprintf("clamp(%s, %s(0), textureSize(%s, %s) - %s(1))", coordExpr, coordCtor, image, sizeArg, coordCtor)
	}

	var fetch string
	switch {
	case l.Level != nil:
		fetch = fmt.Sprintf("texelFetch(%s, %s, %s)", image, coordExpr, level)
	case l.Sample != nil:
		fetch = fmt.Sprintf("texelFetch(%s, %s, %s)", image, coordExpr, sample)
	default:
		fetch = fmt.Sprintf("imageLoad(%s, %s)", image, coordExpr)
	}

	if w.policies.ImageLoad == PolicyReadZeroSkipWrite {
		inBounds := fmt.Sprintf(
			"(all(greaterThanEqual(%s, %s(0))) && all(lessThan(%s, textureSize(%s, %s))))",
			coordExpr, coordCtor, coordExpr, image, sizeArg)
		fetch = fmt.Sprintf("(%s ? %s : vec4(0.0))", inBounds, fetch)
	}

	return fetch, nil
}

// writeImageQuery writes an image query expression.
func (w *Writer) writeImageQuery(q ir.ExprImageQuery) (string, error) {
	image, err := w.writeExpression(q.Image)
	if err != nil {
		return "", err
	}

	switch query := q.Query.(type) {
	case ir.ImageQuerySize:
		if query.Level != nil {
			level, err := w.writeExpression(*query.Level)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("textureSize(%s, %s)", image, level), nil
		}
		return fmt.Sprintf("textureSize(%s, 0)", image), nil
	case ir.ImageQueryNumLevels:
		return fmt.Sprintf("textureQueryLevels(%s)", image), nil
	case ir.ImageQueryNumLayers:
		return fmt.Sprintf("textureSize(%s, 0).z", image), nil
	case ir.ImageQueryNumSamples:
		return fmt.Sprintf("textureSamples(%s)", image), nil
	default:
		return "", fmt.Errorf("unsupported image query: %T", q.Query)
	}
}

// writeAs writes a type cast expression.
func (w *Writer) writeAs(a ir.ExprAs) (string, error) {
	expr, err := w.writeExpression(a.Expr)
	if err != nil {
		return "", err
	}

	if a.Convert == nil {
		return w.writeBitcast(a, expr)
	}

	typeName := w.scalarKindToGLSL(a.Kind)
	return fmt.Sprintf("%s(%s)", typeName, expr), nil
}

// writeBitcast dispatches on the *source* scalar kind, per the
// documented four-entry table: float->sint uses floatBitsToInt,
// float->uint uses floatBitsToUint, sint->float uses intBitsToFloat,
// uint->float uses uintBitsToFloat. The teacher's original inferred the
// source kind purely from the target kind, which cannot distinguish a
// uint->float bitcast from a sint->float one; this resolves the source
// kind from the operand's own resolved type instead.
func (w *Writer) writeBitcast(a ir.ExprAs, expr string) (string, error) {
	sourceKind := w.resolveScalarKind(a.Expr)

	switch {
	case sourceKind == ir.ScalarFloat && a.Kind == ir.ScalarSint:
		return fmt.Sprintf("floatBitsToInt(%s)", expr), nil
	case sourceKind == ir.ScalarFloat && a.Kind == ir.ScalarUint:
		return fmt.Sprintf("floatBitsToUint(%s)", expr), nil
	case sourceKind == ir.ScalarSint && a.Kind == ir.ScalarFloat:
		return fmt.Sprintf("intBitsToFloat(%s)", expr), nil
	case sourceKind == ir.ScalarUint && a.Kind == ir.ScalarFloat:
		return fmt.Sprintf("uintBitsToFloat(%s)", expr), nil
	default:
		// Bitcasts between non-float kinds (e.g. sint<->uint) keep the bit
		// pattern under a plain constructor cast, so one is emitted.
		return fmt.Sprintf("%s(%s)", w.scalarKindToGLSL(a.Kind), expr), nil
	}
}

// resolveScalarKind looks up the component scalar kind of an already-typed
// expression via the function's parallel ExpressionTypes slice.
func (w *Writer) resolveScalarKind(handle ir.ExpressionHandle) ir.ScalarKind {
	if w.currentFunction == nil || int(handle) >= len(w.currentFunction.ExpressionTypes) {
		return ir.ScalarFloat
	}
	res := w.currentFunction.ExpressionTypes[handle]
	inner := res.Value
	if res.Handle != nil && int(*res.Handle) < len(w.module.Types) {
		inner = w.module.Types[*res.Handle].Inner
	}
	switch t := inner.(type) {
	case ir.ScalarType:
		return t.Kind
	case ir.VectorType:
		return t.Scalar.Kind
	default:
		return ir.ScalarFloat
	}
}

// resolveVectorSize looks up the component count of an already-typed
// expression via the function's parallel ExpressionTypes slice. Returns 0
// when the expression resolves to a scalar or can't be typed.
func (w *Writer) resolveVectorSize(handle ir.ExpressionHandle) int {
	if w.currentFunction == nil || int(handle) >= len(w.currentFunction.ExpressionTypes) {
		return 0
	}
	res := w.currentFunction.ExpressionTypes[handle]
	inner := res.Value
	if res.Handle != nil && int(*res.Handle) < len(w.module.Types) {
		inner = w.module.Types[*res.Handle].Inner
	}
	if v, ok := inner.(ir.VectorType); ok {
		return int(v.Size)
	}
	return 0
}

// resolveImageType looks up the ir.ImageType of an image-typed expression.
func (w *Writer) resolveImageType(handle ir.ExpressionHandle) (ir.ImageType, bool) {
	if w.currentFunction == nil || int(handle) >= len(w.currentFunction.Expressions) {
		return ir.ImageType{}, false
	}
	typeHandle := w.getExpressionTypeHandle(w.currentFunction.Expressions[handle].Kind)
	if typeHandle == nil && int(handle) < len(w.currentFunction.ExpressionTypes) {
		typeHandle = w.currentFunction.ExpressionTypes[handle].Handle
	}
	if typeHandle == nil || int(*typeHandle) >= len(w.module.Types) {
		return ir.ImageType{}, false
	}
	img, ok := w.module.Types[*typeHandle].Inner.(ir.ImageType)
	return img, ok
}

// writeCallResult writes a call result expression.
func (w *Writer) writeCallResult(c ir.ExprCallResult) (string, error) {
	// Call results are stored in named expressions by writeCall
	name := w.names[nameKey{kind: nameKeyFunction, handle1: uint32(c.Function)}]
	if name == "" {
		return fmt.Sprintf("call_result_%d", c.Function), nil
	}
	return name, nil
}

// writeAtomicResult writes an atomic result expression.
func (w *Writer) writeAtomicResult(_ ir.ExprAtomicResult) (string, error) {
	// Atomic results are handled by the atomic statement
	return "/* atomic result */", nil
}

// writeArrayLength writes an array length expression.
func (w *Writer) writeArrayLength(a ir.ExprArrayLength) (string, error) {
	expr, err := w.writeExpression(a.Array)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s.length()", expr), nil
}

// scalarKindToGLSL converts a scalar kind to GLSL type name.
func (w *Writer) scalarKindToGLSL(kind ir.ScalarKind) string {
	switch kind {
	case ir.ScalarBool:
		return "bool"
	case ir.ScalarSint:
		return glslTypeInt
	case ir.ScalarUint:
		return glslTypeUint
	case ir.ScalarFloat:
		return glslTypeFloat
	default:
		return glslTypeInt
	}
}

// getExpressionTypeHandle attempts to get the type handle of an expression.
func (w *Writer) getExpressionTypeHandle(kind ir.ExpressionKind) *ir.TypeHandle {
	switch k := kind.(type) {
	case ir.ExprLocalVariable:
		if w.currentFunction != nil && int(k.Variable) < len(w.currentFunction.LocalVars) {
			return &w.currentFunction.LocalVars[k.Variable].Type
		}
	case ir.ExprGlobalVariable:
		if int(k.Variable) < len(w.module.GlobalVariables) {
			return &w.module.GlobalVariables[k.Variable].Type
		}
	case ir.ExprCompose:
		return &k.Type
	case ir.ExprZeroValue:
		return &k.Type
	}
	return nil
}
