package ir

import "fmt"

// ModuleInfo holds module-wide analysis results consumed by a backend
// writer: per-function expression types, reference counts, and which
// shader stages actually reach each function. It plays the same role for
// this IR that naga's validator-produced `ModuleInfo` plays upstream,
// scaled down to what a GLSL writer actually reads (§3's Data Model
// names it as writer input; it is not recomputed by the writer itself).
type ModuleInfo struct {
	Functions []FunctionInfo
}

// FunctionInfo holds per-function analysis results.
type FunctionInfo struct {
	// ExpressionTypes holds the resolved type of every expression in the
	// function, parallel to Function.Expressions.
	ExpressionTypes []TypeResolution

	// RefCounts holds, for every expression, how many times it is read by
	// another expression or statement. The GLSL writer in this module does
	// not read it.
	RefCounts []uint32

	// Sampling records every (image, sampler) pair an ExprImageSample in
	// this function combines, in first-use order. The GLSL writer does not
	// read it; it collects TranslationInfo.TextureSamplerPairs itself while
	// writing sample expressions.
	Sampling []SamplingPair

	// AvailableStages is the bitwise OR of every ShaderStage that can reach
	// this function from some entry point; a function never reached by any
	// entry point has it as zero.
	AvailableStages StageFlags
}

// SamplingPair names one (image global, sampler global) combination used
// together in an ExprImageSample.
type SamplingPair struct {
	Image   GlobalVariableHandle
	Sampler GlobalVariableHandle
}

// StageFlags is a bitflag set of shader stages, used to mark which stages
// can reach a given function.
type StageFlags uint8

const (
	StageFlagVertex StageFlags = 1 << iota
	StageFlagFragment
	StageFlagCompute
)

func stageFlag(stage ShaderStage) StageFlags {
	switch stage {
	case StageVertex:
		return StageFlagVertex
	case StageFragment:
		return StageFlagFragment
	case StageCompute:
		return StageFlagCompute
	default:
		return 0
	}
}

// Analyze computes a ModuleInfo for module: expression types and reference
// counts for every function, image/sampler pairing per function, and stage
// reachability from every entry point. It does not validate the module; a
// malformed reference (out-of-range handle, type mismatch) surfaces as an
// error from the underlying ResolveExpressionType call.
func Analyze(module *Module) (*ModuleInfo, error) {
	info := &ModuleInfo{
		Functions: make([]FunctionInfo, len(module.Functions)),
	}

	for i := range module.Functions {
		fi, err := analyzeFunction(module, &module.Functions[i])
		if err != nil {
			return nil, fmt.Errorf("ir: analyzing function %q: %w", module.Functions[i].Name, err)
		}
		info.Functions[i] = fi
	}

	for _, ep := range module.EntryPoints {
		if int(ep.Function) >= len(info.Functions) {
			return nil, fmt.Errorf("ir: entry point %q references out-of-range function %d", ep.Name, ep.Function)
		}
		markReachable(module, info, ep.Function, stageFlag(ep.Stage), make(map[FunctionHandle]bool))
	}

	return info, nil
}

func analyzeFunction(module *Module, fn *Function) (FunctionInfo, error) {
	types := make([]TypeResolution, len(fn.Expressions))
	refCounts := make([]uint32, len(fn.Expressions))
	var sampling []SamplingPair

	for h := range fn.Expressions {
		handle := ExpressionHandle(h)
		res, err := ResolveExpressionType(module, fn, handle)
		if err != nil {
			return FunctionInfo{}, err
		}
		types[h] = res

		for _, operand := range expressionOperands(fn.Expressions[h].Kind) {
			if int(operand) < len(refCounts) {
				refCounts[operand]++
			}
		}

		if sample, ok := fn.Expressions[h].Kind.(ExprImageSample); ok {
			if img, ok := fn.Expressions[sample.Image].Kind.(ExprGlobalVariable); ok {
				if samp, ok := fn.Expressions[sample.Sampler].Kind.(ExprGlobalVariable); ok {
					sampling = append(sampling, SamplingPair{Image: img.Variable, Sampler: samp.Variable})
				}
			}
		}
	}

	for _, stmt := range walkStatements(fn.Body) {
		for _, operand := range statementOperands(stmt.Kind) {
			if int(operand) < len(refCounts) {
				refCounts[operand]++
			}
		}
	}

	return FunctionInfo{
		ExpressionTypes: types,
		RefCounts:       refCounts,
		Sampling:        sampling,
	}, nil
}

// expressionOperands lists the ExpressionHandles an expression reads,
// used to compute reference counts for baking decisions.
func expressionOperands(kind ExpressionKind) []ExpressionHandle {
	switch k := kind.(type) {
	case ExprCompose:
		return k.Components
	case ExprAccess:
		return []ExpressionHandle{k.Base, k.Index}
	case ExprAccessIndex:
		return []ExpressionHandle{k.Base}
	case ExprSplat:
		return []ExpressionHandle{k.Value}
	case ExprSwizzle:
		return []ExpressionHandle{k.Vector}
	case ExprLoad:
		return []ExpressionHandle{k.Pointer}
	case ExprImageSample:
		ops := []ExpressionHandle{k.Image, k.Sampler, k.Coordinate}
		if k.ArrayIndex != nil {
			ops = append(ops, *k.ArrayIndex)
		}
		if k.Offset != nil {
			ops = append(ops, *k.Offset)
		}
		return ops
	case ExprImageLoad:
		ops := []ExpressionHandle{k.Image, k.Coordinate}
		if k.ArrayIndex != nil {
			ops = append(ops, *k.ArrayIndex)
		}
		if k.Sample != nil {
			ops = append(ops, *k.Sample)
		}
		if k.Level != nil {
			ops = append(ops, *k.Level)
		}
		return ops
	case ExprImageQuery:
		return []ExpressionHandle{k.Image}
	case ExprUnary:
		return []ExpressionHandle{k.Expr}
	case ExprBinary:
		return []ExpressionHandle{k.Left, k.Right}
	case ExprSelect:
		return []ExpressionHandle{k.Condition, k.Accept, k.Reject}
	case ExprDerivative:
		return []ExpressionHandle{k.Expr}
	case ExprRelational:
		return []ExpressionHandle{k.Argument}
	case ExprMath:
		ops := []ExpressionHandle{k.Arg}
		if k.Arg1 != nil {
			ops = append(ops, *k.Arg1)
		}
		if k.Arg2 != nil {
			ops = append(ops, *k.Arg2)
		}
		if k.Arg3 != nil {
			ops = append(ops, *k.Arg3)
		}
		return ops
	case ExprAs:
		return []ExpressionHandle{k.Expr}
	case ExprArrayLength:
		return []ExpressionHandle{k.Array}
	default:
		return nil
	}
}

// statementOperands lists the top-level ExpressionHandles a statement
// reads directly (not recursing into nested blocks, which walkStatements
// already flattens).
func statementOperands(kind StatementKind) []ExpressionHandle {
	switch k := kind.(type) {
	case StmtIf:
		return []ExpressionHandle{k.Condition}
	case StmtSwitch:
		return []ExpressionHandle{k.Selector}
	case StmtLoop:
		if k.BreakIf != nil {
			return []ExpressionHandle{*k.BreakIf}
		}
		return nil
	case StmtReturn:
		if k.Value != nil {
			return []ExpressionHandle{*k.Value}
		}
		return nil
	case StmtStore:
		return []ExpressionHandle{k.Pointer, k.Value}
	case StmtImageStore:
		ops := []ExpressionHandle{k.Image, k.Coordinate, k.Value}
		if k.ArrayIndex != nil {
			ops = append(ops, *k.ArrayIndex)
		}
		return ops
	case StmtAtomic:
		ops := []ExpressionHandle{k.Pointer, k.Value}
		if k.Result != nil {
			ops = append(ops, *k.Result)
		}
		return ops
	case StmtWorkGroupUniformLoad:
		return []ExpressionHandle{k.Pointer, k.Result}
	case StmtCall:
		ops := append([]ExpressionHandle{}, k.Arguments...)
		if k.Result != nil {
			ops = append(ops, *k.Result)
		}
		return ops
	case StmtSubgroupBallot:
		if k.Predicate != nil {
			return []ExpressionHandle{*k.Predicate}
		}
		return nil
	case StmtSubgroupCollectiveOperation:
		return []ExpressionHandle{k.Argument}
	case StmtSubgroupGather:
		ops := []ExpressionHandle{k.Argument}
		if k.Index != nil {
			ops = append(ops, *k.Index)
		}
		return ops
	default:
		return nil
	}
}

// walkStatements flattens a block tree into a single slice, depth-first,
// so callers don't need their own recursive traversal for simple
// operand-collecting passes.
func walkStatements(block Block) []Statement {
	var out []Statement
	for _, stmt := range block {
		out = append(out, stmt)
		switch k := stmt.Kind.(type) {
		case StmtBlock:
			out = append(out, walkStatements(k.Block)...)
		case StmtIf:
			out = append(out, walkStatements(k.Accept)...)
			out = append(out, walkStatements(k.Reject)...)
		case StmtSwitch:
			for _, c := range k.Cases {
				out = append(out, walkStatements(c.Body)...)
			}
		case StmtLoop:
			out = append(out, walkStatements(k.Body)...)
			out = append(out, walkStatements(k.Continuing)...)
		}
	}
	return out
}

func markReachable(module *Module, info *ModuleInfo, handle FunctionHandle, stages StageFlags, visiting map[FunctionHandle]bool) {
	if visiting[handle] {
		return
	}
	visiting[handle] = true

	fi := &info.Functions[handle]
	fi.AvailableStages |= stages

	for _, stmt := range walkStatements(module.Functions[handle].Body) {
		if call, ok := stmt.Kind.(StmtCall); ok {
			if int(call.Function) < len(info.Functions) {
				markReachable(module, info, call.Function, stages, visiting)
			}
		}
	}
}
