// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/gogpu/glslback/ir"
)

// Version represents a GLSL version.
type Version struct {
	Major uint8
	Minor uint8
	ES    bool // true for GLSL ES (OpenGL ES / WebGL)
}

// Common GLSL versions.
var (
	// Desktop OpenGL versions
	Version330 = Version{Major: 3, Minor: 30, ES: false} // OpenGL 3.3 Core
	Version400 = Version{Major: 4, Minor: 0, ES: false}  // OpenGL 4.0
	Version410 = Version{Major: 4, Minor: 10, ES: false} // OpenGL 4.1
	Version420 = Version{Major: 4, Minor: 20, ES: false} // OpenGL 4.2
	Version430 = Version{Major: 4, Minor: 30, ES: false} // OpenGL 4.3 (compute shaders)
	Version450 = Version{Major: 4, Minor: 50, ES: false} // OpenGL 4.5
	Version460 = Version{Major: 4, Minor: 60, ES: false} // OpenGL 4.6

	// OpenGL ES / WebGL versions
	VersionES300 = Version{Major: 3, Minor: 0, ES: true}  // ES 3.0 / WebGL 2.0
	VersionES310 = Version{Major: 3, Minor: 10, ES: true} // ES 3.1 (compute shaders)
	VersionES320 = Version{Major: 3, Minor: 20, ES: true} // ES 3.2
)

// String returns the version as a GLSL version directive value.
func (v Version) String() string {
	if v.ES {
		return fmt.Sprintf("%d%02d es", v.Major, v.Minor)
	}
	return fmt.Sprintf("%d%02d core", v.Major, v.Minor)
}

// VersionNumber returns just the numeric version (e.g., "330", "300").
func (v Version) VersionNumber() string {
	return fmt.Sprintf("%d%02d", v.Major, v.Minor)
}

// versionLessThan returns true if the numeric version (Major*100+Minor) is
// less than the given number. For example, versionLessThan(410) returns true
// for GLSL 330 (3*100+30=330 < 410) and false for GLSL 410 (4*100+10=410).
func (v Version) versionLessThan(number int) bool {
	return int(v.Major)*100+int(v.Minor) < number
}

// SupportsCompute returns true if this version supports compute shaders.
func (v Version) SupportsCompute() bool {
	if v.ES {
		return v.Major > 3 || (v.Major == 3 && v.Minor >= 10)
	}
	return v.Major > 4 || (v.Major == 4 && v.Minor >= 30)
}

// SupportsStorageBuffers returns true if this version supports storage buffers.
func (v Version) SupportsStorageBuffers() bool {
	if v.ES {
		return v.Major > 3 || (v.Major == 3 && v.Minor >= 10)
	}
	return v.Major > 4 || (v.Major == 4 && v.Minor >= 30)
}

// supportedVersions is the fixed list of versions this backend accepts,
// per §6: Core in {140,150,330,400,410,420,430,440,450,460}; ES in
// {300,310,320}.
var supportedVersions = []Version{
	{Major: 1, Minor: 40, ES: false},
	{Major: 1, Minor: 50, ES: false},
	Version330, Version400, Version410, Version420, Version430, Version450, Version460,
	{Major: 4, Minor: 40, ES: false},
	VersionES300, VersionES310, VersionES320,
}

// checkVersionSupported rejects any version not in the fixed supported
// list (§6, §7 VersionNotSupported).
func checkVersionSupported(v Version) error {
	for _, s := range supportedVersions {
		if s == v {
			return nil
		}
	}
	return newError(ErrVersionNotSupported, fmt.Sprintf("GLSL %s is not a supported target version", v.String()))
}

// explicitLocationsSupported reports whether the version supports
// explicit `layout(location=)` qualifiers without an extension
// (Desktop>=420 or ES>=310).
func (v Version) explicitLocationsSupported() bool {
	if v.ES {
		return v.Major > 3 || (v.Major == 3 && v.Minor >= 10)
	}
	return v.Major > 4 || (v.Major == 4 && v.Minor >= 20)
}

// supportsFMA reports whether the version has a native `fma` builtin
// (Desktop>=400 or ES>=320).
func (v Version) supportsFMA() bool {
	if v.ES {
		return v.Major > 3 || (v.Major == 3 && v.Minor >= 20)
	}
	return v.Major > 4 || (v.Major == 4 && v.Minor >= 0)
}

// supportsDerivativeControl reports whether the version has
// dFdxFine/dFdxCoarse-style derivative control (Desktop>=450).
func (v Version) supportsDerivativeControl() bool {
	if v.ES {
		return false
	}
	return v.Major > 4 || (v.Major == 4 && v.Minor >= 50)
}

// WriterFlags control output formatting and feature emulation, per §6.
type WriterFlags uint32

const (
	// WriterFlagNone uses default settings.
	WriterFlagNone WriterFlags = 0

	// WriterFlagAdjustCoordinateSpace rewrites gl_Position per §3's
	// "y = -y; z = 2z - w" rule to match the IR's clip-space convention
	// to OpenGL's.
	WriterFlagAdjustCoordinateSpace WriterFlags = 1 << iota

	// WriterFlagTextureShadowLOD marks the target as supporting explicit
	// LOD sampling of shadow samplers, skipping the textureGrad polyfill.
	WriterFlagTextureShadowLOD

	// WriterFlagDrawParameters marks gl_BaseInstance as available,
	// skipping the first-instance uniform emulation.
	WriterFlagDrawParameters

	// WriterFlagIncludeUnusedItems scans the whole module for required
	// features/globals instead of only what's reachable from the
	// selected entry point.
	WriterFlagIncludeUnusedItems

	// WriterFlagForcePointSize defaults gl_PointSize to 1.0 in vertex
	// entry points that never write a PointSize builtin.
	WriterFlagForcePointSize

	// WriterFlagExplicitTypes forces explicit type annotations.
	WriterFlagExplicitTypes

	// WriterFlagDebugInfo adds source comments for debugging.
	WriterFlagDebugInfo

	// WriterFlagMinify removes unnecessary whitespace.
	WriterFlagMinify

	// WriterFlagZeroInitializeWorkgroupMemory enables the workgroup
	// zero-init prologue (§4.7) for compute entry points.
	WriterFlagZeroInitializeWorkgroupMemory
)

// PipelineOptions narrows a Compile/Write call down to exactly one entry
// point, per §6: "entry-point name must match exactly one entry point".
type PipelineOptions struct {
	Stage          ir.ShaderStage
	EntryPointName string
	// MultiviewCount, when greater than 1, requires GL_OVR_multiview2.
	// No `layout(num_views = N) in;` declaration is written.
	MultiviewCount uint32
}

// BoundsCheckPolicy selects out-of-bounds behavior for one resource
// class, per the GLOSSARY's Policy term.
type BoundsCheckPolicy uint8

const (
	// PolicyRestrict clamps indices/coordinates into range.
	PolicyRestrict BoundsCheckPolicy = iota
	// PolicyReadZeroSkipWrite returns a typed zero on out-of-range
	// reads and skips out-of-range writes.
	PolicyReadZeroSkipWrite
	// PolicyUnchecked performs no bounds checking.
	PolicyUnchecked
)

// BoundsCheckPolicies groups the per-resource-class policy selection.
type BoundsCheckPolicies struct {
	Index        BoundsCheckPolicy
	Buffer       BoundsCheckPolicy
	ImageLoad    BoundsCheckPolicy
	ImageStore   BoundsCheckPolicy
}

// Options configures GLSL code generation.
type Options struct {
	// LangVersion is the target GLSL version.
	// Defaults to Version330 if zero.
	LangVersion Version

	// EntryPoint specifies which entry point to compile.
	// If empty, the module must have exactly one entry point.
	EntryPoint string

	// SamplerBindingBase adds offset to sampler binding indices.
	SamplerBindingBase uint32

	// TextureBindingBase adds offset to texture binding indices.
	TextureBindingBase uint32

	// UniformBindingBase adds offset to uniform buffer binding indices.
	UniformBindingBase uint32

	// StorageBindingBase adds offset to storage buffer binding indices.
	StorageBindingBase uint32

	// WriterFlags control output formatting.
	WriterFlags WriterFlags

	// ForceHighPrecision forces highp precision for all float types (ES only).
	// If false, uses default precision qualifiers.
	ForceHighPrecision bool
}

// DefaultOptions returns sensible default options for GLSL generation.
func DefaultOptions() Options {
	return Options{
		LangVersion:        Version330,
		ForceHighPrecision: true,
	}
}

// TranslationInfo contains metadata about the translation.
type TranslationInfo struct {
	// EntryPointNames maps original entry point names to generated GLSL names.
	EntryPointNames map[string]string

	// UsedExtensions lists GLSL extensions required by the shader.
	UsedExtensions []string

	// RequiredVersion is the minimum GLSL version needed for this shader.
	// May be higher than the requested version if features require it.
	RequiredVersion Version

	// TextureSamplerPairs lists the combined texture-sampler pairs generated.
	// Each entry is "textureName_samplerName".
	TextureSamplerPairs []string
}

// Compile generates GLSL source code from an IR module using the entry
// point named by Options.EntryPoint, or the module's only entry point when
// that is empty. It is the
// simple entry point for callers that don't need per-stage pipeline
// selection or bounds-check policy control; Write is the full API.
func Compile(module *ir.Module, options Options) (string, TranslationInfo, error) {
	if options.LangVersion.Major == 0 {
		options.LangVersion = Version330
	}

	w := newWriter(module, &options, nil, BoundsCheckPolicies{})

	if err := w.writeModule(); err != nil {
		return "", TranslationInfo{}, fmt.Errorf("glsl: %w", err)
	}

	info := TranslationInfo{
		EntryPointNames:     w.entryPointNames,
		UsedExtensions:      w.extensions,
		RequiredVersion:     w.requiredVersion,
		TextureSamplerPairs: w.textureSamplerPairs,
	}

	return w.String(), info, nil
}

// Write generates GLSL source for exactly one entry point selected by
// PipelineOptions, applying the given bounds-check policies, and returns
// a full Reflection alongside the source. This is the external interface
// named in §6 ("new(...) -> Writer", "write() -> Reflection").
func Write(module *ir.Module, info *ir.ModuleInfo, options Options, pipeline PipelineOptions, policies BoundsCheckPolicies) (string, Reflection, error) {
	if options.LangVersion.Major == 0 {
		options.LangVersion = Version330
	}

	if err := checkVersionSupported(options.LangVersion); err != nil {
		return "", Reflection{}, errors.Wrap(err, "glsl")
	}

	epIdx, ep, err := findEntryPoint(module, pipeline)
	if err != nil {
		return "", Reflection{}, errors.Wrap(err, "glsl")
	}
	options.EntryPoint = ep.Name

	w := newWriter(module, &options, info, policies)
	w.pipeline = pipeline
	w.selectedEntryPoint = epIdx

	if err := w.writeModule(); err != nil {
		return "", Reflection{}, errors.Wrap(fmt.Errorf("glsl: %w", err), "translation failed")
	}

	return w.String(), w.buildReflection(), nil
}

func findEntryPoint(module *ir.Module, pipeline PipelineOptions) (int, *ir.EntryPoint, error) {
	for i := range module.EntryPoints {
		ep := &module.EntryPoints[i]
		if ep.Stage == pipeline.Stage && ep.Name == pipeline.EntryPointName {
			return i, ep, nil
		}
	}
	return -1, nil, newError(ErrEntryPointNotFound,
		fmt.Sprintf("no entry point named %q for stage %d", pipeline.EntryPointName, pipeline.Stage))
}
