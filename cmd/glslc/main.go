// Command glslc compiles the naga-style shader IR to GLSL source.
//
// Usage:
//
//	glslc [options] <shader>
//
// <shader> selects one of the built-in demo IR modules ("triangle" or
// "reduction"); there is no WGSL/SPIR-V front end in this module, so
// glslc exists to exercise the backend end to end rather than to
// compile arbitrary user shaders.
//
// Examples:
//
//	glslc triangle                        # vertex stage GLSL to stdout
//	glslc -stage fragment triangle         # fragment stage GLSL to stdout
//	glslc -version 420 -o tri.vert.glsl triangle
//	glslc -reflect reduction               # dump JSON reflection instead of source
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/gogpu/glslback/glsl"
	"github.com/gogpu/glslback/ir"
)

var (
	output      = flag.String("o", "", "output file (default: stdout)")
	stageFlag   = flag.String("stage", "", "entry point stage: vertex, fragment, or compute (default: first entry point)")
	entryFlag   = flag.String("entry", "", "entry point name (default: first matching stage)")
	versionFlag = flag.String("version", "330", "target GLSL version number (e.g. 330, 430, 300es, 310es)")
	reflectFlag = flag.Bool("reflect", false, "print JSON reflection instead of GLSL source")
	minifyFlag  = flag.Bool("minify", false, "strip unnecessary whitespace from the output")
	showVersion = flag.Bool("V", false, "print glslc version")
)

func moduleVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return "dev"
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Printf("glslc version %s\n", moduleVersion())
		return
	}

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: no shader name specified")
		usage()
		os.Exit(1)
	}

	module, defaultStage, err := lookupModule(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	stage := defaultStage
	if *stageFlag != "" {
		stage, err = parseStage(*stageFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	entryName := *entryFlag
	if entryName == "" {
		entryName, err = firstEntryPointForStage(module, stage)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	version, err := parseVersion(*versionFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	info, err := ir.Analyze(module)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Analysis error: %v\n", err)
		os.Exit(1)
	}

	opts := glsl.DefaultOptions()
	opts.LangVersion = version
	if *minifyFlag {
		opts.WriterFlags |= glsl.WriterFlagMinify
	}

	pipeline := glsl.PipelineOptions{Stage: stage, EntryPointName: entryName}
	policies := glsl.BoundsCheckPolicies{
		Index:      glsl.PolicyRestrict,
		Buffer:     glsl.PolicyRestrict,
		ImageLoad:  glsl.PolicyReadZeroSkipWrite,
		ImageStore: glsl.PolicyRestrict,
	}

	source, reflection, err := glsl.Write(module, info, opts, pipeline, policies)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Translation error: %v\n", err)
		os.Exit(1)
	}

	var out []byte
	if *reflectFlag {
		out, err = json.MarshalIndent(reflection, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding reflection: %v\n", err)
			os.Exit(1)
		}
		out = append(out, '\n')
	} else {
		out = []byte(source)
	}

	if *output != "" {
		if err := os.WriteFile(*output, out, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Successfully compiled %s/%s to %s (%d bytes)\n", args[0], entryName, *output, len(out))
		return
	}

	if _, err := os.Stdout.Write(out); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}
}

func lookupModule(name string) (*ir.Module, ir.ShaderStage, error) {
	switch name {
	case "triangle":
		return buildTriangleModule(), ir.StageVertex, nil
	case "reduction":
		return buildReductionModule(), ir.StageCompute, nil
	default:
		return nil, 0, fmt.Errorf("unknown shader %q (available: triangle, reduction)", name)
	}
}

func parseStage(s string) (ir.ShaderStage, error) {
	switch strings.ToLower(s) {
	case "vertex":
		return ir.StageVertex, nil
	case "fragment":
		return ir.StageFragment, nil
	case "compute":
		return ir.StageCompute, nil
	default:
		return 0, fmt.Errorf("unknown stage %q (want vertex, fragment, or compute)", s)
	}
}

func firstEntryPointForStage(module *ir.Module, stage ir.ShaderStage) (string, error) {
	for _, ep := range module.EntryPoints {
		if ep.Stage == stage {
			return ep.Name, nil
		}
	}
	return "", fmt.Errorf("no entry point for stage %d in this shader", stage)
}

// parseVersion accepts a bare GLSL version number ("330", "430") or an
// ES suffix ("300es", "310es"), matching the glsl.Version values this
// backend accepts per §6.
func parseVersion(s string) (glsl.Version, error) {
	es := strings.HasSuffix(strings.ToLower(s), "es")
	numeric := strings.TrimSuffix(strings.ToLower(s), "es")
	n, err := strconv.Atoi(numeric)
	if err != nil || len(numeric) < 3 {
		return glsl.Version{}, fmt.Errorf("invalid GLSL version %q", s)
	}
	major := n / 100
	minor := n % 100
	return glsl.Version{Major: uint8(major), Minor: uint8(minor), ES: es}, nil //nolint:gosec // G115: version digits fit uint8
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: glslc [options] <triangle|reduction>\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  glslc triangle                    Vertex stage GLSL to stdout\n")
	fmt.Fprintf(os.Stderr, "  glslc -stage fragment triangle     Fragment stage GLSL to stdout\n")
	fmt.Fprintf(os.Stderr, "  glslc -version 430 reduction      Compute stage GLSL to stdout\n")
	fmt.Fprintf(os.Stderr, "  glslc -reflect -o refl.json triangle\n")
}
