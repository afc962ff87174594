// meshbake bakes voxel mesh assets without a window and reports what the
// vertex compaction achieved.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Faultbox/lilcraft/internal/engine/mesh"
	"github.com/Faultbox/lilcraft/internal/engine/voxel"
	"github.com/Faultbox/lilcraft/internal/gpu/memgpu"
	"github.com/Faultbox/lilcraft/internal/logger"
	"github.com/Faultbox/lilcraft/pkg/formats"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "stats":
		cmdStats(args)
	case "check":
		cmdCheck(args)
	case "dump":
		cmdDump(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshbake - voxel mesh baking utility

Usage:
  meshbake <command> [options]

Commands:
  stats [-scale S] [-bound B] [-v] <dir> [name...]   Bake meshes and print compaction statistics
  check [-scale S] [-bound B] [-v] <dir> [name...]   Load meshes with palettes against an in-memory device
  dump  [-scale S] [-bound B] [-v] <file.obj>        Print the baked vertices and triangles

Names default to every .obj file in dir.

Examples:
  meshbake stats assets
  meshbake check assets dirt_00 player_00
  meshbake dump -scale 8 assets/tree_00.obj`)
}

// bakeFlags registers the options shared by every command.
func bakeFlags(name string) (*flag.FlagSet, *mesh.BakeOptions) {
	opts := mesh.DefaultBakeOptions()
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Var(float32Value{&opts.Scale}, "scale", "Position scale applied before rounding")
	fs.IntVar(&opts.Bound, "bound", opts.Bound, fmt.Sprintf("Max |coordinate| after scaling (<= %d)", voxel.MaxMagnitude))
	fs.BoolVar(&verbose, "v", false, "Log loading details to stderr")
	return fs, &opts
}

var verbose bool

// parse parses args and turns on debug logging for -v.
func parse(fs *flag.FlagSet, args []string) {
	fs.Parse(args)
	if verbose {
		if err := logger.Init("debug", ""); err != nil {
			fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
			os.Exit(1)
		}
	}
}

type float32Value struct{ p *float32 }

func (v float32Value) String() string {
	if v.p == nil {
		return ""
	}
	return fmt.Sprint(*v.p)
}

func (v float32Value) Set(s string) error {
	var f float32
	if _, err := fmt.Sscan(s, &f); err != nil {
		return err
	}
	*v.p = f
	return nil
}

// assetNames returns the names given on the command line, or every .obj file
// in dir.
func assetNames(dir string, names []string) ([]string, error) {
	if len(names) > 0 {
		return names, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.obj"))
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(filepath.Base(m), filepath.Ext(m)))
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, fmt.Errorf("no .obj files in %s", dir)
	}
	return names, nil
}

func cmdStats(args []string) {
	fs, opts := bakeFlags("stats")
	parse(fs, args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshbake stats [-scale S] [-bound B] [-v] <dir> [name...]")
		os.Exit(1)
	}
	dir := fs.Arg(0)
	names, err := assetNames(dir, fs.Args()[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%-16s %8s %8s %8s %9s %10s %10s\n", "MESH", "CORNERS", "VERTICES", "TRIS", "SAVED", "VB BYTES", "IB BYTES")

	failed := 0
	var totalCorners, totalVertices int
	for _, name := range names {
		obj, err := formats.ParseOBJFile(filepath.Join(dir, name+".obj"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
			failed++
			continue
		}
		baked, err := mesh.Bake(obj, *opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
			failed++
			continue
		}

		corners := len(obj.Indices)
		vertices := len(baked.Vertices)
		totalCorners += corners
		totalVertices += vertices

		fmt.Printf("%-16s %8d %8d %8d %8.1f%% %10d %10d\n",
			name, corners, vertices, obj.TriangleCount(),
			saved(corners, vertices), len(baked.VertexBytes()), len(baked.IndexBytes()))
	}

	if len(names) > 1 {
		fmt.Printf("%-16s %8d %8d %8s %8.1f%%\n", "total", totalCorners, totalVertices, "", saved(totalCorners, totalVertices))
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// saved is the share of face corners dedup removed.
func saved(corners, vertices int) float64 {
	if corners == 0 {
		return 0
	}
	return 100 * float64(corners-vertices) / float64(corners)
}

func cmdCheck(args []string) {
	fs, opts := bakeFlags("check")
	parse(fs, args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshbake check [-scale S] [-bound B] [-v] <dir> [name...]")
		os.Exit(1)
	}
	dir := fs.Arg(0)
	names, err := assetNames(dir, fs.Args()[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	loadOpts := mesh.DefaultLoadOptions()
	loadOpts.Bake = *opts

	dev := memgpu.New()
	loaded, failed := 0, 0
	for _, name := range names {
		pass, _ := dev.BeginCopyPass()
		asset, err := mesh.Load(dev, pass, dir, name, loadOpts)
		pass.End()
		if err != nil {
			fmt.Printf("FAIL %-16s %v\n", name, err)
			failed++
			continue
		}
		fmt.Printf("ok   %-16s %d vertices, %d indices\n", name, asset.VertexCount, asset.IndexCount)
		asset.Free(dev)
		loaded++
	}

	if dev.LiveBuffers() != 0 || dev.LiveStaging() != 0 || dev.LiveTextures() != 0 {
		fmt.Fprintf(os.Stderr, "leaked: %d buffers, %d staging, %d textures\n",
			dev.LiveBuffers(), dev.LiveStaging(), dev.LiveTextures())
		failed++
	}
	for _, v := range dev.Violations() {
		fmt.Fprintf(os.Stderr, "violation: %v\n", v)
		failed++
	}

	st := dev.Stats()
	fmt.Printf("\n%d/%d loaded, %d uploads\n", loaded, len(names), st.Uploads)
	if failed > 0 {
		os.Exit(1)
	}
}

func cmdDump(args []string) {
	fs, opts := bakeFlags("dump")
	parse(fs, args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshbake dump [-scale S] [-bound B] [-v] <file.obj>")
		os.Exit(1)
	}

	obj, err := formats.ParseOBJFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	baked, err := mesh.Bake(obj, *opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Vertices: %d\n", len(baked.Vertices))
	for i, v := range baked.Vertices {
		pos, n := voxel.Unpack(v.Packed)
		fmt.Printf("  %5d  0x%08X  (%4d %4d %4d)  %-3s  %.6f\n", i, v.Packed, pos[0], pos[1], pos[2], n, v.TexCoord)
	}

	fmt.Printf("Triangles: %d\n", len(baked.Indices)/3)
	for i := 0; i+2 < len(baked.Indices); i += 3 {
		fmt.Printf("  %5d  %d %d %d\n", i/3, baked.Indices[i], baked.Indices[i+1], baked.Indices[i+2])
	}
}
