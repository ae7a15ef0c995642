// Package compileinfo reports which build of a microbiogeo tool is running,
// so that result files can be traced back to the code that produced them.
package compileinfo

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime/debug"
)

type CompileInfo struct {
	Tool       string
	Module     string
	Version    string
	GoVersion  string
	Commit     string
	CommitTime string
	Modified   bool
}

// ShortCommit is the first 12 characters of the commit hash.
func (c CompileInfo) ShortCommit() string {
	if len(c.Commit) > 12 {
		return c.Commit[:12]
	}

	return c.Commit
}

func (c CompileInfo) String() string {
	if c.GoVersion == "" {
		return "No build information is embedded in this binary."
	}

	tool := c.Tool
	if tool == "" {
		tool = c.Module
	}

	out := fmt.Sprintf("%s (%s %s) built with %s", tool, c.Module, c.Version, c.GoVersion)
	if c.Commit != "" {
		out += fmt.Sprintf(" at commit %s (%s)", c.ShortCommit(), c.CommitTime)
	}
	if c.Modified {
		out += "; the working tree had uncommitted changes"
	}

	return out + "."
}

// Get reads the build information embedded by the Go toolchain.
func Get() CompileInfo {
	z, ok := debug.ReadBuildInfo()
	if !ok {
		return CompileInfo{}
	}

	return fromBuildInfo(z)
}

func fromBuildInfo(z *debug.BuildInfo) CompileInfo {
	out := CompileInfo{
		Tool:      path.Base(z.Path),
		Module:    z.Main.Path,
		Version:   z.Main.Version,
		GoVersion: z.GoVersion,
	}

	for _, s := range z.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Commit = s.Value
		case "vcs.time":
			out.CommitTime = s.Value
		case "vcs.modified":
			out.Modified = s.Value == "true"
		}
	}

	return out
}

// Fprint writes a one-line build description to w.
func Fprint(w io.Writer) {
	fmt.Fprintln(w, Get())
}

func PrintToStdErr() {
	Fprint(os.Stderr)
}
