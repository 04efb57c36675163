package version

import (
	"fmt"
	"io"
	"runtime/debug"
)

// Version information, set with -ldflags "-X".
var (
	BuildTS   = "None"
	GitHash   = "None"
	GitBranch = "None"
	Version   = "None"
)

func GetVersion() string {
	if GitHash != "" && GitHash != "None" {
		h := GitHash
		if len(h) > 7 {
			h = h[:7]
		}
		return fmt.Sprintf("%s-%s", Version, h)
	}

	// go install 构建时没有 ldflags
	if Version == "None" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
			return info.Main.Version
		}
	}

	return Version
}

// Printer print build version
func Printer(w io.Writer) {
	fmt.Fprintln(w, "Version:          ", GetVersion())
	fmt.Fprintln(w, "Git Branch:       ", GitBranch)
	fmt.Fprintln(w, "Git Commit:       ", GitHash)
	fmt.Fprintln(w, "Build Time (UTC): ", BuildTS)
}
