package backend

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sys/cpu"
)

// Capabilities describes the host a backend runs on: core count and the
// vector extensions gonum's kernels can take advantage of.
func Capabilities() string {
	var features []string
	switch runtime.GOARCH {
	case "amd64":
		for name, ok := range map[string]bool{
			"sse4.1":  cpu.X86.HasSSE41,
			"avx":     cpu.X86.HasAVX,
			"avx2":    cpu.X86.HasAVX2,
			"fma":     cpu.X86.HasFMA,
			"avx512f": cpu.X86.HasAVX512F,
		} {
			if ok {
				features = append(features, name)
			}
		}
	case "arm64":
		for name, ok := range map[string]bool{
			"asimd": cpu.ARM64.HasASIMD,
			"fp":    cpu.ARM64.HasFP,
			"sve":   cpu.ARM64.HasSVE,
		} {
			if ok {
				features = append(features, name)
			}
		}
	}
	sort.Strings(features)
	if len(features) == 0 {
		features = []string{"none"}
	}
	return fmt.Sprintf("%s/%s cpus=%d gomaxprocs=%d features=%s",
		runtime.GOOS, runtime.GOARCH, runtime.NumCPU(), runtime.GOMAXPROCS(0), strings.Join(features, ","))
}
