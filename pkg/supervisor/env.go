package supervisor

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// PipeWire plugin locations vary across SteamOS images.
var (
	pipewireModuleDirs = []string{
		"/usr/lib/pipewire-0.3",
		"/usr/lib64/pipewire-0.3",
		"/lib/pipewire-0.3",
	}
	spaPluginDirs = []string{
		"/usr/lib/spa-0.2",
		"/usr/lib64/spa-0.2",
		"/lib/spa-0.2",
	}
)

// buildBridgeEnv returns the environment for the bridge process. The bridge
// talks to PipeWire through the user session, which is not guaranteed to be
// set up in the daemon's own environment.
func buildBridgeEnv() []string {
	env := os.Environ()
	if runtime.GOOS != "linux" {
		return env
	}

	if !envHas(env, "XDG_RUNTIME_DIR") {
		env = append(env, fmt.Sprintf("XDG_RUNTIME_DIR=/run/user/%d", os.Getuid()))
	}
	if !envHas(env, "PIPEWIRE_MODULE_DIR") {
		if dir := firstExistingDir(pipewireModuleDirs); dir != "" {
			env = append(env, "PIPEWIRE_MODULE_DIR="+dir)
		}
	}
	if !envHas(env, "SPA_PLUGIN_DIR") {
		if dir := firstExistingDir(spaPluginDirs); dir != "" {
			env = append(env, "SPA_PLUGIN_DIR="+dir)
		}
	}

	return env
}

func envHas(env []string, key string) bool {
	prefix := key + "="
	for _, entry := range env {
		if strings.HasPrefix(entry, prefix) {
			return true
		}
	}
	return false
}

func firstExistingDir(candidates []string) string {
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
	}
	return ""
}
