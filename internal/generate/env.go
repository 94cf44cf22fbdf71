package generate

import (
	"strings"

	"github.com/backmassage/ariabatch/internal/config"
)

// Determinism variables set on every generator process.
const (
	EnvHashSeed        = "PYTHONHASHSEED"
	EnvCublasWorkspace = "CUBLAS_WORKSPACE_CONFIG"
)

// Environ returns base with the determinism variables replaced by the run's
// values. Whatever the parent process had for these keys is dropped, so two
// runs with the same RunConfig see the same values. base is not modified.
func Environ(rc config.RunConfig, base []string) []string {
	env := make([]string, 0, len(base)+2)
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if key == EnvHashSeed || key == EnvCublasWorkspace {
			continue
		}
		env = append(env, kv)
	}
	env = append(env, EnvHashSeed+"="+rc.EffectiveHashSeed())
	if rc.CublasWorkspace != "" {
		env = append(env, EnvCublasWorkspace+"="+rc.CublasWorkspace)
	}
	return env
}
