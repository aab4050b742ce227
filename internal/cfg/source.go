package cfg

import (
	"os"
	"strings"
)

// source is one resolution pass over a value's three external inputs:
// --set overrides, process env and the flattened config file. Map keys are
// stored lowercase; lookups normalize so the uppercase env-style keys a
// Value also lists (BACKUPCTL_*, KUBECONFIG) hit override entries too.
type source struct {
	override   map[string]string
	configFile map[string]any
}

func normKey(key string) string {
	return strings.ToLower(key)
}

func (s *source) lookupOverride(key string) (string, bool) {
	val, ok := s.override[normKey(key)]
	return val, ok
}

// lookupEnv reads the process environment directly, env is never snapshotted.
func (s *source) lookupEnv(key string) (string, bool) {
	val, ok := os.LookupEnv(key)
	return val, ok
}

func (s *source) lookupConfigFile(key string) (any, bool) {
	val, ok := s.configFile[normKey(key)]
	return val, ok
}
