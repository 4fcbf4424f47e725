package loader

import (
	"os"
	"strings"
)

// Env scans prefixed environment variables into a settings tree. Values
// stay strings.
type Env struct {
	Prefix string
	// Aliases maps whole variable names to setting paths.
	Aliases map[string]string
	// Environ lists the environment. Nil means os.Environ.
	Environ func() []string
}

// NewEnv returns an Env for prefix, which includes the trailing
// underscore, with short aliases for common settings.
func NewEnv(prefix string) *Env {
	return &Env{
		Prefix: prefix,
		Aliases: map[string]string{
			prefix + "LOG_LEVEL":   "logging.level",
			prefix + "ADDR":        "server.addr",
			prefix + "STORAGE_URL": "storage.url",
		},
	}
}

// Read returns the settings named by the environment. An empty value is
// a value, not an unset variable.
func (e *Env) Read() map[string]any {
	environ := e.Environ
	if environ == nil {
		environ = os.Environ
	}
	tree := map[string]any{}
	for _, kv := range environ() {
		name, value, _ := strings.Cut(kv, "=")
		rest, ok := strings.CutPrefix(name, e.Prefix)
		if !ok || rest == "" {
			continue
		}
		p, ok := e.Aliases[name]
		if !ok {
			p = SettingPath(rest)
		}
		set(tree, strings.Split(p, "."), value)
	}
	return tree
}

// SettingPath converts a variable name without its prefix, such as
// EDITOR_HISTORY_SIZE, to a setting path, editor.historySize.
func SettingPath(name string) string {
	section, setting, ok := strings.Cut(strings.ToLower(name), "_")
	if !ok {
		return section
	}
	var b strings.Builder
	b.WriteString(section)
	b.WriteByte('.')
	for i, w := range strings.Split(setting, "_") {
		if w == "" {
			continue
		}
		if i > 0 {
			w = strings.ToUpper(w[:1]) + w[1:]
		}
		b.WriteString(w)
	}
	return b.String()
}
