package secret

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

// ErrMissingEnv indicates a ${VAR} reference to an unset variable.
var ErrMissingEnv = errors.New("secret: missing required environment variables")

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnvStrict expands ${VAR} references in s.
//
// Semantics:
//   - `${VAR}` is replaced by the variable's value.
//   - A reference to an unset variable is an error naming every missing variable.
//   - `$VAR` without braces is left untouched.
//   - `$$` emits a literal `$`.
func ExpandEnvStrict(s string) (string, error) {
	const dollarSentinel = "\x00TTLRENEW_SECRET_DOLLAR\x00"
	s = strings.ReplaceAll(s, "$$", dollarSentinel)

	missing := make(map[string]struct{})
	s = envVarPattern.ReplaceAllStringFunc(s, func(m string) string {
		key := envVarPattern.FindStringSubmatch(m)[1]
		v, ok := os.LookupEnv(key)
		if !ok {
			missing[key] = struct{}{}
		}
		return v
	})
	if len(missing) > 0 {
		keys := make([]string, 0, len(missing))
		for k := range missing {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(keys, ", "))
	}

	return strings.ReplaceAll(s, dollarSentinel, "$"), nil
}
