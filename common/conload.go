// common/conload.go
// Purpose: Reader for ".con" config files: one "--key value" pair per line,
// everything else is a comment. Keys are matched case-insensitively.
package common

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

type Case interface {
	apply(key, val string) error
}

type caseFunc func(key, val string) error

func (f caseFunc) apply(key, val string) error { return f(key, val) }

func ConLoad(file string, cases ...Case) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open config %s: %w", file, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "--") {
			continue
		}

		fields := strings.Fields(strings.TrimPrefix(line, "--"))
		if len(fields) < 2 {
			continue
		}

		key, val := fields[0], fields[1]
		for _, c := range cases {
			if err := c.apply(key, val); err != nil {
				return fmt.Errorf("config %s line %d: %w", file, lineNo, err)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read config %s: %w", file, err)
	}
	return nil
}

// ConVal scans the value of key into dest with a fmt.Sscanf verb.
func ConVal(key string, dest any, scanfFmt string) Case {
	return caseFunc(func(k, v string) error {
		if !strings.EqualFold(k, key) {
			return nil
		}
		if _, err := fmt.Sscanf(v, scanfFmt, dest); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		return nil
	})
}

// ConEnum maps the value of key onto one of matches.
func ConEnum[T any](key string, dest *T, matches ...EnumMatch[T]) Case {
	return caseFunc(func(k, v string) error {
		if !strings.EqualFold(k, key) {
			return nil
		}
		for _, m := range matches {
			if strings.EqualFold(v, m.name) {
				*dest = m.value
				return nil
			}
		}
		return fmt.Errorf("%s: unknown value %q", key, v)
	})
}

type EnumMatch[T any] struct {
	name  string
	value T
}

func ConMatch[T any](name string, value T) EnumMatch[T] {
	return EnumMatch[T]{name: name, value: value}
}
