package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// section groups options sharing a dotted prefix; the empty name holds
// top-level keys.
type section struct {
	name string
	opts []ConfigOption
}

func groupOptions(opts []ConfigOption) []section {
	out := []section{{name: ""}}
	index := map[string]int{"": 0}
	for _, o := range opts {
		name, key := "", o.Key
		if i := strings.IndexByte(o.Key, '.'); i >= 0 {
			name, key = o.Key[:i], o.Key[i+1:]
		}
		idx, ok := index[name]
		if !ok {
			idx = len(out)
			index[name] = idx
			out = append(out, section{name: name})
		}
		out[idx].opts = append(out[idx].opts, ConfigOption{Key: key, Default: o.Default, Comment: o.Comment})
	}
	return out
}

// RenderDefaultTOML renders a commented TOML config with every default.
func RenderDefaultTOML() string {
	var lines []string
	lines = append(lines, "# Agora configuration (TOML)", "")
	lines = appendSections(lines, groupOptions(GetConfigOptions()))
	return strings.Join(lines, "\n")
}

func appendSections(lines []string, secs []section) []string {
	for _, s := range secs {
		if len(s.opts) == 0 {
			continue
		}
		if s.name != "" {
			lines = append(lines, "["+s.name+"]")
		}
		for _, o := range s.opts {
			if o.Comment != "" {
				lines = append(lines, "# "+o.Comment)
			}
			lines = append(lines, o.Key+" = "+formatTOMLValue(o.Default), "")
		}
	}
	return lines
}

// UpdateTOML adds missing defaults to an existing config and comments out
// keys that are no longer recognised. Missing keys land in the table they
// belong to. changed is false when nothing was done.
func UpdateTOML(existing string) (updated string, changed bool) {
	known := make(map[string]bool)
	for _, o := range GetConfigOptions() {
		known[o.Key] = true
	}

	seen := make(map[string]bool)
	current := ""
	firstHeader := -1
	sectionEnd := make(map[string]int)
	var out []string
	for _, line := range strings.Split(existing, "\n") {
		trim := strings.TrimSpace(line)
		if strings.HasPrefix(trim, "[") && strings.HasSuffix(trim, "]") {
			current = strings.TrimSpace(trim[1 : len(trim)-1])
			if firstHeader < 0 {
				firstHeader = len(out)
			}
			out = append(out, line)
			sectionEnd[current] = len(out)
			continue
		}
		key, ok := parseTOMLKey(line)
		if trim == "" || strings.HasPrefix(trim, "#") || !ok {
			out = append(out, line)
			continue
		}
		full := key
		if current != "" {
			full = current + "." + key
		}
		seen[full] = true
		if !known[full] {
			indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
			out = append(out, indent+"# OUTDATED: option removed from config schema", indent+"# "+strings.TrimLeft(line, " \t"))
			changed = true
			continue
		}
		out = append(out, line)
		sectionEnd[current] = len(out)
	}

	var missing []ConfigOption
	for _, o := range GetConfigOptions() {
		if !seen[o.Key] {
			missing = append(missing, o)
		}
	}
	if len(missing) == 0 {
		return strings.Join(out, "\n"), changed
	}

	type insertion struct {
		at    int
		lines []string
	}
	var inserts []insertion
	var tail []section
	for _, s := range groupOptions(missing) {
		if len(s.opts) == 0 {
			continue
		}
		body := appendSections([]string{"# Added by config update"}, []section{{opts: s.opts}})
		switch end, ok := sectionEnd[s.name]; {
		case s.name == "":
			at := firstHeader
			if at < 0 {
				at = len(out)
			}
			inserts = append(inserts, insertion{at: at, lines: body})
		case ok && s.name != "":
			inserts = append(inserts, insertion{at: end, lines: body})
		default:
			tail = append(tail, s)
		}
	}
	// apply from the bottom so earlier indexes stay valid
	sort.SliceStable(inserts, func(i, j int) bool { return inserts[i].at > inserts[j].at })
	for _, ins := range inserts {
		out = append(out[:ins.at], append(ins.lines, out[ins.at:]...)...)
	}
	if len(tail) > 0 {
		out = append(out, "", "# Added by config update")
		out = appendSections(out, tail)
	}
	return strings.Join(out, "\n"), true
}

func parseTOMLKey(line string) (string, bool) {
	idx := strings.Index(line, "=")
	if idx == -1 {
		return "", false
	}
	key := strings.TrimSpace(line[:idx])
	if key == "" || strings.HasPrefix(key, "[") || strings.HasPrefix(key, "\"") || strings.HasPrefix(key, "'") {
		return "", false
	}
	return key, true
}

func formatTOMLValue(value any) string {
	switch v := value.(type) {
	case string:
		return strconv.Quote(v)
	case []string:
		quoted := make([]string, len(v))
		for i, s := range v {
			quoted[i] = strconv.Quote(s)
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	default:
		return fmt.Sprintf("%v", v)
	}
}
