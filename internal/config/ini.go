// Package config implements the engine's INI-style configuration file, as
// described in spec section 6. No INI parsing library appears in any
// go.mod across the retrieved corpus, so this is built on the standard
// library alone (bufio + strconv) — the one ambient concern justified as
// a standard-library leaf in DESIGN.md.
package config

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Config is a parsed INI document: ordered sections, each an ordered set
// of key/value string pairs. Typed accessors parse on demand and record
// defaults for options that were missing so they get written back.
type Config struct {
	path     string
	sections map[string]map[string]string
	order    []string
	touched  map[string]bool // "section.key" -> true once accessed
}

// Defaults for main_config's documented options (section 6).
var MainConfigDefaults = map[string]map[string]string{
	"dev":        {"fps_logging": "false"},
	"window":     {"width": "1280", "height": "720", "fullscreen": "false"},
	"controller": {"mouse_sensitivity": "0.1", "forward_speed": "10", "strafe_speed": "10", "roll_speed": "1"},
}

// Load reads an INI file from path, tolerating a missing file (an empty
// Config is returned, to be filled in with defaults and saved on Close).
func Load(path string) (*Config, error) {
	c := &Config{
		path:     path,
		sections: make(map[string]map[string]string),
		touched:  make(map[string]bool),
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	section := ""
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(line[1 : len(line)-1])
			c.ensureSection(section)
			continue
		}
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		val := strings.TrimSpace(line[eq+1:])
		c.ensureSection(section)
		c.sections[section][key] = val
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return c, nil
}

func (c *Config) ensureSection(name string) {
	if _, ok := c.sections[name]; !ok {
		c.sections[name] = make(map[string]string)
		c.order = append(c.order, name)
	}
}

func (c *Config) markTouched(section, key string) {
	c.touched[section+"."+key] = true
}

// Bool reads section.key as a boolean, falling back to def (which is
// recorded for write-back) when absent or unparsable.
func (c *Config) Bool(section, key string, def bool) bool {
	c.markTouched(section, key)
	raw, ok := c.sections[section][key]
	if !ok {
		c.Set(section, key, strconv.FormatBool(def))
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

// Int reads section.key as an int64, falling back to def.
func (c *Config) Int(section, key string, def int64) int64 {
	c.markTouched(section, key)
	raw, ok := c.sections[section][key]
	if !ok {
		c.Set(section, key, strconv.FormatInt(def, 10))
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return v
}

// Float reads section.key as a float64, falling back to def.
func (c *Config) Float(section, key string, def float64) float64 {
	c.markTouched(section, key)
	raw, ok := c.sections[section][key]
	if !ok {
		c.Set(section, key, strconv.FormatFloat(def, 'g', -1, 64))
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}

// Set writes section.key unconditionally.
func (c *Config) Set(section, key, value string) {
	c.ensureSection(section)
	c.sections[section][key] = value
}

// ApplyDefaults seeds missing options from defs without overwriting
// anything already present, then marks them touched. Seeded options are
// written back by Close() like every other option present, whether or
// not the caller ever reads them via a typed accessor.
func (c *Config) ApplyDefaults(defs map[string]map[string]string) {
	for section, kv := range defs {
		c.ensureSection(section)
		for k, v := range kv {
			if _, ok := c.sections[section][k]; !ok {
				c.sections[section][k] = v
			}
			c.markTouched(section, k)
		}
	}
}

// Close writes the configuration back to its file, sections and keys
// sorted for deterministic output. Missing options are written back with
// whatever default they resolved to, per spec section 6.
func (c *Config) Close() error {
	f, err := os.Create(c.path)
	if err != nil {
		return fmt.Errorf("config: write %s: %w", c.path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	sections := append([]string(nil), c.order...)
	sort.Strings(sections)
	for i, section := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "[%s]\n", section)
		keys := make([]string, 0, len(c.sections[section]))
		for k := range c.sections[section] {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "%s = %s\n", k, c.sections[section][k])
		}
	}
	return w.Flush()
}
