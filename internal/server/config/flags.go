package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// RegisterFlags регистрирует флаги для всех параметров конфигурации.
// Значения по умолчанию берутся из LoadDefaults, но применяются
// только явно заданные флаги.
func RegisterFlags(fs *pflag.FlagSet) {
	defaults := &Config{}
	defaults.LoadDefaults()

	for _, b := range bindings {
		switch {
		case b.str != nil:
			fs.String(b.name, *b.str(defaults), b.usage)
		case b.num != nil:
			fs.Int(b.name, *b.num(defaults), b.usage)
		case b.dur != nil:
			fs.Duration(b.name, *b.dur(defaults), b.usage)
		case b.toggle != nil:
			fs.Bool(b.name, *b.toggle(defaults), b.usage)
		}
	}
}

// applyFlags накладывает значения флагов, заданных в командной строке
func (c *Config) applyFlags(fs *pflag.FlagSet) error {
	for _, b := range bindings {
		flag := fs.Lookup(b.name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := b.set(c, flag.Value.String()); err != nil {
			return fmt.Errorf("flag --%s: %w", b.name, err)
		}
	}
	return nil
}
