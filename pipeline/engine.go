package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Engine selects how a cloned site is turned into a built site.
type Engine int

const (
	EngineCopy Engine = iota + 1
	EngineHugo
	EngineJekyll
)

// Engines lists every engine in declaration order.
var Engines = []Engine{EngineCopy, EngineHugo, EngineJekyll}

func (e Engine) String() string {
	switch e {
	case EngineCopy:
		return "copy"
	case EngineHugo:
		return "hugo"
	case EngineJekyll:
		return "jekyll"
	}
	return fmt.Sprintf("Engine(%d)", int(e))
}

var ErrConfiguration = errors.New("pipeline: invalid configuration")

// ConfigurationError is returned before any task runs when the requested
// configuration cannot be executed.
type ConfigurationError struct {
	Field string
	Value string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// ParseEngine maps a configured name onto an Engine.
func ParseEngine(name string) (Engine, error) {
	for _, e := range Engines {
		if strings.EqualFold(strings.TrimSpace(name), e.String()) {
			return e, nil
		}
	}
	return 0, &ConfigurationError{Field: "build_engine", Value: name}
}
