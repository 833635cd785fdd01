package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// EnvironmentVariable selects the configuration overlay.
const EnvironmentVariable = EnvPrefix + "_ENVIRONMENT"

// DefaultEnvironment is used when EnvironmentVariable is unset or blank.
const DefaultEnvironment = "development"

// ErrInvalidEnvironment is returned for names that cannot form a file name.
var ErrInvalidEnvironment = errors.New("invalid environment name")

var environmentPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// EnvironmentName returns the overlay name from the environment.
func EnvironmentName() (string, error) {
	return ParseEnvironment(os.Getenv(EnvironmentVariable))
}

// ParseEnvironment validates name, substituting the default for blank input.
func ParseEnvironment(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultEnvironment, nil
	}
	if !environmentPattern.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidEnvironment, name)
	}
	return name, nil
}
