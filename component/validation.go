package component

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"reflect"
	"strings"

	"github.com/kimit0310/MoBI-Physio-API/errors"
)

// Limits applied to untrusted configuration input.
const (
	// MaxStringLength caps any single string value in a config.
	MaxStringLength = 1024
	// MaxJSONSize caps the raw config document as a whole.
	MaxJSONSize = 1024 * 1024
)

// Validatable is implemented by configs that can check their own fields
// after unmarshaling.
type Validatable interface {
	Validate() error
}

// ConfigValidator bounds untrusted JSON config before it reaches a
// component constructor: document size, nesting depth, array and string
// lengths, and string content.
type ConfigValidator struct {
	maxDepth     int
	maxArraySize int
	maxStringLen int
	maxJSONSize  int
}

// NewConfigValidator returns a validator with the default limits.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{
		maxDepth:     10,
		maxArraySize: 1000,
		maxStringLen: MaxStringLength,
		maxJSONSize:  MaxJSONSize,
	}
}

// ValidateConfig checks a raw JSON config against the validator's limits.
// An empty config passes; components fall back to their defaults.
func (v *ConfigValidator) ValidateConfig(rawConfig json.RawMessage) error {
	if len(rawConfig) > v.maxJSONSize {
		return errors.WrapInvalid(
			fmt.Errorf("config size %d exceeds maximum %d", len(rawConfig), v.maxJSONSize),
			"ConfigValidator", "ValidateConfig", "size check")
	}
	if len(rawConfig) == 0 {
		return nil
	}

	var config any
	decoder := json.NewDecoder(bytes.NewReader(rawConfig))
	decoder.UseNumber()
	if err := decoder.Decode(&config); err != nil {
		return errors.WrapInvalid(err, "ConfigValidator", "ValidateConfig", "JSON parsing")
	}

	if err := v.checkValue(config, 0); err != nil {
		return errors.Wrap(err, "ConfigValidator", "ValidateConfig", "deep validation")
	}
	return nil
}

func (v *ConfigValidator) checkValue(value any, depth int) error {
	if depth > v.maxDepth {
		return errors.WrapInvalid(
			fmt.Errorf("JSON depth %d exceeds maximum %d", depth, v.maxDepth),
			"ConfigValidator", "checkValue", "depth check")
	}

	switch val := value.(type) {
	case string:
		return v.checkString(val)

	case json.Number:
		// Must fit an int64 or a float64
		if _, err := val.Int64(); err != nil {
			if _, err := val.Float64(); err != nil {
				return errors.WrapInvalid(err, "ConfigValidator", "checkValue", "number validation")
			}
		}

	case []any:
		if len(val) > v.maxArraySize {
			return errors.WrapInvalid(
				fmt.Errorf("array size %d exceeds maximum %d", len(val), v.maxArraySize),
				"ConfigValidator", "checkValue", "array size check")
		}
		for i, elem := range val {
			if err := v.checkValue(elem, depth+1); err != nil {
				return errors.Wrap(err, "ConfigValidator", "checkValue",
					fmt.Sprintf("array element %d", i))
			}
		}

	case map[string]any:
		for key, field := range val {
			if err := v.checkString(key); err != nil {
				return errors.Wrap(err, "ConfigValidator", "checkValue", "key validation")
			}
			if err := v.checkValue(field, depth+1); err != nil {
				return errors.Wrap(err, "ConfigValidator", "checkValue",
					fmt.Sprintf("object field '%s'", key))
			}
		}

	case bool, nil:
		// Always safe

	default:
		return errors.WrapInvalid(
			fmt.Errorf("unexpected type %T in config", value),
			"ConfigValidator", "checkValue", "type check")
	}

	return nil
}

// checkString enforces the length cap and rejects null bytes and control
// characters other than whitespace.
func (v *ConfigValidator) checkString(s string) error {
	if len(s) > v.maxStringLen {
		return errors.WrapInvalid(
			fmt.Errorf("string length %d exceeds maximum %d", len(s), v.maxStringLen),
			"ConfigValidator", "checkString", "string length check")
	}
	if strings.ContainsRune(s, 0) {
		return errors.WrapInvalid(
			fmt.Errorf("string contains null byte"),
			"ConfigValidator", "checkString", "null byte check")
	}
	for _, r := range s {
		if r < 0x20 && r != '\n' && r != '\r' && r != '\t' {
			return errors.WrapInvalid(
				fmt.Errorf("string contains control character: 0x%02x", r),
				"ConfigValidator", "checkString", "control character check")
		}
	}
	return nil
}

// ValidateFactoryConfig runs the default validator over a raw config.
// This is the gate every component config passes through before its
// constructor sees it.
func ValidateFactoryConfig(rawConfig json.RawMessage) error {
	return NewConfigValidator().ValidateConfig(rawConfig)
}

// SafeUnmarshal validates rawConfig, unmarshals it into target, and then
// runs target.Validate when the config implements Validatable. An empty
// config leaves target untouched so zero-value defaults survive.
func SafeUnmarshal(rawConfig json.RawMessage, target any) error {
	if err := ValidateFactoryConfig(rawConfig); err != nil {
		return errors.Wrap(err, "ConfigValidator", "SafeUnmarshal", "config validation")
	}
	if len(rawConfig) == 0 {
		return nil
	}

	if reflect.TypeOf(target).Kind() != reflect.Ptr {
		return errors.WrapInvalid(
			fmt.Errorf("target must be a pointer, got %T", target),
			"ConfigValidator", "SafeUnmarshal", "target type check")
	}

	if err := json.Unmarshal(rawConfig, target); err != nil {
		return errors.WrapInvalid(err, "ConfigValidator", "SafeUnmarshal", "JSON unmarshaling")
	}

	if validatable, ok := target.(Validatable); ok {
		if err := validatable.Validate(); err != nil {
			return errors.Wrap(err, "ConfigValidator", "SafeUnmarshal", "struct validation")
		}
	}
	return nil
}

// ValidatePortNumber checks that a TCP/UDP port is in the valid range.
func ValidatePortNumber(port int) error {
	if port < 1 || port > 65535 {
		return errors.WrapInvalid(
			fmt.Errorf("port %d out of range (1-65535)", port),
			"ConfigValidator", "ValidatePortNumber", "port range check")
	}
	return nil
}

// ValidateNetworkConfig checks a listener's port and bind address. The
// address may be empty or "*" for all interfaces, otherwise it must be a
// parseable IP.
func ValidateNetworkConfig(port int, bindAddr string) error {
	if err := ValidatePortNumber(port); err != nil {
		return err
	}

	if bindAddr == "" || bindAddr == "*" {
		return nil
	}
	if net.ParseIP(bindAddr) == nil {
		return errors.WrapInvalid(
			fmt.Errorf("invalid bind address: %s", bindAddr),
			"ConfigValidator", "ValidateNetworkConfig", "address format check")
	}
	return nil
}
