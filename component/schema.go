package component

import (
	"fmt"
	"sort"
)

// ValidationError reports one failed constraint on one config field.
//
// Codes are stable for machine use: "required", "type", "min", "max",
// "enum".
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ValidateConfig checks a configuration map against a ConfigSchema and
// returns every constraint violation found. Unknown fields pass; only
// properties the schema declares are checked, so configs can carry
// forward fields an older schema does not know about.
func ValidateConfig(config map[string]any, schema ConfigSchema) []ValidationError {
	var errs []ValidationError

	for _, requiredField := range schema.Required {
		if _, exists := config[requiredField]; !exists {
			errs = append(errs, ValidationError{
				Field:   requiredField,
				Message: fmt.Sprintf("Field %q is required", requiredField),
				Code:    "required",
			})
		}
	}

	for fieldName, value := range config {
		propSchema, exists := schema.Properties[fieldName]
		if !exists {
			continue
		}
		errs = append(errs, validateProperty(fieldName, value, propSchema)...)
	}

	return errs
}

// validateProperty applies a property's constraints to one value. A type
// mismatch short-circuits: bounds and enum checks against a mistyped
// value would only produce noise.
func validateProperty(fieldName string, value any, propSchema PropertySchema) []ValidationError {
	if msg, ok := typeMismatch(value, propSchema.Type); ok {
		return []ValidationError{{
			Field:   fieldName,
			Message: fmt.Sprintf("Field %q %s", fieldName, msg),
			Code:    "type",
		}}
	}

	var errs []ValidationError

	if len(propSchema.Enum) > 0 {
		if err := validateEnum(fieldName, value, propSchema.Enum); err != nil {
			errs = append(errs, *err)
		}
	}

	if propSchema.Type == "int" || propSchema.Type == "float" {
		num, ok := asFloat(value)
		if ok {
			if propSchema.Minimum != nil && num < float64(*propSchema.Minimum) {
				errs = append(errs, ValidationError{
					Field:   fieldName,
					Message: fmt.Sprintf("Field %q must be >= %d", fieldName, *propSchema.Minimum),
					Code:    "min",
				})
			}
			if propSchema.Maximum != nil && num > float64(*propSchema.Maximum) {
				errs = append(errs, ValidationError{
					Field:   fieldName,
					Message: fmt.Sprintf("Field %q must be <= %d", fieldName, *propSchema.Maximum),
					Code:    "max",
				})
			}
		}
	}

	return errs
}

// typeMismatch reports whether value fails the declared schema type,
// along with a message fragment describing what was expected. Types the
// schema does not constrain (array, object, unknown) always pass here.
func typeMismatch(value any, schemaType string) (string, bool) {
	switch schemaType {
	case "string", "duration":
		if _, ok := value.(string); !ok {
			return "must be a string", true
		}
	case "int":
		// JSON decoding yields float64 for all numbers
		switch value.(type) {
		case int, int32, int64, float64:
		default:
			return "must be an integer", true
		}
	case "float":
		switch value.(type) {
		case int, int32, int64, float32, float64:
		default:
			return "must be a number", true
		}
	case "bool":
		if _, ok := value.(bool); !ok {
			return "must be a boolean", true
		}
	}
	return "", false
}

func validateEnum(fieldName string, value any, enumValues []string) *ValidationError {
	strValue, ok := value.(string)
	if !ok {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("Field %q must be a string for enum validation", fieldName),
			Code:    "type",
		}
	}

	for _, allowed := range enumValues {
		if strValue == allowed {
			return nil
		}
	}
	return &ValidationError{
		Field:   fieldName,
		Message: fmt.Sprintf("Field %q must be one of: %v", fieldName, enumValues),
		Code:    "enum",
	}
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

// GetPropertyValue reads a key out of a possibly nil config map.
func GetPropertyValue(config map[string]any, key string) (any, bool) {
	if config == nil {
		return nil, false
	}
	value, exists := config[key]
	return value, exists
}

// SortedPropertyNames returns property names in display order: "basic"
// category first, then "advanced", alphabetical within each. A property
// without a category counts as advanced.
func SortedPropertyNames(schema ConfigSchema) []string {
	type prop struct {
		name     string
		category string
	}

	props := make([]prop, 0, len(schema.Properties))
	for name, p := range schema.Properties {
		category := p.Category
		if category == "" {
			category = "advanced"
		}
		props = append(props, prop{name: name, category: category})
	}

	sort.Slice(props, func(i, j int) bool {
		if props[i].category != props[j].category {
			return props[i].category == "basic"
		}
		return props[i].name < props[j].name
	})

	names := make([]string, len(props))
	for i, p := range props {
		names[i] = p.name
	}
	return names
}
