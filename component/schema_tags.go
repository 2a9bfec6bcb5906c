// Schema tag parsing and generation for component configuration.
//
// Config structs carry their schema metadata in `schema` struct tags, and
// GenerateConfigSchema turns those tags into a ConfigSchema by reflection.
// That keeps one source of truth: the struct definition itself.
//
//	type Config struct {
//	    Address string `json:"address" schema:"required,type:string,description:Device MAC address"`
//	    Rate    int    `json:"rate" schema:"type:int,description:Sample rate in Hz,min:1,max:4000,default:1000"`
//	}
//
//	var schema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))
//
// Tags are comma-separated directives. Key-value directives use a colon
// ("type:int", "min:1", "enum:csv|xdf"), boolean flags stand alone
// ("required", "hidden"). Reflection runs once when the package-level
// schema variable initializes, never on the hot path.
//
// Fields with malformed tags are dropped from the generated schema rather
// than failing generation; ParseSchemaTag reports the underlying error for
// callers that want it.
package component

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/kimit0310/MoBI-Physio-API/errors"
)

// SchemaDirectives holds the parsed contents of one schema tag.
type SchemaDirectives struct {
	Type        string // required
	Description string // falls back to the field name when empty

	// UI hints
	Category string // "basic" or "advanced"
	ReadOnly bool
	Editable bool
	Hidden   bool

	// Constraints
	Default  any // kept as string until GenerateConfigSchema converts it
	Required bool
	Min      *int
	Max      *int
	Enum     []string

	// Parsed and stored, not yet consumed anywhere
	Help        string
	Placeholder string
	Pattern     string
	Format      string
}

var schemaFieldTypes = map[string]bool{
	"string": true, "int": true, "bool": true, "float": true,
	"duration": true, "enum": true, "array": true, "object": true,
}

// ParseSchemaTag parses a schema struct tag into directives.
//
// A tag must carry a type directive; everything else is optional.
// Unknown directives and unknown boolean flags are errors so that a
// typo in a tag surfaces during development instead of silently
// dropping a constraint.
func ParseSchemaTag(tag string) (SchemaDirectives, error) {
	var d SchemaDirectives

	if tag == "" {
		return d, errors.WrapInvalid(
			fmt.Errorf("empty schema tag"),
			"SchemaTag", "ParseSchemaTag", "tag validation",
		)
	}

	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		key, value, hasValue := strings.Cut(part, ":")
		if !hasValue {
			if err := d.applyFlag(part); err != nil {
				return d, err
			}
			continue
		}
		if err := d.applyDirective(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return d, err
		}
	}

	if d.Type == "" {
		return d, errors.WrapInvalid(
			fmt.Errorf("type directive is required"),
			"SchemaTag", "ParseSchemaTag", "required field validation",
		)
	}

	return d, nil
}

func (d *SchemaDirectives) applyFlag(flag string) error {
	switch flag {
	case "readonly":
		d.ReadOnly = true
	case "editable":
		d.Editable = true
	case "hidden":
		d.Hidden = true
	case "required":
		d.Required = true
	default:
		return errors.WrapInvalid(
			fmt.Errorf("unknown boolean flag: %s", flag),
			"SchemaTag", "applyFlag", "flag parsing",
		)
	}
	return nil
}

func (d *SchemaDirectives) applyDirective(key, value string) error {
	if value == "" {
		return errors.WrapInvalid(
			fmt.Errorf("empty value for directive: %s", key),
			"SchemaTag", "applyDirective", "value validation",
		)
	}

	switch key {
	case "type":
		if !schemaFieldTypes[value] {
			return errors.WrapInvalid(
				fmt.Errorf("invalid type: %s", value),
				"SchemaTag", "applyDirective", "type validation",
			)
		}
		d.Type = value

	case "description":
		d.Description = value

	case "category":
		if value != "basic" && value != "advanced" {
			return errors.WrapInvalid(
				fmt.Errorf("invalid category: %s (must be 'basic' or 'advanced')", value),
				"SchemaTag", "applyDirective", "category validation",
			)
		}
		d.Category = value

	case "default":
		// Converted to the field type during schema generation.
		d.Default = value

	case "min":
		n, err := strconv.Atoi(value)
		if err != nil {
			return errors.WrapInvalid(
				fmt.Errorf("invalid min value: %s", value),
				"SchemaTag", "applyDirective", "min parsing",
			)
		}
		d.Min = &n

	case "max":
		n, err := strconv.Atoi(value)
		if err != nil {
			return errors.WrapInvalid(
				fmt.Errorf("invalid max value: %s", value),
				"SchemaTag", "applyDirective", "max parsing",
			)
		}
		d.Max = &n

	case "enum":
		d.Enum = strings.Split(value, "|")
		for i := range d.Enum {
			d.Enum[i] = strings.TrimSpace(d.Enum[i])
		}

	case "help":
		d.Help = value
	case "placeholder":
		d.Placeholder = value
	case "pattern":
		d.Pattern = value
	case "format":
		d.Format = value

	default:
		return errors.WrapInvalid(
			fmt.Errorf("unknown directive: %s", key),
			"SchemaTag", "applyDirective", "directive validation",
		)
	}

	return nil
}

// GenerateConfigSchema builds a ConfigSchema from a config struct's tags.
//
// Only exported fields with both a json name and a schema tag contribute
// properties; json:"-" fields and fields with malformed schema tags are
// skipped. Pointer types are dereferenced, and non-struct types produce
// an empty schema. Call it once at package init and cache the result.
func GenerateConfigSchema(configType reflect.Type) ConfigSchema {
	schema := ConfigSchema{
		Properties: make(map[string]PropertySchema),
		Required:   []string{},
	}

	if configType.Kind() == reflect.Ptr {
		configType = configType.Elem()
	}
	if configType.Kind() != reflect.Struct {
		return schema
	}

	for i := 0; i < configType.NumField(); i++ {
		field := configType.Field(i)

		jsonTag := field.Tag.Get("json")
		if jsonTag == "" || jsonTag == "-" {
			continue
		}
		fieldName, _, _ := strings.Cut(jsonTag, ",")
		if fieldName == "" {
			continue
		}

		schemaTag := field.Tag.Get("schema")
		if schemaTag == "" {
			continue
		}

		directives, err := ParseSchemaTag(schemaTag)
		if err != nil {
			continue
		}

		description := directives.Description
		if description == "" {
			description = fieldName
		}

		schema.Properties[fieldName] = PropertySchema{
			Type:        directives.Type,
			Description: description,
			Category:    directives.Category,
			Default:     convertDefault(directives.Default, directives.Type),
			Minimum:     directives.Min,
			Maximum:     directives.Max,
			Enum:        directives.Enum,
		}

		if directives.Required {
			schema.Required = append(schema.Required, fieldName)
		}
	}

	return schema
}

// convertDefault converts a tag default, stored as a string, into the
// declared field type. Unconvertible defaults become nil rather than
// leaking a mistyped value into the schema.
func convertDefault(value any, fieldType string) any {
	if value == nil {
		return nil
	}

	valueStr, ok := value.(string)
	if !ok {
		return value
	}

	switch fieldType {
	case "string", "enum", "duration":
		return valueStr

	case "int":
		n, err := strconv.Atoi(valueStr)
		if err != nil {
			return nil
		}
		return n

	case "bool":
		b, err := strconv.ParseBool(valueStr)
		if err != nil {
			return nil
		}
		return b

	case "float":
		f, err := strconv.ParseFloat(valueStr, 64)
		if err != nil {
			return nil
		}
		return f

	case "array":
		if valueStr == "" {
			return []string{}
		}
		return []string{valueStr}

	case "object":
		return nil

	default:
		return valueStr
	}
}
