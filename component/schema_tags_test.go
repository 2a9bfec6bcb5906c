package component

import (
	"reflect"
	"testing"
)

func intPtr(n int) *int {
	return &n
}

func TestParseSchemaTag(t *testing.T) {
	tests := []struct {
		name    string
		tag     string
		want    SchemaDirectives
		wantErr bool
	}{
		{
			name: "simple string field",
			tag:  "type:string,description:Device address,category:basic",
			want: SchemaDirectives{
				Type:        "string",
				Description: "Device address",
				Category:    "basic",
			},
		},
		{
			name: "int field with constraints",
			tag:  "type:int,description:Sample rate,min:1,max:4000,default:1000",
			want: SchemaDirectives{
				Type:        "int",
				Description: "Sample rate",
				Default:     "1000",
				Min:         intPtr(1),
				Max:         intPtr(4000),
			},
		},
		{
			name: "enum field",
			tag:  "type:enum,description:Log level,enum:debug|info|warn|error,default:info",
			want: SchemaDirectives{
				Type:        "enum",
				Description: "Log level",
				Default:     "info",
				Enum:        []string{"debug", "info", "warn", "error"},
			},
		},
		{
			name: "duration field",
			tag:  "type:duration,description:Connect timeout,default:60s",
			want: SchemaDirectives{
				Type:        "duration",
				Description: "Connect timeout",
				Default:     "60s",
			},
		},
		{
			name: "required flag",
			tag:  "required,type:string,description:Source identifier",
			want: SchemaDirectives{
				Type:        "string",
				Description: "Source identifier",
				Required:    true,
			},
		},
		{
			name: "whitespace tolerance",
			tag:  " type:bool , description: Enable recorder , default:false ",
			want: SchemaDirectives{
				Type:        "bool",
				Description: "Enable recorder",
				Default:     "false",
			},
		},
		{
			name:    "empty tag",
			tag:     "",
			wantErr: true,
		},
		{
			name:    "missing type",
			tag:     "description:No type here",
			wantErr: true,
		},
		{
			name:    "invalid type",
			tag:     "type:complex128,description:Nope",
			wantErr: true,
		},
		{
			name:    "invalid category",
			tag:     "type:string,category:expert",
			wantErr: true,
		},
		{
			name:    "unknown directive",
			tag:     "type:string,color:green",
			wantErr: true,
		},
		{
			name:    "unknown boolean flag",
			tag:     "type:string,sparkly",
			wantErr: true,
		},
		{
			name:    "invalid min",
			tag:     "type:int,min:abc",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSchemaTag(tt.tag)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSchemaTag() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.Type != tt.want.Type {
				t.Errorf("Type = %q, want %q", got.Type, tt.want.Type)
			}
			if got.Description != tt.want.Description {
				t.Errorf("Description = %q, want %q", got.Description, tt.want.Description)
			}
			if got.Category != tt.want.Category {
				t.Errorf("Category = %q, want %q", got.Category, tt.want.Category)
			}
			if got.Default != tt.want.Default {
				t.Errorf("Default = %v, want %v", got.Default, tt.want.Default)
			}
			if got.Required != tt.want.Required {
				t.Errorf("Required = %v, want %v", got.Required, tt.want.Required)
			}
			if !reflect.DeepEqual(got.Enum, tt.want.Enum) {
				t.Errorf("Enum = %v, want %v", got.Enum, tt.want.Enum)
			}
			if !equalIntPtr(got.Min, tt.want.Min) {
				t.Errorf("Min = %v, want %v", got.Min, tt.want.Min)
			}
			if !equalIntPtr(got.Max, tt.want.Max) {
				t.Errorf("Max = %v, want %v", got.Max, tt.want.Max)
			}
		})
	}
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

type sampleBridgeConfig struct {
	DeviceAddr string `json:"device_addr" schema:"required,type:string,description:Device MAC address,category:basic"`
	SampleRate int    `json:"sample_rate" schema:"type:int,description:Samples per second,min:1,max:4000,default:1000,category:basic"`
	LogLevel   string `json:"log_level" schema:"type:enum,description:Log level,enum:debug|info|warn|error,default:info"`
	Simulate   bool   `json:"simulate" schema:"type:bool,description:Use simulated device,default:false"`
	internal   string //nolint:unused // exercises unexported field skipping
	NoSchema   string `json:"no_schema"`
	Omitted    string `json:"-" schema:"type:string"`
}

func TestGenerateConfigSchema(t *testing.T) {
	schema := GenerateConfigSchema(reflect.TypeOf(sampleBridgeConfig{}))

	if len(schema.Properties) != 4 {
		t.Fatalf("Expected 4 properties, got %d: %v", len(schema.Properties), schema.Properties)
	}

	addr, ok := schema.Properties["device_addr"]
	if !ok {
		t.Fatal("Expected device_addr property")
	}
	if addr.Type != "string" || addr.Category != "basic" {
		t.Errorf("device_addr = %+v", addr)
	}

	rate := schema.Properties["sample_rate"]
	if rate.Default != 1000 {
		t.Errorf("Expected int default 1000, got %v (%T)", rate.Default, rate.Default)
	}
	if rate.Minimum == nil || *rate.Minimum != 1 {
		t.Errorf("Expected minimum 1, got %v", rate.Minimum)
	}
	if rate.Maximum == nil || *rate.Maximum != 4000 {
		t.Errorf("Expected maximum 4000, got %v", rate.Maximum)
	}

	level := schema.Properties["log_level"]
	if !reflect.DeepEqual(level.Enum, []string{"debug", "info", "warn", "error"}) {
		t.Errorf("Enum = %v", level.Enum)
	}
	if level.Default != "info" {
		t.Errorf("Expected enum default info, got %v", level.Default)
	}

	sim := schema.Properties["simulate"]
	if sim.Default != false {
		t.Errorf("Expected bool default false, got %v (%T)", sim.Default, sim.Default)
	}

	if !reflect.DeepEqual(schema.Required, []string{"device_addr"}) {
		t.Errorf("Required = %v", schema.Required)
	}

	// Fields without schema tags and json:"-" fields are skipped
	if _, ok := schema.Properties["no_schema"]; ok {
		t.Error("Field without schema tag should be skipped")
	}
}

func TestGenerateConfigSchemaPointerAndNonStruct(t *testing.T) {
	ptrSchema := GenerateConfigSchema(reflect.TypeOf(&sampleBridgeConfig{}))
	if len(ptrSchema.Properties) != 4 {
		t.Errorf("Pointer type: expected 4 properties, got %d", len(ptrSchema.Properties))
	}

	intSchema := GenerateConfigSchema(reflect.TypeOf(42))
	if len(intSchema.Properties) != 0 {
		t.Errorf("Non-struct type: expected empty schema, got %v", intSchema.Properties)
	}
}

func TestConvertDefault(t *testing.T) {
	tests := []struct {
		name      string
		value     any
		fieldType string
		want      any
	}{
		{"string passthrough", "hello", "string", "hello"},
		{"duration passthrough", "60s", "duration", "60s"},
		{"int conversion", "1000", "int", 1000},
		{"invalid int", "abc", "int", nil},
		{"bool conversion", "true", "bool", true},
		{"invalid bool", "maybe", "bool", nil},
		{"float conversion", "2.5", "float", 2.5},
		{"array single value", "emg", "array", []string{"emg"}},
		{"object no default", "{}", "object", nil},
		{"nil value", nil, "string", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := convertDefault(tt.value, tt.fieldType)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("convertDefault(%v, %s) = %v (%T), want %v",
					tt.value, tt.fieldType, got, got, tt.want)
			}
		})
	}
}
