package vm

import "testing"

func TestValuesEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"equal numbers", NumberValue{2}, NumberValue{2}, true},
		{"unequal numbers", NumberValue{2}, NumberValue{3}, false},
		{"equal strings", StringValue{"a"}, StringValue{"a"}, true},
		{"unequal strings", StringValue{"a"}, StringValue{"b"}, false},
		{"equal bools", BoolValue{true}, BoolValue{true}, true},
		{"unequal bools", BoolValue{true}, BoolValue{false}, false},
		{"number vs string", NumberValue{0}, StringValue{""}, false},
		{"number vs bool", NumberValue{1}, BoolValue{true}, false},
		{"string vs bool", StringValue{"true"}, BoolValue{true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := valuesEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("valuesEqual(%v, %v) = %t, want %t", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestValueString(t *testing.T) {
	tests := []struct {
		value Value
		want  string
	}{
		{NumberValue{14}, "14"},
		{NumberValue{3.14}, "3.14"},
		{NumberValue{-0.5}, "-0.5"},
		{NumberValue{0}, "0"},
		{StringValue{"hello"}, "hello"},
		{BoolValue{true}, "true"},
		{BoolValue{false}, "false"},
	}

	for _, tt := range tests {
		if got := tt.value.String(); got != tt.want {
			t.Errorf("%v.String() = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestValueType(t *testing.T) {
	if got := (NumberValue{}).Type(); got != "number" {
		t.Errorf("NumberValue.Type() = %q", got)
	}
	if got := (StringValue{}).Type(); got != "string" {
		t.Errorf("StringValue.Type() = %q", got)
	}
	if got := (BoolValue{}).Type(); got != "bool" {
		t.Errorf("BoolValue.Type() = %q", got)
	}
}
