package validation

import (
	"strings"
	"testing"
)

type ascentRequest struct {
	RouteID  string   `json:"routeId" validate:"required"`
	Date     string   `json:"date" validate:"omitempty,isodate"`
	TickType string   `json:"tickType" validate:"required"`
	Color    string   `json:"color" validate:"omitempty,routecolor"`
	Tags     []string `json:"steepnessTags" validate:"dive,steepness"`
	Name     string   `json:"name" validate:"omitempty,min=3,max=5"`
}

func TestValidateStruct_Valid(t *testing.T) {
	req := ascentRequest{
		RouteID:  "r1",
		Date:     "2023-01-02",
		TickType: "flash",
		Color:    "pink",
		Tags:     []string{"slab", "roof"},
	}
	if err := ValidateStruct(&req); err != nil {
		t.Fatalf("ValidateStruct() unexpected error: %v", err)
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		req       ascentRequest
		wantField string
		wantTag   string
	}{
		{
			name:      "missing route",
			req:       ascentRequest{TickType: "flash"},
			wantField: "routeId",
			wantTag:   "required",
		},
		{
			name:      "missing tick type",
			req:       ascentRequest{RouteID: "r1"},
			wantField: "tickType",
			wantTag:   "required",
		},
		{
			name:      "bad date",
			req:       ascentRequest{RouteID: "r1", TickType: "hang", Date: "02/01/2023"},
			wantField: "date",
			wantTag:   "isodate",
		},
		{
			name:      "bad color",
			req:       ascentRequest{RouteID: "r1", TickType: "hang", Color: "beige"},
			wantField: "color",
			wantTag:   "routecolor",
		},
		{
			name:      "bad steepness",
			req:       ascentRequest{RouteID: "r1", TickType: "hang", Tags: []string{"slab", "sideways"}},
			wantField: "steepnessTags[1]",
			wantTag:   "steepness",
		},
		{
			name:      "name too long",
			req:       ascentRequest{RouteID: "r1", TickType: "hang", Name: "toolong"},
			wantField: "name",
			wantTag:   "max",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.req)
			if err == nil {
				t.Fatal("ValidateStruct() expected error, got nil")
			}
			if len(err.Fields) != 1 {
				t.Fatalf("expected 1 field error, got %v", err.Fields)
			}
			got := err.Fields[0]
			if got.Field != tt.wantField || got.Tag != tt.wantTag {
				t.Errorf("field error = %+v; want field %q tag %q", got, tt.wantField, tt.wantTag)
			}
			if !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("Error() = %q; should mention %q", err.Error(), tt.wantField)
			}
		})
	}
}

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same instance")
	}
}
