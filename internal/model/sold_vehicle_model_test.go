package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSoldVehicle_VehicleLabel(t *testing.T) {
	tests := []struct {
		name string
		v    SoldVehicle
		want string
	}{
		{"full", SoldVehicle{Year: 2021, Make: "Honda", Model: "Civic"}, "2021 Honda Civic"},
		{"no year", SoldVehicle{Make: "Honda", Model: "Civic"}, "Honda Civic"},
		{"year only", SoldVehicle{Year: 2019}, "2019"},
		{"empty", SoldVehicle{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.VehicleLabel())
		})
	}
}

func TestSoldVehicle_BeforeCreateAssignsID(t *testing.T) {
	v := &SoldVehicle{}
	assert.NoError(t, v.BeforeCreate(nil))
	assert.NotEmpty(t, v.ID)

	kept := &SoldVehicle{ID: "rec-1"}
	assert.NoError(t, kept.BeforeCreate(nil))
	assert.Equal(t, "rec-1", kept.ID)
}
