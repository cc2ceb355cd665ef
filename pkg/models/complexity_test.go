package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComplexityTier_Valid(t *testing.T) {
	tests := []struct {
		name string
		tier ComplexityTier
		want bool
	}{
		{"simple is valid", ComplexitySimple, true},
		{"moderate is valid", ComplexityModerate, true},
		{"complex is valid", ComplexityComplex, true},
		{"empty is invalid", ComplexityTier(""), false},
		{"uppercase is invalid", ComplexityTier("SIMPLE"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tier.Valid())
		})
	}
}

func TestComplexityTier_AtLeast(t *testing.T) {
	tests := []struct {
		tier  ComplexityTier
		floor ComplexityTier
		want  ComplexityTier
	}{
		{ComplexitySimple, ComplexityModerate, ComplexityModerate},
		{ComplexityComplex, ComplexityModerate, ComplexityComplex},
		{ComplexityModerate, ComplexityModerate, ComplexityModerate},
		{ComplexitySimple, ComplexitySimple, ComplexitySimple},
	}

	for _, tt := range tests {
		t.Run(string(tt.tier)+"_"+string(tt.floor), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tier.AtLeast(tt.floor))
		})
	}
}

func TestComplexityTier_Bump(t *testing.T) {
	assert.Equal(t, ComplexityModerate, ComplexitySimple.Bump())
	assert.Equal(t, ComplexityComplex, ComplexityModerate.Bump())
	assert.Equal(t, ComplexityComplex, ComplexityComplex.Bump())
}
