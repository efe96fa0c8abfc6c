package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidCPF(t *testing.T) {
	tests := []struct {
		cpf  string
		want bool
	}{
		{"529.982.247-25", true},
		{"52998224725", true},
		{"111.444.777-35", true},
		{"529.982.247-24", false},
		{"111.111.111-11", false},
		{"1234", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidCPF(tt.cpf), tt.cpf)
	}
}

func TestFormatCPF(t *testing.T) {
	assert.Equal(t, "529.982.247-25", FormatCPF("52998224725"))
	assert.Equal(t, "abc", FormatCPF("abc"))
}

func TestValidatorTags(t *testing.T) {
	type form struct {
		CPF     string `validate:"cpf"`
		PixType string `validate:"pixtype"`
	}

	v := Validator()
	require.NoError(t, v.Struct(form{CPF: "529.982.247-25", PixType: "email"}))
	require.NoError(t, v.Struct(form{}))
	assert.Error(t, v.Struct(form{CPF: "123.456.789-00"}))
	assert.Error(t, v.Struct(form{PixType: "boleto"}))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "abc", SanitizeString("  a\x00b\x1fc \n"))
}
