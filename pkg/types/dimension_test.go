package types_test

import (
	"testing"

	"github.com/Coding-Krakken/pel/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestDimension_EqualGenericTimeUnification(t *testing.T) {
	generic := types.Dimension{"time": "generic"}
	specific := types.Dimension{"time": "mo"}
	assert.True(t, generic.Equal(specific))
	assert.True(t, specific.Equal(generic))
}

func TestDimension_EqualMismatch(t *testing.T) {
	a := types.Dimension{"currency": "USD"}
	b := types.Dimension{"currency": "EUR"}
	assert.False(t, a.Equal(b))
}

func TestDimension_IsEmpty(t *testing.T) {
	assert.True(t, types.Dimension{}.IsEmpty())
	assert.False(t, types.Dimension{"time": "mo"}.IsEmpty())
}

func TestDimension_String(t *testing.T) {
	d := types.Dimension{"currency": "USD", "scoped": "user"}
	assert.Equal(t, "currency=USD,scoped=user", d.String())
	assert.Equal(t, "dimensionless", types.Dimension{}.String())
}
