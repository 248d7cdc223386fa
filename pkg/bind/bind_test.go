package bind

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderInput struct {
	ProduceID uint `json:"produce_id" validate:"required"`
	Quantity  *int `json:"quantity"   validate:"required"`
}

func TestJSONDecodesAndValidates(t *testing.T) {
	var in orderInput
	r := httptest.NewRequest("POST", "/orders", strings.NewReader(`{"produce_id":1,"quantity":10}`))

	errs, err := JSON(httptest.NewRecorder(), r, &in, 0)
	require.NoError(t, err)
	assert.Nil(t, errs)
	assert.Equal(t, uint(1), in.ProduceID)
	assert.Equal(t, 10, *in.Quantity)
}

func TestJSONValidationErrors(t *testing.T) {
	var in orderInput
	r := httptest.NewRequest("POST", "/orders", strings.NewReader(`{"produce_id":1}`))

	errs, err := JSON(httptest.NewRecorder(), r, &in, 0)
	require.NoError(t, err)
	assert.Contains(t, errs.Map(), "quantity")
}

func TestJSONBadBodies(t *testing.T) {
	cases := map[string]string{
		"empty":     "",
		"malformed": `{"produce_id":`,
		"too large": `{"produce_id":1,"quantity":10,"note":"` + strings.Repeat("x", 100) + `"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			var in orderInput
			r := httptest.NewRequest("POST", "/orders", strings.NewReader(body))
			_, err := JSON(httptest.NewRecorder(), r, &in, 64)
			assert.Error(t, err)
		})
	}

	var in orderInput
	_, err := JSON(httptest.NewRecorder(), httptest.NewRequest("POST", "/", strings.NewReader("")), &in, 0)
	assert.ErrorIs(t, err, ErrEmptyBody)
}
