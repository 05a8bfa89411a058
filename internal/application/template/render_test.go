package template

import (
	"errors"
	"testing"

	"github.com/condo-notify/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Welcome(t *testing.T) {
	tpl := &domain.Template{Name: "welcome", BodyPattern: "Hello {name}"}

	title, body, err := Render(tpl, map[string]string{"name": "Ana"})

	require.NoError(t, err)
	assert.Equal(t, "", title)
	assert.Equal(t, "Hello Ana", body)
}

func TestRender_TitleAndBody(t *testing.T) {
	tpl := &domain.Template{
		TitlePattern: "Reserva {area_name}",
		BodyPattern:  "Hola {name}, tu reserva del {area_name} para el {date} ha sido confirmada.",
	}

	title, body, err := Render(tpl, map[string]string{"name": "Ana", "area_name": "Piscina", "date": "01/02/2026"})

	require.NoError(t, err)
	assert.Equal(t, "Reserva Piscina", title)
	assert.Equal(t, "Hola Ana, tu reserva del Piscina para el 01/02/2026 ha sido confirmada.", body)
}

func TestRender_ExtraParamsIgnored(t *testing.T) {
	tpl := &domain.Template{BodyPattern: "Hello {name}"}

	_, body, err := Render(tpl, map[string]string{"name": "Ana", "unused": "x", "entity_id": "7"})

	require.NoError(t, err)
	assert.Equal(t, "Hello Ana", body)
}

func TestRender_MissingParameter(t *testing.T) {
	tpl := &domain.Template{BodyPattern: "Hello {name}, you owe {amount}"}

	_, _, err := Render(tpl, map[string]string{"name": "Ana"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMissingParameter))
	var mpe *domain.MissingParameterError
	require.True(t, errors.As(err, &mpe))
	assert.Equal(t, "amount", mpe.Key)
}

func TestRender_MissingParameterInTitle(t *testing.T) {
	tpl := &domain.Template{TitlePattern: "{subject}", BodyPattern: "static"}

	_, _, err := Render(tpl, nil)

	var mpe *domain.MissingParameterError
	require.True(t, errors.As(err, &mpe))
	assert.Equal(t, "subject", mpe.Key)
}

func TestRender_EmptyValueIsSupplied(t *testing.T) {
	tpl := &domain.Template{BodyPattern: "[{note}]"}

	_, body, err := Render(tpl, map[string]string{"note": ""})

	require.NoError(t, err)
	assert.Equal(t, "[]", body)
}

func TestRender_LiteralBraces(t *testing.T) {
	cases := []struct{ pattern, want string }{
		{"{{name}}", "{name}"},
		{"a { b", "a { b"},
		{"unterminated {name", "unterminated {name"},
		{"empty {} braces", "empty {} braces"},
		{"close } alone", "close } alone"},
		{"{ name }", "Ana"},
	}
	for _, c := range cases {
		_, body, err := Render(&domain.Template{BodyPattern: c.pattern}, map[string]string{"name": "Ana"})
		require.NoError(t, err, "pattern: %q", c.pattern)
		assert.Equal(t, c.want, body, "pattern: %q", c.pattern)
	}
}

func TestPlaceholders(t *testing.T) {
	keys := Placeholders("Hola {name}, {description} por {amount}. {name} {{literal}}")
	assert.Equal(t, []string{"name", "description", "amount"}, keys)
}
