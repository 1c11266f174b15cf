package rest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggest/rest-openapi"
)

type petPath struct {
	ID int `json:"id"`
}

type petQuery struct {
	Limit int `json:"limit"`
}

type petBody struct {
	Name string `json:"name"`
}

func TestInputFields(t *testing.T) {
	type input struct {
		Path   petPath
		Filter *petQuery `in:"query"`
		Body   petBody
		Query  string `in:"-"`
		other  int
	}

	fields, err := rest.InputFields(new(input))
	require.NoError(t, err)
	require.Len(t, fields, 3)

	assert.Equal(t, rest.ParamInPath, fields[0].In)
	assert.Equal(t, "Path", fields[0].Name)
	assert.False(t, fields[0].Ptr)

	assert.Equal(t, rest.ParamInQuery, fields[1].In)
	assert.Equal(t, "Filter", fields[1].Name)
	assert.True(t, fields[1].Ptr)
	assert.IsType(t, new(petQuery), fields[1].Model())

	assert.Equal(t, rest.ParamInBody, fields[2].In)
}

func TestInputFields_duplicate(t *testing.T) {
	type input struct {
		Query  petQuery
		Filter petQuery `in:"query"`
	}

	_, err := rest.InputFields(input{})
	assert.ErrorIs(t, err, rest.ErrInvalidInput)

	_, err = rest.InputFields(123)
	assert.ErrorIs(t, err, rest.ErrInvalidInput)

	fields, err := rest.InputFields(nil)
	assert.NoError(t, err)
	assert.Empty(t, fields)
}

func TestInputField_Value(t *testing.T) {
	type input struct {
		Query *petQuery
	}

	in := new(input)
	fields, err := rest.InputFields(in)
	require.NoError(t, err)

	v := fields[0].Value(reflectValue(in))
	v.FieldByName("Limit").SetInt(10)

	require.NotNil(t, in.Query)
	assert.Equal(t, 10, in.Query.Limit)
}

type csvRaw struct {
	rest.RawBody
}

func (csvRaw) MimeTypes() []string {
	return []string{"text/csv", "application/json"}
}

func TestMimeTypesOf(t *testing.T) {
	assert.Equal(t, []string{"application/json"}, rest.MimeTypesOf(rest.RawBody{}))
	assert.Equal(t, []string{"text/csv", "application/json"}, rest.MimeTypesOf(csvRaw{}))

	r := csvRaw{}
	r.SetRawBody("text/csv", []byte("a,b"))
	assert.Equal(t, "text/csv", r.ContentType)
	assert.Equal(t, "a,b", string(r.Data))
}

func TestUnion(t *testing.T) {
	u := rest.Union{}
	u.SetUnionValue("application/vnd.dog+json", petBody{Name: "Rex"})

	ct, v := u.UnionValue()
	assert.Equal(t, "application/vnd.dog+json", ct)
	assert.Equal(t, petBody{Name: "Rex"}, v)
}
