package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gclaussn/go-planning/http/common"
	"github.com/gclaussn/go-planning/planning"
	"github.com/stretchr/testify/assert"
)

func TestDecodeJSONRequestBody(t *testing.T) {
	assert := assert.New(t)

	validJson := `
	{
		"name": "Well construction",
		"startDate": "2026-01-01",
		"endDate": "2026-03-31",
		"resources": ["Excavator", "Engineers"]
	}
	`

	invalidJson := `
	{
		"name": "",
		"endDate": "2026-03-31",
		"resources": ["Excavator", ""]
	}
	`

	t.Run("unsupported media type", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/", strings.NewReader(validJson))
		r.Header.Add(common.HeaderContentType, "text/plain")

		var body planning.CreateProjectCmd

		err := decodeJSONRequestBody(w, r, &body)
		assertProblem(t, err, common.ProblemHttpMediaType, http.StatusUnsupportedMediaType)
		assert.Contains(err.Error(), "text/plain")
	})

	t.Run("request body is empty", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/", strings.NewReader(""))

		var body planning.CreateProjectCmd

		err := decodeJSONRequestBody(w, r, &body)
		assertProblem(t, err, common.ProblemHttpRequestBody, http.StatusBadRequest)
		assert.Contains(err.Error(), "request body is empty")
	})

	t.Run("request body too large", func(t *testing.T) {
		var jsonBuilder strings.Builder
		jsonBuilder.WriteString(`{"name":"`)
		jsonBuilder.WriteString(strings.Repeat("x", 1024*128))
		jsonBuilder.WriteString(`"}`)

		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/", bytes.NewReader([]byte(jsonBuilder.String())))

		var body planning.CreateProjectCmd

		err := decodeJSONRequestBody(w, r, &body)
		assertProblem(t, err, common.ProblemHttpRequestBody, http.StatusBadRequest)
		assert.Contains(err.Error(), "64KB")
	})

	t.Run("malformed JSON", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/", strings.NewReader("{_}"))

		var body planning.CreateProjectCmd

		err := decodeJSONRequestBody(w, r, &body)
		assertProblem(t, err, common.ProblemHttpRequestBody, http.StatusBadRequest)
		assert.Contains(err.Error(), "at position 2")
	})

	t.Run("unexpected end of JSON", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/", strings.NewReader("{"))

		var body planning.CreateProjectCmd

		err := decodeJSONRequestBody(w, r, &body)
		assertProblem(t, err, common.ProblemHttpRequestBody, http.StatusBadRequest)
		assert.Contains(err.Error(), "unexpected end of JSON")
	})

	t.Run("invalid JSON field", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/", strings.NewReader(`{"name":1}`))

		var body planning.CreateProjectCmd

		err := decodeJSONRequestBody(w, r, &body)
		assertProblem(t, err, common.ProblemHttpRequestBody, http.StatusBadRequest)
		assert.Contains(err.Error(), "JSON field name has an invalid value")
	})

	t.Run("invalid date", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/", strings.NewReader(`{"startDate":"01.01.2026"}`))

		var body planning.CreateProjectCmd

		err := decodeJSONRequestBody(w, r, &body)
		assertProblem(t, err, common.ProblemHttpRequestBody, http.StatusBadRequest)
	})

	t.Run("unknown JSON field", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/", strings.NewReader(`{"unknown":-1}`))

		var body planning.CreateProjectCmd

		err := decodeJSONRequestBody(w, r, &body)
		assertProblem(t, err, common.ProblemHttpRequestBody, http.StatusBadRequest)
		assert.Contains(err.Error(), `unknown JSON field "unknown"`)
	})

	t.Run("valid JSON", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/", strings.NewReader(validJson))

		var body planning.CreateProjectCmd

		err := decodeJSONRequestBody(w, r, &body)
		assert.Nil(err)

		assert.Equal("Well construction", body.Name)
		assert.Equal("2026-01-01", body.StartDate.String())
		assert.Equal("2026-03-31", body.EndDate.String())
		assert.Equal([]string{"Excavator", "Engineers"}, body.Resources)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/", strings.NewReader(invalidJson))

		var body planning.CreateProjectCmd

		err := decodeJSONRequestBody(w, r, &body)
		assertProblem(t, err, common.ProblemValidation, http.StatusBadRequest)

		problem := err.(common.Problem)
		assert.Len(problem.Errors, 3)

		findError := func(pointer string) common.Error {
			for i := range problem.Errors {
				if problem.Errors[i].Pointer == pointer {
					return problem.Errors[i]
				}
			}
			t.Fatalf("failed to find error for pointer %s", pointer)
			return common.Error{}
		}

		var e common.Error

		e = findError("#/name")
		assert.Equal("required", e.Type)
		assert.NotEmpty(e.Detail)
		assert.Empty(e.Value)

		e = findError("#/startDate")
		assert.Equal("required", e.Type)

		e = findError("#/resources/1")
		assert.Equal("required", e.Type)
	})

	t.Run("invalid email", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("", "/", strings.NewReader(`{"email":"no email","password":"secret1"}`))

		var body planning.LoginCmd

		err := decodeJSONRequestBody(w, r, &body)
		assertProblem(t, err, common.ProblemValidation, http.StatusBadRequest)

		problem := err.(common.Problem)
		assert.Len(problem.Errors, 1)
		assert.Equal("#/email", problem.Errors[0].Pointer)
		assert.Equal("email", problem.Errors[0].Type)
		assert.Equal("no email", problem.Errors[0].Value)
	})

	t.Run("resources can be empty", func(t *testing.T) {
		for _, resources := range []string{`,"resources":[]`, ""} {
			w := httptest.NewRecorder()
			r := httptest.NewRequest("", "/", strings.NewReader(`{"name":"a","startDate":"2026-01-01","endDate":"2026-01-01"`+resources+`}`))

			var body planning.CreateProjectCmd

			err := decodeJSONRequestBody(w, r, &body)
			assert.NoError(err)
			assert.Empty(body.Resources)
		}
	})
}

func assertProblem(t *testing.T, err error, expectedType common.ProblemType, expectedStatus int) {
	if err == nil {
		t.Fatal("error is nil")
	}

	problem, ok := err.(common.Problem)
	if !ok {
		t.Fatalf("error is not of type Problem: %v", err)
	}

	assert := assert.New(t)
	assert.Equal(expectedType, problem.Type)
	assert.Equal(expectedStatus, problem.Status)
	assert.NotEmpty(problem.Title)
	assert.NotEmpty(problem.Detail)
}
