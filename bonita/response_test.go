package bonita

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSession(t *testing.T) {
	assert := assert.New(t)

	tests := []struct {
		name      string
		setCookie []string

		expectedSessionId string
		expectedApiToken  string
	}{
		{"folded", []string{"JSESSIONID=ABC123; Path=/, X-Bonita-API-Token=XYZ789"}, "ABC123", "XYZ789"},
		{"separate", []string{"JSESSIONID=ABC123; Path=/; HttpOnly", "X-Bonita-API-Token=XYZ789; Path=/bonita"}, "ABC123", "XYZ789"},
		{"token first", []string{"X-Bonita-API-Token=XYZ789,JSESSIONID=ABC123"}, "ABC123", "XYZ789"},
		{"no token", []string{"JSESSIONID=ABC123; Path=/"}, "ABC123", ""},
		{"none", nil, "", ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			header := http.Header{}
			for _, value := range test.setCookie {
				header.Add(HeaderSetCookie, value)
			}

			sessionId, apiToken := parseSession(header)
			assert.Equal(test.expectedSessionId, sessionId)
			assert.Equal(test.expectedApiToken, apiToken)
		})
	}
}

func TestParseCaseId(t *testing.T) {
	assert := assert.New(t)

	tests := []struct {
		body string

		expectedCaseId string
		expectedOk     bool
	}{
		{`{"caseId": 7001}`, "7001", true},
		{`{"caseId": "7001"}`, "7001", true},
		{`{"id": "case-7001"}`, "case-7001", true},
		{`{"id": 7001}`, "7001", true},
		{`{"caseId": 7001, "id": "case-1"}`, "7001", true},
		{`{"caseId": ""}`, "", false},
		{`{}`, "", false},
		{`[]`, "", false},
		{`not json`, "", false},
	}

	for _, test := range tests {
		t.Run(test.body, func(t *testing.T) {
			caseId, ok := parseCaseId([]byte(test.body))
			assert.Equal(test.expectedCaseId, caseId)
			assert.Equal(test.expectedOk, ok)
		})
	}
}
