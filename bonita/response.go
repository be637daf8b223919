package bonita

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	sessionIdPattern = regexp.MustCompile(CookieSessionId + `=([^;,]+)`)
	apiTokenPattern  = regexp.MustCompile(HeaderApiToken + `=([^;,]+)`)
)

// response is a fully read HTTP response.
type response struct {
	method string
	path   string
	status int
	header http.Header
	body   []byte
}

func (r response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// err returns an error for a response with a non-success status.
func (r response) err() error {
	text := fmt.Sprintf("%s %s: HTTP %d", r.method, r.path, r.status)
	if len(r.body) != 0 {
		return fmt.Errorf("%s: %s", text, string(r.body))
	}
	return errors.New(text)
}

func (r response) decode(v any) error {
	if err := json.Unmarshal(r.body, v); err != nil {
		return MalformedResponseError{Path: r.path, Detail: fmt.Sprintf("failed to decode JSON: %v", err)}
	}
	return nil
}

// parseSession extracts session ID and API token from all Set-Cookie values of a login response.
//
// The values are joined with "," so that cookies, sent as separate headers or folded into one, are treated equally.
func parseSession(header http.Header) (string, string) {
	blob := strings.Join(header.Values(HeaderSetCookie), ",")

	var sessionId, apiToken string
	if m := sessionIdPattern.FindStringSubmatch(blob); m != nil {
		sessionId = strings.TrimSpace(m[1])
	}
	if m := apiTokenPattern.FindStringSubmatch(blob); m != nil {
		apiToken = strings.TrimSpace(m[1])
	}
	return sessionId, apiToken
}

// parseCaseId extracts the case ID of an instantiation response.
//
// Depending on the Bonita version, the response carries a numeric (or string) "caseId" or a string "id".
// "caseId" is preferred, when both are present.
func parseCaseId(body []byte) (string, bool) {
	if !gjson.ValidBytes(body) {
		return "", false
	}

	caseId := gjson.GetBytes(body, "caseId")
	switch caseId.Type {
	case gjson.Number:
		return caseId.Raw, true
	case gjson.String:
		if caseId.Str != "" {
			return caseId.Str, true
		}
	}

	id := gjson.GetBytes(body, "id")
	switch id.Type {
	case gjson.Number:
		return id.Raw, true
	case gjson.String:
		if id.Str != "" {
			return id.Str, true
		}
	}

	return "", false
}

// parseFirstId extracts the "id" of the first element of a JSON array.
// The second return value is false, if the array is empty.
func parseFirstId(r response) (string, bool, error) {
	result := gjson.ParseBytes(r.body)
	if !result.IsArray() {
		return "", false, MalformedResponseError{Path: r.path, Detail: "expected JSON array"}
	}

	first := result.Get("0")
	if !first.Exists() {
		return "", false, nil
	}

	id := first.Get("id")
	if !id.Exists() || id.String() == "" {
		return "", true, MalformedResponseError{Path: r.path, Detail: "first element has no id"}
	}
	return id.String(), true, nil
}
