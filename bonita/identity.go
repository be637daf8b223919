package bonita

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// LoginUser performs a login on behalf of an end user and looks up the user's Bonita ID and roles.
//
// The resulting session belongs to the end user: it is returned, but not held by the client.
// A failing profile lookup is logged and results in an empty user ID and no roles.
func (c *Client) LoginUser(ctx context.Context, username string, password string) (UserSession, error) {
	if username == "" || password == "" {
		return UserSession{}, errors.New("username or password is empty")
	}

	session, err := c.login(ctx, username, password)
	if err != nil {
		return UserSession{}, err
	}

	userSession := UserSession{Session: session, Roles: []string{}}

	userId, err := c.findUserId(ctx, session, username)
	if err != nil {
		c.logger.Warn("failed to look up user", "username", username, "err", err)
		return userSession, nil
	}

	userSession.UserId = userId

	roles, err := c.findRoles(ctx, session, userId)
	if err != nil {
		c.logger.Warn("failed to look up memberships", "username", username, "userId", userId, "err", err)
		return userSession, nil
	}

	userSession.Roles = roles

	c.logger.Info("user logged in", "username", username, "userId", userId, "roles", strings.Join(roles, ","))
	return userSession, nil
}

func (c *Client) findUserId(ctx context.Context, session Session, username string) (string, error) {
	query := url.Values{"p": {"0"}, "c": {"1"}, "f": {"userName=" + username}}

	res, err := c.do(ctx, &session, http.MethodGet, PathIdentityUser+"?"+query.Encode(), "", nil)
	if err != nil {
		return "", err
	}
	if !res.ok() {
		return "", res.err()
	}

	id, found, err := parseFirstId(res)
	if err != nil {
		return "", err
	}
	if !found {
		return "", MalformedResponseError{Path: res.path, Detail: "user not found"}
	}
	return id, nil
}

// findRoles returns the distinct role names of a user's memberships, compared case-insensitively.
func (c *Client) findRoles(ctx context.Context, session Session, userId string) ([]string, error) {
	query := url.Values{"p": {"0"}, "c": {"100"}, "f": {"user_id=" + userId}, "d": {"role_id"}}

	res, err := c.do(ctx, &session, http.MethodGet, PathIdentityMembership+"?"+query.Encode(), "", nil)
	if err != nil {
		return nil, err
	}
	if !res.ok() {
		return nil, res.err()
	}

	result := gjson.ParseBytes(res.body)
	if !result.IsArray() {
		return nil, MalformedResponseError{Path: res.path, Detail: "expected JSON array"}
	}

	roles := []string{}
	seen := make(map[string]bool)
	for _, name := range result.Get("#.role_id.name").Array() {
		role := strings.TrimSpace(name.String())
		if role == "" {
			continue
		}

		key := strings.ToLower(role)
		if seen[key] {
			continue
		}

		seen[key] = true
		roles = append(roles, role)
	}
	return roles, nil
}
