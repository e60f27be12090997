// Package e2e drives a running tabrela server through its HTTP API with
// godog scenarios.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Identity is a scenario participant, addressed by alias in feature files.
type Identity struct {
	Alias string
	ID    uuid.UUID
	Admin bool
}

// TestContext holds the state of one scenario.
type TestContext struct {
	BaseURL       string
	SigningKey    string
	Issuer        string
	WebhookSecret string

	client     *http.Client
	identities map[string]*Identity
	current    *Identity
	saved      map[string]string

	lastStatus int
	lastBody   []byte
}

func NewTestContext(baseURL, signingKey, issuer, webhookSecret string) *TestContext {
	tc := &TestContext{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		SigningKey:    signingKey,
		Issuer:        issuer,
		WebhookSecret: webhookSecret,
		client:        &http.Client{Timeout: 10 * time.Second},
	}
	tc.Reset()
	return tc
}

// Reset clears everything a previous scenario left behind.
func (tc *TestContext) Reset() {
	tc.identities = make(map[string]*Identity)
	tc.saved = make(map[string]string)
	tc.current = nil
	tc.lastStatus = 0
	tc.lastBody = nil
}

// Identity returns the participant behind alias, creating it on first use.
func (tc *TestContext) Identity(alias string, admin bool) *Identity {
	if who, ok := tc.identities[alias]; ok {
		who.Admin = who.Admin || admin
		return who
	}
	who := &Identity{Alias: alias, ID: uuid.New(), Admin: admin}
	tc.identities[alias] = who
	return who
}

func (tc *TestContext) SignIn(alias string, admin bool) { tc.current = tc.Identity(alias, admin) }
func (tc *TestContext) SignOut()                        { tc.current = nil }

func (tc *TestContext) Save(name, value string) { tc.saved[name] = value }

func (tc *TestContext) Saved(name string) (string, error) {
	v, ok := tc.saved[name]
	if !ok {
		return "", fmt.Errorf("nothing saved as %q", name)
	}
	return v, nil
}

var placeholder = regexp.MustCompile(`\{([a-z]+:)?([A-Za-z0-9_.\-]+)\}`)

// Expand substitutes {name} with a saved value and {user:alias} with the
// alias' user id.
func (tc *TestContext) Expand(s string) (string, error) {
	var missing error
	out := placeholder.ReplaceAllStringFunc(s, func(m string) string {
		parts := placeholder.FindStringSubmatch(m)
		if parts[1] == "user:" {
			return tc.Identity(parts[2], false).ID.String()
		}
		v, err := tc.Saved(parts[2])
		if err != nil {
			missing = err
			return m
		}
		return v
	})
	return out, missing
}

// Request sends a request as the signed-in participant, if any.
func (tc *TestContext) Request(method, path string, body any) error {
	return tc.RequestAs(tc.current, method, path, body)
}

func (tc *TestContext) RequestAs(who *Identity, method, path string, body any) error {
	headers := map[string]string{}
	if who != nil {
		token, err := tc.token(who)
		if err != nil {
			return err
		}
		headers["Authorization"] = "Bearer " + token
	}
	return tc.send(method, path, body, headers)
}

// RequestAsAlias sends a request as the participant behind alias.
func (tc *TestContext) RequestAsAlias(alias string, admin bool, method, path string, body any) error {
	return tc.RequestAs(tc.Identity(alias, admin), method, path, body)
}

func (tc *TestContext) UserID(alias string) string { return tc.Identity(alias, false).ID.String() }

// Webhook sends a request carrying the shared webhook secret.
func (tc *TestContext) Webhook(method, path string, body any) error {
	return tc.send(method, path, body, map[string]string{"X-Webhook-Secret": tc.WebhookSecret})
}

func (tc *TestContext) send(method, path string, body any, headers map[string]string) error {
	path, err := tc.Expand(path)
	if err != nil {
		return err
	}
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		expanded, err := tc.Expand(b)
		if err != nil {
			return err
		}
		reader = strings.NewReader(expanded)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, tc.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

func (tc *TestContext) token(who *Identity) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":            who.ID.String(),
		"is_admin":       who.Admin,
		"email_verified": true,
		"iat":            now.Unix(),
		"exp":            now.Add(15 * time.Minute).Unix(),
		"jti":            uuid.NewString(),
	}
	if tc.Issuer != "" {
		claims["iss"] = tc.Issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(tc.SigningKey))
}

func (tc *TestContext) StatusCode() int { return tc.lastStatus }
func (tc *TestContext) Body() []byte    { return tc.lastBody }

// ResponseField walks a dotted path such as "teams.0.id" through the last
// JSON response.
func (tc *TestContext) ResponseField(path string) (any, error) {
	var doc any
	if err := json.Unmarshal(tc.lastBody, &doc); err != nil {
		return nil, fmt.Errorf("response is not JSON (status %d): %s", tc.lastStatus, tc.lastBody)
	}
	cur := doc
	for _, key := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[key]
			if !ok {
				return nil, fmt.Errorf("field %q not found in %s", path, tc.lastBody)
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("index %q out of range in %q", key, path)
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("cannot descend into %q at %q", path, key)
		}
	}
	return cur, nil
}

// ResponseString is ResponseField formatted for comparison with feature text.
func (tc *TestContext) ResponseString(path string) (string, error) {
	v, err := tc.ResponseField(path)
	if err != nil {
		return "", err
	}
	switch x := v.(type) {
	case nil:
		return "null", nil
	case string:
		return x, nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	default:
		return fmt.Sprint(x), nil
	}
}

// Expect fails unless the last response had the given status.
func (tc *TestContext) Expect(status int) error {
	if tc.lastStatus != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, tc.lastStatus, tc.lastBody)
	}
	return nil
}
