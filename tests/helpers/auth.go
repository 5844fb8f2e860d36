package helpers

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"testing"
)

func randInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(err)
	}
	return int(v.Int64())
}

// RandomPassword generates a password that satisfies common complexity rules
func RandomPassword() string {
	const (
		lower   = "abcdefghijklmnopqrstuvwxyz"
		upper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
		special = "!@#$%^&*"
		numbers = "0123456789"
		all     = lower + upper + special + numbers
	)

	password := make([]byte, 10)
	password[0] = upper[randInt(len(upper))]
	password[1] = special[randInt(len(special))]
	password[2] = numbers[randInt(len(numbers))]

	for i := 3; i < 10; i++ {
		password[i] = all[randInt(len(all))]
	}

	for i := range password {
		j := randInt(len(password))
		password[i], password[j] = password[j], password[i]
	}

	return string(password)
}

// AcquireAccount registers and logs in a user against a running service and
// returns a bearer token for it. Registration failure is tolerated so the
// same account can be reused across tests.
func AcquireAccount(t *testing.T, baseURL, email, password string) string {
	t.Helper()

	creds, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		t.Fatalf("Failed to marshal credentials: %v", err)
	}

	resp, err := http.Post(baseURL+"/api/auth/register", "application/json", bytes.NewReader(creds))
	if err != nil {
		t.Fatalf("Register request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Logf("Register returned %d (account might already exist)", resp.StatusCode)
	}

	resp, err = http.Post(baseURL+"/api/auth/login", "application/json", bytes.NewReader(creds))
	if err != nil {
		t.Fatalf("Login request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		t.Fatalf("Login failed with status %d", resp.StatusCode)
	}

	var body struct {
		Token string `json:"token"`
	}
	ParseJSON(t, resp, &body)
	if body.Token == "" {
		t.Fatal("Login response carried no token")
	}

	return body.Token
}

// AuthedRequest builds a request with the bearer token attached
func AuthedRequest(t *testing.T, method, url, token string, body []byte) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	return req
}
