// Utilities for extracting the Humble session cookie from cURL commands.
//
// Humble Bundle has no token endpoint; the practical way to capture a session
// is "Copy as cURL" on any authenticated request in the browser devtools.
package shared

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
)

const sessionCookieName = "_simpleauth_sess"

var (
	headerRegex = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	cookieRegex = regexp.MustCompile(`-b\s+'([^']+)'|-b\s+"([^"]+)"`)
)

// SessionFromCurlFile reads a file containing a cURL command copied from the
// browser and extracts the _simpleauth_sess cookie value.
func SessionFromCurlFile(filepath string) (string, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return "", fmt.Errorf("failed to read curl file: %w", err)
	}

	return SessionFromCurlCommand(content)
}

// SessionFromCurlCommand parses a cURL command and extracts the session cookie.
func SessionFromCurlCommand(data []byte) (string, error) {
	curlCmd := string(data)
	curlCmd = strings.ReplaceAll(curlCmd, "\\\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\", "")

	var cookieLine string

	if m := cookieRegex.FindStringSubmatch(curlCmd); len(m) > 1 {
		if m[1] != "" {
			cookieLine = m[1]
		} else {
			cookieLine = m[2]
		}
	}

	if cookieLine == "" {
		for _, match := range headerRegex.FindAllStringSubmatch(curlCmd, -1) {
			headerLine := match[1]
			if headerLine == "" {
				headerLine = match[2]
			}
			if strings.HasPrefix(strings.ToLower(headerLine), "cookie:") {
				parts := strings.SplitN(headerLine, ":", 2)
				if len(parts) == 2 {
					cookieLine = strings.TrimSpace(parts[1])
				}
				break
			}
		}
	}

	if cookieLine == "" {
		return "", fmt.Errorf("%w: no cookies found in curl command", ErrMissingCredentials)
	}

	session := SessionFromCookieLine(cookieLine)
	if session == "" {
		return "", fmt.Errorf("%w: %s cookie not present", ErrMissingCredentials, sessionCookieName)
	}

	return session, nil
}

// SessionFromCookieLine extracts the _simpleauth_sess value from a raw
// "name=value; name=value" cookie line. Returns "" when absent.
func SessionFromCookieLine(line string) string {
	for _, pair := range strings.Split(line, ";") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 || parts[0] != sessionCookieName {
			continue
		}
		value := strings.Trim(parts[1], `"`)
		if decoded, err := url.QueryUnescape(value); err == nil {
			return decoded
		}
		return value
	}
	return ""
}
