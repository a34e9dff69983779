// Utilities for parsing cURL commands copied from browser DevTools.
//
// The YouTube Music proxy authenticates with browser request headers; this
// converts a "Copy as cURL" command into the headers file it expects.
package shared

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// CurlHeaders represents parsed headers and cookies from a cURL command.
type CurlHeaders struct {
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a .sh file containing a cURL command and extracts headers.
func ParseCurlFile(filepath string) (*CurlHeaders, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(string(content))
}

var (
	headerRegex = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	cookieRegex = regexp.MustCompile(`-b\s+'([^']+)'|-b\s+"([^"]+)"`)
)

// ParseCurlCommand parses a cURL command string and extracts headers.
func ParseCurlCommand(curlCmd string) (*CurlHeaders, error) {
	curlCmd = strings.ReplaceAll(curlCmd, "\\\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\", "")

	headers := make(map[string]string)
	var cookie string

	for _, match := range headerRegex.FindAllStringSubmatch(curlCmd, -1) {
		headerLine := match[1]
		if headerLine == "" {
			headerLine = match[2]
		}

		parts := strings.SplitN(headerLine, ":", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if strings.EqualFold(key, "cookie") {
			cookie = value
		} else {
			headers[key] = value
		}
	}

	if cookieMatch := cookieRegex.FindStringSubmatch(curlCmd); len(cookieMatch) > 1 {
		if cookieMatch[1] != "" {
			cookie = cookieMatch[1]
		} else if cookieMatch[2] != "" {
			cookie = cookieMatch[2]
		}
	}

	if len(headers) == 0 && cookie == "" {
		return nil, fmt.Errorf("no headers found in curl command")
	}

	return &CurlHeaders{
		Headers: headers,
		Cookie:  cookie,
	}, nil
}

// ToHeadersRaw converts parsed headers to newline-separated "Key: Value"
// pairs, the headers_raw format the proxy's ytmusicapi backend expects.
func (c *CurlHeaders) ToHeadersRaw() string {
	var lines []string

	for key, value := range c.Headers {
		lines = append(lines, fmt.Sprintf("%s: %s", key, value))
	}

	if c.Cookie != "" {
		lines = append(lines, fmt.Sprintf("cookie: %s", c.Cookie))
	}

	return strings.Join(lines, "\n")
}
