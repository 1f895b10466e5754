package tr064

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// challenge is a parsed WWW-Authenticate: Digest header (RFC 2617).
type challenge struct {
	realm     string
	nonce     string
	opaque    string
	algorithm string
	qop       string // "auth" when offered, "" for legacy digest
	stale     bool
}

// parseChallenge parses a Digest WWW-Authenticate header value.
func parseChallenge(header string) (*challenge, error) {
	scheme, params, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Digest") {
		return nil, fmt.Errorf("unsupported authentication scheme %q", scheme)
	}

	c := &challenge{algorithm: "MD5"}
	for key, value := range parseAuthParams(params) {
		switch strings.ToLower(key) {
		case "realm":
			c.realm = value
		case "nonce":
			c.nonce = value
		case "opaque":
			c.opaque = value
		case "algorithm":
			c.algorithm = value
		case "stale":
			c.stale = strings.EqualFold(value, "true")
		case "qop":
			for _, q := range strings.Split(value, ",") {
				if strings.TrimSpace(q) == "auth" {
					c.qop = "auth"
				}
			}
		}
	}

	if c.nonce == "" {
		return nil, fmt.Errorf("digest challenge without nonce")
	}
	if !strings.EqualFold(c.algorithm, "MD5") {
		return nil, fmt.Errorf("unsupported digest algorithm %q", c.algorithm)
	}
	return c, nil
}

// parseAuthParams splits `a="x, y", b=z` into a map, honoring quotes.
func parseAuthParams(s string) map[string]string {
	params := make(map[string]string)
	for len(s) > 0 {
		s = strings.TrimLeft(s, " ,\t")
		eq := strings.IndexByte(s, '=')
		if eq < 0 {
			break
		}
		key := strings.TrimSpace(s[:eq])
		s = strings.TrimLeft(s[eq+1:], " \t")

		var value string
		if strings.HasPrefix(s, `"`) {
			var b strings.Builder
			i := 1
			for ; i < len(s); i++ {
				if s[i] == '\\' && i+1 < len(s) {
					i++
					b.WriteByte(s[i])
					continue
				}
				if s[i] == '"' {
					break
				}
				b.WriteByte(s[i])
			}
			value = b.String()
			if i < len(s) {
				i++
			}
			s = s[i:]
		} else {
			end := strings.IndexByte(s, ',')
			if end < 0 {
				end = len(s)
			}
			value = strings.TrimSpace(s[:end])
			s = s[end:]
		}
		params[key] = value
	}
	return params
}

// authorization computes the Authorization header for one request.
// nc is the nonce count for this nonce, starting at 1.
func (c *challenge) authorization(username, password, method, uri string, nc int, cnonce string) string {
	ha1 := md5Hex(username + ":" + c.realm + ":" + password)
	ha2 := md5Hex(method + ":" + uri)
	ncValue := fmt.Sprintf("%08x", nc)

	var response string
	if c.qop == "auth" {
		response = md5Hex(strings.Join([]string{ha1, c.nonce, ncValue, cnonce, c.qop, ha2}, ":"))
	} else {
		response = md5Hex(ha1 + ":" + c.nonce + ":" + ha2)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Digest username="%s", realm="%s", nonce="%s", uri="%s", response="%s", algorithm=MD5`,
		quoteEscape(username), quoteEscape(c.realm), c.nonce, uri, response)
	if c.qop == "auth" {
		fmt.Fprintf(&b, `, qop=auth, nc=%s, cnonce="%s"`, ncValue, cnonce)
	}
	if c.opaque != "" {
		fmt.Fprintf(&b, `, opaque="%s"`, c.opaque)
	}
	return b.String()
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func quoteEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// newCnonce returns a random client nonce.
func newCnonce() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "0a4f113b"
	}
	return hex.EncodeToString(b)
}
