package onshape

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultContentType is signed when the caller does not supply one.
	DefaultContentType = "application/json"

	// DefaultAccept requests the versioned Onshape media type.
	DefaultAccept = "application/vnd.onshape.v2+json;charset=UTF-8;qs=0.2"

	nonceLength   = 25
	nonceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz1234567890"

	requestIDLength = 24
)

// SignedRequest holds everything needed to transmit one attempt of a request.
// It is recomputed for every attempt and never reused.
type SignedRequest struct {
	Method string
	// URL is the request URL with the query string re-appended verbatim.
	URL       string
	Nonce     string
	Date      string
	Signature string
	Header    http.Header
}

// Signer computes the per-request HMAC signature and header set.
type Signer struct {
	AccessKey  string
	SecretKey  string
	CompanyID  string
	ScriptName string
	Version    string

	// Overridable for tests.
	nonce     func() string
	now       func() time.Time
	requestID func() string
}

// NewSigner returns a signer for the given credential.
func NewSigner(cred StackCredential, scriptName, version string) *Signer {
	return &Signer{
		AccessKey:  cred.AccessKey,
		SecretKey:  cred.SecretKey,
		CompanyID:  cred.CompanyID,
		ScriptName: scriptName,
		Version:    version,
		nonce:      NewNonce,
		now:        time.Now,
		requestID:  newRequestID,
	}
}

// Sign builds a SignedRequest for method and uri. Empty contentType and
// accept fall back to DefaultContentType and DefaultAccept.
func (s *Signer) Sign(method, uri, contentType, accept string) (*SignedRequest, error) {
	nonce := s.nonce()
	date := s.now().UTC().Format(http.TimeFormat)

	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("error parsing request uri %q: %w", uri, err)
	}

	query := u.Query().Encode()
	target := uri
	if query != "" {
		u.RawQuery = ""
		target = u.String() + "?" + query
	}

	if contentType == "" {
		contentType = DefaultContentType
	}
	if accept == "" {
		accept = DefaultAccept
	}

	path := u.EscapedPath()
	signature := ComputeSignature(s.SecretKey,
		CanonicalString(method, nonce, date, contentType, path, query))

	h := make(http.Header)
	h.Set("Authorization", fmt.Sprintf("On %s:HmacSHA256:%s", s.AccessKey, signature))
	h.Set("On-Nonce", nonce)
	h.Set("Date", date)
	h.Set("Content-Type", contentType)
	h.Set("Accept", accept)
	h.Set("User-Agent", s.userAgent())
	h.Set("X-Request-Id", fmt.Sprintf("osts-%s-%s-%s", s.ScriptName, s.CompanyID, s.requestID()))

	return &SignedRequest{
		Method:    method,
		URL:       target,
		Nonce:     nonce,
		Date:      date,
		Signature: signature,
		Header:    h,
	}, nil
}

func (s *Signer) userAgent() string {
	return fmt.Sprintf("onshape-go-client-%s/%s", s.Version, s.ScriptName)
}

// CanonicalString is the HMAC input for a request: the newline-joined fields
// with a trailing empty field, lower-cased as a whole.
func CanonicalString(method, nonce, date, contentType, path, query string) string {
	return strings.ToLower(strings.Join([]string{
		method,
		nonce,
		date,
		contentType,
		path,
		query,
		"",
	}, "\n"))
}

// ComputeSignature returns base64(HMAC-SHA256(secretKey, canonical)).
func ComputeSignature(secretKey, canonical string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(canonical))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// NewNonce returns 25 characters drawn uniformly from [A-Za-z0-9].
func NewNonce() string {
	max := big.NewInt(int64(len(nonceAlphabet)))
	b := make([]byte, nonceLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(fmt.Sprintf("crypto/rand failed: %v", err))
		}
		b[i] = nonceAlphabet[n.Int64()]
	}
	return string(b)
}

// newRequestID returns 24 random lower-case hex characters.
func newRequestID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:requestIDLength]
}
