package drawing

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// WVM selects whether a Target addresses a workspace or a version.
type WVM string

const (
	Workspace WVM = "w"
	Version   WVM = "v"
)

var documentPathRE = regexp.MustCompile(
	`^/documents/([0-9a-f]{24})/([wv])/([0-9a-f]{24})/e/([0-9a-f]{24})$`)

// Target is a drawing element addressed by a document URI such as
// https://cad.onshape.com/documents/{did}/w/{wid}/e/{eid}.
//
// Exactly one of WorkspaceID and VersionID is set.
type Target struct {
	// BaseURL is the lower-cased origin of the URI, without a trailing slash.
	BaseURL     string
	DocumentID  string
	WorkspaceID string
	VersionID   string
	ElementID   string
}

// ParseURI parses a drawing URI. The path is matched case-insensitively and
// ids are returned in lower case.
func ParseURI(s string) (Target, error) {
	if s == "" {
		return Target{}, fmt.Errorf("drawing URI cannot be empty")
	}

	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Target{}, fmt.Errorf("failed to parse %s as a valid URL", s)
	}

	path := strings.ToLower(u.Path)
	m := documentPathRE.FindStringSubmatch(path)
	if m == nil {
		return Target{}, fmt.Errorf(
			"failed to extract documentId, workspaceId and elementId from %s", path)
	}

	t := Target{
		BaseURL:    strings.ToLower(u.Scheme + "://" + u.Host),
		DocumentID: m[1],
		ElementID:  m[4],
	}
	if WVM(m[2]) == Workspace {
		t.WorkspaceID = m[3]
	} else {
		t.VersionID = m[3]
	}

	return t, nil
}

// WVM returns Workspace or Version.
func (t Target) WVM() WVM {
	if t.WorkspaceID != "" {
		return Workspace
	}
	return Version
}

// WVMID returns the workspace or version id.
func (t Target) WVMID() string {
	if t.WorkspaceID != "" {
		return t.WorkspaceID
	}
	return t.VersionID
}

// IsWorkspace returns true if the target can be modified.
func (t Target) IsWorkspace() bool {
	return t.WorkspaceID != ""
}

// String returns the canonical document URI of the target.
func (t Target) String() string {
	return fmt.Sprintf("%s/documents/%s/%s/%s/e/%s",
		t.BaseURL, t.DocumentID, t.WVM(), t.WVMID(), t.ElementID)
}

// elementPath returns "{prefix}/d/{did}/{wv}/{wvid}/e/{eid}".
func (t Target) elementPath(prefix string) string {
	return fmt.Sprintf("%s/d/%s/%s/%s/e/%s",
		prefix, t.DocumentID, t.WVM(), t.WVMID(), t.ElementID)
}

// CheckBaseURL compares the base URL of the credentials with the origin of
// the target and returns a warning when they differ. Both may still name the
// same server (127.0.0.1 and localhost), so the result is advisory.
func CheckBaseURL(credentialsURL string, t Target) string {
	if normalizeOrigin(credentialsURL) == t.BaseURL {
		return ""
	}
	return fmt.Sprintf("Credentials base URL %s does not match drawinguri base URL %s.",
		credentialsURL, t.BaseURL)
}

func normalizeOrigin(s string) string {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(strings.ToLower(s), "/")
	}
	return strings.ToLower(u.Scheme + "://" + u.Host)
}
