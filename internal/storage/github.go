package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// GitHubStore keeps blobs as files in a GitHub repository through the
// contents API. The file sha is the revision token.
type GitHubStore struct {
	BaseURL string
	Token   string
	Owner   string
	Repo    string
	Branch  string
	client  *http.Client
}

// NewGitHubStore creates a store for owner/repo on branch.
func NewGitHubStore(baseURL, token, owner, repo, branch string) *GitHubStore {
	if branch == "" {
		branch = "main"
	}
	return &GitHubStore{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Token:   token,
		Owner:   owner,
		Repo:    repo,
		Branch:  branch,
		client:  http.DefaultClient,
	}
}

type contentsFile struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Path    string `json:"path"`
	SHA     string `json:"sha"`
	Content string `json:"content"`
}

type putContentsRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

type putContentsResponse struct {
	Content contentsFile `json:"content"`
}

// Get fetches a file and its sha.
func (s *GitHubStore) Get(ctx context.Context, key string) (*Blob, error) {
	status, body, err := s.do(ctx, http.MethodGet, s.contentsURL(key, true), nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if status < 200 || status > 299 {
		return nil, &StatusError{Op: "github GET contents", Status: status, Body: string(body)}
	}

	var file contentsFile
	if err := json.Unmarshal(body, &file); err != nil {
		return nil, fmt.Errorf("failed to decode contents response: %w", err)
	}

	// The API wraps base64 at 60 columns
	content, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(file.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to decode file content: %w", err)
	}

	return &Blob{Key: key, Content: content, Revision: file.SHA}, nil
}

// Put commits content to key. GitHub rejects a stale or missing sha with 409 or 422.
func (s *GitHubStore) Put(ctx context.Context, key string, content []byte, revision, message string) (string, error) {
	payload, err := json.Marshal(putContentsRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		Branch:  s.Branch,
		SHA:     revision,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	status, body, err := s.do(ctx, http.MethodPut, s.contentsURL(key, false), payload)
	if err != nil {
		return "", err
	}
	if status == http.StatusConflict || status == http.StatusUnprocessableEntity {
		return "", &ConflictError{Key: key, ExpectedRevision: revision}
	}
	if status < 200 || status > 299 {
		return "", &StatusError{Op: "github PUT contents", Status: status, Body: string(body)}
	}

	var resp putContentsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode put response: %w", err)
	}
	return resp.Content.SHA, nil
}

// List returns the files directly under dir.
func (s *GitHubStore) List(ctx context.Context, dir string) ([]string, error) {
	status, body, err := s.do(ctx, http.MethodGet, s.contentsURL(dir, true), nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return []string{}, nil
	}
	if status < 200 || status > 299 {
		return nil, &StatusError{Op: "github LIST dir", Status: status, Body: string(body)}
	}

	var entries []contentsFile
	if err := json.Unmarshal(body, &entries); err != nil {
		// A file path answers with an object, not a listing
		return []string{}, nil
	}

	keys := []string{}
	for _, e := range entries {
		if e.Type != "file" {
			continue
		}
		keys = append(keys, strings.TrimSuffix(dir, "/")+"/"+e.Name)
	}
	sort.Strings(keys)
	return keys, nil
}

// Ping checks that the repository is reachable with the configured token.
func (s *GitHubStore) Ping(ctx context.Context) error {
	u := fmt.Sprintf("%s/repos/%s/%s", s.BaseURL, url.PathEscape(s.Owner), url.PathEscape(s.Repo))
	status, body, err := s.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return &StatusError{Op: "github GET repo", Status: status, Body: string(body)}
	}
	return nil
}

func (s *GitHubStore) contentsURL(key string, withRef bool) string {
	segments := strings.Split(strings.Trim(key, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	u := fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		s.BaseURL, url.PathEscape(s.Owner), url.PathEscape(s.Repo), strings.Join(segments, "/"))
	if withRef {
		u += "?ref=" + url.QueryEscape(s.Branch)
	}
	return u
}

func (s *GitHubStore) do(ctx context.Context, method, u string, payload []byte) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.Token))
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "notesync")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}
