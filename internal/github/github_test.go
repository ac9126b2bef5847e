package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetPRDiff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("Authorization = %q, want %q", r.Header.Get("Authorization"), "Bearer test-token")
		}
		if r.Header.Get("Accept") != "application/vnd.github.v3.diff" {
			t.Errorf("Accept = %q, want %q", r.Header.Get("Accept"), "application/vnd.github.v3.diff")
		}
		if r.URL.Path != "/repos/owner/repo/pulls/42" {
			t.Errorf("Path = %q, want %q", r.URL.Path, "/repos/owner/repo/pulls/42")
		}
		w.Write([]byte("diff --git a/file.go b/file.go\n"))
	}))
	defer server.Close()

	c := &Client{
		token:   "test-token",
		apiURL:  server.URL,
		httpCli: server.Client(),
	}

	diff, err := c.GetPRDiff(context.Background(), "owner", "repo", 42)
	if err != nil {
		t.Fatalf("GetPRDiff error: %v", err)
	}
	if diff != "diff --git a/file.go b/file.go\n" {
		t.Errorf("diff = %q", diff)
	}
}

func TestGetPRDiff_404(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
		w.Write([]byte(`{"message":"Not Found"}`))
	}))
	defer server.Close()

	c := &Client{
		token:   "test-token",
		apiURL:  server.URL,
		httpCli: server.Client(),
	}

	_, err := c.GetPRDiff(context.Background(), "owner", "repo", 99)
	if err == nil {
		t.Fatal("Expected error for 404")
	}
	if got := err.Error(); got != "PR #99 not found in owner/repo" {
		t.Errorf("error = %q", got)
	}
}

func TestGetPRDiff_401(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(401)
		w.Write([]byte(`{"message":"Bad credentials"}`))
	}))
	defer server.Close()

	c := &Client{
		token:   "bad-token",
		apiURL:  server.URL,
		httpCli: server.Client(),
	}

	_, err := c.GetPRDiff(context.Background(), "owner", "repo", 1)
	if err == nil {
		t.Fatal("Expected error for 401")
	}
	if got := err.Error(); got != `authentication failed: {"message":"Bad credentials"}` {
		t.Errorf("error = %q", got)
	}
}

func TestGetPRDiff_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(502)
		w.Write([]byte("bad gateway"))
	}))
	defer server.Close()

	c := &Client{token: "t", apiURL: server.URL, httpCli: server.Client()}

	_, err := c.GetPRDiff(context.Background(), "owner", "repo", 1)
	if err == nil {
		t.Fatal("Expected error for 502")
	}
	if got := err.Error(); got != "GitHub API error (status 502): bad gateway" {
		t.Errorf("error = %q", got)
	}
}

func TestGetPRCommits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/repo/pulls/42/commits" {
			t.Errorf("Path = %q", r.URL.Path)
		}
		if r.Header.Get("Accept") != "application/vnd.github.v3+json" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		commits := make([]prCommit, 2)
		commits[0].Commit.Message = "T#12 add parser \n\nlonger body"
		commits[1].Commit.Message = "fix typo"
		json.NewEncoder(w).Encode(commits)
	}))
	defer server.Close()

	c := &Client{
		token:   "test-token",
		apiURL:  server.URL,
		httpCli: server.Client(),
	}

	subjects, err := c.GetPRCommits(context.Background(), "owner", "repo", 42)
	if err != nil {
		t.Fatalf("GetPRCommits error: %v", err)
	}
	if len(subjects) != 2 {
		t.Fatalf("subjects count = %d, want 2", len(subjects))
	}
	if subjects[0] != "T#12 add parser " || subjects[1] != "fix typo" {
		t.Errorf("subjects = %q", subjects)
	}
}

func TestGetPRCommits_404(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
	}))
	defer server.Close()

	c := &Client{token: "t", apiURL: server.URL, httpCli: server.Client()}

	_, err := c.GetPRCommits(context.Background(), "owner", "repo", 7)
	if err == nil || err.Error() != "PR #7 not found in owner/repo" {
		t.Errorf("error = %v", err)
	}
}

func TestNewClient_RequiresToken(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	if _, err := NewClient(); err == nil {
		t.Error("Expected error without GITHUB_TOKEN")
	}

	t.Setenv("GITHUB_TOKEN", "tok")
	t.Setenv("GITHUB_API_URL", "https://ghe.example.com/api/v3/")
	c, err := NewClient()
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	if c.apiURL != "https://ghe.example.com/api/v3" {
		t.Errorf("apiURL = %q", c.apiURL)
	}
}

func TestParseRemoteURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{
			name:      "HTTPS",
			url:       "https://github.com/dshills/brief.git",
			wantOwner: "dshills",
			wantRepo:  "brief",
		},
		{
			name:      "HTTPS no .git",
			url:       "https://github.com/dshills/brief",
			wantOwner: "dshills",
			wantRepo:  "brief",
		},
		{
			name:      "SSH",
			url:       "git@github.com:dshills/brief.git",
			wantOwner: "dshills",
			wantRepo:  "brief",
		},
		{
			name:      "SSH no .git",
			url:       "git@github.com:dshills/brief",
			wantOwner: "dshills",
			wantRepo:  "brief",
		},
		{
			name:    "invalid",
			url:     "not-a-url",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, err := ParseRemoteURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if owner != tt.wantOwner {
				t.Errorf("owner = %q, want %q", owner, tt.wantOwner)
			}
			if repo != tt.wantRepo {
				t.Errorf("repo = %q, want %q", repo, tt.wantRepo)
			}
		})
	}
}
