package tracker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

func TestTaskIDs(t *testing.T) {
	tests := []struct {
		name   string
		titles []string
		want   []int
	}{
		{"single", []string{"T#123 fix login"}, []int{123}},
		{"multiple in one title", []string{"T#1 T#2 tidy"}, []int{1, 2}},
		{"dedup across titles", []string{"T#7 a", "T#8 b", "T#7 again"}, []int{7, 8}},
		{"requires trailing space", []string{"T#99", "see T#42,", "T#5\tx"}, nil},
		{"embedded", []string{"refs XT#3 done"}, []int{3}},
		{"none", []string{"plain commit", ""}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TaskIDs(tt.titles)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TaskIDs(%q) = %v, want %v", tt.titles, got, tt.want)
			}
		})
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &Client{
		token:   "tp-token",
		apiURL:  server.URL + "/api/v1/",
		httpCli: server.Client(),
	}
}

func TestTasksAndStories(t *testing.T) {
	storyHits := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("access_token") != "tp-token" {
			t.Errorf("access_token = %q", r.URL.Query().Get("access_token"))
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		switch r.URL.Path {
		case "/api/v1/Tasks/10":
			w.Write([]byte(`{"Id":10,"Name":"Login form","Description":"<p>x</p>","UserStory":{"Id":500,"Name":"Auth"}}`))
		case "/api/v1/Tasks/11":
			w.Write([]byte(`{"Id":11,"Name":"Logout","UserStory":{"Id":500,"Name":"Auth"}}`))
		case "/api/v1/Tasks/12":
			w.Write([]byte(`{"Id":12,"Name":"Orphan","UserStory":null}`))
		case "/api/v1/UserStories/500":
			storyHits++
			w.Write([]byte(`{"Id":500,"Name":"Auth","Description":"Users can sign in"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(404)
		}
	})

	res, err := c.TasksAndStories(context.Background(), []string{"T#10 add form", "T#11 T#12 cleanup", "T#10 follow-up"})
	if err != nil {
		t.Fatalf("TasksAndStories error: %v", err)
	}
	if len(res.Tasks) != 3 {
		t.Fatalf("got %d tasks, want 3", len(res.Tasks))
	}
	if res.Tasks[0].Description != "<p>x</p>" || res.Tasks[1].Description != "" {
		t.Errorf("descriptions = %q, %q", res.Tasks[0].Description, res.Tasks[1].Description)
	}
	if res.Tasks[2].UserStory != nil {
		t.Errorf("task 12 should have no story")
	}
	if len(res.Stories) != 2 || res.Stories[0].Description != "Users can sign in" {
		t.Errorf("stories = %+v", res.Stories)
	}
	if storyHits != 1 {
		t.Errorf("story fetched %d times, want 1", storyHits)
	}
}

func TestTasksAndStories_NoIDs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected, got %s", r.URL.Path)
	})
	res, err := c.TasksAndStories(context.Background(), []string{"no markers"})
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if len(res.Tasks) != 0 || len(res.Stories) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestGetTask_Errors(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{404, "Tasks/1 not found"},
		{401, "authentication failed"},
		{500, "status 500"},
	}
	for _, tt := range tests {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			w.Write([]byte("nope"))
		})
		_, err := c.GetTask(context.Background(), 1)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("status %d: error = %v, want containing %q", tt.status, err, tt.want)
		}
	}
}

func TestResult_Clone(t *testing.T) {
	r := Result{
		Tasks:   []Task{{ID: 1, Name: "a", UserStory: &StoryRef{ID: 2, Name: "s"}}, {ID: 4, Name: "b"}},
		Stories: []UserStory{{ID: 2, Name: "s"}},
	}
	c := r.Clone()
	if !reflect.DeepEqual(r, c) {
		t.Fatalf("Clone() = %+v, want %+v", c, r)
	}
	c.Tasks[0].UserStory.Name = "x"
	c.Stories[0].Name = "x"
	if r.Tasks[0].UserStory.Name != "s" || r.Stories[0].Name != "s" {
		t.Errorf("Clone shares memory with the original: %+v", r)
	}
	if empty := (Result{}).Clone(); empty.Tasks != nil || empty.Stories != nil {
		t.Errorf("Clone of empty result = %+v", empty)
	}
}

func TestNewClient(t *testing.T) {
	t.Setenv(TokenEnv, "")
	if _, err := NewClient("https://tp.example/api/v1/"); err == nil {
		t.Error("expected error without token")
	}

	t.Setenv(TokenEnv, "abc")
	if _, err := NewClient(""); err == nil {
		t.Error("expected error without URL")
	}
	c, err := NewClient("https://tp.example/api/v1")
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	if c.apiURL != "https://tp.example/api/v1/" {
		t.Errorf("apiURL = %q", c.apiURL)
	}
}
