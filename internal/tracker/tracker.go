package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TokenEnv is the environment variable holding the Targetprocess access token.
const TokenEnv = "TARGETPROCESS_TOKEN"

// StoryRef is the abbreviated user story embedded in a task.
type StoryRef struct {
	ID   int    `json:"Id"`
	Name string `json:"Name"`
}

// Task is a Targetprocess task.
type Task struct {
	ID          int       `json:"Id"`
	Name        string    `json:"Name"`
	Description string    `json:"Description,omitempty"`
	UserStory   *StoryRef `json:"UserStory,omitempty"`
}

// UserStory is a Targetprocess user story.
type UserStory struct {
	ID          int    `json:"Id"`
	Name        string `json:"Name"`
	Description string `json:"Description,omitempty"`
}

// Result holds the tasks referenced by a set of titles and the stories they
// belong to. Stories has one entry per task that has a story, so a story
// shared by two tasks appears twice.
type Result struct {
	Tasks   []Task      `json:"tasks"`
	Stories []UserStory `json:"stories"`
}

// Clone returns a deep copy of r.
func (r Result) Clone() Result {
	out := Result{
		Tasks:   append([]Task(nil), r.Tasks...),
		Stories: append([]UserStory(nil), r.Stories...),
	}
	for i, t := range out.Tasks {
		if t.UserStory != nil {
			ref := *t.UserStory
			out.Tasks[i].UserStory = &ref
		}
	}
	return out
}

// Client provides access to the Targetprocess REST API.
type Client struct {
	token   string
	apiURL  string
	httpCli *http.Client
}

// NewClient creates a new Targetprocess client for the given API base URL,
// e.g. https://example.tpondemand.com/api/v1/. Requires TARGETPROCESS_TOKEN.
func NewClient(apiURL string) (*Client, error) {
	if apiURL == "" {
		return nil, fmt.Errorf("tracker URL is not configured")
	}
	token := os.Getenv(TokenEnv)
	if token == "" {
		return nil, fmt.Errorf("%s environment variable is not set", TokenEnv)
	}
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}
	return &Client{
		token:   token,
		apiURL:  apiURL,
		httpCli: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

var taskIDRe = regexp.MustCompile(`T#(\d+) `)

// TaskIDs extracts distinct task ids from titles in first-seen order.
func TaskIDs(titles []string) []int {
	seen := make(map[int]bool)
	var ids []int
	for _, title := range titles {
		for _, m := range taskIDRe.FindAllStringSubmatch(title, -1) {
			id, err := strconv.Atoi(m[1])
			if err != nil || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// GetTask fetches a task by id.
func (c *Client) GetTask(ctx context.Context, id int) (Task, error) {
	var t Task
	if err := c.getEntity(ctx, "Tasks/"+strconv.Itoa(id), &t); err != nil {
		return Task{}, err
	}
	return t, nil
}

// GetUserStory fetches a user story by id.
func (c *Client) GetUserStory(ctx context.Context, id int) (UserStory, error) {
	var s UserStory
	if err := c.getEntity(ctx, "UserStories/"+strconv.Itoa(id), &s); err != nil {
		return UserStory{}, err
	}
	return s, nil
}

// TasksAndStories resolves every task referenced in titles. The first failing
// request aborts the lookup.
func (c *Client) TasksAndStories(ctx context.Context, titles []string) (Result, error) {
	var res Result
	stories := make(map[int]UserStory)
	for _, id := range TaskIDs(titles) {
		task, err := c.GetTask(ctx, id)
		if err != nil {
			return Result{}, err
		}
		res.Tasks = append(res.Tasks, task)
		if task.UserStory == nil {
			continue
		}
		story, ok := stories[task.UserStory.ID]
		if !ok {
			story, err = c.GetUserStory(ctx, task.UserStory.ID)
			if err != nil {
				return Result{}, err
			}
			stories[task.UserStory.ID] = story
		}
		res.Stories = append(res.Stories, story)
	}
	return res, nil
}

func (c *Client) getEntity(ctx context.Context, path string, out any) error {
	u := c.apiURL + path + "?access_token=" + url.QueryEscape(c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == 404 {
		return fmt.Errorf("%s not found", path)
	}
	if resp.StatusCode == 401 || resp.StatusCode == 403 {
		return fmt.Errorf("authentication failed: %s", string(body))
	}
	if resp.StatusCode != 200 {
		return fmt.Errorf("Targetprocess API error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
