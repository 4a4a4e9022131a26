// internal/app/sync/microsoft/microsoft.go

// Package microsoft translates between Astren tasks and Microsoft To Do via
// the Graph API.
package microsoft

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	appsync "github.com/astren-app/astren/internal/app/sync"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

const graphBase = "https://graph.microsoft.com/v1.0"

// Adapter talks to Microsoft To Do on behalf of one OAuth token.
type Adapter struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// BaseURL overrides graphBase in tests.
	BaseURL string
}

// IsConfigured returns true if Microsoft OAuth is configured.
func (a *Adapter) IsConfigured() bool {
	return a.ClientID != "" && a.ClientSecret != ""
}

func (a *Adapter) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     a.ClientID,
		ClientSecret: a.ClientSecret,
		RedirectURL:  a.RedirectURL,
		Scopes: []string{
			"offline_access",
			"Tasks.ReadWrite",
		},
		Endpoint: microsoft.AzureADEndpoint("common"),
	}
}

// AuthURL returns the consent-screen URL carrying state.
func (a *Adapter) AuthURL(state string) string {
	return a.oauth2Config().AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange swaps the authorization code for a token.
func (a *Adapter) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return a.oauth2Config().Exchange(ctx, code)
}

func (a *Adapter) base() string {
	if a.BaseURL != "" {
		return a.BaseURL
	}
	return graphBase
}

func (a *Adapter) client(ctx context.Context, token *oauth2.Token) *http.Client {
	return a.oauth2Config().Client(ctx, token)
}

type todoList struct {
	ID                string `json:"id"`
	WellknownListName string `json:"wellknownListName"`
}

type todoTask struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
	Body   struct {
		Content string `json:"content"`
	} `json:"body"`
	DueDateTime *struct {
		DateTime string `json:"dateTime"`
		TimeZone string `json:"timeZone"`
	} `json:"dueDateTime"`
}

// defaultListID resolves the user's default To Do list.
func (a *Adapter) defaultListID(ctx context.Context, token *oauth2.Token) (string, error) {
	var out struct {
		Value []todoList `json:"value"`
	}
	if err := a.get(ctx, token, "/me/todo/lists", &out); err != nil {
		return "", err
	}
	for _, l := range out.Value {
		if l.WellknownListName == "defaultList" {
			return l.ID, nil
		}
	}
	if len(out.Value) > 0 {
		return out.Value[0].ID, nil
	}
	return "", fmt.Errorf("microsoft: no To Do lists for account")
}

// ListTasks fetches the tasks in the user's default list.
func (a *Adapter) ListTasks(ctx context.Context, token *oauth2.Token) ([]appsync.RemoteTask, error) {
	listID, err := a.defaultListID(ctx, token)
	if err != nil {
		return nil, err
	}

	var out struct {
		Value []todoTask `json:"value"`
	}
	if err := a.get(ctx, token, "/me/todo/lists/"+listID+"/tasks", &out); err != nil {
		return nil, err
	}

	tasks := make([]appsync.RemoteTask, 0, len(out.Value))
	for _, t := range out.Value {
		rt := appsync.RemoteTask{
			RemoteID:    t.ID,
			Titulo:      t.Title,
			Descripcion: t.Body.Content,
			Completada:  t.Status == "completed",
		}
		if t.DueDateTime != nil {
			if due, err := time.Parse("2006-01-02T15:04:05.0000000", t.DueDateTime.DateTime); err == nil {
				rt.VenceEn = &due
			}
		}
		tasks = append(tasks, rt)
	}
	return tasks, nil
}

// CreateTask pushes a task into the user's default list.
func (a *Adapter) CreateTask(ctx context.Context, token *oauth2.Token, task appsync.RemoteTask) error {
	listID, err := a.defaultListID(ctx, token)
	if err != nil {
		return err
	}

	payload := map[string]any{
		"title": task.Titulo,
	}
	if task.Descripcion != "" {
		payload["body"] = map[string]string{
			"content":     task.Descripcion,
			"contentType": "text",
		}
	}
	if task.VenceEn != nil {
		payload["dueDateTime"] = map[string]string{
			"dateTime": task.VenceEn.UTC().Format("2006-01-02T15:04:05"),
			"timeZone": "UTC",
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.base()+"/me/todo/lists/"+listID+"/tasks", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client(ctx, token).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("microsoft: create task: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (a *Adapter) get(ctx context.Context, token *oauth2.Token, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.base()+path, nil)
	if err != nil {
		return err
	}
	resp, err := a.client(ctx, token).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("microsoft: GET %s: unexpected status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
